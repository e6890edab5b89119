package models

import (
	"fmt"
	"time"
)

const (
	ProjectTypeVilla        = "villa"
	ProjectTypeCommercial   = "commercial"
	ProjectTypeMaintenance  = "maintenance"
	ProjectTypeGovernmental = "governmental"
	ProjectTypeFitout       = "fitout"

	VillaCategoryResidential = "residential"
	VillaCategoryCommercial  = "commercial"

	ContractTypeNew      = "new"
	ContractTypeContinue = "continue"

	ProjectStatusDraft = "draft"
)

var (
	ProjectTypes    = []string{ProjectTypeVilla, ProjectTypeCommercial, ProjectTypeMaintenance, ProjectTypeGovernmental, ProjectTypeFitout}
	VillaCategories = []string{VillaCategoryResidential, VillaCategoryCommercial}
	ContractTypes   = []string{ContractTypeNew, ContractTypeContinue}
)

type Project struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	DisplayName   string     `json:"display_name,omitempty"`
	ProjectType   string     `json:"project_type"`
	VillaCategory string     `json:"villa_category"`
	ContractType  string     `json:"contract_type"`
	InternalCode  string     `json:"internal_code"`
	Status        string     `json:"status"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// Label is the name shown in listings.
func (p *Project) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("Project #%d", p.ID)
}

// Draft copies the persisted classification fields into a wizard draft.
func (p *Project) Draft() WizardDraft {
	return WizardDraft{
		ProjectType:   p.ProjectType,
		VillaCategory: p.VillaCategory,
		ContractType:  p.ContractType,
		InternalCode:  p.InternalCode,
	}
}

// ProjectRef points at a project from an aggregated row.
type ProjectRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	InternalCode string `json:"internal_code,omitempty"`
}

func (p *Project) Ref() ProjectRef {
	return ProjectRef{ID: p.ID, Name: p.Label(), InternalCode: p.InternalCode}
}

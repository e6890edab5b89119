package services

import (
	"context"
	"fmt"

	"buildtrack/internal/models"

	"github.com/rs/zerolog"
)

type SetupInput struct {
	ProjectType   string `json:"project_type"`
	VillaCategory string `json:"villa_category"`
	ContractType  string `json:"contract_type"`
	InternalCode  string `json:"internal_code"`
}

type SetupService struct {
	backend Backend
	log     zerolog.Logger
}

func NewSetupService(b Backend, log zerolog.Logger) *SetupService {
	return &SetupService{backend: b, log: log}
}

// Prepare formats the internal code and validates it. The villa category is
// dropped for non-villa projects.
func (s *SetupService) Prepare(in SetupInput) (models.WizardDraft, error) {
	code := FormatInternalCode(in.InternalCode)
	if err := ValidateInternalCode(code); err != nil {
		return models.WizardDraft{}, err
	}
	d := models.WizardDraft{
		ProjectType:   in.ProjectType,
		VillaCategory: in.VillaCategory,
		ContractType:  in.ContractType,
		InternalCode:  code,
	}
	if d.ProjectType != models.ProjectTypeVilla {
		d.VillaCategory = ""
	}
	return d, nil
}

// Persist sends the classification fields of an existing project.
func (s *SetupService) Persist(ctx context.Context, projectID int64, d models.WizardDraft) (*models.Project, error) {
	p, err := s.backend.PatchProject(ctx, projectID, d.ClassificationPayload())
	if err != nil {
		return nil, fmt.Errorf("update project %d: %w", projectID, err)
	}
	s.log.Info().Int64("project_id", projectID).Str("project_type", d.ProjectType).Msg("project classification updated")
	return p, nil
}

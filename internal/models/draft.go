package models

import "time"

// WizardDraft holds the classification fields before a project exists.
type WizardDraft struct {
	ProjectType   string `json:"project_type"`
	VillaCategory string `json:"villa_category"`
	ContractType  string `json:"contract_type"`
	InternalCode  string `json:"internal_code"`
}

// ClassificationPayload is the body sent to the project resource. The villa
// category is only meaningful for villas and is nulled otherwise.
func (d WizardDraft) ClassificationPayload() map[string]any {
	payload := map[string]any{
		"project_type":   nullIfEmpty(d.ProjectType),
		"villa_category": nil,
		"contract_type":  nullIfEmpty(d.ContractType),
		"internal_code":  d.InternalCode,
	}
	if d.ProjectType == ProjectTypeVilla {
		payload["villa_category"] = nullIfEmpty(d.VillaCategory)
	}
	return payload
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// WizardSession is the persisted state of one wizard visit.
type WizardSession struct {
	ID        string      `json:"id"`
	ProjectID int64       `json:"project_id,omitempty"`
	Draft     WizardDraft `json:"draft"`
	Index     int         `json:"index"`
	StepHint  string      `json:"step_hint,omitempty"`
	ViewMode  bool        `json:"view_mode"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsNewProject reports whether the session has no backend project yet.
func (s *WizardSession) IsNewProject() bool {
	return s.ProjectID == 0
}

func (s *WizardSession) Touch() {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

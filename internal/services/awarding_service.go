package services

import (
	"context"
	"fmt"
	"strings"

	"buildtrack/internal/backend"
	"buildtrack/internal/models"
	"buildtrack/internal/wizard"

	"github.com/rs/zerolog"
)

type AwardingService struct {
	backend Backend
	bus     *wizard.Bus
	log     zerolog.Logger
}

func NewAwardingService(b Backend, bus *wizard.Bus, log zerolog.Logger) *AwardingService {
	return &AwardingService{backend: b, bus: bus, log: log}
}

func (s *AwardingService) BuildForm(a *models.Awarding) *backend.Form {
	f := backend.NewForm()
	if d := apiDateOf(a.AwardDate); d != "" {
		f.Set("award_date", d)
	}
	f.Set("consultant_registration_number", strings.TrimSpace(a.ConsultantRegistrationNumber))
	f.Set("project_number", strings.TrimSpace(a.ProjectNumber))
	f.Set("contractor_registration_number", strings.TrimSpace(a.ContractorRegistrationNumber))

	switch {
	case a.AwardingFileChange.IsReplace():
		f.AddFile("awarding_file", a.AwardingFileChange.Name, a.AwardingFileChange.Data)
	case a.AwardingFileChange.IsRemove():
		f.Set("awarding_file_delete", "true")
	}
	return f
}

// Save writes the awarding record. Awarding is the last step, so the wizard
// switches to view mode afterwards.
func (s *AwardingService) Save(ctx context.Context, projectID int64, a *models.Awarding, progress backend.ProgressFunc) (*models.Awarding, error) {
	saved, err := s.backend.SaveAwarding(ctx, projectID, a.ID, s.BuildForm(a), progress)
	if err != nil {
		return nil, fmt.Errorf("save awarding: %w", err)
	}
	s.bus.Publish(ctx, wizard.Event{Kind: wizard.EventAwardingUpdated, ProjectID: projectID})
	return saved, nil
}

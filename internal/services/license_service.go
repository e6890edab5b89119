package services

import (
	"context"
	"fmt"
	"strings"

	"buildtrack/internal/models"
	"buildtrack/internal/repositories"
	"buildtrack/internal/wizard"

	"github.com/rs/zerolog"
)

type LicenseService struct {
	backend     Backend
	suggestions repositories.SuggestionStore
	bus         *wizard.Bus
	log         zerolog.Logger
}

func NewLicenseService(b Backend, suggestions repositories.SuggestionStore, bus *wizard.Bus, log zerolog.Logger) *LicenseService {
	return &LicenseService{backend: b, suggestions: suggestions, bus: bus, log: log}
}

func (s *LicenseService) Save(ctx context.Context, projectID int64, lic *models.License) (*models.License, error) {
	payload, err := lic.Payload()
	if err != nil {
		return nil, fmt.Errorf("encode license: %w", err)
	}
	saved, err := s.backend.SaveLicense(ctx, projectID, lic.ID, payload)
	if err != nil {
		return nil, fmt.Errorf("save license: %w", err)
	}

	s.remember(ctx, lic)
	s.bus.Publish(ctx, wizard.Event{Kind: wizard.EventLicenseUpdated, ProjectID: projectID})
	return saved, nil
}

// remember records the people named on the license for autocomplete. It
// never fails the save.
func (s *LicenseService) remember(ctx context.Context, lic *models.License) {
	if s.suggestions == nil {
		return
	}
	candidates := []models.Suggestion{
		{Kind: models.SuggestionConsultant, Name: lic.DesignConsultantName, NameEn: lic.DesignConsultantNameEn, LicenseNo: lic.DesignConsultantLicenseNo},
		{Kind: models.SuggestionContractor, Name: lic.ContractorName, NameEn: lic.ContractorNameEn, LicenseNo: lic.ContractorLicenseNo, Phone: lic.ContractorPhone, Email: lic.ContractorEmail},
	}
	if !lic.ConsultantSame {
		candidates = append(candidates, models.Suggestion{
			Kind:      models.SuggestionConsultant,
			Name:      lic.SupervisionConsultantName,
			NameEn:    lic.SupervisionConsultantNameEn,
			LicenseNo: lic.SupervisionConsultantLicenseNo,
		})
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.NameEn) == "" {
			continue
		}
		if err := s.suggestions.Record(ctx, c); err != nil {
			s.log.Warn().Err(err).Str("kind", c.Kind).Msg("recording suggestion failed")
		}
	}
}

// RestoreOwners copies the owner snapshot held by the license back to the
// site plan.
func (s *LicenseService) RestoreOwners(ctx context.Context, projectID int64) (int, error) {
	lic, err := s.backend.GetLicense(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("load license: %w", err)
	}
	if lic == nil || lic.ID == 0 {
		return 0, reject(RuleProjectRequired, "project %d has no license to restore owners from", projectID)
	}
	n, err := s.backend.RestoreOwners(ctx, projectID, lic.ID)
	if err != nil {
		return 0, fmt.Errorf("restore owners: %w", err)
	}
	s.bus.Publish(ctx, wizard.Event{Kind: wizard.EventSitePlanOwnersUpdated, ProjectID: projectID})
	return n, nil
}

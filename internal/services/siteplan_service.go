package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"buildtrack/internal/backend"
	"buildtrack/internal/models"
	"buildtrack/internal/wizard"

	"github.com/rs/zerolog"
)

type SitePlanService struct {
	backend Backend
	bus     *wizard.Bus
	log     zerolog.Logger
}

func NewSitePlanService(b Backend, bus *wizard.Bus, log zerolog.Logger) *SitePlanService {
	return &SitePlanService{backend: b, bus: bus, log: log}
}

// Validate checks, in order, the date order, the share sum and the owner
// names.
func (s *SitePlanService) Validate(sp *models.SitePlan) error {
	application, hasApplication := parseDate(sp.ApplicationDate)
	allocation, hasAllocation := parseDate(sp.AllocationDate)
	if hasApplication && hasAllocation && !allocation.Before(application) {
		return reject(RuleDateOrder, "allocation date must be before application date")
	}

	var sum float64
	for _, o := range sp.Owners {
		sum += o.SharePercent.Float()
	}
	if math.Round(sum) != 100 {
		return reject(RuleShareSum, "owner shares must add up to 100%% (got %s)", strconv.FormatFloat(sum, 'f', -1, 64))
	}

	for i, o := range sp.Owners {
		if strings.TrimSpace(o.OwnerNameAr) == "" && strings.TrimSpace(o.OwnerNameEn) == "" {
			return rejectAt(RuleOwnerName, i+1, "owner %d needs an Arabic or English name", i+1)
		}
	}
	return nil
}

// BuildForm validates sp and flattens it into the multipart body the backend
// expects. Owners become indexed keys; files are only sent when replaced.
func (s *SitePlanService) BuildForm(sp *models.SitePlan) (*backend.Form, error) {
	if err := s.Validate(sp); err != nil {
		return nil, err
	}

	f := backend.NewForm()
	// Basic fields
	f.Set("municipality", sp.Municipality)
	f.Set("zone", sp.Zone)
	f.Set("sector", sp.Sector)
	f.Set("road_name", sp.RoadName)
	f.Set("plot_area_sqm", optionalNumber(sp.PlotAreaSqm))
	f.Set("plot_area_sqft", optionalNumber(sp.PlotAreaSqft))
	f.Set("land_no", sp.LandNo)
	f.Set("plot_address", sp.PlotAddress)
	f.Set("construction_status", sp.ConstructionStatus)
	f.Set("allocation_type", sp.AllocationType)
	f.Set("land_use", sp.LandUse)
	f.Set("base_district", sp.BaseDistrict)
	f.Set("overlay_district", sp.OverlayDistrict)
	f.Set("developer_name", sp.DeveloperName)
	f.Set("project_no", sp.ProjectNo)
	f.Set("project_name", sp.ProjectName)
	f.Set("source_of_project", sp.SourceOfProject)
	f.Set("notes", sp.Notes)
	f.Set("application_number", sp.ApplicationNumber)
	if d := apiDateOf(sp.ApplicationDate); d != "" {
		f.Set("application_date", d)
	}
	if d := apiDateOf(sp.AllocationDate); d != "" {
		f.Set("allocation_date", d)
	}

	// Owners
	for i, o := range sp.Owners {
		key := func(field string) string { return fmt.Sprintf("owners[%d][%s]", i, field) }
		nameAr := strings.TrimSpace(o.OwnerNameAr)
		if o.ID != 0 {
			f.Set(key("id"), strconv.FormatInt(o.ID, 10))
		}
		f.Set(key("owner_name_ar"), nameAr)
		f.Set(key("owner_name_en"), strings.TrimSpace(o.OwnerNameEn))
		f.Set(key("owner_name"), nameAr)
		f.Set(key("id_number"), o.IDNumber)
		f.Set(key("nationality"), o.Nationality)
		f.Set(key("phone"), o.Phone)
		f.Set(key("email"), o.Email)
		rightHold := o.RightHoldType
		if rightHold == "" {
			rightHold = models.DefaultRightHoldType
		}
		f.Set(key("right_hold_type"), rightHold)
		f.Set(key("share_percent"), o.SharePercent.String())
		f.Set(key("share_possession"), o.SharePossession)
		if d := apiDateOf(o.IDIssueDate); d != "" {
			f.Set(key("id_issue_date"), d)
		}
		if d := apiDateOf(o.IDExpiryDate); d != "" {
			f.Set(key("id_expiry_date"), d)
		}

		switch {
		case o.AttachmentChange.IsReplace():
			f.AddFile(key("id_attachment"), o.AttachmentChange.Name, o.AttachmentChange.Data)
		case o.AttachmentChange.IsRemove():
			f.Set(key("id_attachment_delete"), "true")
		}
	}

	switch {
	case sp.ApplicationFileChange.IsReplace():
		f.AddFile("application_file", sp.ApplicationFileChange.Name, sp.ApplicationFileChange.Data)
	case sp.ApplicationFileChange.IsRemove():
		f.Set("application_file_delete", "true")
	}
	return f, nil
}

// Save writes the site plan of an existing project. The saved record is read
// back so attachment URLs come from the backend.
func (s *SitePlanService) Save(ctx context.Context, projectID int64, sp *models.SitePlan, progress backend.ProgressFunc) (*models.SitePlan, error) {
	form, err := s.BuildForm(sp)
	if err != nil {
		return nil, err
	}

	saved, err := s.backend.SaveSitePlan(ctx, projectID, sp.ID, form, progress)
	if err != nil {
		return nil, fmt.Errorf("save site plan: %w", err)
	}

	fresh, err := s.backend.GetSitePlan(ctx, projectID)
	if err != nil || fresh == nil {
		s.log.Warn().Err(err).Int64("project_id", projectID).Msg("reloading site plan after save failed")
		fresh = saved
	}
	fresh.NormalizeOwners()

	s.bus.Publish(ctx, wizard.Event{Kind: wizard.EventSitePlanOwnersUpdated, ProjectID: projectID})
	return fresh, nil
}

func optionalNumber(n *models.Number) string {
	if n == nil {
		return ""
	}
	return n.String()
}

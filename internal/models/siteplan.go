package models

import "math"

// SqmToSqft is the plot area conversion factor.
const SqmToSqft = 10.7639

const DefaultRightHoldType = "Ownership"

type SitePlan struct {
	ID                 int64   `json:"id,omitempty"`
	Municipality       string  `json:"municipality"`
	Zone               string  `json:"zone"`
	Sector             string  `json:"sector"`
	RoadName           string  `json:"road_name"`
	PlotAreaSqm        *Number `json:"plot_area_sqm"`
	PlotAreaSqft       *Number `json:"plot_area_sqft"`
	LandNo             string  `json:"land_no"`
	PlotAddress        string  `json:"plot_address"`
	ConstructionStatus string  `json:"construction_status"`
	AllocationType     string  `json:"allocation_type"`
	LandUse            string  `json:"land_use"`
	BaseDistrict       string  `json:"base_district"`
	OverlayDistrict    string  `json:"overlay_district"`
	AllocationDate     string  `json:"allocation_date"`
	DeveloperName      string  `json:"developer_name"`
	ProjectNo          string  `json:"project_no"`
	ProjectName        string  `json:"project_name"`
	SourceOfProject    string  `json:"source_of_project"`
	Notes              string  `json:"notes"`
	ApplicationNumber  string  `json:"application_number"`
	ApplicationDate    string  `json:"application_date"`
	ApplicationFile    string  `json:"application_file,omitempty"`
	Owners             []Owner `json:"owners"`

	ApplicationFileChange FileField `json:"application_file_change,omitempty"`
}

type Owner struct {
	ID              int64  `json:"id,omitempty"`
	OwnerNameAr     string `json:"owner_name_ar"`
	OwnerNameEn     string `json:"owner_name_en"`
	OwnerName       string `json:"owner_name,omitempty"`
	Nationality     string `json:"nationality"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	IDNumber        string `json:"id_number"`
	IDIssueDate     string `json:"id_issue_date"`
	IDExpiryDate    string `json:"id_expiry_date"`
	IDAttachment    string `json:"id_attachment,omitempty"`
	RightHoldType   string `json:"right_hold_type"`
	SharePossession string `json:"share_possession"`
	SharePercent    Number `json:"share_percent"`

	AttachmentChange FileField `json:"attachment_change,omitempty"`
}

// DisplayName prefers the Arabic name, falling back to the legacy single
// name field and then English.
func (o *Owner) DisplayName() string {
	if o.OwnerNameAr != "" {
		return o.OwnerNameAr
	}
	if o.OwnerName != "" {
		return o.OwnerName
	}
	return o.OwnerNameEn
}

// SetAreaSqm updates the metric area and derives the imperial one.
func (s *SitePlan) SetAreaSqm(sqm float64) {
	s.PlotAreaSqm = NumberPtr(sqm)
	s.PlotAreaSqft = NumberPtr(round2(sqm * SqmToSqft))
}

// SetAreaSqft updates the imperial area and derives the metric one.
func (s *SitePlan) SetAreaSqft(sqft float64) {
	s.PlotAreaSqft = NumberPtr(sqft)
	s.PlotAreaSqm = NumberPtr(round2(sqft / SqmToSqft))
}

// NormalizeOwners fills defaults on owners loaded from the backend.
func (s *SitePlan) NormalizeOwners() {
	for i := range s.Owners {
		o := &s.Owners[i]
		if o.OwnerNameAr == "" {
			o.OwnerNameAr = o.OwnerName
		}
		if o.RightHoldType == "" {
			o.RightHoldType = DefaultRightHoldType
		}
		if o.IDAttachment != "" {
			o.AttachmentChange = KeepFile(o.IDAttachment)
		}
	}
	if len(s.Owners) == 1 {
		s.Owners[0].SharePercent = 100
	}
	if s.ApplicationFile != "" {
		s.ApplicationFileChange = KeepFile(s.ApplicationFile)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

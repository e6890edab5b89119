package models

import "encoding/json"

type License struct {
	ID                             int64           `json:"id,omitempty"`
	LicenseType                    string          `json:"license_type"`
	ProjectNo                      string          `json:"project_no"`
	ProjectName                    string          `json:"project_name"`
	LicenseProjectNo               string          `json:"license_project_no"`
	LicenseProjectName             string          `json:"license_project_name"`
	LicenseNo                      string          `json:"license_no"`
	IssueDate                      *string         `json:"issue_date"`
	LastIssueDate                  *string         `json:"last_issue_date"`
	ExpiryDate                     *string         `json:"expiry_date"`
	TechnicalDecisionRef           string          `json:"technical_decision_ref"`
	TechnicalDecisionDate          *string         `json:"technical_decision_date"`
	LicenseNotes                   string          `json:"license_notes"`
	BuildingLicenseFile            string          `json:"building_license_file,omitempty"`
	City                           string          `json:"city"`
	Zone                           string          `json:"zone"`
	Sector                         string          `json:"sector"`
	PlotNo                         string          `json:"plot_no"`
	PlotAddress                    string          `json:"plot_address"`
	PlotAreaSqm                    *Number         `json:"plot_area_sqm"`
	LandUse                        string          `json:"land_use"`
	LandUseSub                     string          `json:"land_use_sub"`
	LandPlanNo                     string          `json:"land_plan_no"`
	ConsultantSame                 bool            `json:"consultant_same"`
	DesignConsultantName           string          `json:"design_consultant_name"`
	DesignConsultantNameEn         string          `json:"design_consultant_name_en"`
	DesignConsultantLicenseNo      string          `json:"design_consultant_license_no"`
	SupervisionConsultantName      string          `json:"supervision_consultant_name"`
	SupervisionConsultantNameEn    string          `json:"supervision_consultant_name_en"`
	SupervisionConsultantLicenseNo string          `json:"supervision_consultant_license_no"`
	ContractorName                 string          `json:"contractor_name"`
	ContractorNameEn               string          `json:"contractor_name_en"`
	ContractorLicenseNo            string          `json:"contractor_license_no"`
	ContractorPhone                string          `json:"contractor_phone"`
	ContractorEmail                string          `json:"contractor_email"`
	Owners                         json.RawMessage `json:"owners,omitempty"`
}

// Payload returns the writable fields. The id and the stored file URL are
// server-owned.
func (l License) Payload() (map[string]any, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	delete(out, "id")
	delete(out, "building_license_file")
	if l.ConsultantSame {
		out["supervision_consultant_name"] = l.DesignConsultantName
		out["supervision_consultant_name_en"] = l.DesignConsultantNameEn
		out["supervision_consultant_license_no"] = l.DesignConsultantLicenseNo
	}
	return out, nil
}

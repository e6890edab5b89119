package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"buildtrack/internal/backend"
	"buildtrack/internal/models"
	"buildtrack/internal/repositories"
	"buildtrack/internal/wizard"

	"github.com/rs/zerolog"
)

// NextAction tells the client where the wizard goes after a save.
type NextAction string

const (
	ActionAdvance NextAction = "advance"
	ActionStay    NextAction = "stay"
	ActionView    NextAction = "view"
	ActionExit    NextAction = "exit"
)

const ProjectsListPath = "/projects"

type ContractPreview struct {
	TotalOwnerValue float64 `json:"total_owner_value"`
	ProjectEndDate  string  `json:"project_end_date,omitempty"`
}

type ContractService struct {
	backend     Backend
	suggestions repositories.SuggestionStore
	bus         *wizard.Bus
	log         zerolog.Logger
	now         func() time.Time
}

func NewContractService(b Backend, suggestions repositories.SuggestionStore, bus *wizard.Bus, log zerolog.Logger) *ContractService {
	return &ContractService{backend: b, suggestions: suggestions, bus: bus, log: log, now: time.Now}
}

// DerivedOwnerValue is the owner's share of the project value, never
// negative.
func DerivedOwnerValue(total, bank float64) float64 {
	return math.Max(0, total-bank)
}

// ProjectEndDate adds the duration and every extension to the start order
// date. Months are applied before days. ok is false when there is no start
// date or no duration.
func ProjectEndDate(start string, durationMonths float64, extensions []models.Extension) (string, bool) {
	d, ok := parseDate(start)
	if !ok || durationMonths <= 0 {
		return "", false
	}
	months := int(durationMonths)
	days := 0
	for _, ext := range extensions {
		months += int(ext.Months)
		days += int(ext.Days)
	}
	d = d.AddDate(0, months, 0)
	if days > 0 {
		d = d.AddDate(0, 0, days)
	}
	return d.Format(apiDate), true
}

// Preview recomputes both derived values without validating anything.
func (s *ContractService) Preview(c *models.Contract) ContractPreview {
	p := ContractPreview{TotalOwnerValue: DerivedOwnerValue(numberOr(c.TotalProjectValue, 0), numberOr(c.TotalBankValue, 0))}
	if end, ok := ProjectEndDate(c.StartOrderDate, c.ProjectDurationMonths.Float(), c.Extensions); ok {
		p.ProjectEndDate = end
	}
	return p
}

func (s *ContractService) Validate(c *models.Contract) error {
	if c.ContractClassification == "" {
		return reject(RuleClassification, "select a contract classification")
	}
	if c.ContractType == "" {
		return reject(RuleContractType, "select a contract type")
	}
	if strings.TrimSpace(c.ContractDate) == "" {
		return reject(RuleContractDate, "select a contract date")
	}

	total := numberOr(c.TotalProjectValue, math.NaN())
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return reject(RuleTotalValue, "total project value must be greater than zero")
	}

	if c.IsHousingLoan() {
		bank := numberOr(c.TotalBankValue, math.NaN())
		if math.IsNaN(bank) || math.IsInf(bank, 0) || bank < 0 {
			return reject(RuleBankValue, "bank value must be zero or more")
		}
		if c.TotalOwnerValue != nil {
			if math.Abs(c.TotalOwnerValue.Float()-DerivedOwnerValue(total, bank)) > models.OwnerValueTolerance {
				return reject(RuleOwnerValue, "owner value must equal total minus bank value")
			}
		}
	}

	if c.HasStartOrder {
		if !c.FileChange("start_order_file").Present() {
			return reject(RuleStartOrderFile, "a start order file is required")
		}
		if strings.TrimSpace(c.StartOrderDate) == "" {
			return reject(RuleStartOrderDate, "a start order date is required")
		}
	}
	return nil
}

// CleanExtensions drops entries with no reason, days or months. Whitespace
// does not count as a reason.
func CleanExtensions(exts []models.Extension) []models.Extension {
	out := make([]models.Extension, 0, len(exts))
	for _, e := range exts {
		reason := strings.TrimSpace(e.Reason)
		if reason == "" && e.Days <= 0 && e.Months <= 0 {
			continue
		}
		out = append(out, models.Extension{Reason: reason, Days: e.Days, Months: e.Months})
	}
	return out
}

// CleanAttachments drops entries with no type, file or notes.
func CleanAttachments(atts []models.Attachment) []models.Attachment {
	out := make([]models.Attachment, 0, len(atts))
	for _, a := range atts {
		hasType := strings.TrimSpace(a.Type) != ""
		hasFile := a.File.IsReplace() || strings.TrimSpace(a.FileURL) != ""
		hasNotes := strings.TrimSpace(a.Notes) != ""
		if hasType || hasFile || hasNotes {
			out = append(out, a)
		}
	}
	return out
}

type attachmentPayload struct {
	Type     string  `json:"type"`
	Date     *string `json:"date"`
	Notes    string  `json:"notes"`
	FileURL  *string `json:"file_url"`
	FileName *string `json:"file_name"`
}

func nilIfBlank(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// BuildForm validates c and flattens it. List fields travel as JSON strings
// next to the scalar fields.
func (s *ContractService) BuildForm(c *models.Contract) (*backend.Form, error) {
	if err := s.Validate(c); err != nil {
		return nil, err
	}

	total := c.TotalProjectValue.Float()
	bank, owner := 0.0, total
	if c.IsHousingLoan() {
		bank = c.TotalBankValue.Float()
		owner = DerivedOwnerValue(total, bank)
	}

	f := backend.NewForm()
	f.Set("contract_classification", c.ContractClassification)
	f.Set("contract_type", c.ContractType)
	f.Set("tender_no", c.TenderNo)
	if d := apiDateOf(c.ContractDate); d != "" {
		f.Set("contract_date", d)
	}
	owners := c.Owners
	if owners == nil {
		owners = []models.ContractOwner{}
	}
	if err := f.SetJSON("owners", owners); err != nil {
		return nil, err
	}
	f.Set("contractor_name", c.ContractorName)
	f.Set("contractor_name_en", c.ContractorNameEn)
	f.Set("contractor_trade_license", c.ContractorTradeLicense)
	f.Set("contractor_phone", c.ContractorPhone)
	f.Set("contractor_email", c.ContractorEmail)
	f.Set("total_project_value", formatFloat(total))
	f.Set("total_bank_value", formatFloat(bank))
	f.Set("total_owner_value", formatFloat(owner))
	f.Set("project_duration_months", c.ProjectDurationMonths.String())

	// Consultant fees
	setFees(f, "owner", c.OwnerFees)
	setFees(f, "bank", c.BankFees)

	f.Set("start_order_exists", strconv.FormatBool(c.HasStartOrder))
	if d := apiDateOf(c.StartOrderDate); d != "" {
		f.Set("start_order_date", d)
	}
	if d := apiDateOf(c.ProjectEndDate); d != "" {
		f.Set("project_end_date", d)
	}
	f.Set("general_notes", c.GeneralNotes)

	if err := f.SetJSON("extensions", CleanExtensions(c.Extensions)); err != nil {
		return nil, err
	}

	atts := CleanAttachments(c.Attachments)
	payload := make([]attachmentPayload, len(atts))
	for i, a := range atts {
		typ := strings.TrimSpace(a.Type)
		if typ == "" {
			typ = models.AttachmentTypeMainContract
		}
		var date *string
		if d := apiDateOf(a.Date); d != "" {
			date = &d
		}
		payload[i] = attachmentPayload{
			Type:     typ,
			Date:     date,
			Notes:    strings.TrimSpace(a.Notes),
			FileURL:  nilIfBlank(a.FileURL),
			FileName: nilIfBlank(a.FileName),
		}
	}
	if err := f.SetJSON("attachments", payload); err != nil {
		return nil, err
	}
	for i, a := range atts {
		if a.File.IsReplace() {
			f.AddFile(fmt.Sprintf("attachments[%d][file]", i), a.File.Name, a.File.Data)
		}
	}

	// Legacy single-file fields
	for _, field := range models.LegacyFileFields {
		change := c.FileChange(field)
		switch {
		case change.IsReplace():
			f.AddFile(field, change.Name, change.Data)
		case change.IsRemove():
			f.Set(field+"_delete", "true")
		}
	}
	return f, nil
}

func setFees(f *backend.Form, prefix string, fees models.ConsultantFees) {
	mode := fees.ExtraMode
	if mode == "" {
		mode = "percent"
	}
	f.Set(prefix+"_includes_consultant", strconv.FormatBool(fees.IncludesConsultant))
	f.Set(prefix+"_fee_design_percent", formatFloat(numberOr(fees.DesignPercent, 0)))
	f.Set(prefix+"_fee_supervision_percent", formatFloat(numberOr(fees.SupervisionPercent, 0)))
	f.Set(prefix+"_fee_extra_mode", mode)
	f.Set(prefix+"_fee_extra_value", formatFloat(numberOr(fees.ExtraValue, 0)))
}

// NextAfterSave decides where the wizard goes once a contract is saved.
// Only housing-loan contracts continue to awarding.
func NextAfterSave(c *models.Contract) NextAction {
	if c.IsHousingLoan() {
		return ActionAdvance
	}
	return ActionExit
}

// Save recomputes the end date, validates and writes the contract.
func (s *ContractService) Save(ctx context.Context, projectID int64, c *models.Contract, progress backend.ProgressFunc) (*models.Contract, error) {
	if end, ok := ProjectEndDate(c.StartOrderDate, c.ProjectDurationMonths.Float(), c.Extensions); ok {
		c.ProjectEndDate = end
	}
	form, err := s.BuildForm(c)
	if err != nil {
		return nil, err
	}

	saved, err := s.backend.SaveContract(ctx, projectID, c.ID, form, progress)
	if err != nil {
		return nil, fmt.Errorf("save contract: %w", err)
	}

	if s.suggestions != nil && strings.TrimSpace(c.ContractorName+c.ContractorNameEn) != "" {
		err := s.suggestions.Record(ctx, models.Suggestion{
			Kind:      models.SuggestionContractor,
			Name:      c.ContractorName,
			NameEn:    c.ContractorNameEn,
			LicenseNo: c.ContractorTradeLicense,
			Phone:     c.ContractorPhone,
			Email:     c.ContractorEmail,
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("recording contractor suggestion failed")
		}
	}

	s.bus.Publish(ctx, wizard.Event{Kind: wizard.EventContractUpdated, ProjectID: projectID})
	return saved, nil
}

// Draft returns the stored contract, or a new one, with missing contractor
// and owner details filled from the license and site plan.
func (s *ContractService) Draft(ctx context.Context, projectID int64) (*models.Contract, error) {
	c, err := s.backend.GetContract(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load contract: %w", err)
	}
	if c == nil {
		c = &models.Contract{ContractDate: s.now().Format(apiDate)}
	}

	if c.ContractorName == "" && c.ContractorNameEn == "" {
		lic, err := s.backend.GetLicense(ctx, projectID)
		if err != nil {
			s.log.Warn().Err(err).Int64("project_id", projectID).Msg("loading license for contract prefill failed")
		} else if lic != nil {
			c.ContractorName = lic.ContractorName
			c.ContractorNameEn = lic.ContractorNameEn
			c.ContractorTradeLicense = lic.ContractorLicenseNo
			c.ContractorPhone = lic.ContractorPhone
			c.ContractorEmail = lic.ContractorEmail
		}
	}

	if len(c.Owners) == 0 {
		sp, err := s.backend.GetSitePlan(ctx, projectID)
		if err != nil {
			s.log.Warn().Err(err).Int64("project_id", projectID).Msg("loading site plan for contract prefill failed")
		} else if sp != nil {
			for _, o := range sp.Owners {
				c.Owners = append(c.Owners, models.ContractOwner{
					OwnerNameAr:  o.DisplayName(),
					OwnerNameEn:  o.OwnerNameEn,
					IDNumber:     o.IDNumber,
					Nationality:  o.Nationality,
					SharePercent: o.SharePercent,
				})
			}
		}
	}
	return c, nil
}

func numberOr(n *models.Number, def float64) float64 {
	if n == nil {
		return def
	}
	return n.Float()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package models

import "encoding/json"

const (
	ClassificationHousingLoan    = "housing_loan_program"
	ClassificationPrivateFunding = "private_funding"

	AttachmentTypeMainContract = "main_contract"
)

// OwnerValueTolerance absorbs floating point drift when the client-held owner
// value is compared with total minus bank.
const OwnerValueTolerance = 0.01

type Contract struct {
	ID                     int64   `json:"id,omitempty"`
	ContractClassification string  `json:"contract_classification"`
	ContractType           string  `json:"contract_type"`
	TenderNo               string  `json:"tender_no"`
	ContractDate           string  `json:"contract_date"`
	ContractorName         string  `json:"contractor_name"`
	ContractorNameEn       string  `json:"contractor_name_en"`
	ContractorTradeLicense string  `json:"contractor_trade_license"`
	ContractorPhone        string  `json:"contractor_phone"`
	ContractorEmail        string  `json:"contractor_email"`
	TotalProjectValue      *Number `json:"total_project_value"`
	TotalBankValue         *Number `json:"total_bank_value"`
	TotalOwnerValue        *Number `json:"total_owner_value"`
	ProjectDurationMonths  Number  `json:"project_duration_months"`
	HasStartOrder          bool    `json:"start_order_exists"`
	StartOrderDate         string  `json:"start_order_date"`
	ProjectEndDate         string  `json:"project_end_date"`
	GeneralNotes           string  `json:"general_notes"`

	OwnerFees ConsultantFees `json:"-"`
	BankFees  ConsultantFees `json:"-"`

	Owners      []ContractOwner `json:"owners"`
	Extensions  []Extension     `json:"extensions"`
	Attachments []Attachment    `json:"attachments"`

	ContractFile            string `json:"contract_file,omitempty"`
	ContractAppendixFile    string `json:"contract_appendix_file,omitempty"`
	ContractExplanationFile string `json:"contract_explanation_file,omitempty"`
	StartOrderFile          string `json:"start_order_file,omitempty"`

	Files map[string]FileField `json:"file_changes,omitempty"`
}

// LegacyFileFields are the fixed single-file columns of a contract.
var LegacyFileFields = []string{"start_order_file", "contract_file", "contract_appendix_file", "contract_explanation_file"}

// StoredFile returns the URL the backend holds for a legacy file field.
func (c *Contract) StoredFile(field string) string {
	switch field {
	case "start_order_file":
		return c.StartOrderFile
	case "contract_file":
		return c.ContractFile
	case "contract_appendix_file":
		return c.ContractAppendixFile
	case "contract_explanation_file":
		return c.ContractExplanationFile
	}
	return ""
}

// FileChange returns the pending update for a legacy file field, defaulting
// to keeping whatever the backend holds.
func (c *Contract) FileChange(field string) FileField {
	if f, ok := c.Files[field]; ok && f.Action != "" {
		if f.Action == FileUnchanged && f.URL == "" {
			f.URL = c.StoredFile(field)
		}
		return f
	}
	return KeepFile(c.StoredFile(field))
}

func (c *Contract) IsHousingLoan() bool {
	return c.ContractClassification == ClassificationHousingLoan
}

func (c *Contract) IsPrivateFunding() bool {
	return c.ContractClassification == ClassificationPrivateFunding
}

// ConsultantFees is one of the two fee sub-sections (owner side, bank side).
type ConsultantFees struct {
	IncludesConsultant bool    `json:"includes_consultant"`
	DesignPercent      *Number `json:"design_percent"`
	SupervisionPercent *Number `json:"supervision_percent"`
	ExtraMode          string  `json:"extra_mode"`
	ExtraValue         *Number `json:"extra_value"`
}

func (f ConsultantFees) fields(prefix string) map[string]any {
	return map[string]any{
		prefix + "_includes_consultant":     f.IncludesConsultant,
		prefix + "_fee_design_percent":      f.DesignPercent,
		prefix + "_fee_supervision_percent": f.SupervisionPercent,
		prefix + "_fee_extra_mode":          f.ExtraMode,
		prefix + "_fee_extra_value":         f.ExtraValue,
	}
}

// FeeFields flattens both fee sections into backend column names.
func (c *Contract) FeeFields() map[string]any {
	out := c.OwnerFees.fields("owner")
	for k, v := range c.BankFees.fields("bank") {
		out[k] = v
	}
	return out
}

type contractJSON Contract

type contractFees struct {
	OwnerIncludesConsultant    bool    `json:"owner_includes_consultant"`
	OwnerFeeDesignPercent      *Number `json:"owner_fee_design_percent"`
	OwnerFeeSupervisionPercent *Number `json:"owner_fee_supervision_percent"`
	OwnerFeeExtraMode          string  `json:"owner_fee_extra_mode"`
	OwnerFeeExtraValue         *Number `json:"owner_fee_extra_value"`
	BankIncludesConsultant     bool    `json:"bank_includes_consultant"`
	BankFeeDesignPercent       *Number `json:"bank_fee_design_percent"`
	BankFeeSupervisionPercent  *Number `json:"bank_fee_supervision_percent"`
	BankFeeExtraMode           string  `json:"bank_fee_extra_mode"`
	BankFeeExtraValue          *Number `json:"bank_fee_extra_value"`
}

// UnmarshalJSON reads the flat backend representation, where fee columns are
// prefixed with owner_ and bank_.
func (c *Contract) UnmarshalJSON(b []byte) error {
	var base contractJSON
	if err := json.Unmarshal(b, &base); err != nil {
		return err
	}
	var fees contractFees
	if err := json.Unmarshal(b, &fees); err != nil {
		return err
	}
	*c = Contract(base)
	c.OwnerFees = ConsultantFees{
		IncludesConsultant: fees.OwnerIncludesConsultant,
		DesignPercent:      fees.OwnerFeeDesignPercent,
		SupervisionPercent: fees.OwnerFeeSupervisionPercent,
		ExtraMode:          fees.OwnerFeeExtraMode,
		ExtraValue:         fees.OwnerFeeExtraValue,
	}
	c.BankFees = ConsultantFees{
		IncludesConsultant: fees.BankIncludesConsultant,
		DesignPercent:      fees.BankFeeDesignPercent,
		SupervisionPercent: fees.BankFeeSupervisionPercent,
		ExtraMode:          fees.BankFeeExtraMode,
		ExtraValue:         fees.BankFeeExtraValue,
	}
	return nil
}

// MarshalJSON writes the same flat representation UnmarshalJSON reads.
func (c Contract) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(contractJSON(c))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	for k, v := range c.FeeFields() {
		out[k] = v
	}
	return json.Marshal(out)
}

// ContractOwner is the owner snapshot stored on the contract.
type ContractOwner struct {
	OwnerNameAr  string `json:"owner_name_ar"`
	OwnerNameEn  string `json:"owner_name_en"`
	IDNumber     string `json:"id_number"`
	Nationality  string `json:"nationality"`
	SharePercent Number `json:"share_percent"`
}

type Extension struct {
	Reason string `json:"reason"`
	Days   Number `json:"days"`
	Months Number `json:"months"`
}

type Attachment struct {
	Type     string    `json:"type"`
	Date     string    `json:"date"`
	Notes    string    `json:"notes"`
	FileURL  string    `json:"file_url"`
	FileName string    `json:"file_name"`
	File     FileField `json:"file,omitempty"`
}

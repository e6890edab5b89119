package models

import "time"

const (
	InvoiceTypeInitial = "initial"
	InvoiceTypeActual  = "actual"
)

// Invoice is either an initial (billed) or actual (paid) invoice of a project.
type Invoice struct {
	ID               int64       `json:"id"`
	Project          int64       `json:"project"`
	InvoiceNumber    string      `json:"invoice_number"`
	InvoiceDate      string      `json:"invoice_date"`
	Description      string      `json:"description"`
	Amount           Number      `json:"amount"`
	RemainingBalance *Number     `json:"remaining_balance,omitempty"`
	Items            []any       `json:"items"`
	CreatedAt        *time.Time  `json:"created_at,omitempty"`
	Type             string      `json:"type"`
	ProjectRef       *ProjectRef `json:"project_ref,omitempty"`
}

// Open reports whether an initial invoice still has a balance. Actual
// invoices are always paid.
func (i *Invoice) Open() bool {
	if i.Type != InvoiceTypeInitial {
		return true
	}
	if i.RemainingBalance != nil {
		return *i.RemainingBalance > 0
	}
	return i.Amount > 0
}

// Closed reports whether an initial invoice is fully settled.
func (i *Invoice) Closed() bool {
	return i.Type == InvoiceTypeInitial && !i.Open()
}

type Variation struct {
	ID          int64  `json:"id"`
	Project     int64  `json:"project"`
	Description string `json:"description"`
	Amount      Number `json:"amount"`
	ApprovedBy  string `json:"approved_by"`
	Date        string `json:"date,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
}

type Payment struct {
	ID          int64  `json:"id,omitempty"`
	Project     *int64 `json:"project"`
	Amount      Number `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	ProjectName string `json:"project_name,omitempty"`
}

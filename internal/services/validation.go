package services

import (
	"errors"
	"fmt"

	"buildtrack/internal/backend"
	"buildtrack/internal/metrics"
)

const (
	RuleInternalCode      = "internal_code_odd"
	RuleDateOrder         = "allocation_before_application"
	RuleShareSum          = "owners_share_sum_100"
	RuleOwnerName         = "owner_name_bilingual_required"
	RuleClassification    = "contract_classification_required"
	RuleContractType      = "contract_type_required"
	RuleContractDate      = "contract_date_required"
	RuleTotalValue        = "total_project_value_positive"
	RuleBankValue         = "bank_value_nonnegative"
	RuleOwnerValue        = "owner_value_autocalc"
	RuleStartOrderFile    = "start_order_file_required"
	RuleStartOrderDate    = "start_order_date_required"
	RuleInvalidDate       = "invalid_date"
	RuleInvoiceType       = "invoice_type_invalid"
	RulePaymentAmount     = "payment_amount_required"
	RuleSuggestionKind    = "suggestion_kind_invalid"
	RuleSuggestionName    = "suggestion_name_required"
	RuleConsultantRename  = "consultant_name_required"
	RuleProjectRequired   = "project_required"
	RuleSubFlowNotAllowed = "step_not_available"
)

// ValidationError is a save rejected before any backend call.
type ValidationError struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
	// Index is the 1-based position of the offending list entry, zero when
	// the rule is not about a list entry.
	Index int `json:"index,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func reject(rule, format string, args ...any) *ValidationError {
	metrics.IncValidationRejection(rule)
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func rejectAt(rule string, index int, format string, args ...any) *ValidationError {
	e := reject(rule, format, args...)
	e.Index = index
	return e
}

// AsValidation unwraps a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// errorMessage is the text shown for one failed item of a bulk operation.
func errorMessage(err error) string {
	if v, ok := AsValidation(err); ok {
		return v.Message
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
		return fmt.Sprintf("backend returned %d", apiErr.Status)
	}
	return "unexpected error"
}

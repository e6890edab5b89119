package models

import "time"

const (
	SuggestionConsultant = "consultant"
	SuggestionContractor = "contractor"
)

// Suggestion is a previously used consultant or contractor, offered for
// autocomplete. It is never authoritative.
type Suggestion struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	NameEn    string    `json:"name_en"`
	LicenseNo string    `json:"license_no"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidSuggestionKind(kind string) bool {
	return kind == SuggestionConsultant || kind == SuggestionContractor
}

// OwnerRow is one de-duplicated owner across projects.
type OwnerRow struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	NameAr      string       `json:"name_ar"`
	NameEn      string       `json:"name_en"`
	IDNumber    string       `json:"id_number"`
	Nationality string       `json:"nationality"`
	Phone       string       `json:"phone"`
	Email       string       `json:"email"`
	Projects    []ProjectRef `json:"projects"`
}

const (
	ConsultantRoleDesign      = "design"
	ConsultantRoleSupervision = "supervision"
)

// ConsultantRow is one de-duplicated consultant across project licenses.
type ConsultantRow struct {
	Key                string       `json:"key"`
	Name               string       `json:"name"`
	NameEn             string       `json:"name_en"`
	LicenseNo          string       `json:"license_no"`
	RegistrationNumber string       `json:"registration_number,omitempty"`
	Roles              []string     `json:"roles"`
	Projects           []ProjectRef `json:"projects"`
}

// Aggregate wraps a cross-project listing with how many projects could not
// be read.
type Aggregate[T any] struct {
	Items   []T `json:"items"`
	Skipped int `json:"skipped"`
	Total   int `json:"total_projects"`
}

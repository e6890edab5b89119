package models

type Awarding struct {
	ID                           int64  `json:"id,omitempty"`
	AwardDate                    string `json:"award_date"`
	ConsultantRegistrationNumber string `json:"consultant_registration_number"`
	ProjectNumber                string `json:"project_number"`
	ContractorRegistrationNumber string `json:"contractor_registration_number"`
	AwardingFile                 string `json:"awarding_file,omitempty"`

	AwardingFileChange FileField `json:"awarding_file_change,omitempty"`
}

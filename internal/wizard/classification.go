package wizard

import "buildtrack/internal/models"

// SetupHasAllSelections reports whether every classification field the setup
// step asks for is filled. The villa category only counts for villas.
func SetupHasAllSelections(d models.WizardDraft) bool {
	if d.ProjectType == "" || d.ContractType == "" {
		return false
	}
	return d.ProjectType != models.ProjectTypeVilla || d.VillaCategory != ""
}

// AllowSubFlow reports whether the classification unlocks the site plan,
// license, contract and awarding steps. Only new villa contracts do.
func AllowSubFlow(d models.WizardDraft) bool {
	if d.ProjectType != models.ProjectTypeVilla || d.ContractType != models.ContractTypeNew {
		return false
	}
	return d.VillaCategory == models.VillaCategoryResidential || d.VillaCategory == models.VillaCategoryCommercial
}

// AwardingApplies reports whether the awarding step belongs in the sequence
// for a contract classification. An unknown classification keeps it.
func AwardingApplies(contractClassification string) bool {
	return contractClassification == "" || contractClassification == models.ClassificationHousingLoan
}

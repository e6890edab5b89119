package wizard

import (
	"testing"

	"buildtrack/internal/models"

	"github.com/stretchr/testify/assert"
)

var villaNew = models.WizardDraft{
	ProjectType:   models.ProjectTypeVilla,
	VillaCategory: models.VillaCategoryResidential,
	ContractType:  models.ContractTypeNew,
}

func ids(steps []Step) []StepID {
	out := make([]StepID, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

func TestSetupHasAllSelections(t *testing.T) {
	tests := []struct {
		name  string
		draft models.WizardDraft
		want  bool
	}{
		{name: "empty", draft: models.WizardDraft{}, want: false},
		{name: "villa without category", draft: models.WizardDraft{ProjectType: "villa", ContractType: "new"}, want: false},
		{name: "villa complete", draft: villaNew, want: true},
		{name: "commercial needs no category", draft: models.WizardDraft{ProjectType: "commercial", ContractType: "continue"}, want: true},
		{name: "missing contract type", draft: models.WizardDraft{ProjectType: "fitout"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SetupHasAllSelections(tt.draft))
		})
	}
}

func TestAllowSubFlow(t *testing.T) {
	tests := []struct {
		name  string
		draft models.WizardDraft
		want  bool
	}{
		{name: "residential villa new", draft: villaNew, want: true},
		{name: "commercial villa new", draft: models.WizardDraft{ProjectType: "villa", VillaCategory: "commercial", ContractType: "new"}, want: true},
		{name: "villa continue", draft: models.WizardDraft{ProjectType: "villa", VillaCategory: "residential", ContractType: "continue"}, want: false},
		{name: "villa unknown category", draft: models.WizardDraft{ProjectType: "villa", VillaCategory: "mixed", ContractType: "new"}, want: false},
		{name: "governmental", draft: models.WizardDraft{ProjectType: "governmental", ContractType: "new"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowSubFlow(tt.draft))
		})
	}
}

func TestStepsAwardingPresence(t *testing.T) {
	tests := []struct {
		name           string
		classification string
		want           []StepID
	}{
		{
			name:           "classification unset keeps awarding",
			classification: "",
			want:           []StepID{StepSetup, StepSitePlan, StepLicense, StepContract, StepAwarding},
		},
		{
			name:           "housing loan keeps awarding",
			classification: models.ClassificationHousingLoan,
			want:           []StepID{StepSetup, StepSitePlan, StepLicense, StepContract, StepAwarding},
		},
		{
			name:           "private funding drops awarding",
			classification: models.ClassificationPrivateFunding,
			want:           []StepID{StepSetup, StepSitePlan, StepLicense, StepContract},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Steps(Facts{Draft: villaNew, ContractClassification: tt.classification})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestStepsWithoutSubFlow(t *testing.T) {
	got := Steps(Facts{Draft: models.WizardDraft{ProjectType: "commercial", ContractType: "new"}})
	assert.Equal(t, []StepID{StepSetup}, ids(got))
}

func TestHintIndex(t *testing.T) {
	full := Facts{Draft: villaNew}
	private := Facts{Draft: villaNew, ContractClassification: models.ClassificationPrivateFunding}

	assert.Equal(t, 2, HintIndex("license", full, Steps(full)))
	assert.Equal(t, 4, HintIndex("award", full, Steps(full)))
	assert.Equal(t, 3, HintIndex("award", private, Steps(private)))
	assert.Equal(t, 0, HintIndex("bogus", full, Steps(full)))

	none := Facts{Draft: models.WizardDraft{ProjectType: "fitout", ContractType: "new"}}
	assert.Equal(t, 0, HintIndex("contract", none, Steps(none)))
}

func TestCanEnter(t *testing.T) {
	assert.True(t, CanEnter(0, Facts{}))
	assert.False(t, CanEnter(1, Facts{}))
	assert.True(t, CanEnter(3, Facts{Draft: villaNew}))

	incomplete := models.WizardDraft{ProjectType: "villa", ContractType: "new"}
	assert.False(t, CanEnter(1, Facts{Draft: incomplete}))
}

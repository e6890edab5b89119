package services

import (
	"context"
	"testing"

	"buildtrack/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInternalCode(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"abc":     "",
		"12":      "M12",
		"M-1 2 3": "M123",
		"m7":      "M7",
		"M":       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatInternalCode(in), "input %q", in)
	}
}

func TestValidateInternalCode(t *testing.T) {
	assert.NoError(t, ValidateInternalCode(""))
	assert.NoError(t, ValidateInternalCode("M1"))
	assert.NoError(t, ValidateInternalCode("M1239"))

	err := ValidateInternalCode("M12")
	v, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, RuleInternalCode, v.Rule)
	assert.Error(t, ValidateInternalCode("X13"))
}

func TestSetupPrepare(t *testing.T) {
	svc := NewSetupService(newFakeBackend(), zerolog.Nop())

	d, err := svc.Prepare(SetupInput{
		ProjectType:   models.ProjectTypeCommercial,
		VillaCategory: models.VillaCategoryResidential,
		ContractType:  models.ContractTypeNew,
		InternalCode:  "45",
	})
	require.NoError(t, err)
	assert.Equal(t, "M45", d.InternalCode)
	assert.Empty(t, d.VillaCategory, "category only applies to villas")

	_, err = svc.Prepare(SetupInput{InternalCode: "44"})
	_, ok := AsValidation(err)
	assert.True(t, ok)
}

func TestSetupPersistNullsCategory(t *testing.T) {
	fb := newFakeBackend()
	fb.projects = []models.Project{{ID: 7, ProjectType: models.ProjectTypeVilla, VillaCategory: models.VillaCategoryResidential}}
	svc := NewSetupService(fb, zerolog.Nop())

	p, err := svc.Persist(context.Background(), 7, models.WizardDraft{ProjectType: models.ProjectTypeCommercial, InternalCode: "M1"})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectTypeCommercial, p.ProjectType)
	assert.Empty(t, p.VillaCategory)

	payload := fb.patched[7]
	require.Contains(t, payload, "villa_category")
	assert.Nil(t, payload["villa_category"])
	assert.Nil(t, payload["contract_type"])
	assert.Equal(t, "M1", payload["internal_code"])
}

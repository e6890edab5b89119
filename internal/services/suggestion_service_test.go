package services

import (
	"context"
	"testing"

	"buildtrack/internal/models"
	"buildtrack/internal/repositories"
	"buildtrack/internal/wizard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionServiceKinds(t *testing.T) {
	svc := NewSuggestionService(repositories.NewMemorySuggestionRepository())
	ctx := context.Background()

	_, err := svc.List(ctx, "owner", "", 0)
	v, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, RuleSuggestionKind, v.Rule)

	err = svc.Record(ctx, models.SuggestionContractor, models.Suggestion{})
	v, ok = AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, RuleSuggestionName, v.Rule)

	require.NoError(t, svc.Record(ctx, models.SuggestionContractor, models.Suggestion{Kind: "ignored", Name: "Gulf Builders"}))
	got, err := svc.List(ctx, models.SuggestionContractor, "", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.SuggestionContractor, got[0].Kind)
}

func TestLicenseSaveRemembersPeople(t *testing.T) {
	fb := newFakeBackend()
	store := repositories.NewMemorySuggestionRepository()
	svc := NewLicenseService(fb, store, wizard.NewBus(), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Save(ctx, 3, &models.License{
		ConsultantSame:            true,
		DesignConsultantName:      "Bright Design",
		DesignConsultantLicenseNo: "C-1",
		SupervisionConsultantName: "Stale",
		ContractorName:            "Gulf Builders",
	})
	require.NoError(t, err)

	payload := fb.payloads["license/3"]
	assert.Equal(t, "Bright Design", payload["supervision_consultant_name"], "consultant_same copies the design consultant")
	assert.NotContains(t, payload, "id")

	consultants, err := store.List(ctx, models.SuggestionConsultant, "", 0)
	require.NoError(t, err)
	require.Len(t, consultants, 1)
	assert.Equal(t, "C-1", consultants[0].LicenseNo)

	contractors, err := store.List(ctx, models.SuggestionContractor, "", 0)
	require.NoError(t, err)
	assert.Len(t, contractors, 1)
}

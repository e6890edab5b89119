package services

import (
	"context"
	"testing"

	"buildtrack/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkDeleteReportsPartialFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.setFailure("DeleteInvoice", 12, errUpstream)
	svc := NewInvoiceService(fb, 2, zerolog.Nop())

	items := []InvoiceRef{
		{ID: 11, Type: models.InvoiceTypeInitial, Project: 1},
		{ID: 12, Type: models.InvoiceTypeInitial, Project: 1},
		{ID: 13, Type: models.InvoiceTypeActual, Project: 2},
	}
	res := svc.BulkDelete(context.Background(), items)

	assert.Equal(t, "2 deleted, 1 failed", res.Summary)
	assert.Equal(t, []InvoiceRef{items[0], items[2]}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, int64(12), res.Failed[0].Item.ID)
	assert.ElementsMatch(t, []string{"invoice/initial/1/11", "invoice/actual/2/13"}, fb.deleted)
}

func TestBulkDeleteRejectsUnknownType(t *testing.T) {
	fb := newFakeBackend()
	svc := NewInvoiceService(fb, 2, zerolog.Nop())

	res := svc.BulkDelete(context.Background(), []InvoiceRef{{ID: 1, Type: "draft", Project: 1}})
	assert.Equal(t, "0 deleted, 1 failed", res.Summary)
	assert.Empty(t, fb.deleted)
}

func TestVariationDelete(t *testing.T) {
	fb := newFakeBackend()
	svc := NewVariationService(fb, zerolog.Nop())

	require.NoError(t, svc.Delete(context.Background(), 3, 9))
	assert.Equal(t, []string{"variation/3/9"}, fb.deleted)

	fb.setFailure("DeleteVariation", 10, errUpstream)
	assert.Error(t, svc.Delete(context.Background(), 3, 10))
}

func TestPaymentsListJoinsProjectNames(t *testing.T) {
	fb := newFakeBackend()
	twoProjects(fb)
	one, two := int64(1), int64(2)
	fb.payments = []models.Payment{
		{ID: 1, Project: &one, Amount: 1000, Date: "2024-01-05", Description: "first"},
		{ID: 2, Project: &two, Amount: 2000, Date: "2024-02-05", Description: "second"},
		{ID: 3, Amount: 300, Date: "2024-02-05", Description: "unassigned"},
	}
	svc := NewPaymentService(fb, zerolog.Nop())

	got, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, "Project B", got[1].ProjectName)
	assert.Equal(t, "Project A", got[2].ProjectName)

	filtered, err := svc.List(context.Background(), "project a")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(1), filtered[0].ID)
}

func TestPaymentsListSurvivesProjectFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.payments = []models.Payment{{ID: 1, Amount: 5}}
	fb.setFailure("ListProjects", 0, errUpstream)
	svc := NewPaymentService(fb, zerolog.Nop())

	got, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPaymentCreateValidates(t *testing.T) {
	fb := newFakeBackend()
	svc := NewPaymentService(fb, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, models.Payment{Amount: 0})
	v, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, RulePaymentAmount, v.Rule)

	_, err = svc.Create(ctx, models.Payment{Amount: 10, Date: "soon"})
	v, ok = AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, RuleInvalidDate, v.Rule)

	created, err := svc.Create(ctx, models.Payment{Amount: 10, Date: "05/02/2024", Description: " cash ", ProjectName: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-05", created.Date)
	assert.Equal(t, "cash", created.Description)
	assert.Empty(t, created.ProjectName)

	updated, err := svc.Update(ctx, created.ID, models.Payment{Amount: 20})
	require.NoError(t, err)
	assert.Equal(t, models.Number(20), updated.Amount)

	require.NoError(t, svc.Delete(ctx, created.ID))
}

package services

import (
	"context"

	"buildtrack/internal/backend"
	"buildtrack/internal/models"
)

// Backend is the part of the upstream API the services use. It is satisfied
// by *backend.Client.
type Backend interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, payload map[string]any) (*models.Project, error)
	PatchProject(ctx context.Context, id int64, payload map[string]any) (*models.Project, error)

	GetSitePlan(ctx context.Context, projectID int64) (*models.SitePlan, error)
	SaveSitePlan(ctx context.Context, projectID, recordID int64, form *backend.Form, progress backend.ProgressFunc) (*models.SitePlan, error)
	GetLicense(ctx context.Context, projectID int64) (*models.License, error)
	SaveLicense(ctx context.Context, projectID, recordID int64, payload map[string]any) (*models.License, error)
	PatchLicense(ctx context.Context, projectID, licenseID int64, patch map[string]any) error
	RestoreOwners(ctx context.Context, projectID, licenseID int64) (int, error)
	GetContract(ctx context.Context, projectID int64) (*models.Contract, error)
	SaveContract(ctx context.Context, projectID, recordID int64, form *backend.Form, progress backend.ProgressFunc) (*models.Contract, error)
	GetAwarding(ctx context.Context, projectID int64) (*models.Awarding, error)
	SaveAwarding(ctx context.Context, projectID, recordID int64, form *backend.Form, progress backend.ProgressFunc) (*models.Awarding, error)

	ListInvoices(ctx context.Context, projectID int64, kind string) ([]models.Invoice, error)
	DeleteInvoice(ctx context.Context, projectID int64, kind string, id int64) error
	ListVariations(ctx context.Context, projectID int64) ([]models.Variation, error)
	DeleteVariation(ctx context.Context, projectID, id int64) error
	ListPayments(ctx context.Context) ([]models.Payment, error)
	CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	UpdatePayment(ctx context.Context, id int64, p models.Payment) (*models.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
}

var _ Backend = (*backend.Client)(nil)

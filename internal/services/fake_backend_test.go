package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"buildtrack/internal/backend"
	"buildtrack/internal/models"
)

var (
	errNotFound = &backend.APIError{Method: http.MethodGet, Status: http.StatusNotFound}
	errUpstream = &backend.APIError{Method: http.MethodGet, Status: http.StatusBadGateway}
)

// fakeBackend is an in-memory Backend. failures maps an operation such as
// "GetLicense/3" to the error it returns.
type fakeBackend struct {
	mu sync.Mutex

	nextID     int64
	projects   []models.Project
	sitePlans  map[int64]*models.SitePlan
	licenses   map[int64]*models.License
	contracts  map[int64]*models.Contract
	awardings  map[int64]*models.Awarding
	invoices   map[string][]models.Invoice
	variations map[int64][]models.Variation
	payments   []models.Payment

	failures map[string]error

	created  []map[string]any
	patched  map[int64]map[string]any
	forms    map[string]*backend.Form
	payloads map[string]map[string]any
	deleted  []string
	restored int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:     100,
		sitePlans:  map[int64]*models.SitePlan{},
		licenses:   map[int64]*models.License{},
		contracts:  map[int64]*models.Contract{},
		awardings:  map[int64]*models.Awarding{},
		invoices:   map[string][]models.Invoice{},
		variations: map[int64][]models.Variation{},
		failures:   map[string]error{},
		patched:    map[int64]map[string]any{},
		forms:      map[string]*backend.Form{},
		payloads:   map[string]map[string]any{},
	}
}

func (f *fakeBackend) fail(op string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[fmt.Sprintf("%s/%d", op, id)]
}

func (f *fakeBackend) setFailure(op string, id int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[fmt.Sprintf("%s/%d", op, id)] = err
}

func (f *fakeBackend) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeBackend) form(key string) *backend.Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[key]
}

func (f *fakeBackend) ListProjects(context.Context) ([]models.Project, error) {
	if err := f.fail("ListProjects", 0); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Project(nil), f.projects...), nil
}

func (f *fakeBackend) GetProject(_ context.Context, id int64) (*models.Project, error) {
	if err := f.fail("GetProject", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.projects {
		if f.projects[i].ID == id {
			p := f.projects[i]
			return &p, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeBackend) CreateProject(_ context.Context, payload map[string]any) (*models.Project, error) {
	if err := f.fail("CreateProject", 0); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	p := models.Project{ID: f.id(), Status: models.ProjectStatusDraft}
	if v, ok := payload["project_type"].(string); ok {
		p.ProjectType = v
	}
	if v, ok := payload["villa_category"].(string); ok {
		p.VillaCategory = v
	}
	if v, ok := payload["contract_type"].(string); ok {
		p.ContractType = v
	}
	if v, ok := payload["internal_code"].(string); ok {
		p.InternalCode = v
	}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeBackend) PatchProject(_ context.Context, id int64, payload map[string]any) (*models.Project, error) {
	if err := f.fail("PatchProject", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patched[id] = payload
	for i := range f.projects {
		if f.projects[i].ID == id {
			if v, ok := payload["project_type"].(string); ok {
				f.projects[i].ProjectType = v
			}
			if v, ok := payload["contract_type"].(string); ok {
				f.projects[i].ContractType = v
			}
			if v, ok := payload["villa_category"].(string); ok {
				f.projects[i].VillaCategory = v
			} else {
				f.projects[i].VillaCategory = ""
			}
			p := f.projects[i]
			return &p, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeBackend) GetSitePlan(_ context.Context, projectID int64) (*models.SitePlan, error) {
	if err := f.fail("GetSitePlan", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if sp, ok := f.sitePlans[projectID]; ok {
		cp := *sp
		cp.Owners = append([]models.Owner(nil), sp.Owners...)
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeBackend) SaveSitePlan(_ context.Context, projectID, recordID int64, form *backend.Form, progress backend.ProgressFunc) (*models.SitePlan, error) {
	if err := f.fail("SaveSitePlan", projectID); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(0)
		progress(100)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms[fmt.Sprintf("siteplan/%d", projectID)] = form
	id := recordID
	if id == 0 {
		id = f.id()
	}
	sp := &models.SitePlan{ID: id}
	if prev, ok := f.sitePlans[projectID]; ok {
		sp.Owners = prev.Owners
	}
	f.sitePlans[projectID] = sp
	cp := *sp
	return &cp, nil
}

func (f *fakeBackend) GetLicense(_ context.Context, projectID int64) (*models.License, error) {
	if err := f.fail("GetLicense", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.licenses[projectID]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeBackend) SaveLicense(_ context.Context, projectID, recordID int64, payload map[string]any) (*models.License, error) {
	if err := f.fail("SaveLicense", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[fmt.Sprintf("license/%d", projectID)] = payload
	id := recordID
	if id == 0 {
		id = f.id()
	}
	l := &models.License{ID: id}
	f.licenses[projectID] = l
	cp := *l
	return &cp, nil
}

func (f *fakeBackend) PatchLicense(_ context.Context, projectID, licenseID int64, patch map[string]any) error {
	if err := f.fail("PatchLicense", projectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[fmt.Sprintf("license-patch/%d/%d", projectID, licenseID)] = patch
	return nil
}

func (f *fakeBackend) RestoreOwners(_ context.Context, projectID, licenseID int64) (int, error) {
	if err := f.fail("RestoreOwners", projectID); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored++
	return 2, nil
}

func (f *fakeBackend) GetContract(_ context.Context, projectID int64) (*models.Contract, error) {
	if err := f.fail("GetContract", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.contracts[projectID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeBackend) SaveContract(_ context.Context, projectID, recordID int64, form *backend.Form, _ backend.ProgressFunc) (*models.Contract, error) {
	if err := f.fail("SaveContract", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms[fmt.Sprintf("contract/%d", projectID)] = form
	id := recordID
	if id == 0 {
		id = f.id()
	}
	classification, _ := form.Value("contract_classification")
	c := &models.Contract{ID: id, ContractClassification: classification}
	f.contracts[projectID] = c
	cp := *c
	return &cp, nil
}

func (f *fakeBackend) GetAwarding(_ context.Context, projectID int64) (*models.Awarding, error) {
	if err := f.fail("GetAwarding", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.awardings[projectID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeBackend) SaveAwarding(_ context.Context, projectID, recordID int64, form *backend.Form, _ backend.ProgressFunc) (*models.Awarding, error) {
	if err := f.fail("SaveAwarding", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms[fmt.Sprintf("awarding/%d", projectID)] = form
	id := recordID
	if id == 0 {
		id = f.id()
	}
	a := &models.Awarding{ID: id}
	f.awardings[projectID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeBackend) ListInvoices(_ context.Context, projectID int64, kind string) ([]models.Invoice, error) {
	if err := f.fail("ListInvoices:"+kind, projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append([]models.Invoice(nil), f.invoices[fmt.Sprintf("%d/%s", projectID, kind)]...)
	for i := range list {
		list[i].Type = kind
		list[i].Project = projectID
	}
	return list, nil
}

func (f *fakeBackend) DeleteInvoice(_ context.Context, projectID int64, kind string, id int64) error {
	if err := f.fail("DeleteInvoice", id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fmt.Sprintf("invoice/%s/%d/%d", kind, projectID, id))
	return nil
}

func (f *fakeBackend) ListVariations(_ context.Context, projectID int64) ([]models.Variation, error) {
	if err := f.fail("ListVariations", projectID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Variation(nil), f.variations[projectID]...), nil
}

func (f *fakeBackend) DeleteVariation(_ context.Context, projectID, id int64) error {
	if err := f.fail("DeleteVariation", id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fmt.Sprintf("variation/%d/%d", projectID, id))
	return nil
}

func (f *fakeBackend) ListPayments(context.Context) ([]models.Payment, error) {
	if err := f.fail("ListPayments", 0); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Payment(nil), f.payments...), nil
}

func (f *fakeBackend) CreatePayment(_ context.Context, p models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	f.payments = append(f.payments, p)
	return &p, nil
}

func (f *fakeBackend) UpdatePayment(_ context.Context, id int64, p models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		if f.payments[i].ID == id {
			p.ID = id
			f.payments[i] = p
			return &p, nil
		}
	}
	return nil, &backend.APIError{Method: http.MethodPatch, Status: http.StatusNotFound}
}

func (f *fakeBackend) DeletePayment(_ context.Context, id int64) error {
	if err := f.fail("DeletePayment", id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fmt.Sprintf("payment/%d", id))
	return nil
}

var _ Backend = (*fakeBackend)(nil)

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"buildtrack/internal/models"
)

// decodeList accepts either a bare array or an object wrapping the array in
// results, items or data.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Results *[]T `json:"results"`
		Items   *[]T `json:"items"`
		Data    *[]T `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	switch {
	case wrapped.Results != nil:
		return *wrapped.Results, nil
	case wrapped.Items != nil:
		return *wrapped.Items, nil
	case wrapped.Data != nil:
		return *wrapped.Data, nil
	}
	return nil, nil
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return decodeList[T](raw)
}

// getFirst reads a list-wrapped single record. A missing record, whether an
// empty list or a 404, is reported as nil, nil.
func getFirst[T any](ctx context.Context, c *Client, path string) (*T, error) {
	list, err := getList[T](ctx, c, path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func projectPath(id int64) string {
	return fmt.Sprintf("projects/%d/", id)
}

func subPath(projectID int64, resource string) string {
	return fmt.Sprintf("projects/%d/%s/", projectID, resource)
}

func recordPath(projectID int64, resource string, id int64) string {
	return fmt.Sprintf("projects/%d/%s/%d/", projectID, resource, id)
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	return getList[models.Project](ctx, c, "projects/")
}

func (c *Client) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	if err := c.Get(ctx, projectPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProject(ctx context.Context, payload map[string]any) (*models.Project, error) {
	var p models.Project
	if err := c.PostJSON(ctx, "projects/", payload, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("backend created a project without an id")
	}
	return &p, nil
}

func (c *Client) PatchProject(ctx context.Context, id int64, payload map[string]any) (*models.Project, error) {
	var p models.Project
	if err := c.PatchJSON(ctx, projectPath(id), payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetSitePlan(ctx context.Context, projectID int64) (*models.SitePlan, error) {
	return getFirst[models.SitePlan](ctx, c, subPath(projectID, "siteplan"))
}

// SaveSitePlan creates the record when recordID is zero and updates it
// otherwise.
func (c *Client) SaveSitePlan(ctx context.Context, projectID, recordID int64, form *Form, progress ProgressFunc) (*models.SitePlan, error) {
	var out models.SitePlan
	if err := c.saveForm(ctx, projectID, "siteplan", recordID, form, progress, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLicense(ctx context.Context, projectID int64) (*models.License, error) {
	return getFirst[models.License](ctx, c, subPath(projectID, "license"))
}

func (c *Client) SaveLicense(ctx context.Context, projectID, recordID int64, payload map[string]any) (*models.License, error) {
	var out models.License
	var err error
	if recordID != 0 {
		err = c.PatchJSON(ctx, recordPath(projectID, "license", recordID), payload, &out)
	} else {
		err = c.PostJSON(ctx, subPath(projectID, "license"), payload, &out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchLicense applies a partial update to an existing license.
func (c *Client) PatchLicense(ctx context.Context, projectID, licenseID int64, patch map[string]any) error {
	return c.PatchJSON(ctx, recordPath(projectID, "license", licenseID), patch, nil)
}

func (c *Client) GetContract(ctx context.Context, projectID int64) (*models.Contract, error) {
	return getFirst[models.Contract](ctx, c, subPath(projectID, "contract"))
}

func (c *Client) SaveContract(ctx context.Context, projectID, recordID int64, form *Form, progress ProgressFunc) (*models.Contract, error) {
	var out models.Contract
	if err := c.saveForm(ctx, projectID, "contract", recordID, form, progress, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAwarding(ctx context.Context, projectID int64) (*models.Awarding, error) {
	return getFirst[models.Awarding](ctx, c, subPath(projectID, "awarding"))
}

func (c *Client) SaveAwarding(ctx context.Context, projectID, recordID int64, form *Form, progress ProgressFunc) (*models.Awarding, error) {
	var out models.Awarding
	if err := c.saveForm(ctx, projectID, "awarding", recordID, form, progress, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) saveForm(ctx context.Context, projectID int64, resource string, recordID int64, form *Form, progress ProgressFunc, out any) error {
	if recordID != 0 {
		return c.PatchForm(ctx, recordPath(projectID, resource, recordID), form, progress, out)
	}
	return c.PostForm(ctx, subPath(projectID, resource), form, progress, out)
}

func invoiceResource(kind string) (string, error) {
	switch kind {
	case models.InvoiceTypeInitial:
		return "initial-invoices", nil
	case models.InvoiceTypeActual:
		return "actual-invoices", nil
	}
	return "", fmt.Errorf("unknown invoice type %q", kind)
}

// ListInvoices returns the project's invoices of one kind, tagged with it.
func (c *Client) ListInvoices(ctx context.Context, projectID int64, kind string) ([]models.Invoice, error) {
	resource, err := invoiceResource(kind)
	if err != nil {
		return nil, err
	}
	list, err := getList[models.Invoice](ctx, c, subPath(projectID, resource))
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Type = kind
		if list[i].Project == 0 {
			list[i].Project = projectID
		}
	}
	return list, nil
}

func (c *Client) DeleteInvoice(ctx context.Context, projectID int64, kind string, id int64) error {
	resource, err := invoiceResource(kind)
	if err != nil {
		return err
	}
	return c.Delete(ctx, recordPath(projectID, resource, id))
}

func (c *Client) ListVariations(ctx context.Context, projectID int64) ([]models.Variation, error) {
	list, err := getList[models.Variation](ctx, c, subPath(projectID, "variations"))
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Project == 0 {
			list[i].Project = projectID
		}
	}
	return list, nil
}

func (c *Client) DeleteVariation(ctx context.Context, projectID, id int64) error {
	return c.Delete(ctx, recordPath(projectID, "variations", id))
}

func (c *Client) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return getList[models.Payment](ctx, c, "payments/")
}

func (c *Client) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	var out models.Payment
	if err := c.PostJSON(ctx, "payments/", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePayment(ctx context.Context, id int64, p models.Payment) (*models.Payment, error) {
	var out models.Payment
	if err := c.PatchJSON(ctx, fmt.Sprintf("payments/%d/", id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePayment(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("payments/%d/", id))
}

// RestoreOwners copies the owner snapshot held by the license back onto the
// site plan and returns how many owners were restored.
func (c *Client) RestoreOwners(ctx context.Context, projectID, licenseID int64) (int, error) {
	var out struct {
		RestoredCount int `json:"restored_count"`
	}
	if err := c.PostJSON(ctx, recordPath(projectID, "license", licenseID)+"restore-owners/", map[string]any{}, &out); err != nil {
		return 0, err
	}
	return out.RestoredCount, nil
}

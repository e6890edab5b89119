package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"buildtrack/internal/metrics"
	"buildtrack/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// InvoiceRef identifies one invoice across projects.
type InvoiceRef struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Project int64  `json:"project"`
}

type BulkFailure struct {
	Item  InvoiceRef `json:"item"`
	Error string     `json:"error"`
}

// BulkResult reports a bulk operation item by item. Succeeded items are
// gone from the backend regardless of their siblings.
type BulkResult struct {
	Succeeded []InvoiceRef  `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
	Summary   string        `json:"summary"`
}

type InvoiceService struct {
	backend     Backend
	concurrency int
	log         zerolog.Logger
}

func NewInvoiceService(b Backend, concurrency int, log zerolog.Logger) *InvoiceService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &InvoiceService{backend: b, concurrency: concurrency, log: log}
}

func validInvoiceType(kind string) bool {
	return kind == models.InvoiceTypeInitial || kind == models.InvoiceTypeActual
}

func (s *InvoiceService) Delete(ctx context.Context, ref InvoiceRef) error {
	if !validInvoiceType(ref.Type) {
		return reject(RuleInvoiceType, "unknown invoice type %q", ref.Type)
	}
	if err := s.backend.DeleteInvoice(ctx, ref.Project, ref.Type, ref.ID); err != nil {
		return fmt.Errorf("delete %s invoice %d: %w", ref.Type, ref.ID, err)
	}
	return nil
}

// BulkDelete deletes every item independently and reports "N deleted, M
// failed". It never fails as a whole.
func (s *InvoiceService) BulkDelete(ctx context.Context, items []InvoiceRef) BulkResult {
	errs := make([]error, len(items))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			errs[i] = s.Delete(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	res := BulkResult{Succeeded: []InvoiceRef{}, Failed: []BulkFailure{}}
	for i, item := range items {
		if errs[i] != nil {
			s.log.Warn().Err(errs[i]).Int64("invoice_id", item.ID).Str("type", item.Type).Msg("bulk delete item failed")
			res.Failed = append(res.Failed, BulkFailure{Item: item, Error: errorMessage(errs[i])})
			continue
		}
		res.Succeeded = append(res.Succeeded, item)
	}
	res.Summary = fmt.Sprintf("%d deleted, %d failed", len(res.Succeeded), len(res.Failed))
	metrics.AddBulkItems("invoice_delete", len(res.Succeeded), len(res.Failed))
	return res
}

type VariationService struct {
	backend Backend
	log     zerolog.Logger
}

func NewVariationService(b Backend, log zerolog.Logger) *VariationService {
	return &VariationService{backend: b, log: log}
}

func (s *VariationService) Delete(ctx context.Context, projectID, id int64) error {
	if err := s.backend.DeleteVariation(ctx, projectID, id); err != nil {
		return fmt.Errorf("delete variation %d: %w", id, err)
	}
	s.log.Info().Int64("project_id", projectID).Int64("variation_id", id).Msg("variation deleted")
	return nil
}

type PaymentService struct {
	backend Backend
	log     zerolog.Logger
}

func NewPaymentService(b Backend, log zerolog.Logger) *PaymentService {
	return &PaymentService{backend: b, log: log}
}

// List returns every payment with the project name joined in. A failed
// project listing leaves the names empty.
func (s *PaymentService) List(ctx context.Context, q string) ([]models.Payment, error) {
	var (
		payments []models.Payment
		projects []models.Project
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.backend.ListPayments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if projects, err = s.backend.ListProjects(gctx); err != nil {
			s.log.Warn().Err(err).Msg("listing projects for payment names failed")
			projects = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	names := make(map[int64]string, len(projects))
	for i := range projects {
		names[projects[i].ID] = projects[i].Label()
	}

	q = normalizeName(q)
	out := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		if p.Project != nil {
			p.ProjectName = names[*p.Project]
		}
		if q != "" && !containsFolded(q, p.ProjectName, p.Description, p.Amount.String()) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *PaymentService) validate(p models.Payment) error {
	if p.Amount <= 0 {
		return reject(RulePaymentAmount, "payment amount must be greater than zero")
	}
	if strings.TrimSpace(p.Date) != "" {
		if _, ok := parseDate(p.Date); !ok {
			return reject(RuleInvalidDate, "invalid payment date %q", p.Date)
		}
	}
	return nil
}

func normalizePayment(p models.Payment) models.Payment {
	p.Date = apiDateOf(p.Date)
	p.Description = strings.TrimSpace(p.Description)
	p.ProjectName = ""
	return p
}

func (s *PaymentService) Create(ctx context.Context, p models.Payment) (*models.Payment, error) {
	if err := s.validate(p); err != nil {
		return nil, err
	}
	created, err := s.backend.CreatePayment(ctx, normalizePayment(p))
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return created, nil
}

func (s *PaymentService) Update(ctx context.Context, id int64, p models.Payment) (*models.Payment, error) {
	if err := s.validate(p); err != nil {
		return nil, err
	}
	updated, err := s.backend.UpdatePayment(ctx, id, normalizePayment(p))
	if err != nil {
		return nil, fmt.Errorf("update payment %d: %w", id, err)
	}
	return updated, nil
}

func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	return nil
}

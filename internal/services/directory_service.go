package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"buildtrack/internal/backend"
	"buildtrack/internal/metrics"
	"buildtrack/internal/models"
	"buildtrack/internal/utils"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	viewOwners      = "owners"
	viewConsultants = "consultants"
	viewInvoices    = "invoices"
	viewVariations  = "variations"
)

// fold returns a fresh Caser; a Caser must not be shared between goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

// normalizeName is the case-insensitive identity used to merge rows.
func normalizeName(s string) string {
	return fold(strings.TrimSpace(s))
}

func containsFolded(q string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(fold(v), q) {
			return true
		}
	}
	return false
}

// DirectoryService builds the cross-project listings. The backend has no
// list endpoint for these, so every project's sub-resource is fetched and
// the results are merged.
type DirectoryService struct {
	backend     Backend
	concurrency int
	log         zerolog.Logger
}

func NewDirectoryService(b Backend, concurrency int, log zerolog.Logger) *DirectoryService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DirectoryService{backend: b, concurrency: concurrency, log: log}
}

// eachProject runs fetch for every project with bounded concurrency; i is
// the project's index, so results can be kept in project order. A missing
// sub-resource is skipped silently; any other failure skips the project and
// is counted.
func (s *DirectoryService) eachProject(ctx context.Context, view string, projects []models.Project, fetch func(ctx context.Context, i int, p *models.Project) error) int {
	var (
		mu      sync.Mutex
		skipped int
	)
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i := range projects {
		p := &projects[i]
		g.Go(func() error {
			err := fetch(ctx, i, p)
			switch {
			case err == nil:
			case errors.Is(err, backend.ErrNotFound):
				metrics.IncAggregationSkip(view, "absent")
			default:
				metrics.IncAggregationSkip(view, "error")
				s.log.Warn().Err(err).Str("view", view).Int64("project_id", p.ID).Msg("skipping project in aggregation")
				mu.Lock()
				skipped++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return skipped
}

func (s *DirectoryService) projects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.backend.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func addProject(refs []models.ProjectRef, p *models.Project) []models.ProjectRef {
	for _, r := range refs {
		if r.ID == p.ID {
			return refs
		}
	}
	return append(refs, p.Ref())
}

func sortProjectRefs(refs []models.ProjectRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
}

// OwnerKey merges owners by case-folded name and identity number.
func OwnerKey(name, idNumber string) string {
	return normalizeName(name) + "_" + strings.TrimSpace(idNumber)
}

// Owners lists the first owner of every site plan, the person the project
// is registered to. A merged row shows the details given on its lowest
// project id.
func (s *DirectoryService) Owners(ctx context.Context, q string) (models.Aggregate[models.OwnerRow], error) {
	projects, err := s.projects(ctx)
	if err != nil {
		return models.Aggregate[models.OwnerRow]{}, err
	}

	firsts := make([]*models.Owner, len(projects))
	skipped := s.eachProject(ctx, viewOwners, projects, func(ctx context.Context, i int, p *models.Project) error {
		sp, err := s.backend.GetSitePlan(ctx, p.ID)
		if err != nil {
			return err
		}
		if sp != nil && len(sp.Owners) > 0 {
			firsts[i] = &sp.Owners[0]
		}
		return nil
	})

	rows := make(map[string]*models.OwnerRow)
	for i, o := range firsts {
		if o == nil {
			continue
		}
		p := &projects[i]
		nameAr := strings.TrimSpace(o.OwnerNameAr)
		if nameAr == "" {
			nameAr = strings.TrimSpace(o.OwnerName)
		}
		nameEn := strings.TrimSpace(o.OwnerNameEn)
		name := nameAr
		if name == "" {
			name = nameEn
		}
		if name == "" {
			continue
		}

		key := OwnerKey(name, o.IDNumber)
		row, ok := rows[key]
		if !ok {
			row = &models.OwnerRow{
				Key:         key,
				Name:        name,
				NameAr:      nameAr,
				NameEn:      nameEn,
				IDNumber:    o.IDNumber,
				Nationality: o.Nationality,
				Phone:       o.Phone,
				Email:       o.Email,
			}
			rows[key] = row
		}
		row.Projects = addProject(row.Projects, p)
	}

	q = normalizeName(q)
	items := make([]models.OwnerRow, 0, len(rows))
	for _, row := range rows {
		if q != "" && !containsFolded(q, row.Name, row.NameAr, row.NameEn, row.Nationality, row.IDNumber) {
			continue
		}
		sortProjectRefs(row.Projects)
		items = append(items, *row)
	}

	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := ownerSortName(items[i]), ownerSortName(items[j])
		if c := col.CompareString(a, b); c != 0 {
			return c < 0
		}
		return items[i].Key < items[j].Key
	})

	return models.Aggregate[models.OwnerRow]{Items: items, Skipped: skipped, Total: len(projects)}, nil
}

func ownerSortName(r models.OwnerRow) string {
	if r.NameAr != "" {
		return r.NameAr
	}
	return r.Name
}

type consultantEntry struct {
	name      string
	nameEn    string
	licenseNo string
	role      string
}

type consultantHit struct {
	entries      []consultantEntry
	registration string
}

// Consultants lists the design and supervision consultants named on every
// license, with the consultant registration number taken from awarding.
// Projects are merged in id order: the lowest project names the row and
// fills its gaps, the highest one with a registration number sets it.
func (s *DirectoryService) Consultants(ctx context.Context, q string) (models.Aggregate[models.ConsultantRow], error) {
	projects, err := s.projects(ctx)
	if err != nil {
		return models.Aggregate[models.ConsultantRow]{}, err
	}

	hits := make([]*consultantHit, len(projects))
	skipped := s.eachProject(ctx, viewConsultants, projects, func(ctx context.Context, i int, p *models.Project) error {
		lic, err := s.backend.GetLicense(ctx, p.ID)
		if err != nil {
			return err
		}
		if lic == nil {
			return nil
		}

		var registration string
		if aw, err := s.backend.GetAwarding(ctx, p.ID); err != nil {
			s.log.Debug().Err(err).Int64("project_id", p.ID).Msg("awarding unavailable for consultant listing")
		} else if aw != nil {
			registration = strings.TrimSpace(aw.ConsultantRegistrationNumber)
		}

		entries := []consultantEntry{{
			name:      lic.DesignConsultantName,
			nameEn:    lic.DesignConsultantNameEn,
			licenseNo: lic.DesignConsultantLicenseNo,
			role:      models.ConsultantRoleDesign,
		}}
		supervision := consultantEntry{
			name:      lic.SupervisionConsultantName,
			nameEn:    lic.SupervisionConsultantNameEn,
			licenseNo: lic.SupervisionConsultantLicenseNo,
			role:      models.ConsultantRoleSupervision,
		}
		if lic.ConsultantSame {
			supervision.name = lic.DesignConsultantName
		}
		entries = append(entries, supervision)
		hits[i] = &consultantHit{entries: entries, registration: registration}
		return nil
	})

	rows := make(map[string]*models.ConsultantRow)
	for i, hit := range hits {
		if hit == nil {
			continue
		}
		p := &projects[i]
		for _, e := range hit.entries {
			key := normalizeName(e.name)
			if key == "" {
				continue
			}
			row, ok := rows[key]
			if !ok {
				row = &models.ConsultantRow{
					Key:       key,
					Name:      strings.TrimSpace(e.name),
					NameEn:    strings.TrimSpace(e.nameEn),
					LicenseNo: strings.TrimSpace(e.licenseNo),
				}
				rows[key] = row
			}
			if row.LicenseNo == "" {
				row.LicenseNo = strings.TrimSpace(e.licenseNo)
			}
			if row.NameEn == "" {
				row.NameEn = strings.TrimSpace(e.nameEn)
			}
			if hit.registration != "" {
				row.RegistrationNumber = hit.registration
			}
			if !utils.Contains(row.Roles, e.role) {
				row.Roles = append(row.Roles, e.role)
			}
			row.Projects = addProject(row.Projects, p)
		}
	}

	q = normalizeName(q)
	items := make([]models.ConsultantRow, 0, len(rows))
	for _, row := range rows {
		if q != "" && !containsFolded(q, row.Name, row.NameEn, row.LicenseNo) {
			continue
		}
		sort.Strings(row.Roles)
		sortProjectRefs(row.Projects)
		items = append(items, *row)
	}

	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		if c := col.CompareString(items[i].Name, items[j].Name); c != 0 {
			return c < 0
		}
		return items[i].Key < items[j].Key
	})

	return models.Aggregate[models.ConsultantRow]{Items: items, Skipped: skipped, Total: len(projects)}, nil
}

// InvoiceFilter narrows the invoice listing. Empty fields match everything.
type InvoiceFilter struct {
	Q         string
	ProjectID int64
	Type      string
	Status    string
	DateFrom  string
	DateTo    string
}

const (
	InvoiceStatusOpen   = "open"
	InvoiceStatusClosed = "closed"
)

func (f InvoiceFilter) match(inv *models.Invoice, from, to time.Time) bool {
	if q := normalizeName(f.Q); q != "" {
		projectName := ""
		if inv.ProjectRef != nil {
			projectName = inv.ProjectRef.Name
		}
		if !containsFolded(q, inv.InvoiceNumber, inv.Description, projectName) {
			return false
		}
	}
	if f.ProjectID != 0 && inv.Project != f.ProjectID {
		return false
	}
	if f.Type != "" && inv.Type != f.Type {
		return false
	}
	switch f.Status {
	case InvoiceStatusOpen:
		if !inv.Open() {
			return false
		}
	case InvoiceStatusClosed:
		if !inv.Closed() {
			return false
		}
	}
	if !from.IsZero() || !to.IsZero() {
		d, ok := parseDate(inv.InvoiceDate)
		if !ok {
			return false
		}
		if !from.IsZero() && d.Before(from) {
			return false
		}
		// date_to covers the whole day
		if !to.IsZero() && !d.Before(to.AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

func invoiceSortTime(inv *models.Invoice) time.Time {
	if d, ok := parseDate(inv.InvoiceDate); ok {
		return d
	}
	if inv.CreatedAt != nil {
		return *inv.CreatedAt
	}
	return time.Time{}
}

// Invoices lists initial and actual invoices of every project, newest
// first.
func (s *DirectoryService) Invoices(ctx context.Context, f InvoiceFilter) (models.Aggregate[models.Invoice], error) {
	var from, to time.Time
	if f.DateFrom != "" {
		d, ok := parseDate(f.DateFrom)
		if !ok {
			return models.Aggregate[models.Invoice]{}, reject(RuleInvalidDate, "invalid date_from %q", f.DateFrom)
		}
		from = d
	}
	if f.DateTo != "" {
		d, ok := parseDate(f.DateTo)
		if !ok {
			return models.Aggregate[models.Invoice]{}, reject(RuleInvalidDate, "invalid date_to %q", f.DateTo)
		}
		to = d
	}
	if f.Type != "" && f.Type != models.InvoiceTypeInitial && f.Type != models.InvoiceTypeActual {
		return models.Aggregate[models.Invoice]{}, reject(RuleInvoiceType, "unknown invoice type %q", f.Type)
	}

	projects, err := s.projects(ctx)
	if err != nil {
		return models.Aggregate[models.Invoice]{}, err
	}

	var (
		mu  sync.Mutex
		all []models.Invoice
	)
	skipped := s.eachProject(ctx, viewInvoices, projects, func(ctx context.Context, _ int, p *models.Project) error {
		var found []models.Invoice
		for _, kind := range []string{models.InvoiceTypeInitial, models.InvoiceTypeActual} {
			list, err := s.backend.ListInvoices(ctx, p.ID, kind)
			if errors.Is(err, backend.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			found = append(found, list...)
		}
		ref := p.Ref()
		for i := range found {
			found[i].ProjectRef = &ref
		}
		mu.Lock()
		all = append(all, found...)
		mu.Unlock()
		return nil
	})

	items := make([]models.Invoice, 0, len(all))
	for i := range all {
		if f.match(&all[i], from, to) {
			items = append(items, all[i])
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := invoiceSortTime(&items[i]), invoiceSortTime(&items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		if items[i].Type != items[j].Type {
			return items[i].Type < items[j].Type
		}
		return items[i].ID > items[j].ID
	})

	return models.Aggregate[models.Invoice]{Items: items, Skipped: skipped, Total: len(projects)}, nil
}

// Variations lists the change orders of every project.
func (s *DirectoryService) Variations(ctx context.Context, q string) (models.Aggregate[models.Variation], error) {
	projects, err := s.projects(ctx)
	if err != nil {
		return models.Aggregate[models.Variation]{}, err
	}

	var (
		mu  sync.Mutex
		all []models.Variation
	)
	skipped := s.eachProject(ctx, viewVariations, projects, func(ctx context.Context, _ int, p *models.Project) error {
		list, err := s.backend.ListVariations(ctx, p.ID)
		if err != nil {
			return err
		}
		for i := range list {
			list[i].Project = p.ID
			list[i].ProjectName = p.Label()
		}
		mu.Lock()
		all = append(all, list...)
		mu.Unlock()
		return nil
	})

	q = normalizeName(q)
	items := make([]models.Variation, 0, len(all))
	for _, v := range all {
		if q != "" && !containsFolded(q, v.ProjectName, v.Description, v.ApprovedBy, v.Amount.String()) {
			continue
		}
		items = append(items, v)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Project != items[j].Project {
			return items[i].Project < items[j].Project
		}
		return items[i].ID < items[j].ID
	})

	return models.Aggregate[models.Variation]{Items: items, Skipped: skipped, Total: len(projects)}, nil
}

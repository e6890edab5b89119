package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"buildtrack/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrStepLocked     = errors.New("step cannot be entered yet")
	ErrStepOutOfRange = errors.New("step index out of range")
	ErrClosed         = errors.New("wizard is closed")
)

// Loader reads the project and the sub-resources completion is derived from.
// Sub-resource getters return nil, nil when the record does not exist.
type Loader interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetSitePlan(ctx context.Context, projectID int64) (*models.SitePlan, error)
	GetLicense(ctx context.Context, projectID int64) (*models.License, error)
	GetContract(ctx context.Context, projectID int64) (*models.Contract, error)
	GetAwarding(ctx context.Context, projectID int64) (*models.Awarding, error)
}

// Records are the persisted sub-resources of the project being edited.
type Records struct {
	SitePlan *models.SitePlan `json:"siteplan"`
	License  *models.License  `json:"license"`
	Contract *models.Contract `json:"contract"`
	Awarding *models.Awarding `json:"awarding"`
}

type StepView struct {
	ID        StepID `json:"id"`
	Title     string `json:"title"`
	Index     int    `json:"index"`
	Enterable bool   `json:"enterable"`
	Completed bool   `json:"completed"`
	Active    bool   `json:"active"`
}

// State is a consistent snapshot of the controller.
type State struct {
	Session      models.WizardSession `json:"session"`
	Project      *models.Project      `json:"project,omitempty"`
	Records      Records              `json:"records"`
	Steps        []StepView           `json:"steps"`
	Current      StepID               `json:"current"`
	AllowSubFlow bool                 `json:"allow_sub_flow"`
	IsFirst      bool                 `json:"is_first"`
	IsLast       bool                 `json:"is_last"`
}

// Controller owns one wizard visit. It is safe for concurrent use.
type Controller struct {
	loader Loader
	bus    *Bus
	log    zerolog.Logger

	mu          sync.Mutex
	session     models.WizardSession
	project     *models.Project
	records     Records
	mounted     bool
	unsubscribe func()
}

func NewController(loader Loader, bus *Bus, log zerolog.Logger) *Controller {
	return &Controller{loader: loader, bus: bus, log: log}
}

// Mount starts a visit. With no project id the draft is reset and the first
// step is forced. With a project id the draft is seeded from the persisted
// classification; a failed fetch leaves the draft at its defaults.
func (c *Controller) Mount(ctx context.Context, session models.WizardSession) {
	c.mu.Lock()
	c.session = session
	c.mounted = true
	if session.IsNewProject() {
		c.session.Draft = models.WizardDraft{}
		c.session.Index = 0
		c.project = nil
		c.records = Records{}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.seed(ctx, session.ProjectID)
	c.subscribe(session.ProjectID)
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn().Err(err).Int64("project_id", session.ProjectID).Msg("wizard refresh failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.factsLocked()
	c.session.Index = HintIndex(session.StepHint, f, Steps(f))
}

// Resume restores a stored visit without resetting its draft or position.
func (c *Controller) Resume(ctx context.Context, session models.WizardSession) {
	c.mu.Lock()
	c.session = session
	c.mounted = true
	c.mu.Unlock()

	if session.IsNewProject() {
		return
	}
	c.seedProject(ctx, session.ProjectID)
	c.subscribe(session.ProjectID)
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn().Err(err).Int64("project_id", session.ProjectID).Msg("wizard refresh failed")
	}
}

func (c *Controller) seed(ctx context.Context, projectID int64) {
	p := c.seedProject(ctx, projectID)
	if p == nil {
		return
	}
	c.mu.Lock()
	c.session.Draft = p.Draft()
	c.mu.Unlock()
}

func (c *Controller) seedProject(ctx context.Context, projectID int64) *models.Project {
	p, err := c.loader.GetProject(ctx, projectID)
	if err != nil {
		c.log.Warn().Err(err).Int64("project_id", projectID).Msg("seeding wizard draft failed")
		return nil
	}
	c.mu.Lock()
	c.project = p
	c.mu.Unlock()
	return p
}

func (c *Controller) subscribe(projectID int64) {
	if c.bus == nil {
		return
	}
	unsub := c.bus.Subscribe(func(ctx context.Context, e Event) {
		if e.ProjectID != projectID {
			return
		}
		if err := c.Refresh(ctx); err != nil {
			c.log.Warn().Err(err).Str("event", string(e.Kind)).Int64("project_id", projectID).Msg("wizard refresh after event failed")
		}
	}, EventSitePlanOwnersUpdated, EventLicenseUpdated, EventContractUpdated, EventAwardingUpdated)

	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.unsubscribe = unsub
	c.mu.Unlock()
}

// Refresh re-reads every sub-resource concurrently. Results that arrive
// after Close are discarded. A record whose fetch fails keeps its previous
// value.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	projectID := c.session.ProjectID
	mounted := c.mounted
	c.mu.Unlock()
	if !mounted {
		return ErrClosed
	}
	if projectID == 0 {
		return nil
	}

	var (
		next Records
		errs [4]error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		next.SitePlan, errs[0] = c.loader.GetSitePlan(gctx, projectID)
		return nil
	})
	g.Go(func() error {
		next.License, errs[1] = c.loader.GetLicense(gctx, projectID)
		return nil
	})
	g.Go(func() error {
		next.Contract, errs[2] = c.loader.GetContract(gctx, projectID)
		return nil
	})
	g.Go(func() error {
		next.Awarding, errs[3] = c.loader.GetAwarding(gctx, projectID)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted || c.session.ProjectID != projectID {
		return nil
	}
	if errs[0] == nil {
		c.records.SitePlan = next.SitePlan
	}
	if errs[1] == nil {
		c.records.License = next.License
	}
	if errs[2] == nil {
		c.records.Contract = next.Contract
	}
	if errs[3] == nil {
		c.records.Awarding = next.Awarding
	}
	c.clampLocked()
	return errors.Join(errs[:]...)
}

// Close detaches the controller from the bus. In-flight refreshes finish but
// their results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounted = false
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Controller) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

func (c *Controller) factsLocked() Facts {
	f := Facts{Draft: c.session.Draft}
	if c.records.Contract != nil {
		f.ContractClassification = c.records.Contract.ContractClassification
	}
	return f
}

func (c *Controller) clampLocked() {
	n := len(Steps(c.factsLocked()))
	if c.session.Index >= n {
		c.session.Index = n - 1
	}
	if c.session.Index < 0 {
		c.session.Index = 0
	}
}

func (c *Controller) completedLocked(id StepID) bool {
	if id == StepSetup {
		return SetupHasAllSelections(c.session.Draft)
	}
	if c.session.IsNewProject() {
		return false
	}
	switch id {
	case StepSitePlan:
		return c.records.SitePlan != nil && c.records.SitePlan.ID != 0
	case StepLicense:
		return c.records.License != nil && c.records.License.ID != 0
	case StepContract:
		return c.records.Contract != nil && c.records.Contract.ID != 0
	case StepAwarding:
		return c.records.Awarding != nil && c.records.Awarding.ID != 0
	}
	return false
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	f := c.factsLocked()
	steps := Steps(f)
	views := make([]StepView, len(steps))
	for i, s := range steps {
		views[i] = StepView{
			ID:        s.ID,
			Title:     s.Title,
			Index:     i,
			Enterable: CanEnter(i, f),
			Completed: c.completedLocked(s.ID),
			Active:    i == c.session.Index,
		}
	}
	st := State{
		Session:      c.session,
		Project:      c.project,
		Records:      c.records,
		Steps:        views,
		AllowSubFlow: AllowSubFlow(f.Draft),
		IsFirst:      c.session.Index == 0,
		IsLast:       c.session.Index == len(steps)-1,
	}
	if c.session.Index < len(steps) {
		st.Current = steps[c.session.Index].ID
	}
	return st
}

func (c *Controller) Session() models.WizardSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) Steps() []StepView {
	return c.State().Steps
}

func (c *Controller) CanEnter(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CanEnter(i, c.factsLocked())
}

func (c *Controller) Goto(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.factsLocked()
	if i < 0 || i >= len(Steps(f)) {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, i)
	}
	if !CanEnter(i, f) {
		return fmt.Errorf("%w: %d", ErrStepLocked, i)
	}
	c.session.Index = i
	c.session.Touch()
	return nil
}

// GotoStep moves to the step with the given id when it is in the sequence.
func (c *Controller) GotoStep(id StepID) error {
	c.mu.Lock()
	i := indexOf(Steps(c.factsLocked()), id)
	c.mu.Unlock()
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrStepOutOfRange, id)
	}
	return c.Goto(i)
}

// Next advances one step. It is a no-op on the last step.
func (c *Controller) Next() error {
	c.mu.Lock()
	n := len(Steps(c.factsLocked()))
	i := c.session.Index
	c.mu.Unlock()
	if i >= n-1 {
		return nil
	}
	return c.Goto(i + 1)
}

// Prev steps back. It is a no-op on the first step.
func (c *Controller) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Index > 0 {
		c.session.Index--
		c.session.Touch()
	}
	return nil
}

// SetDraft replaces the classification draft, clamping the index if the
// step list shrank.
func (c *Controller) SetDraft(d models.WizardDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Draft = d
	c.clampLocked()
	c.session.Touch()
}

func (c *Controller) SetProject(p *models.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.project = p
}

func (c *Controller) SetViewMode(view bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.ViewMode = view
	c.session.Touch()
}

// Attach switches a new-project visit to the project that was just created
// and moves to the hinted step.
func (c *Controller) Attach(ctx context.Context, p *models.Project, hint StepID) {
	c.mu.Lock()
	c.session.ProjectID = p.ID
	c.session.StepHint = string(hint)
	c.project = p
	c.records = Records{}
	c.mu.Unlock()

	c.subscribe(p.ID)
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn().Err(err).Int64("project_id", p.ID).Msg("wizard refresh after create failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.factsLocked()
	c.session.Index = HintIndex(string(hint), f, Steps(f))
	c.session.Touch()
}

// Records returns the last fetched sub-resources.
func (c *Controller) Records() Records {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records
}

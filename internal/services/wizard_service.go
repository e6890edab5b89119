package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"buildtrack/internal/metrics"
	"buildtrack/internal/models"
	"buildtrack/internal/repositories"
	"buildtrack/internal/utils"
	"buildtrack/internal/wizard"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSessionNotFound = errors.New("wizard session not found")

// SaveResult is returned by every step save.
type SaveResult struct {
	State    wizard.State `json:"state"`
	Action   NextAction   `json:"action"`
	Redirect string       `json:"redirect,omitempty"`
	Record   any          `json:"record,omitempty"`
}

// liveSession is a controller held in process. storedAt is the last time the
// session was written to the store, which starts its TTL again.
type liveSession struct {
	ctrl     *wizard.Controller
	storedAt time.Time
}

// maxSweepInterval bounds how often idle controllers are looked for.
const maxSweepInterval = time.Minute

// WizardService drives wizard sessions. Each session has one live
// controller in this process; the session itself is persisted after every
// change so a restart resumes the draft and position. A controller whose
// session has outlived ttl without being stored is closed and dropped.
type WizardService struct {
	backend   Backend
	sessions  repositories.SessionStore
	bus       *wizard.Bus
	progress  *ProgressTracker
	setup     *SetupService
	sitePlans *SitePlanService
	creator   *ProjectCreator
	licenses  *LicenseService
	contracts *ContractService
	awardings *AwardingService
	log       zerolog.Logger
	ttl       time.Duration
	now       func() time.Time

	mu        sync.Mutex
	live      map[string]*liveSession
	lastSweep time.Time
}

// NewWizardService builds the service. ttl should match the session store's
// expiry; zero keeps live controllers until they are discarded.
func NewWizardService(b Backend, sessions repositories.SessionStore, suggestions repositories.SuggestionStore, bus *wizard.Bus, ttl time.Duration, log zerolog.Logger) *WizardService {
	return &WizardService{
		backend:   b,
		sessions:  sessions,
		bus:       bus,
		progress:  NewProgressTracker(),
		setup:     NewSetupService(b, log),
		sitePlans: NewSitePlanService(b, bus, log),
		creator:   NewProjectCreator(b, bus, log),
		licenses:  NewLicenseService(b, suggestions, bus, log),
		contracts: NewContractService(b, suggestions, bus, log),
		awardings: NewAwardingService(b, bus, log),
		log:       log,
		ttl:       ttl,
		now:       time.Now,
		live:      make(map[string]*liveSession),
	}
}

// Start opens a visit. A zero project id starts a new project.
func (s *WizardService) Start(ctx context.Context, projectID int64, hint string) (wizard.State, error) {
	session := models.WizardSession{ID: uuid.NewString(), ProjectID: projectID, StepHint: hint}
	session.Touch()

	ctrl := wizard.NewController(s.backend, s.bus, s.log)
	ctrl.Mount(ctx, session)

	s.mu.Lock()
	now := s.now()
	s.sweepLocked(now)
	s.live[session.ID] = &liveSession{ctrl: ctrl, storedAt: now}
	s.mu.Unlock()

	if err := s.sessions.Save(ctx, ctrl.Session()); err != nil {
		ctrl.Close()
		s.forget(session.ID)
		return wizard.State{}, fmt.Errorf("store session: %w", err)
	}
	s.log.Info().Str("session_id", session.ID).Int64("project_id", projectID).Msg("wizard session started")
	return ctrl.State(), nil
}

func (s *WizardService) controller(ctx context.Context, sessionID string) (*wizard.Controller, error) {
	if !utils.IsSessionID(sessionID) {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	now := s.now()
	s.sweepLocked(now)
	entry, ok := s.live[sessionID]
	if ok && s.expired(entry, now) {
		s.evictLocked(sessionID, entry)
		ok = false
	}
	s.mu.Unlock()
	if ok {
		return entry.ctrl, nil
	}

	stored, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if stored == nil {
		return nil, ErrSessionNotFound
	}

	ctrl := wizard.NewController(s.backend, s.bus, s.log)
	ctrl.Resume(ctx, *stored)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.live[sessionID]; ok {
		ctrl.Close()
		return existing.ctrl, nil
	}
	s.live[sessionID] = &liveSession{ctrl: ctrl, storedAt: now}
	return ctrl, nil
}

func (s *WizardService) expired(e *liveSession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.storedAt) > s.ttl
}

func (s *WizardService) evictLocked(sessionID string, e *liveSession) {
	e.ctrl.Close()
	delete(s.live, sessionID)
}

// sweepLocked drops every expired controller, at most once per interval.
func (s *WizardService) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	interval := min(s.ttl, maxSweepInterval)
	if now.Sub(s.lastSweep) < interval {
		return
	}
	s.lastSweep = now
	evicted := 0
	for id, e := range s.live {
		if s.expired(e, now) {
			s.evictLocked(id, e)
			s.progress.Clear(id)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Debug().Int("evicted", evicted).Int("live", len(s.live)).Msg("idle wizard sessions dropped")
	}
}

func (s *WizardService) forget(sessionID string) {
	s.mu.Lock()
	delete(s.live, sessionID)
	s.mu.Unlock()
}

func (s *WizardService) persist(ctx context.Context, ctrl *wizard.Controller) {
	session := ctrl.Session()
	if err := s.sessions.Save(ctx, session); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("storing wizard session failed")
		return
	}
	s.mu.Lock()
	if e, ok := s.live[session.ID]; ok && e.ctrl == ctrl {
		e.storedAt = s.now()
	}
	s.mu.Unlock()
}

// Get returns the session state with freshly fetched completion data.
func (s *WizardService) Get(ctx context.Context, sessionID string) (wizard.State, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return wizard.State{}, err
	}
	if err := ctrl.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("wizard refresh failed")
	}
	return ctrl.State(), nil
}

// Discard drops the draft and closes the controller.
func (s *WizardService) Discard(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if e, ok := s.live[sessionID]; ok {
		s.evictLocked(sessionID, e)
	}
	s.mu.Unlock()
	s.progress.Clear(sessionID)
	return s.sessions.Delete(ctx, sessionID)
}

func (s *WizardService) Goto(ctx context.Context, sessionID string, index int) (wizard.State, error) {
	return s.move(ctx, sessionID, func(c *wizard.Controller) error { return c.Goto(index) })
}

func (s *WizardService) Next(ctx context.Context, sessionID string) (wizard.State, error) {
	return s.move(ctx, sessionID, (*wizard.Controller).Next)
}

func (s *WizardService) Prev(ctx context.Context, sessionID string) (wizard.State, error) {
	return s.move(ctx, sessionID, (*wizard.Controller).Prev)
}

// SetViewMode toggles between the read-only and edit rendering of the
// current step.
func (s *WizardService) SetViewMode(ctx context.Context, sessionID string, view bool) (wizard.State, error) {
	return s.move(ctx, sessionID, func(c *wizard.Controller) error {
		c.SetViewMode(view)
		return nil
	})
}

func (s *WizardService) move(ctx context.Context, sessionID string, fn func(*wizard.Controller) error) (wizard.State, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return wizard.State{}, err
	}
	if err := fn(ctrl); err != nil {
		return ctrl.State(), err
	}
	s.persist(ctx, ctrl)
	return ctrl.State(), nil
}

// Progress reports the last upload percentage of the session.
func (s *WizardService) Progress(sessionID string) (int, bool) {
	return s.progress.Get(sessionID)
}

func (s *WizardService) finish(ctx context.Context, ctrl *wizard.Controller, step wizard.StepID, action NextAction, record any) SaveResult {
	switch action {
	case ActionAdvance:
		ctrl.SetViewMode(false)
		if err := ctrl.Next(); err != nil {
			s.log.Warn().Err(err).Str("step", string(step)).Msg("advancing after save failed")
		}
	case ActionView, ActionExit:
		ctrl.SetViewMode(true)
	}
	s.persist(ctx, ctrl)
	metrics.IncWizardSave(string(step), "saved")

	res := SaveResult{State: ctrl.State(), Action: action, Record: record}
	if action == ActionExit {
		res.Redirect = ProjectsListPath
	}
	return res
}

func (s *WizardService) failed(step wizard.StepID, err error) error {
	outcome := "failed"
	if _, ok := AsValidation(err); ok {
		outcome = "rejected"
	}
	metrics.IncWizardSave(string(step), outcome)
	return err
}

// existing returns the controller and project id for steps that need a
// persisted project.
func (s *WizardService) existing(ctx context.Context, sessionID string) (*wizard.Controller, int64, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	session := ctrl.Session()
	if session.IsNewProject() {
		return nil, 0, reject(RuleProjectRequired, "save the site plan first to create the project")
	}
	return ctrl, session.ProjectID, nil
}

// SaveSetup stores the classification. For a new project only the draft
// changes; an existing project is patched and its records reloaded.
func (s *WizardService) SaveSetup(ctx context.Context, sessionID string, in SetupInput) (SaveResult, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return SaveResult{}, err
	}
	draft, err := s.setup.Prepare(in)
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepSetup, err)
	}

	allowed := wizard.AllowSubFlow(draft) && wizard.SetupHasAllSelections(draft)
	session := ctrl.Session()
	if session.IsNewProject() {
		ctrl.SetDraft(draft)
		action := ActionStay
		if allowed {
			action = ActionAdvance
		}
		return s.finish(ctx, ctrl, wizard.StepSetup, action, nil), nil
	}

	project, err := s.setup.Persist(ctx, session.ProjectID, draft)
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepSetup, err)
	}
	ctrl.SetDraft(draft)
	if project != nil {
		ctrl.SetProject(project)
	}
	if err := ctrl.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Int64("project_id", session.ProjectID).Msg("wizard refresh after setup failed")
	}

	action := ActionView
	if allowed {
		action = ActionAdvance
	}
	return s.finish(ctx, ctrl, wizard.StepSetup, action, project), nil
}

// SaveSitePlan saves the site plan. In a new-project visit this is the
// moment the project is created: the draft is posted first and the site
// plan is replayed against the new id.
func (s *WizardService) SaveSitePlan(ctx context.Context, sessionID string, sp *models.SitePlan) (SaveResult, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return SaveResult{}, err
	}
	progress := s.progress.Func(sessionID)
	session := ctrl.Session()

	if !session.IsNewProject() {
		if held := ctrl.Records().SitePlan; sp.ID == 0 && held != nil {
			sp.ID = held.ID
		}
		saved, err := s.sitePlans.Save(ctx, session.ProjectID, sp, progress)
		if err != nil {
			return SaveResult{}, s.failed(wizard.StepSitePlan, err)
		}
		return s.finish(ctx, ctrl, wizard.StepSitePlan, ActionView, saved), nil
	}

	if !wizard.AllowSubFlow(session.Draft) || !wizard.SetupHasAllSelections(session.Draft) {
		return SaveResult{}, s.failed(wizard.StepSitePlan, reject(RuleSubFlowNotAllowed, "complete the project setup before the site plan"))
	}
	form, err := s.sitePlans.BuildForm(sp)
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepSitePlan, err)
	}

	project, err := s.creator.Create(ctx, session.Draft, form, progress)
	if err != nil {
		if project != nil {
			// The project exists; a retry saves the site plan against it.
			ctrl.Attach(ctx, project, wizard.StepSitePlan)
			s.persist(ctx, ctrl)
		}
		return SaveResult{}, s.failed(wizard.StepSitePlan, err)
	}

	ctrl.Attach(ctx, project, wizard.StepLicense)
	ctrl.SetViewMode(false)
	s.persist(ctx, ctrl)
	metrics.IncWizardSave(string(wizard.StepSitePlan), "saved")
	return SaveResult{State: ctrl.State(), Action: ActionAdvance, Record: project}, nil
}

// SaveLicense writes the license. A body without an id updates the record
// the visit already holds, as do the other step saves.
func (s *WizardService) SaveLicense(ctx context.Context, sessionID string, lic *models.License) (SaveResult, error) {
	ctrl, projectID, err := s.existing(ctx, sessionID)
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepLicense, err)
	}
	if held := ctrl.Records().License; lic.ID == 0 && held != nil {
		lic.ID = held.ID
	}
	saved, err := s.licenses.Save(ctx, projectID, lic)
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepLicense, err)
	}
	return s.finish(ctx, ctrl, wizard.StepLicense, ActionAdvance, saved), nil
}

// RestoreOwners copies the license owner snapshot back onto the site plan.
func (s *WizardService) RestoreOwners(ctx context.Context, sessionID string) (int, wizard.State, error) {
	ctrl, projectID, err := s.existing(ctx, sessionID)
	if err != nil {
		return 0, wizard.State{}, err
	}
	n, err := s.licenses.RestoreOwners(ctx, projectID)
	if err != nil {
		return 0, ctrl.State(), err
	}
	return n, ctrl.State(), nil
}

// ContractDraft returns the contract to edit, prefilled where empty.
func (s *WizardService) ContractDraft(ctx context.Context, sessionID string) (*models.Contract, error) {
	_, projectID, err := s.existing(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.contracts.Draft(ctx, projectID)
}

func (s *WizardService) PreviewContract(c *models.Contract) ContractPreview {
	return s.contracts.Preview(c)
}

// SaveContract writes the contract. Housing-loan contracts continue to the
// awarding step; any other classification ends the wizard.
func (s *WizardService) SaveContract(ctx context.Context, sessionID string, c *models.Contract) (SaveResult, error) {
	ctrl, projectID, err := s.existing(ctx, sessionID)
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepContract, err)
	}
	if held := ctrl.Records().Contract; c.ID == 0 && held != nil {
		c.ID = held.ID
	}
	saved, err := s.contracts.Save(ctx, projectID, c, s.progress.Func(sessionID))
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepContract, err)
	}
	return s.finish(ctx, ctrl, wizard.StepContract, NextAfterSave(c), saved), nil
}

func (s *WizardService) SaveAwarding(ctx context.Context, sessionID string, a *models.Awarding) (SaveResult, error) {
	ctrl, projectID, err := s.existing(ctx, sessionID)
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepAwarding, err)
	}
	if held := ctrl.Records().Awarding; a.ID == 0 && held != nil {
		a.ID = held.ID
	}
	saved, err := s.awardings.Save(ctx, projectID, a, s.progress.Func(sessionID))
	if err != nil {
		return SaveResult{}, s.failed(wizard.StepAwarding, err)
	}
	return s.finish(ctx, ctrl, wizard.StepAwarding, ActionView, saved), nil
}

// Close detaches every live controller.
func (s *WizardService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.live {
		s.evictLocked(id, e)
	}
}

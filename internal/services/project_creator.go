package services

import (
	"context"
	"fmt"

	"buildtrack/internal/backend"
	"buildtrack/internal/models"
	"buildtrack/internal/wizard"

	"github.com/rs/zerolog"
)

// ProjectCreator creates a project from a wizard draft and replays the
// deferred site plan against it.
type ProjectCreator struct {
	backend Backend
	bus     *wizard.Bus
	log     zerolog.Logger
}

func NewProjectCreator(b Backend, bus *wizard.Bus, log zerolog.Logger) *ProjectCreator {
	return &ProjectCreator{backend: b, bus: bus, log: log}
}

func createPayload(d models.WizardDraft) map[string]any {
	payload := d.ClassificationPayload()
	payload["status"] = models.ProjectStatusDraft
	if d.InternalCode == "" {
		payload["internal_code"] = nil
	}
	return payload
}

// Create posts the project and then the site plan form. If the site plan is
// rejected the project stays as a draft and the error is returned.
func (c *ProjectCreator) Create(ctx context.Context, d models.WizardDraft, sitePlan *backend.Form, progress backend.ProgressFunc) (*models.Project, error) {
	project, err := c.backend.CreateProject(ctx, createPayload(d))
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	c.log.Info().Int64("project_id", project.ID).Msg("project created from wizard draft")

	if sitePlan != nil {
		if _, err := c.backend.SaveSitePlan(ctx, project.ID, 0, sitePlan, progress); err != nil {
			c.log.Error().Err(err).Int64("project_id", project.ID).Msg("site plan replay failed after project creation")
			return project, fmt.Errorf("save site plan for project %d: %w", project.ID, err)
		}
		c.bus.Publish(ctx, wizard.Event{Kind: wizard.EventSitePlanOwnersUpdated, ProjectID: project.ID})
	}
	return project, nil
}

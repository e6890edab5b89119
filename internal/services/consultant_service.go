package services

import (
	"context"
	"fmt"
	"strings"

	"buildtrack/internal/metrics"
	"buildtrack/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ConsultantEdit renames a consultant on every license that names it.
type ConsultantEdit struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	NewName    string  `json:"new_name"`
	NewNameEn  string  `json:"new_name_en"`
	LicenseNo  string  `json:"license_no"`
	ProjectIDs []int64 `json:"project_ids"`
}

type PropagateFailure struct {
	ProjectID int64  `json:"project_id"`
	Error     string `json:"error"`
}

type PropagateResult struct {
	Updated   []int64            `json:"updated"`
	Failed    []PropagateFailure `json:"failed"`
	Unchanged []int64            `json:"unchanged"`
	Summary   string             `json:"summary"`
}

type ConsultantService struct {
	backend     Backend
	concurrency int
	log         zerolog.Logger
}

func NewConsultantService(b Backend, concurrency int, log zerolog.Logger) *ConsultantService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ConsultantService{backend: b, concurrency: concurrency, log: log}
}

func setConsultant(patch map[string]any, prefix string, e ConsultantEdit) {
	patch[prefix+"_consultant_name"] = strings.TrimSpace(e.NewName)
	if v := strings.TrimSpace(e.NewNameEn); v != "" {
		patch[prefix+"_consultant_name_en"] = v
	}
	if v := strings.TrimSpace(e.LicenseNo); v != "" {
		patch[prefix+"_consultant_license_no"] = v
	}
}

// ConsultantPatch returns the license fields to change, empty when the
// license does not name the consultant in the edited role. A license with
// consultant_same set gets both roles renamed.
func ConsultantPatch(lic *models.License, e ConsultantEdit) map[string]any {
	name := normalizeName(e.Name)
	patch := map[string]any{}
	design := normalizeName(lic.DesignConsultantName) == name
	supervision := normalizeName(lic.SupervisionConsultantName) == name

	if e.Type == models.ConsultantRoleDesign && design {
		setConsultant(patch, "design", e)
	}
	if e.Type == models.ConsultantRoleSupervision && supervision {
		setConsultant(patch, "supervision", e)
	}
	if lic.ConsultantSame && design {
		setConsultant(patch, "design", e)
		setConsultant(patch, "supervision", e)
	}
	return patch
}

// Propagate patches each referencing project's license independently and
// reports "N updated, M failed".
func (s *ConsultantService) Propagate(ctx context.Context, e ConsultantEdit) (PropagateResult, error) {
	if strings.TrimSpace(e.NewName) == "" || strings.TrimSpace(e.Name) == "" {
		return PropagateResult{}, reject(RuleConsultantRename, "consultant name is required")
	}
	if e.Type != models.ConsultantRoleDesign && e.Type != models.ConsultantRoleSupervision {
		return PropagateResult{}, reject(RuleConsultantRename, "consultant type must be design or supervision")
	}

	const (
		outcomeUnchanged = iota
		outcomeUpdated
		outcomeFailed
	)
	outcomes := make([]int, len(e.ProjectIDs))
	errs := make([]error, len(e.ProjectIDs))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, projectID := range e.ProjectIDs {
		g.Go(func() error {
			lic, err := s.backend.GetLicense(ctx, projectID)
			if err != nil {
				outcomes[i], errs[i] = outcomeFailed, err
				return nil
			}
			if lic == nil {
				return nil
			}
			patch := ConsultantPatch(lic, e)
			if len(patch) == 0 {
				return nil
			}
			if err := s.backend.PatchLicense(ctx, projectID, lic.ID, patch); err != nil {
				outcomes[i], errs[i] = outcomeFailed, err
				return nil
			}
			outcomes[i] = outcomeUpdated
			return nil
		})
	}
	_ = g.Wait()

	res := PropagateResult{Updated: []int64{}, Failed: []PropagateFailure{}, Unchanged: []int64{}}
	for i, projectID := range e.ProjectIDs {
		switch outcomes[i] {
		case outcomeUpdated:
			res.Updated = append(res.Updated, projectID)
		case outcomeFailed:
			s.log.Warn().Err(errs[i]).Int64("project_id", projectID).Msg("consultant update failed")
			res.Failed = append(res.Failed, PropagateFailure{ProjectID: projectID, Error: errorMessage(errs[i])})
		default:
			res.Unchanged = append(res.Unchanged, projectID)
		}
	}
	res.Summary = fmt.Sprintf("%d updated, %d failed", len(res.Updated), len(res.Failed))
	metrics.AddBulkItems("consultant_propagate", len(res.Updated), len(res.Failed))
	return res, nil
}

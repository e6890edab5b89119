// Package wizard sequences the project wizard: which steps exist, which can
// be entered and which are complete.
package wizard

import "buildtrack/internal/models"

type StepID string

const (
	StepSetup    StepID = "setup"
	StepSitePlan StepID = "siteplan"
	StepLicense  StepID = "license"
	StepContract StepID = "contract"
	StepAwarding StepID = "award"
)

// stepIndex maps a navigation hint to its position in the full sequence.
var stepIndex = map[StepID]int{
	StepSetup:    0,
	StepSitePlan: 1,
	StepLicense:  2,
	StepContract: 3,
	StepAwarding: 4,
}

// Facts are the inputs step membership is computed from.
type Facts struct {
	Draft                  models.WizardDraft
	ContractClassification string
}

type descriptor struct {
	id      StepID
	title   string
	visible func(Facts) bool
}

func always(Facts) bool { return true }

func subFlow(f Facts) bool { return AllowSubFlow(f.Draft) }

var sequence = []descriptor{
	{id: StepSetup, title: "Project setup", visible: always},
	{id: StepSitePlan, title: "Site plan", visible: subFlow},
	{id: StepLicense, title: "Building license", visible: subFlow},
	{id: StepContract, title: "Contract", visible: subFlow},
	{id: StepAwarding, title: "Awarding", visible: func(f Facts) bool {
		return subFlow(f) && AwardingApplies(f.ContractClassification)
	}},
}

type Step struct {
	ID    StepID `json:"id"`
	Title string `json:"title"`
}

// Steps returns the ordered step list for the given facts.
func Steps(f Facts) []Step {
	steps := make([]Step, 0, len(sequence))
	for _, d := range sequence {
		if d.visible(f) {
			steps = append(steps, Step{ID: d.id, Title: d.title})
		}
	}
	return steps
}

// HintIndex resolves a navigation hint such as "license" to an index into
// steps. Without the sub-flow only setup is reachable.
func HintIndex(hint string, f Facts, steps []Step) int {
	if !AllowSubFlow(f.Draft) || len(steps) == 0 {
		return 0
	}
	wanted := stepIndex[StepID(hint)]
	if wanted > len(steps)-1 {
		wanted = len(steps) - 1
	}
	return wanted
}

// CanEnter reports whether index i may become the active step.
func CanEnter(i int, f Facts) bool {
	if i == 0 {
		return true
	}
	return AllowSubFlow(f.Draft) && SetupHasAllSelections(f.Draft)
}

func indexOf(steps []Step, id StepID) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

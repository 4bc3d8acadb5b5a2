package arnie

// Outcome classifies a whole run. Boundary conditions are outcomes, not
// errors: a blocked or no-op run returns a nil error.
type Outcome string

const (
	// OutcomeCompleted means the run walked its window to the end.
	OutcomeCompleted Outcome = "completed"
	// OutcomeNoOp means the catalog was empty, there was nothing to do.
	OutcomeNoOp Outcome = "no-op"
	// OutcomeBlocked means the sequence boundary made the run impossible:
	// up with the latest unit already applied, or down with an empty
	// ledger.
	OutcomeBlocked Outcome = "blocked"
)

// StepOutcome is the fate of a single unit visited by a run.
type StepOutcome string

const (
	StepApplied  StepOutcome = "applied"
	StepReverted StepOutcome = "reverted"
	StepSkipped  StepOutcome = "skipped"
	StepFaked    StepOutcome = "faked"
)

// Report describes a finished run.
type Report struct {
	Direction Direction
	Outcome   Outcome
	// Clamped is set when the requested count exceeded the available
	// window. Informational, never an error.
	Clamped bool
	Results []StepResult
}

type StepResult struct {
	Name    string
	Ordinal int64
	Outcome StepOutcome
}

// Names lists the units the run visited, in visit order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Results))
	for i := range r.Results {
		names = append(names, r.Results[i].Name)
	}

	return names
}

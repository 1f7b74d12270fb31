package pipeline

import "github.com/warit/ridership/backend/internal/contracts"

// Phase is the lifecycle position of a pipeline run within a stage.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseRunning    Phase = "running"
	PhaseEvaluating Phase = "evaluating"
	PhasePassed     Phase = "passed"
	PhaseFailed     Phase = "failed"
	PhaseAborted    Phase = "aborted"
	PhaseCompleted  Phase = "completed"
)

// State is the tagged pipeline state: a phase plus the stage it refers to.
// The terminal states Aborted and Completed carry no stage. Modeled as plain
// data with a pure transition function so the branching logic is testable
// without any scheduling machinery around it.
type State struct {
	Phase Phase           `json:"phase"`
	Stage contracts.Stage `json:"stage,omitempty"`
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s.Phase == PhaseAborted || s.Phase == PhaseCompleted
}

// Start returns the initial state: the first stage pending.
func Start() State {
	return State{Phase: PhasePending, Stage: contracts.AllStages()[0]}
}

// Next is the pure transition function. The verdict argument is consulted
// only in the Evaluating phase: Fail branches toward Aborted, Pass and
// Warning both proceed. Terminal states return themselves.
func Next(s State, verdict contracts.Verdict) State {
	switch s.Phase {
	case PhasePending:
		return State{Phase: PhaseRunning, Stage: s.Stage}

	case PhaseRunning:
		return State{Phase: PhaseEvaluating, Stage: s.Stage}

	case PhaseEvaluating:
		if verdict == contracts.VerdictFail {
			return State{Phase: PhaseFailed, Stage: s.Stage}
		}
		return State{Phase: PhasePassed, Stage: s.Stage}

	case PhasePassed:
		if next, ok := nextStage(s.Stage); ok {
			return State{Phase: PhasePending, Stage: next}
		}
		return State{Phase: PhaseCompleted}

	case PhaseFailed:
		return State{Phase: PhaseAborted}

	default:
		return s
	}
}

// nextStage returns the stage after s in execution order.
func nextStage(s contracts.Stage) (contracts.Stage, bool) {
	stages := contracts.AllStages()
	for i, stage := range stages {
		if stage == s && i+1 < len(stages) {
			return stages[i+1], true
		}
	}
	return "", false
}

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warit/ridership/backend/internal/contracts"
)

func TestNext_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		in      State
		verdict contracts.Verdict
		want    State
	}{
		{
			"pending starts running",
			State{PhasePending, contracts.StageTransit},
			contracts.VerdictPass,
			State{PhaseRunning, contracts.StageTransit},
		},
		{
			"running moves to evaluating",
			State{PhaseRunning, contracts.StageRain},
			contracts.VerdictPass,
			State{PhaseEvaluating, contracts.StageRain},
		},
		{
			"evaluating passes",
			State{PhaseEvaluating, contracts.StageTransit},
			contracts.VerdictPass,
			State{PhasePassed, contracts.StageTransit},
		},
		{
			"warning still proceeds",
			State{PhaseEvaluating, contracts.StageTransit},
			contracts.VerdictWarning,
			State{PhasePassed, contracts.StageTransit},
		},
		{
			"fail branches",
			State{PhaseEvaluating, contracts.StageRain},
			contracts.VerdictFail,
			State{PhaseFailed, contracts.StageRain},
		},
		{
			"passed advances to next stage",
			State{PhasePassed, contracts.StageTransit},
			contracts.VerdictPass,
			State{PhasePending, contracts.StageRain},
		},
		{
			"last stage passed completes the run",
			State{PhasePassed, contracts.StageDayType},
			contracts.VerdictPass,
			State{Phase: PhaseCompleted},
		},
		{
			"failed aborts",
			State{PhaseFailed, contracts.StageRain},
			contracts.VerdictFail,
			State{Phase: PhaseAborted},
		},
		{
			"aborted is terminal",
			State{Phase: PhaseAborted},
			contracts.VerdictPass,
			State{Phase: PhaseAborted},
		},
		{
			"completed is terminal",
			State{Phase: PhaseCompleted},
			contracts.VerdictFail,
			State{Phase: PhaseCompleted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.in, tt.verdict))
		})
	}
}

func TestStart(t *testing.T) {
	s := Start()
	assert.Equal(t, State{PhasePending, contracts.StageTransit}, s)
	assert.False(t, s.Terminal())
}

func TestTerminal(t *testing.T) {
	assert.True(t, State{Phase: PhaseAborted}.Terminal())
	assert.True(t, State{Phase: PhaseCompleted}.Terminal())
	assert.False(t, State{Phase: PhasePassed, Stage: contracts.StageDayType}.Terminal())
}

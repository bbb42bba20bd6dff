package orchestrator

import "fmt"

// State is the lifecycle position of one format.
type State string

const (
	StateCreated  State = "created"
	StateVerified State = "verified"
	StatePrepared State = "prepared"
	StateBuilt    State = "built"
	StateBundled  State = "bundled"
	StateTested   State = "tested"
	StateCleaned  State = "cleaned"
	StateFailed   State = "failed"
)

// Stage names a strategy step.
type Stage string

const (
	StageVerify  Stage = "verify"
	StagePrepare Stage = "prepare"
	StageBuild   Stage = "build"
	StageBundle  Stage = "bundle"
	StageTest    Stage = "test"
	StageClean   Stage = "clean"
)

// Stages is the full pipeline in execution order.
var Stages = []Stage{StageVerify, StagePrepare, StageBuild, StageBundle, StageTest, StageClean}

type transition struct {
	from State
	to   State
}

var transitions = map[Stage]transition{
	StageVerify:  {from: StateCreated, to: StateVerified},
	StagePrepare: {from: StateVerified, to: StatePrepared},
	StageBuild:   {from: StatePrepared, to: StateBuilt},
	StageBundle:  {from: StateBuilt, to: StateBundled},
	StageTest:    {from: StateBundled, to: StateTested},
	StageClean:   {from: StateTested, to: StateCleaned},
}

// advance returns the state reached when stage succeeds from current.
func advance(current State, stage Stage) (State, error) {
	t, ok := transitions[stage]
	if !ok {
		return current, fmt.Errorf("unknown stage %q", stage)
	}
	if current != t.from {
		return current, fmt.Errorf("stage %s cannot run in state %s", stage, current)
	}
	return t.to, nil
}

// Terminal reports whether no further stage can run.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateCleaned
}

package models

import "time"

// PositionState is the per-instrument lifecycle tracked by the position manager.
type PositionState string

const (
	StateFlat     PositionState = "Flat"
	StateEntering PositionState = "Entering"
	StateOpen     PositionState = "Open"
	StateExiting  PositionState = "Exiting"
)

// Action is what the position manager did with a signal.
type Action string

const (
	ActionNone          Action = "none"
	ActionEntered       Action = "entered"
	ActionExited        Action = "exited"
	ActionExitDeferred  Action = "exit_deferred"
	ActionSkippedOpen   Action = "skipped_open_position"
	ActionSuppressed    Action = "suppressed_repeat"
	ActionReconciled    Action = "reconciled"
	ActionClosedExt     Action = "closed_externally"
	ActionFailed        Action = "failed"
	ActionInsufficient  Action = "skipped_insufficient_data"
	ActionIndeterminate Action = "skipped_indeterminate"
)

// Decision summarizes one processing cycle for an instrument.
type Decision struct {
	Symbol        string
	At            time.Time
	Side          Side
	Trend         Trend
	Trends        map[Timeframe]Trend
	TakeProfitPct float64
	Price         float64
	Action        Action
	Detail        string
}

// PositionView is a read-only copy of an instrument's trading state.
type PositionView struct {
	Symbol          string
	State           PositionState
	HasOpenPosition bool
	EntryPrice      float64
	Quantity        string
	UpdatedAt       time.Time
}

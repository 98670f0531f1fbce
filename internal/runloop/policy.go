// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runloop

import (
	"errors"
)

// Strategy selects how the run loop reacts to a failed change.
type Strategy int

const (
	// StrategyContinue logs each failure and keeps processing.
	StrategyContinue Strategy = iota
	// StrategyStop finishes the current change, then halts; completed
	// outcomes are kept and still reconciled.
	StrategyStop
	// StrategyFatal halts immediately after the current change and skips
	// reconciliation entirely.
	StrategyFatal
)

const (
	strategyContinueStr = "continue"
	strategyStopStr     = "stop"
	strategyFatalStr    = "fatal"
	strategyUnknownStr  = "unknown"
)

// ErrStrategyUnknown is returned when an unknown Strategy value is encountered.
var ErrStrategyUnknown = errors.New("unknown error strategy")

// String returns the string representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyContinue:
		return strategyContinueStr
	case StrategyStop:
		return strategyStopStr
	case StrategyFatal:
		return strategyFatalStr
	default:
		return strategyUnknownStr
	}
}

// NewStrategy creates a Strategy from a string.
func NewStrategy(s string) (Strategy, error) {
	switch s {
	case strategyContinueStr:
		return StrategyContinue, nil
	case strategyStopStr:
		return StrategyStop, nil
	case strategyFatalStr:
		return StrategyFatal, nil
	default:
		return Strategy(-1), ErrStrategyUnknown
	}
}

// Decision is the policy's verdict after observing one outcome.
type Decision int

const (
	// DecisionContinue means submit the next change.
	DecisionContinue Decision = iota
	// DecisionStop means stop submitting changes but reconcile what completed.
	DecisionStop
	// DecisionAbort means stop submitting changes and skip reconciliation.
	DecisionAbort
)

type policyState int

const (
	stateRunning policyState = iota
	stateHalted
)

// Policy is the error-handling state machine consulted after every outcome.
// It starts in the running state and, depending on the strategy, transitions
// to halted on the first observed failure. An infrastructure failure and a
// command failure count identically.
type Policy struct {
	strategy Strategy
	state    policyState
}

// NewPolicy creates a Policy for the given strategy.
func NewPolicy(strategy Strategy) *Policy {
	return &Policy{strategy: strategy}
}

// Observe feeds one outcome to the policy and returns the decision for the
// remainder of the run.
func (p *Policy) Observe(o *Outcome) Decision {
	if p.state == stateHalted {
		return p.haltedDecision()
	}

	if !o.Failed() {
		return DecisionContinue
	}

	switch p.strategy {
	case StrategyStop:
		p.state = stateHalted
		return DecisionStop
	case StrategyFatal:
		p.state = stateHalted
		return DecisionAbort
	default:
		return DecisionContinue
	}
}

// Halted reports whether the policy has stopped accepting new work.
func (p *Policy) Halted() bool {
	return p.state == stateHalted
}

func (p *Policy) haltedDecision() Decision {
	if p.strategy == StrategyFatal {
		return DecisionAbort
	}

	return DecisionStop
}

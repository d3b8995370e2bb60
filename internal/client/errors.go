package client

import (
	"errors"
	"fmt"
)

// ErrUnexpectedKind marks a reply that arrived out of protocol order.
var ErrUnexpectedKind = errors.New("unexpected message kind")

// Step names the part of the exchange that failed.
type Step string

const (
	StepConnect     Step = "connect"
	StepSend        Step = "send"
	StepReceiveAck  Step = "receive-ack"
	StepReceiveDone Step = "receive-done"
)

// StepError reports which step of the exchange failed and why.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// ExitCode gives each failing step its own process exit status.
func (e *StepError) ExitCode() int {
	switch e.Step {
	case StepConnect:
		return 2
	case StepSend:
		return 3
	case StepReceiveAck:
		return 4
	case StepReceiveDone:
		return 5
	default:
		return 1
	}
}

func stepErr(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}

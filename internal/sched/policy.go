// internal/sched/policy.go

package sched

import (
	"fmt"
	"strings"
)

// Policy decides, once per tick, what the CPU slot holds next.
//
// Every Step applies the completion protocol first, then any
// preemption or demotion of its own, then refills an idle slot.
type Policy interface {
	Name() string
	Levels() int // number of ready queues the policy needs
	Step(s *Sim)
}

// DefaultQuantumMS is the time slice of the round-robin and feedback policies.
const DefaultQuantumMS = 500

// DefaultLevels is the number of feedback priority levels.
const DefaultLevels = 3

// NewPolicy builds the policy named in cfg.
func NewPolicy(cfg Config) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Policy)) {
	case "fifo", "fcfs":
		return FIFO{}, nil
	case "rr", "round-robin", "roundrobin":
		return RoundRobin{QuantumMS: uint32(cfg.QuantumMS)}, nil
	case "sjf", "shortest-job-first":
		return ShortestJobFirst{}, nil
	case "mlfq", "feedback", "multi-level-feedback":
		return MultiLevelFeedback{NumLevels: cfg.Levels, QuantumMS: uint32(cfg.QuantumMS)}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want fifo, rr, sjf or mlfq)", cfg.Policy)
	}
}

// fullQuantum reports whether served sits on a positive multiple of quantum.
func fullQuantum(served, quantum uint32) bool {
	return quantum > 0 && served > 0 && served%quantum == 0
}

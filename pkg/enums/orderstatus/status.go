package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Open      Status
	Preparing Status
	Ready     Status
	Delivered Status
}

var Statuses = Enum{
	Open:      Status{Name: "open"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Delivered: Status{Name: "delivered"},
}

var All = []Status{
	Statuses.Open,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Delivered,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Workflow is an ordered progression of statuses. An order may only move
// to the immediate successor of its current status; the last stage is
// terminal.
type Workflow struct {
	stages []string
}

// FourStage is the full kitchen workflow: open -> preparing -> ready -> delivered.
func FourStage() Workflow {
	return Workflow{stages: []string{
		Statuses.Open.Code(),
		Statuses.Preparing.Code(),
		Statuses.Ready.Code(),
		Statuses.Delivered.Code(),
	}}
}

// TwoStage skips the ready step: open -> preparing -> delivered.
func TwoStage() Workflow {
	return Workflow{stages: []string{
		Statuses.Open.Code(),
		Statuses.Preparing.Code(),
		Statuses.Delivered.Code(),
	}}
}

// FromConfig resolves a workflow from its configured model name.
// Unknown values fall back to the four-stage workflow.
func FromConfig(model string) Workflow {
	if model == "two-stage" {
		return TwoStage()
	}
	return FourStage()
}

func (w Workflow) Stages() []string {
	out := make([]string, len(w.stages))
	copy(out, w.stages)
	return out
}

func (w Workflow) Contains(code string) bool {
	return w.index(code) >= 0
}

// Next returns the successor of the given status. The second return is
// false when the status is terminal or not part of the workflow.
func (w Workflow) Next(current string) (string, bool) {
	i := w.index(current)
	if i < 0 || i == len(w.stages)-1 {
		return "", false
	}
	return w.stages[i+1], true
}

// CanTransition reports whether to is the immediate successor of from.
func (w Workflow) CanTransition(from, to string) bool {
	next, ok := w.Next(from)
	return ok && next == to
}

// IsTerminal reports whether the status is the workflow's final stage.
func (w Workflow) IsTerminal(code string) bool {
	return len(w.stages) > 0 && w.stages[len(w.stages)-1] == code
}

func (w Workflow) index(code string) int {
	for i, s := range w.stages {
		if s == code {
			return i
		}
	}
	return -1
}

// Package actions lists the operations an operator can run on one lead.
package actions

import (
	"context"
	"errors"

	"github.com/nimasrn/lead-desk/internal/model"
)

var ErrNotImplemented = errors.New("lead action is not implemented")

// AttentionSwitcher is satisfied by the lead store.
type AttentionSwitcher interface {
	SwitchAttention(ctx context.Context, identifier string) error
}

type Action struct {
	Name string
	// Run is nil for actions without a runner.
	Run func(ctx context.Context, lead model.Lead) error
}

// Invoke runs the action on lead.
func (a Action) Invoke(ctx context.Context, lead model.Lead) error {
	if a.Run == nil {
		return ErrNotImplemented
	}
	return a.Run(ctx, lead)
}

// Implemented reports whether the action has a runner.
func (a Action) Implemented() bool {
	return a.Run != nil
}

// Table returns the actions in display order.
func Table(s AttentionSwitcher) []Action {
	return []Action{
		{
			Name: "Switch needs attention",
			Run: func(ctx context.Context, lead model.Lead) error {
				return s.SwitchAttention(ctx, lead.LeadPhone)
			},
		},
		{Name: "Switch interested"},
		{Name: "Send BOM link"},
		{Name: "Send BIT link"},
		{Name: "Send WG link"},
		{Name: "Send PT link"},
	}
}

// ByName finds the action called name.
func ByName(table []Action, name string) (Action, bool) {
	for _, a := range table {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

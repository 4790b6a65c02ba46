package domain

import (
	"fmt"
	"slices"

	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// Action is a requested move of an order through its lifecycle.
type Action string

const (
	ActionDeliver  Action = "DELIVER"
	ActionComplete Action = "COMPLETE"
	ActionCancel   Action = "CANCEL"
)

func (a Action) verb() string {
	switch a {
	case ActionDeliver:
		return "deliver"
	case ActionComplete:
		return "complete"
	case ActionCancel:
		return "cancel"
	default:
		return string(a)
	}
}

type transitionRule struct {
	to    OrderStatus
	roles []Role
	from  []OrderStatus
}

// transitions is the complete lifecycle table. DISPUTED is only entered
// through a dispute and has no outgoing action; COMPLETED and CANCELLED are
// terminal.
var transitions = map[Action]transitionRule{
	ActionDeliver: {
		to:    OrderStatusDelivered,
		roles: []Role{RoleSeller},
		from:  []OrderStatus{OrderStatusPending, OrderStatusInProgress},
	},
	ActionComplete: {
		to:    OrderStatusCompleted,
		roles: []Role{RoleBuyer},
		from:  []OrderStatus{OrderStatusDelivered},
	},
	ActionCancel: {
		to:    OrderStatusCancelled,
		roles: []Role{RoleBuyer, RoleAdmin},
		from:  []OrderStatus{OrderStatusPending, OrderStatusInProgress},
	},
}

// Actions returns every action in the table.
func Actions() []Action {
	return []Action{ActionDeliver, ActionComplete, ActionCancel}
}

// ActionForTarget maps a requested target status to the action reaching it.
func ActionForTarget(target string) (Action, error) {
	for action, rule := range transitions {
		if string(rule.to) == target {
			return action, nil
		}
	}
	return "", ErrUnknownTransition(target)
}

// Transition returns the state reached by role performing action from
// current. A role the action never admits is Forbidden; an admitted role in
// the wrong state is an invalid transition.
func Transition(current OrderStatus, action Action, role Role) (OrderStatus, error) {
	rule, ok := transitions[action]
	if !ok {
		return "", ErrUnknownTransition(string(action))
	}
	if !slices.Contains(rule.roles, role) {
		return "", apperrors.Forbidden(fmt.Sprintf("%s may not %s an order", role, action.verb()))
	}
	if !slices.Contains(rule.from, current) {
		return "", ErrTransitionNotAllowed(current, action)
	}
	return rule.to, nil
}

package domain

import (
	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// Role is the capacity in which an actor acts on a specific order.
type Role int

const (
	RoleBuyer Role = iota + 1
	RoleSeller
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleBuyer:
		return "BUYER"
	case RoleSeller:
		return "SELLER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// RoleOf resolves the actor's role on the order. Participation takes
// precedence over the admin claim.
func (o *Order) RoleOf(actor Actor) (Role, error) {
	switch {
	case actor.UserID != "" && actor.UserID == o.BuyerID:
		return RoleBuyer, nil
	case actor.UserID != "" && actor.UserID == o.SellerID:
		return RoleSeller, nil
	case actor.IsAdmin:
		return RoleAdmin, nil
	default:
		return 0, apperrors.Forbidden("you are not a participant of this order")
	}
}

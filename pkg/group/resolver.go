package group

import (
	"context"
	"errors"
	"fmt"

	"gorevlerim/pkg/task"
)

// ErrNoPersonalGroup aborts an operation that needed the default user's
// personal group when none exists.
var ErrNoPersonalGroup = errors.New("no personal group found for the default user")

// Resolver picks the owner of an operation.
type Resolver struct {
	groups Store
	userID string
}

// NewResolver creates a Resolver that falls back to userID's personal group.
func NewResolver(groups Store, userID string) *Resolver {
	return &Resolver{groups: groups, userID: userID}
}

// Resolve returns the group named by groupID verbatim, without checking that
// it exists. With no groupID it looks up the default user's personal group.
func (r *Resolver) Resolve(ctx context.Context, groupID string) (task.Owner, error) {
	if groupID != "" {
		return task.GroupOwner(groupID), nil
	}
	g, err := r.groups.Personal(ctx, r.userID)
	if errors.Is(err, ErrNotFound) {
		return task.Owner{}, fmt.Errorf("%w (user %s)", ErrNoPersonalGroup, r.userID)
	}
	if err != nil {
		return task.Owner{}, fmt.Errorf("resolve owner: %w", err)
	}
	return task.GroupOwner(g.ID), nil
}

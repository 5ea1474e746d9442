// Package views consolidates the near-identical list-and-form screens
// (categories, products, users, orders) into one parameterized view:
// required-field checks before submission, and an unconditional re-list
// after every successful mutation.
package views

import (
	"context"
	"errors"
	"fmt"
)

var ErrValidation = errors.New("validation failed")

// View is one CRUD screen. T is the listed entity, In its form payload.
// Like the screens it models, a View is owned by a single goroutine.
type View[T any, In any] struct {
	list     func(ctx context.Context, filter string) ([]T, error)
	create   func(ctx context.Context, in In) error
	update   func(ctx context.Context, id string, in In) error
	remove   func(ctx context.Context, id string) error
	validate func(in In, creating bool) error

	filter string
	items  []T
}

// List fetches with the given filter and replaces the view state on
// success; failure keeps the previous state.
func (v *View[T, In]) List(ctx context.Context, filter string) ([]T, error) {
	v.filter = filter
	items, err := v.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	v.items = items
	return items, nil
}

// Items returns the currently displayed entities.
func (v *View[T, In]) Items() []T {
	return v.items
}

// Create validates locally, submits, then re-lists with the current
// filter. Nothing is sent when validation fails.
func (v *View[T, In]) Create(ctx context.Context, in In) ([]T, error) {
	if err := v.validate(in, true); err != nil {
		return nil, err
	}
	if err := v.create(ctx, in); err != nil {
		return nil, err
	}
	return v.refresh(ctx)
}

func (v *View[T, In]) Update(ctx context.Context, id string, in In) ([]T, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if err := v.validate(in, false); err != nil {
		return nil, err
	}
	if err := v.update(ctx, id, in); err != nil {
		return nil, err
	}
	return v.refresh(ctx)
}

func (v *View[T, In]) Delete(ctx context.Context, id string) ([]T, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if err := v.remove(ctx, id); err != nil {
		return nil, err
	}
	return v.refresh(ctx)
}

func (v *View[T, In]) refresh(ctx context.Context) ([]T, error) {
	items, err := v.list(ctx, v.filter)
	if err != nil {
		return nil, err
	}
	v.items = items
	return items, nil
}

package engine

import (
	"context"

	"github.com/mcoot/fleetgame-go/internal/model"
)

// Presenter receives a fresh snapshot for each seated player whenever their
// game changes.
type Presenter interface {
	Present(ctx context.Context, snap model.Snapshot)
}

// PresenterFunc adapts a plain function to a Presenter
type PresenterFunc func(ctx context.Context, snap model.Snapshot)

func (f PresenterFunc) Present(ctx context.Context, snap model.Snapshot) {
	f(ctx, snap)
}

// NopPresenter drops every snapshot
type NopPresenter struct{}

func (NopPresenter) Present(context.Context, model.Snapshot) {}

package realtime

import (
	"context"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/engine"
	"github.com/mcoot/fleetgame-go/internal/model"
)

// Presenter pushes engine snapshots to the viewer's connected clients
type Presenter struct {
	hubs   *HubManager
	logger *slog.Logger
}

func NewPresenter(hubs *HubManager, logger *slog.Logger) *Presenter {
	return &Presenter{
		hubs:   hubs,
		logger: logger.With(slog.String("component", "presenter")),
	}
}

var _ engine.Presenter = (*Presenter)(nil)

func (p *Presenter) Present(_ context.Context, snap model.Snapshot) {
	hub := p.hubs.GetHub(snap.GameID)
	if hub == nil {
		return
	}
	msg, err := NewMessage(TypeSnapshot, snap)
	if err != nil {
		p.logger.Error("snapshot encode failed",
			slog.String("game_id", string(snap.GameID)),
			slog.Any("error", err))
		return
	}
	hub.SendTo(snap.Viewer, msg)
}

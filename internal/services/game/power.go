package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/turn"
)

// UsePowerShot spends one power to shoot the 3x3 block around center,
// clipped to the board. Cells already shot are skipped. The shooter keeps the
// turn.
func (c *Controller) UsePowerShot(ctx context.Context, id model.GameID, shooter model.PlayerID, center model.Position) (*ShotOutcome, error) {
	var (
		outcome  ShotOutcome
		finished bool
	)
	_, err := c.storage.UpdateMatch(ctx, id, func(m *model.Match) error {
		outcome, finished = ShotOutcome{PowerShot: true}, false

		if m.Game.Mode != model.ModePower {
			return fmt.Errorf("%w: power shots need power mode", model.ErrInvalidPhase)
		}
		if err := requireTurn(m.Game, shooter); err != nil {
			return err
		}
		own := m.Fleet(shooter)
		target := m.Fleet(m.Game.Opponent(shooter))
		if own == nil || target == nil {
			return model.ErrFleetNotFound
		}
		if own.Power <= 0 {
			return model.ErrNoPower
		}
		if !target.InBounds(center) {
			return fmt.Errorf("%w: %s", model.ErrOutOfBounds, center)
		}

		own.Power--
		for dRow := -1; dRow <= 1; dRow++ {
			for dCol := -1; dCol <= 1; dCol++ {
				pos := model.Position{Row: center.Row + dRow, Col: center.Col + dCol}
				if !target.InBounds(pos) {
					continue
				}
				res, err := c.resolveCell(m, shooter, target, pos, true)
				if errors.Is(err, model.ErrAlreadyShot) {
					continue
				}
				if err != nil {
					return err
				}
				outcome.Cells = append(outcome.Cells, res)
			}
		}

		m.Game.TurnPlayerID = turn.Next(m.Game.Mode, shooter, target.PlayerID, turn.Outcome{PowerShot: true})
		finished = c.checkWin(m, shooter, target)
		c.fillOutcome(&outcome, m, shooter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("power shot used",
		slog.String("game_id", string(id)),
		slog.String("shooter", string(shooter)),
		slog.String("center", center.String()),
		slog.Int("cells_resolved", len(outcome.Cells)),
		slog.Int("power_left", outcome.Power),
	)
	c.publish(ctx, model.Event{Type: model.EventPowerShotFired, GameID: id, PlayerID: shooter, Cell: center.String()})
	if finished {
		c.announceWinner(ctx, id, shooter)
	}
	return &outcome, nil
}

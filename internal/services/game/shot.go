package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/turn"
)

// CellOutcome is the resolution of a single cell
type CellOutcome struct {
	Cell       model.Position
	Result     model.ShotResult
	SunkShipID model.ShipID
}

// ShotOutcome is the committed result of a shot or power shot
type ShotOutcome struct {
	Cells     []CellOutcome
	PowerShot bool
	NextTurn  model.PlayerID
	Winner    model.PlayerID
	Power     int // shooter's power after the shot
}

// FireShot resolves shooter's shot at cell on the opponent's board. The whole
// resolution commits as one compare-and-set, so of two concurrent shots at the
// same cell exactly one lands and the other sees ErrAlreadyShot.
func (c *Controller) FireShot(ctx context.Context, id model.GameID, shooter model.PlayerID, cell model.Position) (*ShotOutcome, error) {
	var (
		outcome  ShotOutcome
		finished bool
	)
	_, err := c.storage.UpdateMatch(ctx, id, func(m *model.Match) error {
		outcome, finished = ShotOutcome{}, false

		if err := requireTurn(m.Game, shooter); err != nil {
			return err
		}
		target := m.Fleet(m.Game.Opponent(shooter))
		if target == nil {
			return model.ErrFleetNotFound
		}
		if !target.InBounds(cell) {
			return fmt.Errorf("%w: %s", model.ErrOutOfBounds, cell)
		}

		res, err := c.resolveCell(m, shooter, target, cell, false)
		if err != nil {
			return err
		}
		outcome.Cells = []CellOutcome{res}
		m.Game.TurnPlayerID = turn.Next(m.Game.Mode, shooter, target.PlayerID, turn.Outcome{Result: res.Result})
		finished = c.checkWin(m, shooter, target)
		c.fillOutcome(&outcome, m, shooter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := outcome.Cells[0]
	c.logger.Debug("shot resolved",
		slog.String("game_id", string(id)),
		slog.String("shooter", string(shooter)),
		slog.String("cell", res.Cell.String()),
		slog.String("result", string(res.Result)),
		slog.String("sunk", string(res.SunkShipID)),
	)
	c.publish(ctx, model.Event{Type: model.EventShotFired, GameID: id, PlayerID: shooter, Cell: res.Cell.String()})
	if finished {
		c.announceWinner(ctx, id, shooter)
	}
	return &outcome, nil
}

func requireTurn(g *model.Game, shooter model.PlayerID) error {
	if g.Status != model.StatusInProgress {
		return fmt.Errorf("%w: game is %s", model.ErrInvalidPhase, g.Status)
	}
	if !g.HasPlayer(shooter) {
		return model.ErrNotInGame
	}
	if g.TurnPlayerID != shooter {
		return model.ErrNotYourTurn
	}
	return nil
}

// resolveCell shoots one cell of target and records the move on m. A ship
// whose last cell is hit here is marked sunk, and in power mode the shooter
// earns a power shot for it.
func (c *Controller) resolveCell(m *model.Match, shooter model.PlayerID, target *model.Fleet, pos model.Position, powerShot bool) (CellOutcome, error) {
	res := CellOutcome{Cell: pos}
	switch target.At(pos) {
	case model.CellEmpty:
		target.Set(pos, model.CellMiss)
		res.Result = model.ResultMiss
	case model.CellShip:
		target.Set(pos, model.CellHit)
		res.Result = model.ResultHit
	default:
		return res, fmt.Errorf("%w: %s", model.ErrAlreadyShot, pos)
	}

	if res.Result == model.ResultHit {
		if ship := target.ShipAt(pos); ship != nil && !ship.Sunk && target.IsShipDestroyed(ship) {
			ship.Sunk = true
			for _, p := range ship.Cells {
				target.Set(p, model.CellSunk)
			}
			res.SunkShipID = ship.ID
			if m.Game.Mode == model.ModePower {
				if own := m.Fleet(shooter); own != nil {
					own.Power++
				}
			}
		}
	}

	now := c.clock.Now()
	m.Record(&model.Move{
		ID:         model.MoveID(c.ids.NewID()),
		GameID:     m.Game.ID,
		By:         shooter,
		Cell:       pos,
		Result:     res.Result,
		SunkShipID: res.SunkShipID,
		PowerShot:  powerShot,
		Timestamp:  now,
	})
	target.UpdatedAt = now
	m.Game.UpdatedAt = now
	return res, nil
}

// checkWin finishes the game the first time target's fleet is destroyed.
// ResultRecorded guards against recording a result twice.
func (c *Controller) checkWin(m *model.Match, shooter model.PlayerID, target *model.Fleet) bool {
	g := m.Game
	if g.ResultRecorded || !target.Destroyed() {
		return false
	}
	g.Status = model.StatusFinished
	g.WinnerID = shooter
	g.ResultRecorded = true
	g.TurnPlayerID = ""
	g.FinishedAt = c.clock.Now()
	return true
}

func (c *Controller) fillOutcome(o *ShotOutcome, m *model.Match, shooter model.PlayerID) {
	o.NextTurn = m.Game.TurnPlayerID
	o.Winner = m.Game.WinnerID
	if own := m.Fleet(shooter); own != nil {
		o.Power = own.Power
	}
}

func (c *Controller) announceWinner(ctx context.Context, id model.GameID, winner model.PlayerID) {
	c.logger.Info("match finished",
		slog.String("game_id", string(id)),
		slog.String("winner", string(winner)),
	)
	c.publish(ctx, model.Event{Type: model.EventGameFinished, GameID: id, PlayerID: winner})
}

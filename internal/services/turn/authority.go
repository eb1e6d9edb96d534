package turn

import (
	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
	"github.com/mcoot/fleetgame-go/internal/model"
)

// Outcome is what the turn rules need to know about a resolved shot
type Outcome struct {
	Result    model.ShotResult
	PowerShot bool
}

// Next returns who holds the turn after shooter's shot.
//
//	mode     hit       miss      power shot
//	classic  opponent  opponent  -
//	streak   shooter   opponent  -
//	power    shooter   opponent  shooter
func Next(mode model.GameMode, shooter, opponent model.PlayerID, outcome Outcome) model.PlayerID {
	switch mode {
	case model.ModePower:
		if outcome.PowerShot || outcome.Result == model.ResultHit {
			return shooter
		}
	case model.ModeStreak:
		if outcome.Result == model.ResultHit {
			return shooter
		}
	}
	return opponent
}

// Authority picks the first mover when a match starts
type Authority struct {
	random random.Random
}

func NewAuthority(random random.Random) *Authority {
	return &Authority{random: random}
}

// PickFirst chooses uniformly among the seated players
func (a *Authority) PickFirst(players []model.PlayerID) model.PlayerID {
	if len(players) == 0 {
		return ""
	}
	return players[a.random.Intn(len(players))]
}

package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/fleetgame-go/internal/dependencies/mocks"
	"github.com/mcoot/fleetgame-go/internal/model"
)

func TestNext(t *testing.T) {
	const a, b = model.PlayerID("a"), model.PlayerID("b")
	hit := Outcome{Result: model.ResultHit}
	miss := Outcome{Result: model.ResultMiss}
	powerMiss := Outcome{Result: model.ResultMiss, PowerShot: true}

	tests := []struct {
		name    string
		mode    model.GameMode
		outcome Outcome
		want    model.PlayerID
	}{
		{"classic hit passes", model.ModeClassic, hit, b},
		{"classic miss passes", model.ModeClassic, miss, b},
		{"streak hit keeps", model.ModeStreak, hit, a},
		{"streak miss passes", model.ModeStreak, miss, b},
		{"power hit keeps", model.ModePower, hit, a},
		{"power miss passes", model.ModePower, miss, b},
		{"power shot keeps even when nothing hit", model.ModePower, powerMiss, a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.mode, a, b, tt.outcome))
		})
	}
}

func TestPickFirst(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueIntn(1, 0)
	authority := NewAuthority(rnd)
	players := []model.PlayerID{"a", "b"}

	assert.Equal(t, model.PlayerID("b"), authority.PickFirst(players))
	assert.Equal(t, model.PlayerID("a"), authority.PickFirst(players))
	assert.Equal(t, model.PlayerID(""), authority.PickFirst(nil))
}

package redis

import (
	"fmt"

	"github.com/mcoot/fleetgame-go/internal/model"
)

const keyPrefix = "fleet"

func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey maps username -> player_id
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

func lobbyKey(code model.LobbyCode) string {
	return fmt.Sprintf("%s:lobby:%s", keyPrefix, code)
}

func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

func fleetKey(gameID model.GameID, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:fleet:%s:%s", keyPrefix, gameID, playerID)
}

// fleetsForGameIndexKey is a SET of fleet keys belonging to a game
func fleetsForGameIndexKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:fleets_for_game:%s", keyPrefix, gameID)
}

// movesKey is the append-only LIST of moves of a game
func movesKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:moves:%s", keyPrefix, gameID)
}

// eventsChannel is the pub/sub channel of a game
func eventsChannel(gameID model.GameID) string {
	return fmt.Sprintf("%s:events:%s", keyPrefix, gameID)
}

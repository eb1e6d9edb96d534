package memory

import (
	"context"
	"sync"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

// subscriberBuffer bounds the events queued for a slow subscriber. Events past
// it are dropped; subscribers re-read the store, so a later event catches up.
const subscriberBuffer = 64

// Storage is an in-memory implementation of the storage interface. Records are
// copied on the way in and out, so callers never share memory with the store.
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	lobbies           map[model.LobbyCode]*model.Lobby
	games             map[model.GameID]*model.Game
	fleets            map[fleetKey]*model.Fleet
	moves             map[model.GameID][]*model.Move

	subMu       sync.Mutex
	subscribers map[model.GameID]map[chan model.Event]struct{}
}

type fleetKey struct {
	gameID   model.GameID
	playerID model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		lobbies:           make(map[model.LobbyCode]*model.Lobby),
		games:             make(map[model.GameID]*model.Game),
		fleets:            make(map[fleetKey]*model.Fleet),
		moves:             make(map[model.GameID][]*model.Move),
		subscribers:       make(map[model.GameID]map[chan model.Event]struct{}),
	}
}

var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rp
	s.registeredPlayers[rp.PlayerID] = &r
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	r := *rp
	return &r, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	playerID, ok := s.usernameIndex[username]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return s.GetRegisteredPlayer(ctx, playerID)
}

// Lobby operations

func (s *Storage) CreateLobby(ctx context.Context, lobby *model.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[lobby.Code]; ok {
		return model.ErrLobbyExists
	}
	l := *lobby
	s.lobbies[lobby.Code] = &l
	return nil
}

func (s *Storage) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	l := *lobby
	return &l, nil
}

func (s *Storage) UpdateLobby(ctx context.Context, code model.LobbyCode, fn storage.LobbyMutator) (*model.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	l := *lobby
	if err := fn(&l); err != nil {
		return nil, err
	}
	s.lobbies[code] = &l
	out := l
	return &out, nil
}

func (s *Storage) DeleteLobby(ctx context.Context, code model.LobbyCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, code)
	return nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game.Clone()
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutator) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	next := game.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.games[id] = next
	return next.Clone(), nil
}

// Fleet operations

func (s *Storage) SaveFleet(ctx context.Context, fleet *model.Fleet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fleets[fleetKey{fleet.GameID, fleet.PlayerID}] = fleet.Clone()
	return nil
}

func (s *Storage) GetFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fleet, ok := s.fleets[fleetKey{gameID, playerID}]
	if !ok {
		return nil, model.ErrFleetNotFound
	}
	return fleet.Clone(), nil
}

func (s *Storage) GetFleetsForGame(ctx context.Context, gameID model.GameID) ([]*model.Fleet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var fleets []*model.Fleet
	for key, fleet := range s.fleets {
		if key.gameID == gameID {
			fleets = append(fleets, fleet.Clone())
		}
	}
	return fleets, nil
}

func (s *Storage) UpdateFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID, fn storage.FleetMutator) (*model.Fleet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fleetKey{gameID, playerID}
	fleet, ok := s.fleets[key]
	if !ok {
		return nil, model.ErrFleetNotFound
	}
	next := fleet.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.fleets[key] = next
	return next.Clone(), nil
}

// Match operations

func (s *Storage) GetMatch(ctx context.Context, gameID model.GameID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, err := s.loadMatch(gameID)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *Storage) UpdateMatch(ctx context.Context, gameID model.GameID, fn storage.MatchMutator) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, err := s.loadMatch(gameID)
	if err != nil {
		return nil, err
	}
	if err := fn(match); err != nil {
		return nil, err
	}

	s.games[gameID] = match.Game.Clone()
	for playerID, fleet := range match.Fleets {
		s.fleets[fleetKey{gameID, playerID}] = fleet.Clone()
	}
	for _, move := range match.NewMoves {
		m := *move
		s.moves[gameID] = append(s.moves[gameID], &m)
	}
	return match, nil
}

// loadMatch copies the game and its seated players' fleets. Callers hold mu.
func (s *Storage) loadMatch(gameID model.GameID) (*model.Match, error) {
	game, ok := s.games[gameID]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	match := &model.Match{Game: game.Clone(), Fleets: make(map[model.PlayerID]*model.Fleet)}
	for _, playerID := range game.PlayerIDs() {
		if fleet, ok := s.fleets[fleetKey{gameID, playerID}]; ok {
			match.Fleets[playerID] = fleet.Clone()
		}
	}
	return match, nil
}

func (s *Storage) GetMoves(ctx context.Context, gameID model.GameID) ([]*model.Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	moves := make([]*model.Move, 0, len(s.moves[gameID]))
	for _, move := range s.moves[gameID] {
		m := *move
		moves = append(moves, &m)
	}
	return moves, nil
}

// Change notification

func (s *Storage) Publish(ctx context.Context, event model.Event) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers[event.GameID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (s *Storage) Subscribe(ctx context.Context, gameID model.GameID) (<-chan model.Event, error) {
	ch := make(chan model.Event, subscriberBuffer)

	s.subMu.Lock()
	if s.subscribers[gameID] == nil {
		s.subscribers[gameID] = make(map[chan model.Event]struct{})
	}
	s.subscribers[gameID][ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subscribers[gameID], ch)
		if len(s.subscribers[gameID]) == 0 {
			delete(s.subscribers, gameID)
		}
		close(ch)
		s.subMu.Unlock()
	}()

	return ch, nil
}

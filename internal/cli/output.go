package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Lobby:
		o.printLobby(v)
	case LobbyResult:
		o.printLobby(v.Lobby)
		o.printGame(v.Game)
	case Game:
		o.printGame(v)
	case Fleet:
		o.printFleet(v)
	case ShotResult:
		o.printShotResult(v)
	case []Move:
		o.printMoves(v)
	case Snapshot:
		o.printSnapshot(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Lobby response type
type Lobby struct {
	Code      string `json:"code"`
	GameID    string `json:"game_id"`
	Mode      string `json:"mode"`
	BoardSize int    `json:"board_size"`
	Status    string `json:"status"`
	HostID    string `json:"host_id"`
}

// LobbyResult is returned when creating or joining a lobby
type LobbyResult struct {
	Lobby Lobby `json:"lobby"`
	Game  Game  `json:"game"`
}

// Seat response type
type Seat struct {
	Slot   int    `json:"slot"`
	Player Player `json:"player"`
}

// Game response type
type Game struct {
	ID           string `json:"id"`
	LobbyCode    string `json:"lobby_code"`
	Mode         string `json:"mode"`
	BoardSize    int    `json:"board_size"`
	Status       string `json:"status"`
	Seats        []Seat `json:"seats"`
	TurnPlayerID string `json:"turn_player_id,omitempty"`
	WinnerID     string `json:"winner_id,omitempty"`
	RematchGame  string `json:"rematch_game_id,omitempty"`
}

// ShipView response type
type ShipView struct {
	ID     string   `json:"id"`
	Length int      `json:"length"`
	Cells  []string `json:"cells"`
	Sunk   bool     `json:"sunk"`
}

// Fleet response type
type Fleet struct {
	Cells     [][]string `json:"cells"`
	Ships     []ShipView `json:"ships"`
	Remaining []int      `json:"remaining"`
	Ready     bool       `json:"ready"`
}

// CellResult response type
type CellResult struct {
	Cell   string `json:"cell"`
	Result string `json:"result"`
	Sunk   string `json:"sunk_ship_id,omitempty"`
}

// ShotResult response type
type ShotResult struct {
	Cells     []CellResult `json:"cells"`
	PowerShot bool         `json:"power_shot"`
	NextTurn  string       `json:"next_turn,omitempty"`
	Winner    string       `json:"winner,omitempty"`
	Power     int          `json:"power"`
}

// Move response type
type Move struct {
	ID        string    `json:"id"`
	By        string    `json:"by"`
	Cell      string    `json:"cell"`
	Result    string    `json:"result"`
	Sunk      string    `json:"sunk_ship_id,omitempty"`
	PowerShot bool      `json:"power_shot,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatView response type
type SeatView struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Slot        int    `json:"slot"`
	Ready       bool   `json:"ready"`
}

// Rematch response type
type Rematch struct {
	Requested []string `json:"requested"`
	GameID    string   `json:"game_id,omitempty"`
	LobbyCode string   `json:"lobby_code,omitempty"`
}

// Snapshot is a player's view of a game
type Snapshot struct {
	GameID        string     `json:"game_id"`
	LobbyCode     string     `json:"lobby_code"`
	Mode          string     `json:"mode"`
	BoardSize     int        `json:"board_size"`
	Status        string     `json:"status"`
	Phase         string     `json:"phase"`
	Viewer        string     `json:"viewer"`
	Seats         []SeatView `json:"seats"`
	TurnPlayerID  string     `json:"turn_player_id,omitempty"`
	YourTurn      bool       `json:"your_turn"`
	WinnerID      string     `json:"winner_id,omitempty"`
	OwnBoard      [][]string `json:"own_board,omitempty"`
	OpponentBoard [][]string `json:"opponent_board,omitempty"`
	Ships         []ShipView `json:"ships,omitempty"`
	Remaining     []int      `json:"remaining,omitempty"`
	Power         int        `json:"power"`
	OpponentPower int        `json:"opponent_power"`
	OpponentSunk  int        `json:"opponent_ships_sunk"`
	Rematch       Rematch    `json:"rematch"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printLobby(l Lobby) {
	fmt.Fprintf(o.w, "Lobby: %s\n", l.Code)
	fmt.Fprintf(o.w, "Status: %s\n", l.Status)
	fmt.Fprintf(o.w, "Mode: %s (%dx%d)\n", l.Mode, l.BoardSize, l.BoardSize)
	fmt.Fprintf(o.w, "Game: %s\n", l.GameID)
}

func (o *Output) printGame(g Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	fmt.Fprintf(o.w, "Status: %s\n", g.Status)
	if g.TurnPlayerID != "" {
		fmt.Fprintf(o.w, "Turn: %s\n", g.TurnPlayerID)
	}
	if g.WinnerID != "" {
		fmt.Fprintf(o.w, "Winner: %s\n", g.WinnerID)
	}
	if g.RematchGame != "" {
		fmt.Fprintf(o.w, "Rematch: %s\n", g.RematchGame)
	}

	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tPLAYER\tID")
	for _, s := range g.Seats {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Slot, s.Player.DisplayName, s.Player.ID)
	}
	_ = tw.Flush()
}

func (o *Output) printFleet(f Fleet) {
	o.printBoard(f.Cells)
	o.printShips(f.Ships)
	if len(f.Remaining) > 0 {
		fmt.Fprintf(o.w, "Left to place: %s\n", joinInts(f.Remaining))
	} else if f.Ready {
		fmt.Fprintln(o.w, "Fleet locked in")
	} else {
		fmt.Fprintln(o.w, "Fleet complete, ready up when set")
	}
}

func (o *Output) printShips(ships []ShipView) {
	if len(ships) == 0 {
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHIP\tLENGTH\tCELLS\tSUNK")
	for _, s := range ships {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%t\n", s.ID, s.Length, strings.Join(s.Cells, " "), s.Sunk)
	}
	_ = tw.Flush()
}

func (o *Output) printShotResult(r ShotResult) {
	for _, c := range r.Cells {
		line := fmt.Sprintf("%s: %s", c.Cell, c.Result)
		if c.Sunk != "" {
			line += " (sunk " + c.Sunk + ")"
		}
		fmt.Fprintln(o.w, line)
	}
	if r.Winner != "" {
		fmt.Fprintf(o.w, "Winner: %s\n", r.Winner)
		return
	}
	fmt.Fprintf(o.w, "Next turn: %s\n", r.NextTurn)
	if r.PowerShot || r.Power > 0 {
		fmt.Fprintf(o.w, "Power: %d\n", r.Power)
	}
}

func (o *Output) printMoves(moves []Move) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tBY\tCELL\tRESULT\tSUNK")
	for i, m := range moves {
		result := m.Result
		if m.PowerShot {
			result += " (power)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, m.By, m.Cell, result, m.Sunk)
	}
	_ = tw.Flush()
}

func (o *Output) printSnapshot(s Snapshot) {
	fmt.Fprintf(o.w, "Game: %s (%s, %dx%d)\n", s.GameID, s.Mode, s.BoardSize, s.BoardSize)
	fmt.Fprintf(o.w, "Phase: %s\n", s.Phase)

	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tPLAYER\tREADY")
	for _, seat := range s.Seats {
		name := seat.DisplayName
		if seat.PlayerID == s.Viewer {
			name += " (you)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%t\n", seat.Slot, name, seat.Ready)
	}
	_ = tw.Flush()

	switch {
	case s.WinnerID == s.Viewer && s.WinnerID != "":
		fmt.Fprintln(o.w, "You won")
	case s.WinnerID != "":
		fmt.Fprintln(o.w, "You lost")
	case s.YourTurn:
		fmt.Fprintln(o.w, "Your turn")
	case s.TurnPlayerID != "":
		fmt.Fprintln(o.w, "Opponent's turn")
	}
	if s.Mode == "power" {
		fmt.Fprintf(o.w, "Power: %d (opponent %d)\n", s.Power, s.OpponentPower)
	}

	if len(s.OwnBoard) > 0 {
		fmt.Fprintln(o.w, "\nYour board:")
		o.printBoard(s.OwnBoard)
	}
	if len(s.OpponentBoard) > 0 {
		fmt.Fprintf(o.w, "\nOpponent board (%d sunk):\n", s.OpponentSunk)
		o.printBoard(s.OpponentBoard)
	}
	if len(s.Remaining) > 0 && s.Phase == "placing" {
		fmt.Fprintf(o.w, "Left to place: %s\n", joinInts(s.Remaining))
	}

	if len(s.Rematch.Requested) > 0 {
		fmt.Fprintf(o.w, "Rematch requested by: %s\n", strings.Join(s.Rematch.Requested, ", "))
	}
	if s.Rematch.GameID != "" {
		fmt.Fprintf(o.w, "Rematch game: %s (lobby %s)\n", s.Rematch.GameID, s.Rematch.LobbyCode)
	}
}

// cellSymbols maps cell states to board glyphs
var cellSymbols = map[string]string{
	"empty": ".",
	"ship":  "#",
	"hit":   "X",
	"miss":  "o",
	"sunk":  "*",
}

// printBoard renders rows A, B, ... against columns 1..n
func (o *Output) printBoard(cells [][]string) {
	if len(cells) == 0 {
		return
	}

	tw := tabwriter.NewWriter(o.w, 2, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for col := range cells[0] {
		fmt.Fprintf(tw, "%d\t", col+1)
	}
	fmt.Fprintln(tw)

	for row, line := range cells {
		fmt.Fprintf(tw, "%c\t", rune('A'+row))
		for _, state := range line {
			symbol, ok := cellSymbols[state]
			if !ok {
				symbol = "?"
			}
			fmt.Fprintf(tw, "%s\t", symbol)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

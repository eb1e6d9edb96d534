package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/fleetgame-go/internal/api"
	"github.com/mcoot/fleetgame-go/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "fleetctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/fleetctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

// another returns a runner for a second player sharing the binary
func (r *cliRunner) another(t *testing.T) *cliRunner {
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "FLEET_TOKEN=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) mustRun(t *testing.T, into any, args ...string) {
	t.Helper()
	output, err := r.run(args...)
	require.NoError(t, err, "fleetctl %s: %s", strings.Join(args, " "), output)
	if into != nil {
		require.NoError(t, json.Unmarshal([]byte(output), into), output)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the production wiring on a free port
func startTestServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		LobbyController: app.LobbyController,
		Engine:          app.Engine,
		MoveLog:         app.GameController,
		HubManager:      app.HubManager,
	})
	server := api.NewServer(router, api.DefaultServerConfig(), logger)
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = app.Close(ctx)
	})

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Player struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		IsGuest     bool   `json:"is_guest"`
	} `json:"player"`
	SessionToken string `json:"session_token"`
}

type lobbyResponse struct {
	Lobby struct {
		Code   string `json:"code"`
		Status string `json:"status"`
	} `json:"lobby"`
	Game gameResponse `json:"game"`
}

type gameResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	TurnPlayerID string `json:"turn_player_id"`
	WinnerID     string `json:"winner_id"`
	RematchGame  string `json:"rematch_game_id"`
}

type snapshotResponse struct {
	Phase    string `json:"phase"`
	YourTurn bool   `json:"your_turn"`
	WinnerID string `json:"winner_id"`
}

type shotResponse struct {
	Cells []struct {
		Cell   string `json:"cell"`
		Result string `json:"result"`
	} `json:"cells"`
	NextTurn string `json:"next_turn"`
	Winner   string `json:"winner"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	var resp struct {
		Status string `json:"status"`
	}
	cli.mustRun(t, &resp, "health")
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_PlayerCommands(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	var authResp authResponse
	cli.mustRun(t, &authResp, "player", "guest", "--name", "Alice")
	assert.Equal(t, "Alice", authResp.Player.DisplayName)
	assert.True(t, authResp.Player.IsGuest)
	assert.NotEmpty(t, authResp.SessionToken)

	// token was saved to the token file
	var player struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	cli.mustRun(t, &player, "player", "me")
	assert.Equal(t, authResp.Player.ID, player.ID)
}

// Test: a streak match played entirely through the CLI, ending in a rematch
func TestCLI_FullGameFlow(t *testing.T) {
	alice := newCLIRunner(t, startTestServer(t))
	bob := alice.another(t)

	var aliceAuth, bobAuth authResponse
	alice.mustRun(t, &aliceAuth, "player", "guest", "--name", "Alice")
	bob.mustRun(t, &bobAuth, "player", "guest", "--name", "Bob")

	var lobby lobbyResponse
	alice.mustRun(t, &lobby, "lobby", "create", "--mode", "streak", "--size", "10")
	assert.Equal(t, "waiting", lobby.Lobby.Status)
	gameID := lobby.Game.ID

	bob.mustRun(t, &lobby, "lobby", "join", lobby.Lobby.Code)
	assert.Equal(t, "ready", lobby.Lobby.Status)

	// Both stack their ships on rows B, D and F
	for _, cli := range []*cliRunner{alice, bob} {
		for _, origin := range []string{"B1", "D1", "F1"} {
			cli.mustRun(t, nil, "game", "place", gameID, origin, "--orientation", "h")
		}
	}

	var game gameResponse
	alice.mustRun(t, &game, "game", "ready", gameID)
	assert.Equal(t, "waiting", game.Status)
	bob.mustRun(t, &game, "game", "ready", gameID)
	require.Equal(t, "in_progress", game.Status)

	// If bob moves first he misses on row J and hands alice the turn
	if game.TurnPlayerID == bobAuth.Player.ID {
		var shot shotResponse
		bob.mustRun(t, &shot, "game", "fire", gameID, "J1")
		require.Equal(t, "miss", shot.Cells[0].Result)
		require.Equal(t, aliceAuth.Player.ID, shot.NextTurn)
	}

	// Streak mode: every hit keeps alice's turn until bob's fleet is gone
	var shot shotResponse
	for _, cell := range []string{"B1", "B2", "B3", "B4", "B5", "D1", "D2", "D3", "D4", "F1", "F2", "F3"} {
		alice.mustRun(t, &shot, "game", "fire", gameID, cell)
		require.Equal(t, "hit", shot.Cells[0].Result, cell)
	}
	assert.Equal(t, aliceAuth.Player.ID, shot.Winner)

	var snap snapshotResponse
	bob.mustRun(t, &snap, "game", "get", gameID)
	assert.Equal(t, "ended", snap.Phase)
	assert.Equal(t, aliceAuth.Player.ID, snap.WinnerID)

	output, err := bob.run("game", "fire", gameID, "A1")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_PHASE")

	bob.mustRun(t, &game, "game", "rematch", gameID)
	assert.Empty(t, game.RematchGame)
	alice.mustRun(t, &game, "game", "rematch", gameID)
	require.NotEmpty(t, game.RematchGame)

	bob.mustRun(t, &snap, "game", "get", game.RematchGame)
	assert.Equal(t, "placing", snap.Phase)
}

func TestCLI_ErrorHandling(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.run("player", "me")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	cli.mustRun(t, nil, "player", "guest", "--name", "Alice")

	output, err = cli.run("lobby", "get", "NOPE00")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	output, err = cli.run("lobby", "create", "--mode", "salvo")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_MODE")
}

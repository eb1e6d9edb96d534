package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "events <game-id>",
		Short: "Stream live snapshots of a game",
		Long: `Connect to the game's event stream and print every snapshot pushed to
you as the game changes: joins, placement, shots, the result and rematches.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, cmd.OutOrStdout(), args[0], jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&limit, "limit", 0, "Disconnect after this many snapshots (0 streams until interrupted)")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, gameID string, jsonOutput bool, limit int) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + gamePath(gameID, "/events")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	// No timeout: the stream stays open until interrupted
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Code != "" {
			return &errResp.Error
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	out := NewOutput(w, cfg.Output)
	if !jsonOutput {
		fmt.Fprintf(w, "Connected to game %s\n", gameID)
	}

	snapshots := 0
	err = readSSE(resp.Body, func(event, data string) bool {
		printEvent(w, out, event, data, jsonOutput)
		if event == "snapshot" {
			snapshots++
		}
		return limit == 0 || snapshots < limit
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

// readSSE calls fn for each complete event until fn returns false or the
// stream ends. Comment lines are skipped.
func readSSE(r io.Reader, fn func(event, data string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				if !fn(currentEvent, strings.Join(dataLines, "\n")) {
					return nil
				}
			}
			currentEvent = ""
			dataLines = nil
		}
	}
	return scanner.Err()
}

func printEvent(w io.Writer, out *Output, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{Time: now, Event: event, Data: json.RawMessage(data)}
		if !json.Valid(evt.Data) {
			evt.Data, _ = json.Marshal(data)
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Fprintln(w, string(jsonData))
		return
	}

	fmt.Fprintf(w, "[%s] %s\n", now.Format("2006-01-02 15:04:05"), event)
	if event != "snapshot" {
		return
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		fmt.Fprintln(w, data)
		return
	}
	out.Print(snap)
}

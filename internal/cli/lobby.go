package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Lobby commands",
	}

	cmd.AddCommand(newLobbyCreateCmd())
	cmd.AddCommand(newLobbyGetCmd())
	cmd.AddCommand(newLobbyJoinCmd())

	return cmd
}

func newLobbyCreateCmd() *cobra.Command {
	var (
		mode string
		size int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new lobby and take the first seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if mode != "" {
				req["mode"] = strings.ToLower(mode)
			}
			if size > 0 {
				req["board_size"] = size
			}

			var result LobbyResult

			if err := client.Post("/api/v1/lobbies", req, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Game mode: classic, streak or power (default: classic)")
	cmd.Flags().IntVar(&size, "size", 0, "Board size: 10, 15 or 20 (default: 10)")

	return cmd
}

func newLobbyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get lobby details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Lobby

			if err := client.Get(fmt.Sprintf("/api/v1/lobbies/%s", args[0]), &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newLobbyJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a lobby and take the second seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LobbyResult

			if err := client.Post(fmt.Sprintf("/api/v1/lobbies/%s/join", args[0]), nil, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

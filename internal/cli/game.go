package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameMovesCmd())
	cmd.AddCommand(newGamePlaceCmd())
	cmd.AddCommand(newGameRandomCmd())
	cmd.AddCommand(newGameResetCmd())
	cmd.AddCommand(newGameReadyCmd())
	cmd.AddCommand(newGameFireCmd())
	cmd.AddCommand(newGamePowerCmd())
	cmd.AddCommand(newGameRematchCmd())

	return cmd
}

func gamePath(id, suffix string) string {
	return fmt.Sprintf("/api/v1/games/%s%s", id, suffix)
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show your view of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Snapshot

			if err := client.Get(gamePath(args[0], ""), &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameMovesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moves <game-id>",
		Short: "List every resolved shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Move

			if err := client.Get(gamePath(args[0], "/moves"), &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newGamePlaceCmd() *cobra.Command {
	var (
		orientation string
		length      int
	)

	cmd := &cobra.Command{
		Use:   "place <game-id> <cell>",
		Short: "Place a ship with its first cell at <cell>",
		Long: `Place a ship on your board. The ship extends right (horizontal) or down
(vertical) from <cell>. Without --length the longest remaining ship is placed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"cell":        strings.ToUpper(args[1]),
				"orientation": orientation,
			}
			if length > 0 {
				req["length"] = length
			}

			var result Fleet

			if err := client.Post(gamePath(args[0], "/ships"), req, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&orientation, "orientation", "horizontal", "horizontal (h) or vertical (v)")
	cmd.Flags().IntVar(&length, "length", 0, "Length of the ship to place")

	return cmd
}

func newGameRandomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "random <game-id>",
		Short: "Place every remaining ship at random",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Fleet

			if err := client.Post(gamePath(args[0], "/ships/random"), nil, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <game-id>",
		Short: "Remove every placed ship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Fleet

			if err := client.Delete(gamePath(args[0], "/ships"), &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready <game-id>",
		Short: "Lock in your fleet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Post(gamePath(args[0], "/ready"), nil, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newShotCmd(use, short, suffix string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <game-id> <cell>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"cell": strings.ToUpper(args[1])}
			var result ShotResult

			if err := client.Post(gamePath(args[0], suffix), req, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

func newGameFireCmd() *cobra.Command {
	return newShotCmd("fire", "Fire a shot at the opponent's board", "/shots")
}

func newGamePowerCmd() *cobra.Command {
	return newShotCmd("power", "Fire a 3x3 power shot centred on <cell> (power mode)", "/power-shots")
}

func newGameRematchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rematch <game-id>",
		Short: "Ask for a rematch of a finished game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Post(gamePath(args[0], "/rematch"), nil, &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}
}

package cli

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomGetCmd())

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Show a live room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get(cmd.Context(), "/api/v1/rooms/"+roomPath(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMovesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moves <code>",
		Short: "Show the recorded moves for a room",
		Long: `Show the move log for a room. Moves stay available after the room
itself has been destroyed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MoveList

			if err := client.Get(cmd.Context(), "/api/v1/rooms/"+roomPath(args[0])+"/moves", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func roomPath(code string) string {
	return url.PathEscape(strings.ToUpper(strings.TrimSpace(code)))
}

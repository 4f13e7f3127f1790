package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const (
	handshakeTimeout = 10 * time.Second
	confirmTimeout   = 10 * time.Second
	closeGrace       = time.Second
)

const playHelp = `Commands:
  draw                                   draw roles (creator only)
  move <san|uci>                         play a move, e.g. "move e4" or "move e2e4"
  move <from> <to> [promotion]           play a move by squares
  role                                   repeat your role
  signal <conn> <offer|answer|candidate> <json>
                                         forward a call-signaling payload
  leave                                  leave the room
  quit                                   close the connection`

type playOptions struct {
	create      bool
	name        string
	join        string
	userID      string
	displayName string
}

func newPlayCmd() *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open a realtime session and play from stdin",
		Long: `Connect to the server's websocket, create or join a room, then read
commands from stdin. Every event the server sends is printed.

` + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.create == (opts.join != "") {
				return errors.New("exactly one of --create or --join <code> is required")
			}
			if opts.userID == "" {
				return errors.New("--user is required")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runPlay(ctx, cfg.WebSocketURL(), opts, cmd.InOrStdin(), NewOutput(cfg.Output))
		},
	}

	cmd.Flags().BoolVar(&opts.create, "create", false, "Create a new room")
	cmd.Flags().StringVar(&opts.name, "name", "", "Name for a new room")
	cmd.Flags().StringVar(&opts.join, "join", "", "Code of the room to join")
	cmd.Flags().StringVar(&opts.userID, "user", "", "Your user id")
	cmd.Flags().StringVar(&opts.displayName, "display-name", "", "Your display name (defaults to the user id)")

	return cmd
}

func runPlay(ctx context.Context, wsURL string, opts playOptions, in io.Reader, out *Output) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := awaitEvent(conn, out, "connection:ready"); err != nil {
		return err
	}

	if opts.create {
		err = sendFrame(conn, "room:create", map[string]string{
			"name":         opts.name,
			"user_id":      opts.userID,
			"display_name": opts.displayName,
		})
		if err == nil {
			err = awaitEvent(conn, out, "room:created", "request:invalid")
		}
	} else {
		err = sendFrame(conn, "room:join", map[string]string{
			"code":         strings.ToUpper(opts.join),
			"user_id":      opts.userID,
			"display_name": opts.displayName,
		})
		if err == nil {
			err = awaitEvent(conn, out, "room:joined", "room:full", "room:not-found", "request:invalid")
		}
	}
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			out.PrintEvent(evt)
		}
	}()

	stop := make(chan struct{})
	defer close(stop)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return closeSession(conn, done)
		case <-done:
			out.PrintMessage("Disconnected")
			return nil
		case line, ok := <-lines:
			if !ok {
				return closeSession(conn, done)
			}
			c, err := parseCommand(line)
			if err != nil {
				out.PrintError(err)
				continue
			}
			switch {
			case c.quit:
				return closeSession(conn, done)
			case c.help:
				out.PrintMessage(playHelp)
			case c.frame != nil:
				if err := conn.WriteJSON(c.frame); err != nil {
					return fmt.Errorf("send failed: %w", err)
				}
			}
		}
	}
}

// awaitEvent prints events until one of the wanted type arrives.
// Any of the failure types ends the wait with an error.
func awaitEvent(conn *websocket.Conn, out *Output, want string, failures ...string) error {
	if err := conn.SetReadDeadline(time.Now().Add(confirmTimeout)); err != nil {
		return err
	}
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	for {
		var evt Event
		if err := conn.ReadJSON(&evt); err != nil {
			return fmt.Errorf("waiting for %s: %w", want, err)
		}
		out.PrintEvent(evt)

		if evt.Type == want {
			return nil
		}
		for _, f := range failures {
			if evt.Type == f {
				return fmt.Errorf("%s: %s", evt.Type, string(evt.Payload))
			}
		}
	}
}

func sendFrame(conn *websocket.Conn, eventType string, payload any) error {
	evt, err := newFrame(eventType, payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(evt)
}

func closeSession(conn *websocket.Conn, done <-chan struct{}) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))

	select {
	case <-done:
	case <-time.After(closeGrace):
	}
	return nil
}

type command struct {
	frame *Event
	quit  bool
	help  bool
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return command{quit: true}, nil
	case "help", "?":
		return command{help: true}, nil
	case "draw":
		return frameCommand("room:draw-roles", struct{}{})
	case "role":
		return frameCommand("role:get", struct{}{})
	case "leave":
		return frameCommand("room:leave", struct{}{})
	case "move":
		switch len(fields) {
		case 2:
			return frameCommand("chess:move", map[string]string{"move": fields[1]})
		case 3, 4:
			payload := map[string]string{"from": fields[1], "to": fields[2]}
			if len(fields) == 4 {
				payload["promotion"] = fields[3]
			}
			return frameCommand("chess:move", payload)
		default:
			return command{}, errors.New("usage: move <san|uci> or move <from> <to> [promotion]")
		}
	case "signal":
		if len(fields) < 4 {
			return command{}, errors.New("usage: signal <conn> <offer|answer|candidate> <json>")
		}
		kind := strings.ToLower(fields[2])
		if kind != "offer" && kind != "answer" && kind != "candidate" {
			return command{}, fmt.Errorf("unknown signal kind %q", fields[2])
		}
		raw := skipFields(line, 3)
		if !json.Valid([]byte(raw)) {
			return command{}, errors.New("signal payload must be valid JSON")
		}
		return frameCommand("signal:"+kind, map[string]any{
			"to":      fields[1],
			"payload": json.RawMessage(raw),
		})
	default:
		return command{}, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

func frameCommand(eventType string, payload any) (command, error) {
	evt, err := newFrame(eventType, payload)
	if err != nil {
		return command{}, err
	}
	return command{frame: evt}, nil
}

func newFrame(eventType string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", eventType, err)
	}
	return &Event{Type: eventType, Payload: raw}, nil
}

// skipFields returns what follows the first n whitespace-separated fields
func skipFields(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[idx:])
	}
	return rest
}

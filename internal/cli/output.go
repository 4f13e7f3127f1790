package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout, errW: os.Stderr}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one realtime event. JSON mode writes one object per line.
func (o *Output) PrintEvent(evt Event) {
	if o.format == "json" {
		data, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}

	payload := string(evt.Payload)
	if len(payload) > 200 {
		payload = payload[:200] + "..."
	}
	_, _ = fmt.Fprintf(o.w, "[%s] %s %s\n", time.Now().Format("15:04:05"), evt.Type, payload)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Room:
		o.printRoom(v)
	case MoveList:
		o.printMoveList(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// Participant response type
type Participant struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role,omitempty"`
	IsCreator   bool   `json:"is_creator"`
}

// Outcome response type
type Outcome struct {
	Result string `json:"result"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

// Room response type
type Room struct {
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Phase        string        `json:"phase"`
	Participants []Participant `json:"participants"`
	Position     string        `json:"position,omitempty"`
	MoveCount    int           `json:"move_count"`
	Outcome      *Outcome      `json:"outcome"`
}

// Move response type
type Move struct {
	Sequence      int       `json:"sequence"`
	Role          string    `json:"role"`
	Notation      string    `json:"notation"`
	PositionAfter string    `json:"position_after"`
	PlayedAt      time.Time `json:"played_at"`
}

// MoveList response type
type MoveList struct {
	Code  string `json:"code"`
	Moves []Move `json:"moves"`
}

// Event is a realtime envelope
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Rooms: %d\n", h.Rooms)
	_, _ = fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

func (o *Output) printRoom(r Room) {
	_, _ = fmt.Fprintf(o.w, "Room: %s (%s)\n", r.Code, r.Name)
	_, _ = fmt.Fprintf(o.w, "Phase: %s\n", r.Phase)
	if r.Position != "" {
		_, _ = fmt.Fprintf(o.w, "Moves played: %d\n", r.MoveCount)
		_, _ = fmt.Fprintf(o.w, "Position: %s\n", r.Position)
	}
	if r.Outcome != nil {
		if r.Outcome.Winner != "" {
			_, _ = fmt.Fprintf(o.w, "Result: %s (%s wins by %s)\n", r.Outcome.Result, r.Outcome.Winner, r.Outcome.Reason)
		} else {
			_, _ = fmt.Fprintf(o.w, "Result: %s (%s)\n", r.Outcome.Result, r.Outcome.Reason)
		}
	}
	_, _ = fmt.Fprintf(o.w, "Participants (%d):\n", len(r.Participants))
	for _, p := range r.Participants {
		extra := ""
		if p.Role != "" {
			extra = " - " + p.Role
		}
		if p.IsCreator {
			extra += " [creator]"
		}
		_, _ = fmt.Fprintf(o.w, "  - %s (%s)%s\n", p.DisplayName, p.UserID, extra)
	}
}

func (o *Output) printMoveList(l MoveList) {
	if len(l.Moves) == 0 {
		_, _ = fmt.Fprintf(o.w, "No moves recorded for %s\n", l.Code)
		return
	}
	_, _ = fmt.Fprintf(o.w, "Moves for %s:\n", l.Code)
	for _, m := range l.Moves {
		_, _ = fmt.Fprintf(o.w, "%4d. %-7s %s\n", m.Sequence, m.Notation, m.Role)
	}
}

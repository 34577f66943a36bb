package network

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
)

// MaxMessageSize bounds a single frame.
const MaxMessageSize = 1 << 20

// MsgType identifies the type of network message.
type MsgType string

const (
	MsgJoin        MsgType = "join"
	MsgWelcome     MsgType = "welcome"
	MsgInput       MsgType = "input"
	MsgStart       MsgType = "start"
	MsgState       MsgType = "state"
	MsgSubmit      MsgType = "submit"
	MsgLeaderboard MsgType = "leaderboard"
	MsgScoreboard  MsgType = "scoreboard"
	MsgError       MsgType = "error"
)

// Role is what a connection may do in the session.
type Role string

const (
	// RolePilot steers the player and may start rounds and submit the score.
	RolePilot Role = "pilot"
	// RoleSpectator only receives state.
	RoleSpectator Role = "spectator"
)

// Envelope wraps all messages with a type discriminator for deserialization.
type Envelope struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// --- Client → Server Messages ---

// JoinMsg is sent by a client to join the session.
type JoinMsg struct {
	Name string `json:"name"`
}

// InputMsg carries the pilot's latest direction key.
type InputMsg struct {
	Direction game.Direction `json:"direction"`
}

// SubmitMsg asks the server to record the last finished round under Name.
// The score is taken from the server's own engine.
type SubmitMsg struct {
	Name string `json:"name"`
}

// LeaderboardMsg requests the top Limit entries.
type LeaderboardMsg struct {
	Limit int `json:"limit"`
}

// --- Server → Client Messages ---

// WelcomeMsg is sent to a client after joining.
type WelcomeMsg struct {
	PlayerID string          `json:"player_id"`
	Role     Role            `json:"role"`
	Map      []string        `json:"map"`
	Config   game.GameConfig `json:"config"`
}

// StateMsg carries one tick of the running game.
type StateMsg struct {
	State game.Snapshot `json:"state"`
}

// ScoreboardMsg answers SubmitMsg and LeaderboardMsg.
// Error is empty on success; Taken is set when the name already exists.
type ScoreboardMsg struct {
	Entries []leaderboard.Entry `json:"entries"`
	Error   string              `json:"error,omitempty"`
	Taken   bool                `json:"taken,omitempty"`
}

// ErrorMsg notifies a client of an error.
type ErrorMsg struct {
	Message string `json:"message"`
}

// Encode serializes a message and writes it to the writer.
// Format: [4-byte big-endian length][JSON body]
func Encode(w io.Writer, msgType MsgType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := Envelope{
		Type:    msgType,
		Payload: json.RawMessage(payloadBytes),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if len(body) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes", len(body))
	}

	// Header and body go out in one write so concurrent frames never interleave.
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Decode reads a length-prefixed JSON message from the reader.
func Decode(r io.Reader) (*Envelope, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	if length > MaxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return &env, nil
}

// DecodePayload unmarshals the payload from an envelope into the target struct.
func DecodePayload(env *Envelope, target interface{}) error {
	return json.Unmarshal(env.Payload, target)
}

package network

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
)

// ErrSpectator is returned when a spectator tries to control the game.
var ErrSpectator = errors.New("spectators cannot control the game")

const requestTimeout = 5 * time.Second

// Client connects to a game server and provides methods to send input
// and receive state updates.
type Client struct {
	conn     net.Conn
	playerID string
	role     Role
	board    *game.Board
	config   game.GameConfig
	stateCh  chan game.Snapshot
	replyCh  chan ScoreboardMsg
	done     chan struct{}
	closeMu  sync.Once
	mu       sync.Mutex // guards writes
	reqMu    sync.Mutex // one request in flight
	errMu    sync.Mutex
	lastErr  string
}

// NewClient creates a new client and connects to the server.
func NewClient(addr, name string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &Client{
		conn:    conn,
		stateCh: make(chan game.Snapshot, 10),
		replyCh: make(chan ScoreboardMsg, 1),
		done:    make(chan struct{}),
	}

	if err := Encode(conn, MsgJoin, JoinMsg{Name: name}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}

	env, err := Decode(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	if env.Type == MsgError {
		var errMsg ErrorMsg
		DecodePayload(env, &errMsg)
		conn.Close()
		return nil, fmt.Errorf("server error: %s", errMsg.Message)
	}

	if env.Type != MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %s", env.Type)
	}

	var welcome WelcomeMsg
	if err := DecodePayload(env, &welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode welcome: %w", err)
	}

	board, err := game.ParseBoard(welcome.Map)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("server sent a bad map: %w", err)
	}

	c.playerID = welcome.PlayerID
	c.role = welcome.Role
	c.board = board
	c.config = welcome.Config

	go c.receiveLoop()

	return c, nil
}

// PlayerID returns the client's assigned id.
func (c *Client) PlayerID() string {
	return c.playerID
}

// Role reports whether this client pilots or spectates.
func (c *Client) Role() Role {
	return c.role
}

// Board returns the map received from the server.
func (c *Client) Board() *game.Board {
	return c.board
}

// Config returns the game configuration received from the server.
func (c *Client) Config() game.GameConfig {
	return c.config
}

// Snapshots yields state updates. It is closed when the connection ends.
func (c *Client) Snapshots() <-chan game.Snapshot {
	return c.stateCh
}

// LastError returns the most recent error reported by the server.
func (c *Client) LastError() string {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

// SetDirection sends the pilot's direction key to the server.
func (c *Client) SetDirection(d game.Direction) error {
	if c.role != RolePilot {
		return ErrSpectator
	}
	return c.send(MsgInput, InputMsg{Direction: d})
}

// Start asks the server to start a round (or the next one after game over).
func (c *Client) Start() error {
	if c.role != RolePilot {
		return ErrSpectator
	}
	return c.send(MsgStart, struct{}{})
}

// Submit records the last finished round under name. The server uses its own
// copy of the final score; score is ignored.
func (c *Client) Submit(name string, score int) error {
	if c.role != RolePilot {
		return ErrSpectator
	}
	reply, err := c.request(MsgSubmit, SubmitMsg{Name: name})
	if err != nil {
		return err
	}
	if reply.Taken {
		return fmt.Errorf("%w: %s", leaderboard.ErrNameTaken, name)
	}
	if reply.Error != "" {
		return errors.New(reply.Error)
	}
	return nil
}

// Top fetches the n best leaderboard entries from the server.
func (c *Client) Top(n int) ([]leaderboard.Entry, error) {
	reply, err := c.request(MsgLeaderboard, LeaderboardMsg{Limit: n})
	if err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, errors.New(reply.Error)
	}
	return reply.Entries, nil
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.closeMu.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) send(msgType MsgType, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Encode(c.conn, msgType, payload)
}

// request sends a message and waits for the scoreboard reply.
func (c *Client) request(msgType MsgType, payload interface{}) (ScoreboardMsg, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	// Discard a reply that arrived after an earlier timeout.
	select {
	case <-c.replyCh:
	default:
	}

	if err := c.send(msgType, payload); err != nil {
		return ScoreboardMsg{}, err
	}

	select {
	case reply := <-c.replyCh:
		return reply, nil
	case <-c.done:
		return ScoreboardMsg{}, errors.New("connection closed")
	case <-time.After(requestTimeout):
		return ScoreboardMsg{}, fmt.Errorf("%s: no reply from server", msgType)
	}
}

func (c *Client) receiveLoop() {
	defer close(c.stateCh)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		env, err := Decode(c.conn)
		if err != nil {
			return
		}

		switch env.Type {
		case MsgState:
			var stateMsg StateMsg
			if err := DecodePayload(env, &stateMsg); err != nil {
				continue
			}
			// Non-blocking send to state channel
			select {
			case c.stateCh <- stateMsg.State:
			default:
				// Drop old state if the consumer is slow; only the latest matters
				select {
				case <-c.stateCh:
				default:
				}
				c.stateCh <- stateMsg.State
			}
		case MsgScoreboard:
			var reply ScoreboardMsg
			if err := DecodePayload(env, &reply); err != nil {
				continue
			}
			select {
			case c.replyCh <- reply:
			default:
			}
		case MsgError:
			var errMsg ErrorMsg
			DecodePayload(env, &errMsg)
			log.Printf("[CLIENT] Server error: %s", errMsg.Message)
			c.errMu.Lock()
			c.lastErr = errMsg.Message
			c.errMu.Unlock()
		}
	}
}

package network

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/amalg/go-pacman/internal/game"
	"github.com/amalg/go-pacman/internal/leaderboard"
)

// Server hosts one game session. The first client to join pilots the player;
// everyone after that spectates.
type Server struct {
	board  *game.Board
	config game.GameConfig
	scores leaderboard.Store // may be nil
	hooks  []game.EngineHook

	addr     string
	listener net.Listener
	clients  map[string]*clientConn
	pilotID  string

	engine    *game.Engine
	round     int
	started   bool
	submitted bool

	mu   sync.RWMutex
	done chan struct{}
	stop sync.Once
}

// clientConn represents a connected client.
type clientConn struct {
	conn net.Conn
	id   string
	name string
	role Role
	mu   sync.Mutex
}

// SessionInfo summarises the session for LAN discovery and status output.
type SessionInfo struct {
	Pilot    string
	Watchers int
	Round    int
	Status   game.GameStatus
	Score    int
}

// NewServer creates a game server. scores may be nil to disable the leaderboard.
func NewServer(addr string, board *game.Board, config game.GameConfig, scores leaderboard.Store, hooks ...game.EngineHook) (*Server, error) {
	s := &Server{
		board:   board,
		config:  config,
		scores:  scores,
		hooks:   hooks,
		addr:    addr,
		clients: make(map[string]*clientConn),
		done:    make(chan struct{}),
	}
	if err := s.newRoundLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// newRoundLocked prepares a fresh engine. Each round gets its own seed so
// "play again" is a different game.
// MUST be called with s.mu held (or before the server is shared).
func (s *Server) newRoundLocked() error {
	cfg := s.config
	cfg.Seed += int64(s.round)
	engine, err := game.NewEngine(s.board, cfg)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	s.round++
	s.engine = engine
	s.started = false
	s.submitted = false

	round := s.round
	engine.OnTick(func(snap game.Snapshot) {
		s.broadcastState(snap)
	})
	engine.OnGameOver(func(score int) {
		s.roundOver(engine, score)
	})
	for _, h := range s.hooks {
		h(engine, round)
	}
	return nil
}

// Start begins accepting connections. The game itself starts when the pilot asks.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Printf("[SERVER] Listening on %s", s.listener.Addr())

	printLocalIPs(s.listener.Addr().String())

	go s.acceptLoop()

	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop shuts down the server.
func (s *Server) Stop() {
	s.stop.Do(func() {
		close(s.done)
		s.mu.RLock()
		s.engine.Stop()
		for _, c := range s.clients {
			c.conn.Close()
		}
		s.mu.RUnlock()
		if s.listener != nil {
			s.listener.Close()
		}
	})
}

// StartRound runs the current engine, or a new one if the last round ended.
func (s *Server) StartRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		if s.engine.Status() == game.StatusRunning {
			return errors.New("game already running")
		}
		if err := s.newRoundLocked(); err != nil {
			return err
		}
	}
	s.started = true
	log.Printf("[SERVER] Round %d started", s.round)
	go s.engine.Run()
	return nil
}

// Snapshot returns the state of the current round.
func (s *Server) Snapshot() game.Snapshot {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()
	return engine.Snapshot()
}

// Info describes the session.
func (s *Server) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := SessionInfo{Round: s.round}
	if pilot, ok := s.clients[s.pilotID]; ok {
		info.Pilot = pilot.name
	}
	info.Watchers = len(s.clients)
	if info.Pilot != "" {
		info.Watchers--
	}
	snap := s.engine.Snapshot()
	info.Status = snap.Status
	info.Score = snap.Player.Score
	return info
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("[SERVER] Accept error: %v", err)
				continue
			}
		}
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()

	env, err := Decode(conn)
	if err != nil {
		log.Printf("[SERVER] Failed to read join message: %v", err)
		return
	}

	if env.Type != MsgJoin {
		log.Printf("[SERVER] Expected join message, got %s", env.Type)
		Encode(conn, MsgError, ErrorMsg{Message: "expected join message"})
		return
	}

	var joinMsg JoinMsg
	if err := DecodePayload(env, &joinMsg); err != nil {
		log.Printf("[SERVER] Failed to decode join message: %v", err)
		return
	}

	cc := &clientConn{
		conn: conn,
		id:   uuid.NewString(),
		name: joinMsg.Name,
		role: RoleSpectator,
	}

	s.mu.Lock()
	if s.pilotID == "" {
		s.pilotID = cc.id
		cc.role = RolePilot
	}
	s.clients[cc.id] = cc
	s.mu.Unlock()

	log.Printf("[SERVER] %s joined as %s (%s)", joinMsg.Name, cc.role, cc.id)

	welcome := WelcomeMsg{
		PlayerID: cc.id,
		Role:     cc.role,
		Map:      s.board.Lines(),
		Config:   s.config,
	}
	if err := cc.send(MsgWelcome, welcome); err != nil {
		log.Printf("[SERVER] Failed to send welcome: %v", err)
		s.removeClient(cc.id)
		return
	}

	s.sendStateTo(cc, s.Snapshot())

	for {
		select {
		case <-s.done:
			return
		default:
		}

		env, err := Decode(conn)
		if err != nil {
			log.Printf("[SERVER] Client %s disconnected: %v", cc.id, err)
			s.removeClient(cc.id)
			return
		}

		s.handleMessage(cc, env)
	}
}

func (s *Server) handleMessage(cc *clientConn, env *Envelope) {
	switch env.Type {
	case MsgLeaderboard:
		var req LeaderboardMsg
		if err := DecodePayload(env, &req); err != nil {
			cc.sendError("invalid leaderboard request")
			return
		}
		cc.send(MsgScoreboard, s.scoreboard(req.Limit, nil))
		return
	case MsgInput, MsgStart, MsgSubmit:
	default:
		log.Printf("[SERVER] Unknown message type from %s: %s", cc.id, env.Type)
		return
	}

	if !s.isPilot(cc.id) {
		cc.sendError("spectators cannot control the game")
		return
	}

	switch env.Type {
	case MsgInput:
		var input InputMsg
		if err := DecodePayload(env, &input); err != nil {
			log.Printf("[SERVER] Invalid input from %s: %v", cc.id, err)
			return
		}
		s.mu.RLock()
		s.engine.SetInputDirection(input.Direction)
		s.mu.RUnlock()
	case MsgStart:
		if err := s.StartRound(); err != nil {
			cc.sendError(err.Error())
		}
	case MsgSubmit:
		var req SubmitMsg
		if err := DecodePayload(env, &req); err != nil {
			cc.sendError("invalid submit request")
			return
		}
		cc.send(MsgScoreboard, s.submit(req.Name))
	}
}

func (s *Server) isPilot(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pilotID == id
}

func (s *Server) roundOver(engine *game.Engine, score int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if engine == s.engine {
		log.Printf("[SERVER] Round %d over with score %d", s.round, score)
	}
}

// submit stores the finished round's score under name. Store failures are
// reported to the pilot and logged; they never stop the session.
func (s *Server) submit(name string) ScoreboardMsg {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.engine.Snapshot()
	switch {
	case s.scores == nil:
		return ScoreboardMsg{Error: "leaderboard disabled"}
	case !s.started || !snap.Over:
		return ScoreboardMsg{Error: "no finished round to submit"}
	case s.submitted:
		return ScoreboardMsg{Error: "score already submitted"}
	}

	if err := s.scores.Submit(name, snap.Player.Score); err != nil {
		log.Printf("[SERVER] Leaderboard submit for %q failed: %v", name, err)
		return s.scoreboard(leaderboard.DefaultTop, err)
	}
	s.submitted = true
	return s.scoreboard(leaderboard.DefaultTop, nil)
}

func (s *Server) scoreboard(limit int, submitErr error) ScoreboardMsg {
	msg := ScoreboardMsg{}
	if submitErr != nil {
		msg.Error = submitErr.Error()
		msg.Taken = errors.Is(submitErr, leaderboard.ErrNameTaken)
	}
	if s.scores == nil {
		if msg.Error == "" {
			msg.Error = "leaderboard disabled"
		}
		return msg
	}
	entries, err := s.scores.Load()
	if err != nil {
		log.Printf("[SERVER] Leaderboard load failed: %v", err)
		if msg.Error == "" {
			msg.Error = "leaderboard unavailable"
		}
		return msg
	}
	if limit <= 0 {
		limit = leaderboard.DefaultTop
	}
	msg.Entries = leaderboard.Top(entries, limit)
	return msg
}

// removeClient drops a connection. When the pilot leaves, the running round
// is stopped and the next client to join takes over.
func (s *Server) removeClient(id string) {
	s.mu.Lock()
	if cc, ok := s.clients[id]; ok {
		cc.conn.Close()
		delete(s.clients, id)
	}
	wasPilot := s.pilotID == id
	if wasPilot {
		s.pilotID = ""
		if s.started {
			s.engine.Stop()
			if err := s.newRoundLocked(); err != nil {
				log.Printf("[SERVER] Failed to reset round: %v", err)
			}
		}
	}
	s.mu.Unlock()
	log.Printf("[SERVER] Client removed: %s (pilot=%v)", id, wasPilot)
}

func (s *Server) broadcastState(state game.Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cc := range s.clients {
		s.sendStateTo(cc, state)
	}
}

func (s *Server) sendStateTo(cc *clientConn, state game.Snapshot) {
	if err := cc.send(MsgState, StateMsg{State: state}); err != nil {
		log.Printf("[SERVER] Failed to send state to %s: %v", cc.id, err)
	}
}

func (cc *clientConn) send(msgType MsgType, payload interface{}) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return Encode(cc.conn, msgType, payload)
}

func (cc *clientConn) sendError(message string) {
	if err := cc.send(MsgError, ErrorMsg{Message: message}); err != nil {
		log.Printf("[SERVER] Failed to send error to %s: %v", cc.id, err)
	}
}

// printLocalIPs prints all local network interfaces for players to connect to.
func printLocalIPs(addr string) {
	_, port, _ := net.SplitHostPort(addr)

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return
	}

	log.Println("[SERVER] Players can connect using:")
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				log.Printf("[SERVER]   %s:%s", ipnet.IP.String(), port)
			}
		}
	}
}

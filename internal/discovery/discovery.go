package discovery

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sort"
	"sync"
	"time"
)

const (
	// BroadcastPort is the UDP port used for session discovery.
	BroadcastPort = 9998
	// BroadcastInterval is how often hosts advertise their session.
	BroadcastInterval = 1 * time.Second
	// SessionExpiry is how long a session stays visible after its last broadcast.
	SessionExpiry = 4 * time.Second
)

// SessionInfo describes a hosted game on the network.
type SessionInfo struct {
	HostName string `json:"host_name"`
	Pilot    string `json:"pilot"`    // empty while the seat is free
	Watchers int    `json:"watchers"` // connected spectators
	Status   string `json:"status"`
	Score    int    `json:"score"`
	GameAddr string `json:"game_addr"` // TCP host:port to connect to
	HTTPAddr string `json:"http_addr,omitempty"`
}

// Open reports whether a newcomer would get to pilot.
func (s SessionInfo) Open() bool { return s.Pilot == "" }

// --- Broadcaster ---

// Broadcaster periodically sends UDP broadcast packets with session info.
type Broadcaster struct {
	info   SessionInfo
	source func() SessionInfo
	port   int
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
}

// NewBroadcaster creates a new session broadcaster.
func NewBroadcaster(info SessionInfo) *Broadcaster {
	return &Broadcaster{
		info: info,
		port: BroadcastPort,
		done: make(chan struct{}),
	}
}

// Update replaces the advertised info.
func (b *Broadcaster) Update(info SessionInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info = info
}

// SetSource makes every broadcast ask fn for fresh info instead of using
// the last Update.
func (b *Broadcaster) SetSource(fn func() SessionInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.source = fn
}

// Info returns what the next broadcast will carry.
func (b *Broadcaster) Info() SessionInfo {
	b.mu.Lock()
	source := b.source
	info := b.info
	b.mu.Unlock()
	if source != nil {
		info = source()
	}
	return info
}

// Start begins broadcasting session info via UDP.
func (b *Broadcaster) Start() error {
	go b.broadcastLoop()
	return nil
}

// Stop stops the broadcaster.
func (b *Broadcaster) Stop() {
	b.once.Do(func() { close(b.done) })
}

func (b *Broadcaster) broadcastLoop() {
	// Use ListenPacket (not DialUDP) so broadcast works on Linux.
	// DialUDP to 255.255.255.255 silently fails without SO_BROADCAST.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		log.Printf("[DISCOVERY] Failed to create broadcast socket: %v", err)
		return
	}
	defer conn.Close()

	dst := &net.UDPAddr{
		IP:   net.IPv4bcast,
		Port: b.port,
	}

	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	b.sendBroadcast(conn, dst)

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.sendBroadcast(conn, dst)
		}
	}
}

func (b *Broadcaster) sendBroadcast(conn net.PacketConn, dst net.Addr) {
	data, err := json.Marshal(b.Info())
	if err != nil {
		return
	}

	// Loopback first: 255.255.255.255 is often dropped by the local firewall.
	loopback := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: b.port}
	conn.WriteTo(data, loopback)

	conn.WriteTo(data, dst)

	b.broadcastOnInterfaces(conn, data)
}

// broadcastOnInterfaces sends to each interface's broadcast address as a fallback.
func (b *Broadcaster) broadcastOnInterfaces(conn net.PacketConn, data []byte) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			dst := &net.UDPAddr{IP: broadcastAddr(ipnet), Port: b.port}
			conn.WriteTo(data, dst)
		}
	}
}

// broadcastAddr computes IP | ^Mask for an IPv4 network.
func broadcastAddr(ipnet *net.IPNet) net.IP {
	ip4 := ipnet.IP.To4()
	mask := ipnet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	broadcast := make(net.IP, 4)
	for i := range broadcast {
		broadcast[i] = ip4[i] | ^mask[i]
	}
	return broadcast
}

// --- Listener ---

// discoveredSession holds a session and when it was last seen.
type discoveredSession struct {
	Info     SessionInfo
	LastSeen time.Time
}

// Listener listens for UDP broadcast session advertisements.
type Listener struct {
	sessions map[string]*discoveredSession // keyed by GameAddr
	mu       sync.RWMutex
	conn     *net.UDPConn
	port     int
	done     chan struct{}
	once     sync.Once
}

// NewListener creates a new session listener.
func NewListener() *Listener {
	return &Listener{
		sessions: make(map[string]*discoveredSession),
		port:     BroadcastPort,
		done:     make(chan struct{}),
	}
}

// Start begins listening for session broadcasts.
func (l *Listener) Start() error {
	addr := &net.UDPAddr{
		Port: l.port,
		IP:   net.IPv4zero,
	}

	var err error
	l.conn, err = net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("listen UDP on port %d: %w (is another instance browsing?)", l.port, err)
	}

	go l.listenLoop()
	go l.cleanupLoop()

	return nil
}

// Stop stops the listener.
func (l *Listener) Stop() {
	l.once.Do(func() { close(l.done) })
	if l.conn != nil {
		l.conn.Close()
	}
}

// Sessions returns the currently visible sessions, ordered by address.
func (l *Listener) Sessions() []SessionInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sessions := make([]SessionInfo, 0, len(l.sessions))
	for _, ds := range l.sessions {
		sessions = append(sessions, ds.Info)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].GameAddr < sessions[j].GameAddr
	})
	return sessions
}

func (l *Listener) listenLoop() {
	buf := make([]byte, 4096)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		l.record(buf[:n], time.Now())
	}
}

// record stores an advertisement. Packets that are not session info are ignored.
func (l *Listener) record(data []byte, now time.Time) bool {
	var info SessionInfo
	if err := json.Unmarshal(data, &info); err != nil || info.GameAddr == "" {
		return false
	}

	l.mu.Lock()
	l.sessions[info.GameAddr] = &discoveredSession{
		Info:     info,
		LastSeen: now,
	}
	l.mu.Unlock()
	return true
}

func (l *Listener) expire(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for addr, ds := range l.sessions {
		if now.Sub(ds.LastSeen) > SessionExpiry {
			delete(l.sessions, addr)
		}
	}
}

func (l *Listener) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.expire(now)
		}
	}
}

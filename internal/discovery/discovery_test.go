package discovery

import (
	"encoding/json"
	"net"
	"testing"
	"time"
)

func TestListenerRecordsAndExpires(t *testing.T) {
	l := NewListener()
	now := time.Now()

	a, _ := json.Marshal(SessionInfo{HostName: "alpha", GameAddr: "10.0.0.2:9999", Status: "running"})
	b, _ := json.Marshal(SessionInfo{HostName: "beta", GameAddr: "10.0.0.1:9999"})

	if !l.record(a, now) || !l.record(b, now.Add(3*time.Second)) {
		t.Fatal("valid advertisements were rejected")
	}
	if l.record([]byte("not json"), now) {
		t.Fatal("garbage should be ignored")
	}
	if l.record([]byte(`{"host_name":"x"}`), now) {
		t.Fatal("advertisement without an address should be ignored")
	}

	sessions := l.Sessions()
	if len(sessions) != 2 || sessions[0].HostName != "beta" || sessions[1].HostName != "alpha" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
	if !sessions[0].Open() {
		t.Fatal("session without pilot should be open")
	}

	l.expire(now.Add(SessionExpiry + time.Second))
	sessions = l.Sessions()
	if len(sessions) != 1 || sessions[0].HostName != "beta" {
		t.Fatalf("expected only beta to survive, got %+v", sessions)
	}
}

func TestBroadcasterSource(t *testing.T) {
	b := NewBroadcaster(SessionInfo{HostName: "host", GameAddr: "1.2.3.4:9999"})
	if got := b.Info().HostName; got != "host" {
		t.Fatalf("expected static info, got %q", got)
	}

	b.Update(SessionInfo{HostName: "renamed"})
	if got := b.Info().HostName; got != "renamed" {
		t.Fatalf("expected updated info, got %q", got)
	}

	calls := 0
	b.SetSource(func() SessionInfo {
		calls++
		return SessionInfo{HostName: "live", Score: calls * 100}
	})
	if info := b.Info(); info.HostName != "live" || info.Score != 100 {
		t.Fatalf("expected source info, got %+v", info)
	}
	b.Stop()
	b.Stop()
}

func TestBroadcastAddr(t *testing.T) {
	_, ipnet, err := net.ParseCIDR("192.168.1.17/24")
	if err != nil {
		t.Fatal(err)
	}
	ipnet.IP = net.ParseIP("192.168.1.17")
	if got := broadcastAddr(ipnet).String(); got != "192.168.1.255" {
		t.Fatalf("expected 192.168.1.255, got %s", got)
	}
}

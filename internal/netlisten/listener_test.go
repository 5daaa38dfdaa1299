package netlisten

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/debashish-mukherjee/go-snmpsim/internal/pool"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
)

func setupStore(t *testing.T) *profile.Store {
	t.Helper()
	store := profile.NewStore()
	path := filepath.Join(t.TempDir(), "cable_modem.walk")
	contents := ".1.3.6.1.2.1.1.1.0 = STRING: \"Cable Modem\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := store.LoadWalkProfile("cable_modem", path); err != nil {
		t.Fatalf("LoadWalkProfile: %v", err)
	}
	return store
}

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0, IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()
	return port
}

func TestListenerRoundTripsGetRequest(t *testing.T) {
	store := setupStore(t)
	p := pool.New(pool.Config{MaxDevices: 10, IdleTimeout: time.Hour}, store)
	defer p.ShutdownAllDevices()
	defer p.Stop()

	port := freePort(t)
	if err := p.ConfigurePortAssignments([]pool.Assignment{
		{DeviceType: "cable_modem", Range: pool.PortRange{Start: port, End: port}, Community: "public"},
	}); err != nil {
		t.Fatalf("ConfigurePortAssignments: %v", err)
	}

	l := New(p, "127.0.0.1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := l.Start(ctx, port, port); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop()

	client := &gosnmp.GoSNMP{
		Target:    "127.0.0.1",
		Port:      uint16(port),
		Community: "public",
		Version:   gosnmp.Version2c,
		Timeout:   2 * time.Second,
		Retries:   1,
	}
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{"1.3.6.1.2.1.1.1.0"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(result.Variables) != 1 {
		t.Fatalf("expected 1 variable, got %d", len(result.Variables))
	}
	val, ok := result.Variables[0].Value.(string)
	if !ok || val != "Cable Modem" {
		t.Fatalf("unexpected value: %+v", result.Variables[0].Value)
	}

	if l.Stats.PacketsReceived.Load() == 0 {
		t.Fatalf("expected at least one packet received")
	}
}

func TestCorruptTruncatesFrame(t *testing.T) {
	frame := []byte{1, 2, 3, 4, 5, 6}
	out := corrupt(append([]byte(nil), frame...), "truncated")
	if len(out) >= len(frame) {
		t.Fatalf("expected truncation to shorten the frame")
	}
}

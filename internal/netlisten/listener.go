// Package netlisten implements the UDP Listener (spec component L): one
// net.UDPConn per device port, decoding inbound datagrams with gosnmp and
// handing them to the owning device.Actor.
//
// Grounded directly on the teacher's internal/engine/simulator.go
// startListener/handleListener/setSocketOptions: the per-port goroutine,
// deadline-based cancellable read loop, sync.Pool buffer reuse, and the
// SO_RCVBUF/SO_SNDBUF/SO_REUSEPORT socket tuning via golang.org/x/sys/unix
// are carried over unchanged in spirit. Generalized from the teacher's
// fixed agents map to pool.Pool's lazy get_or_create_device, and from a
// direct VirtualAgent.HandlePacketFrom call to device.Actor.Submit/reply,
// which lets injected drops and delays (internal/inject) surface as "no
// response written" or "response written late" exactly as real faulty
// hardware would look on the wire.
package netlisten

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gosnmp/gosnmp"
	"golang.org/x/sys/unix"

	"github.com/debashish-mukherjee/go-snmpsim/internal/device"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pool"
)

// Stats accumulates per-process counters for observability. They are read
// directly from Listener.Stats; nothing copies them into internal/metrics.
type Stats struct {
	PacketsReceived  atomic.Int64
	DecodeErrors     atomic.Int64
	AuthFailures     atomic.Int64
	ErrorResponses   atomic.Int64
	Dropped          atomic.Int64
	TotalProcessedNS atomic.Int64
}

// Listener owns one UDP socket per port in [startPort, endPort] and routes
// decoded PDUs to the Pool's devices.
type Listener struct {
	pool       *pool.Pool
	listenAddr string

	mu      sync.Mutex
	conns   map[int]*net.UDPConn
	wg      sync.WaitGroup
	running atomic.Bool

	bufPool *sync.Pool

	Stats Stats
}

// New returns a Listener that spawns connections lazily via Start.
func New(p *pool.Pool, listenAddr string) *Listener {
	return &Listener{
		pool:       p,
		listenAddr: listenAddr,
		conns:      make(map[int]*net.UDPConn),
		bufPool: &sync.Pool{
			New: func() interface{} { return make([]byte, 65535) },
		},
	}
}

// Start opens a UDP listener for every port in [startPort, endPort] and
// begins serving it in its own goroutine. It may be called once per port
// range (e.g. once per device group).
func (l *Listener) Start(ctx context.Context, startPort, endPort int) error {
	l.running.Store(true)

	l.mu.Lock()
	defer l.mu.Unlock()
	for port := startPort; port <= endPort; port++ {
		conn, err := l.listen(port)
		if err != nil {
			return err
		}
		l.conns[port] = conn
		l.wg.Add(1)
		go l.serve(ctx, conn, port)
	}
	log.Printf("netlisten: listening on %s ports %d-%d", l.listenAddr, startPort, endPort)
	return nil
}

func (l *Listener) listen(port int) (*net.UDPConn, error) {
	addr := net.UDPAddr{Port: port, IP: net.ParseIP(l.listenAddr)}
	conn, err := net.ListenUDP("udp", &addr)
	if err != nil {
		return nil, fmt.Errorf("netlisten: listen port %d: %w", port, err)
	}
	if err := setSocketOptions(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("netlisten: socket options port %d: %w", port, err)
	}
	return conn, nil
}

func (l *Listener) serve(ctx context.Context, conn *net.UDPConn, port int) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		buf := l.bufPool.Get().([]byte)
		conn.SetReadDeadline(time.Now().Add(time.Second))
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			l.bufPool.Put(buf)
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if l.running.Load() {
				log.Printf("netlisten: read error on port %d: %v", port, err)
			}
			continue
		}

		started := time.Now()
		l.Stats.PacketsReceived.Add(1)
		frame := append([]byte(nil), buf[:n]...)
		l.bufPool.Put(buf)

		resp, ok := l.handleFrame(port, frame)
		l.Stats.TotalProcessedNS.Add(time.Since(started).Nanoseconds())
		if !ok {
			continue
		}
		if _, err := conn.WriteToUDP(resp, remote); err != nil {
			log.Printf("netlisten: write error on port %d: %v", port, err)
		}
	}
}

// decodePacket tries a v2c decoder first, falling back to v1 — the wire
// encoding differs only in how error-status/exception markers are
// interpreted downstream, not in the outer ASN.1 envelope, so either
// decoder can parse either version's bytes; this just picks the Version
// field pdu.Process will see.
func decodePacket(frame []byte) (*gosnmp.SnmpPacket, error) {
	decoderV2 := gosnmp.GoSNMP{Version: gosnmp.Version2c, Community: "public"}
	if packet, err := decoderV2.SnmpDecodePacket(frame); err == nil {
		return packet, nil
	}
	decoderV1 := gosnmp.GoSNMP{Version: gosnmp.Version1, Community: "public"}
	return decoderV1.SnmpDecodePacket(frame)
}

func (l *Listener) handleFrame(port int, frame []byte) ([]byte, bool) {
	packet, err := decodePacket(frame)
	if err != nil {
		l.Stats.DecodeErrors.Add(1)
		return nil, false
	}

	actor, err := l.pool.GetOrCreateDevice(port)
	if err != nil {
		l.Stats.DecodeErrors.Add(1)
		return nil, false
	}

	reply := make(chan device.Response, 1)
	if !actor.Submit(device.Request{Packet: packet, ReplyTo: reply}) {
		l.Stats.Dropped.Add(1)
		return nil, false
	}

	select {
	case resp := <-reply:
		if resp.Drop {
			l.Stats.Dropped.Add(1)
			return nil, false
		}
		if resp.Packet.Error != gosnmp.NoError {
			l.Stats.ErrorResponses.Add(1)
		}
		out, err := resp.Packet.MarshalMsg()
		if err != nil {
			l.Stats.DecodeErrors.Add(1)
			return nil, false
		}
		if resp.Malformed {
			out = corrupt(out, resp.Corruption)
		}
		return out, true
	case <-time.After(5 * time.Second):
		l.Stats.Dropped.Add(1)
		return nil, false
	}
}

// Stop closes every listener and waits for its goroutine to exit.
func (l *Listener) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.mu.Lock()
	for port, conn := range l.conns {
		conn.SetDeadline(time.Now())
		if err := conn.Close(); err != nil {
			log.Printf("netlisten: close error on port %d: %v", port, err)
		}
	}
	l.conns = make(map[int]*net.UDPConn)
	l.mu.Unlock()
	l.wg.Wait()
}

// setSocketOptions tunes buffer sizes and enables SO_REUSEPORT, matching
// the teacher's per-listener socket configuration.
func setSocketOptions(conn *net.UDPConn) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("raw conn: %w", err)
	}

	var setErr error
	err = rawConn.Control(func(fd uintptr) {
		ifd := int(fd)
		if err := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, 256*1024); err != nil {
			setErr = fmt.Errorf("SO_RCVBUF: %w", err)
			return
		}
		if err := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, syscall.SO_SNDBUF, 256*1024); err != nil {
			setErr = fmt.Errorf("SO_SNDBUF: %w", err)
			return
		}
		if err := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, int(unix.SO_REUSEPORT), 1); err != nil {
			log.Printf("netlisten: SO_REUSEPORT unavailable: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("rawConn.Control: %w", err)
	}
	return setErr
}

package stream

import (
	"context"
	"net"
	"sync"
	"time"
)

// Network reports the state of the active network.
type Network interface {
	Connected() bool
	Metered() bool
}

// StaticNetwork is a Network with fixed answers.
type StaticNetwork struct {
	Offline   bool
	IsMetered bool
}

func (s StaticNetwork) Connected() bool { return !s.Offline }
func (s StaticNetwork) Metered() bool   { return s.IsMetered }

// Probe checks connectivity by dialing a host and remembers the answer for a
// short while. Metered is taken from configuration.
type Probe struct {
	addr    string
	metered bool
	timeout time.Duration
	ttl     time.Duration

	mu      sync.Mutex
	checked time.Time
	online  bool
	now     func() time.Time
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewProbe creates a probe dialing addr (host:port).
func NewProbe(addr string, metered bool) *Probe {
	d := &net.Dialer{}
	return &Probe{
		addr:    addr,
		metered: metered,
		timeout: 2 * time.Second,
		ttl:     5 * time.Second,
		now:     time.Now,
		dial:    d.DialContext,
	}
}

func (p *Probe) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if !p.checked.IsZero() && now.Sub(p.checked) < p.ttl {
		return p.online
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	conn, err := p.dial(ctx, "tcp", p.addr)
	if err == nil {
		conn.Close()
	}
	p.online = err == nil
	p.checked = now
	return p.online
}

func (p *Probe) Metered() bool { return p.metered }

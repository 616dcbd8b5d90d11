// Package health probes item addresses over TCP to find a reachable profile.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/aardel/launchpad/internal/metrics"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
)

// DefaultTimeout bounds a single TCP probe.
const DefaultTimeout = 1500 * time.Millisecond

// ErrNoProbePort is returned for items that have no port to probe.
var ErrNoProbePort = errors.New("no port to probe")

// DefaultPorts are probe ports for protocols without a URL default port.
var DefaultPorts = map[string]int{
	"rdp": 3389,
	"vnc": 5900,
}

// Reachable is a profile whose address accepted a connection.
type Reachable struct {
	Profile network.Profile
	Address string
}

// Status is the outcome of probing one profile.
type Status struct {
	Profile   network.Profile `json:"profile"`
	Address   string          `json:"address"`
	Reachable bool            `json:"reachable"`
	Latency   time.Duration   `json:"latency"`
	Error     string          `json:"error,omitempty"`
}

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Prober checks addresses with TCP connects, one at a time.
type Prober struct {
	timeout time.Duration
	ports   map[string]int
	dial    DialFunc
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPorts adds or overrides protocol probe ports.
func WithPorts(ports map[string]int) Option {
	return func(p *Prober) {
		for k, v := range ports {
			p.ports[strings.ToLower(k)] = v
		}
	}
}

// WithDialer replaces the TCP dialer.
func WithDialer(d DialFunc) Option {
	return func(p *Prober) { p.dial = d }
}

// NewProber returns a Prober with DefaultTimeout and DefaultPorts.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		timeout: DefaultTimeout,
		ports:   make(map[string]int, len(DefaultPorts)),
		dial:    (&net.Dialer{}).DialContext,
	}
	for k, v := range DefaultPorts {
		p.ports[k] = v
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// FindFirstReachable probes the item's addresses in profile order and returns
// the first that accepts a connection, or nil when none does.
func (p *Prober) FindFirstReachable(ctx context.Context, item *store.Item) (*Reachable, error) {
	addrs, port, err := p.endpoint(item)
	if err != nil {
		return nil, err
	}

	for _, profile := range network.Profiles() {
		host := addrs.Get(profile)
		if host == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := p.probe(ctx, profile, host, port); err == nil {
			return &Reachable{Profile: profile, Address: host}, nil
		}
	}
	return nil, nil
}

// Check probes every configured address of the item.
func (p *Prober) Check(ctx context.Context, item *store.Item) ([]Status, error) {
	addrs, port, err := p.endpoint(item)
	if err != nil {
		return nil, err
	}

	var out []Status
	for _, profile := range network.Profiles() {
		host := addrs.Get(profile)
		if host == "" {
			continue
		}
		st := Status{Profile: profile, Address: host}
		latency, err := p.probe(ctx, profile, host, port)
		st.Latency = latency
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Reachable = true
		}
		out = append(out, st)
	}
	return out, nil
}

func (p *Prober) probe(ctx context.Context, profile network.Profile, host string, port int) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dial(ctx, "tcp", net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port)))
	latency := time.Since(start)
	if err != nil {
		metrics.HealthProbes.WithLabelValues(string(profile), "unreachable").Inc()
		return latency, err
	}
	conn.Close()
	metrics.HealthProbes.WithLabelValues(string(profile), "reachable").Inc()
	return latency, nil
}

// endpoint returns the addresses and port to probe for item.
func (p *Prober) endpoint(item *store.Item) (network.Addresses, int, error) {
	v, err := item.Variant()
	if err != nil {
		return network.Addresses{}, 0, err
	}

	switch v := v.(type) {
	case *store.Bookmark:
		port := v.Port
		if port == 0 {
			proto, err := target.ParseProtocol(v.Protocol)
			if err != nil {
				return network.Addresses{}, 0, err
			}
			scheme := target.Scheme(proto, v.CustomScheme)
			if port = target.DefaultPort(scheme); port == 0 {
				port = p.ports[scheme]
			}
		}
		if port == 0 {
			return network.Addresses{}, 0, fmt.Errorf("%w: %s", ErrNoProbePort, item.Name)
		}
		return v.Addresses, port, nil
	case *store.SSH:
		port := v.Port
		if port == 0 {
			port = store.DefaultSSHPort
		}
		return v.Addresses, port, nil
	default:
		return network.Addresses{}, 0, fmt.Errorf("%w: %s items have no address", ErrNoProbePort, item.Kind)
	}
}

package crafty

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Thebestandgreatest/craftybroker/pkg/log"
	"github.com/Thebestandgreatest/craftybroker/pkg/metrics"
	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

const (
	// DefaultPort is assumed when the configured server address has no port
	DefaultPort = 25565

	pollInterval    = 100 * time.Millisecond
	convergeTimeout = 10 * time.Second
)

// transport abstracts the controller client so the engine can be tested
// against a fake remote
type transport interface {
	Send(ctx context.Context, ep Endpoint, action ActionKind) (*Result, error)
}

// Broker manages the lifecycle of one remotely hosted server. Lifecycle calls
// are synchronous and blocking; polling exists only inside Start and Stop
// while their deadline has not elapsed, and no call spawns background work.
//
// The broker does not serialize overlapping lifecycle calls for its server;
// that is the orchestrator's responsibility. It does guard the endpoint
// configuration so a poll loop always reads a consistent snapshot.
type Broker struct {
	name   string
	logger zerolog.Logger

	mu       sync.Mutex
	endpoint Endpoint
	client   transport

	// newTransport rebuilds the client when a configuration swap changes the
	// trust policy
	newTransport func(Endpoint) transport

	pollInterval    time.Duration
	convergeTimeout time.Duration
}

// FromConfig builds a broker from an orchestrator-supplied configuration.
// The config must be tagged for a crafty server.
func FromConfig(cfg types.Config) (*Broker, error) {
	payload, err := cfg.CraftyPayload()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigType, err)
	}
	return New(cfg.Name, payload), nil
}

// New builds a broker for one server from its crafty payload
func New(name string, cfg *types.CraftyConfig) *Broker {
	b := &Broker{
		name:            name,
		logger:          log.WithServer(name, cfg.ServerID),
		endpoint:        EndpointFromConfig(cfg),
		newTransport:    buildClient,
		pollInterval:    pollInterval,
		convergeTimeout: convergeTimeout,
	}
	b.client = b.newTransport(b.endpoint)
	return b
}

// buildClient constructs the real HTTP transport for an endpoint. The
// insecure capability is created here, and only when the endpoint opts in.
func buildClient(ep Endpoint) transport {
	c := NewClient()
	if ep.Insecure {
		c = c.WithInsecureTLS(TrustAllCerts{})
	}
	return c
}

// Name returns the orchestrator-facing name of the managed server
func (b *Broker) Name() string {
	return b.name
}

// snapshot returns a consistent copy of the current endpoint and transport
func (b *Broker) snapshot() (Endpoint, transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.endpoint, b.client
}

func (b *Broker) swap(next Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if next.Insecure != b.endpoint.Insecure {
		b.client = b.newTransport(next)
	}
	b.endpoint = next
}

// Status issues a status read against the controller. A failed or ambiguous
// read yields StatusUnknown with the failure logged, never an error: unknown
// is not terminal and the next successful read re-establishes the real state.
func (b *Broker) Status(ctx context.Context) types.RemoteStatus {
	ep, client := b.snapshot()

	res, err := client.Send(ctx, ep, ActionStatus)
	if err != nil {
		b.logger.Warn().Err(err).Msg("status read failed")
		return types.StatusUnknown
	}
	if !res.OK {
		b.logger.Warn().Str("detail", res.ErrorDetail).Msg("controller reported error on status read")
		return types.StatusUnknown
	}
	if res.State != nil && res.State.Running {
		return types.StatusRunning
	}
	// An ok reply without a running flag means not running, never unknown.
	return types.StatusStopped
}

// IsRunning reports whether the server is observably running
func (b *Broker) IsRunning(ctx context.Context) bool {
	return b.Status(ctx) == types.StatusRunning
}

// Start commands the server to start and blocks until it is observably
// running or the polling deadline elapses
func (b *Broker) Start(ctx context.Context) error {
	return b.transition(ctx, ActionStart, types.StatusRunning)
}

// Stop commands the server to stop and blocks until it is observably stopped
// or the polling deadline elapses
func (b *Broker) Stop(ctx context.Context) error {
	return b.transition(ctx, ActionStop, types.StatusStopped)
}

// transition issues a lifecycle command and polls until the target state is
// reached. A rejected command fails immediately without polling.
func (b *Broker) transition(ctx context.Context, action ActionKind, target types.RemoteStatus) error {
	ep, client := b.snapshot()

	res, err := client.Send(ctx, ep, action)
	if err != nil {
		return fmt.Errorf("%s command: %w", action, err)
	}
	if !res.OK {
		return &CommandRejectedError{Action: action, Detail: res.ErrorDetail}
	}

	b.logger.Info().Str("action", string(action)).Str("target", string(target)).Msg("command accepted, awaiting convergence")

	timer := metrics.NewTimer()
	if err := b.awaitStatus(ctx, target); err != nil {
		return err
	}
	timer.ObserveDurationVec(metrics.ConvergenceDuration, string(action))

	b.logger.Info().Str("state", string(target)).Msg("server converged")
	return nil
}

// awaitStatus polls the controller at a fixed interval until the target state
// is observed or the deadline elapses. An unknown state mid-poll aborts
// immediately: the server is presumed crashed or unreachable.
func (b *Broker) awaitStatus(ctx context.Context, target types.RemoteStatus) error {
	deadline := time.Now().Add(b.convergeTimeout)
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		switch state := b.Status(ctx); state {
		case target:
			return nil
		case types.StatusUnknown:
			return &StateUnknownError{Target: target}
		}

		if time.Now().After(deadline) {
			return &ConvergenceTimeoutError{Target: target, Waited: b.convergeTimeout}
		}
	}
}

// Remove stops the server best-effort and then issues the destructive removal
// call, which destroys the server's persisted data on the controller. The
// removal is attempted even when the stop fails, to avoid orphaned resources;
// success is reported iff the destructive call itself succeeds.
func (b *Broker) Remove(ctx context.Context) error {
	if err := b.Stop(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("stop before removal failed, attempting removal anyway")
	}

	ep, client := b.snapshot()
	action := ActionDelete
	if ep.LegacyKill {
		action = ActionKill
	}

	res, err := client.Send(ctx, ep, action)
	if err != nil {
		return fmt.Errorf("%s command: %w", action, err)
	}
	if !res.OK {
		return &CommandRejectedError{Action: action, Detail: res.ErrorDetail}
	}

	b.logger.Info().Msg("server removed from controller")
	return nil
}

// PendingChange is the deferred unit of work Reconcile returns. The
// orchestrator invokes Apply when it is ready for the cutover; the server
// keeps running under the old settings until then.
type PendingChange struct {
	broker *Broker
	next   Endpoint
	noop   bool
}

// NoOp reports whether applying the change does nothing
func (p *PendingChange) NoOp() bool {
	return p.noop
}

// Apply performs stop, configuration swap, start, in that order, so the
// server never runs under both configurations at once
func (p *PendingChange) Apply(ctx context.Context) error {
	if p.noop {
		return nil
	}
	if err := p.broker.Stop(ctx); err != nil {
		return fmt.Errorf("stopping for configuration change: %w", err)
	}
	p.broker.swap(p.next)
	if err := p.broker.Start(ctx); err != nil {
		return fmt.Errorf("starting under new configuration: %w", err)
	}
	return nil
}

// Reconcile compares an orchestrator-supplied configuration against the
// current one. An equal configuration is swapped in immediately (equal by
// value but a distinct instance still replaces stale references) and yields a
// no-op change; a differing one yields a deferred stop-swap-start change.
// A configuration tagged for another broker kind is rejected without touching
// state or the network.
func (b *Broker) Reconcile(cfg types.Config) (*PendingChange, error) {
	payload, err := cfg.CraftyPayload()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigType, err)
	}
	next := EndpointFromConfig(payload)

	b.mu.Lock()
	defer b.mu.Unlock()

	if next == b.endpoint {
		b.endpoint = next
		return &PendingChange{broker: b, noop: true}, nil
	}

	b.logger.Info().Msg("configuration changed, deferring stop/start cutover")
	return &PendingChange{broker: b, next: next}, nil
}

// Address derives the game-facing host and port from the configured server
// address. The port defaults to 25565 when unspecified.
func (b *Broker) Address() (string, int, error) {
	ep, _ := b.snapshot()
	if ep.Address == "" {
		return "", 0, ErrNoAddress
	}

	host, portText, err := net.SplitHostPort(ep.Address)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && strings.Contains(addrErr.Err, "missing port") {
			return ep.Address, DefaultPort, nil
		}
		return "", 0, fmt.Errorf("invalid server address %q: %w", ep.Address, err)
	}

	port, err := strconv.Atoi(portText)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in server address %q: %w", ep.Address, err)
	}
	return host, port, nil
}

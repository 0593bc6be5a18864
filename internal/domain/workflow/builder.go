package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc evaluates whether an edge may be taken. A nil guard always passes.
type GuardFunc func(ctx context.Context) bool

// Builder assembles the edge set of a state machine. The state domain is fixed
// at construction; configuring or targeting a state outside it is a
// programming error and panics.
type Builder interface {
	// Configure returns the edge configuration for a source state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at initial. Callers pass the entity's
	// persisted status as the initial state.
	Build(initial State) (Machine, error)
}

// StateConfiguration declares outgoing edges for one source state
type StateConfiguration interface {
	// Permit adds an unconditional edge to target
	Permit(target State) StateConfiguration

	// PermitIf adds an edge to target taken only when guard passes
	PermitIf(target State, guard GuardFunc) StateConfiguration
}

type edge struct {
	target State
	guard  GuardFunc
}

type stateConfig struct {
	from  State
	edges []edge
}

type builder struct {
	domain  map[State]bool
	configs map[State]*stateConfig
}

type machine struct {
	current State
	domain  map[State]bool
	configs map[State]*stateConfig
}

// NewBuilder creates a builder whose machines accept only the given states
func NewBuilder(domain ...State) Builder {
	set := make(map[State]bool, len(domain))
	for _, s := range domain {
		set[s] = true
	}
	return &builder{
		domain:  set,
		configs: make(map[State]*stateConfig),
	}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !b.domain[state] {
		panic(fmt.Sprintf("state %q is not in the machine's domain", state))
	}

	cfg, ok := b.configs[state]
	if !ok {
		cfg = &stateConfig{from: state}
		b.configs[state] = cfg
	}
	return &configProxy{builder: b, cfg: cfg}
}

func (b *builder) Build(initial State) (Machine, error) {
	if !b.domain[initial] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, initial)
	}

	// Copy the edge tables so machines built from the same builder never
	// share mutable configuration.
	configs := make(map[State]*stateConfig, len(b.configs))
	for s, cfg := range b.configs {
		configs[s] = &stateConfig{from: s, edges: append([]edge(nil), cfg.edges...)}
	}

	return &machine{
		current: initial,
		domain:  b.domain,
		configs: configs,
	}, nil
}

// configProxy routes Permit calls back through the builder so domain
// membership is checked for targets as well as sources.
type configProxy struct {
	builder *builder
	cfg     *stateConfig
}

func (c *configProxy) Permit(target State) StateConfiguration {
	return c.PermitIf(target, nil)
}

func (c *configProxy) PermitIf(target State, guard GuardFunc) StateConfiguration {
	if !c.builder.domain[target] {
		panic(fmt.Sprintf("target state %q is not in the machine's domain", target))
	}
	c.cfg.edges = append(c.cfg.edges, edge{target: target, guard: guard})
	return c
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(target State) bool {
	cfg, ok := m.configs[m.current]
	if !ok {
		return false
	}
	for _, e := range cfg.edges {
		if e.target == target {
			return true
		}
	}
	return false
}

func (m *machine) Fire(ctx context.Context, target State) error {
	if !m.domain[target] {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	// Re-asserting the current state is a permitted no-op, not an error.
	if target == m.current {
		return nil
	}

	cfg, ok := m.configs[m.current]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, target)
	}

	guarded := false
	for _, e := range cfg.edges {
		if e.target != target {
			continue
		}
		if e.guard == nil || e.guard(ctx) {
			m.current = target
			return nil
		}
		guarded = true
	}

	if guarded {
		return fmt.Errorf("%w: %s -> %s", ErrGuardFailed, m.current, target)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, target)
}

func (m *machine) PermittedTargets() []State {
	cfg, ok := m.configs[m.current]
	if !ok {
		return nil
	}

	seen := make(map[State]bool, len(cfg.edges))
	targets := make([]State, 0, len(cfg.edges))
	for _, e := range cfg.edges {
		if !seen[e.target] {
			seen[e.target] = true
			targets = append(targets, e.target)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

func (m *machine) IsTerminal() bool {
	cfg, ok := m.configs[m.current]
	return !ok || len(cfg.edges) == 0
}

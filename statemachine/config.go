package statemachine

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	fsmerrors "github.com/amp-labs/amp-fsm/errors"
	"gopkg.in/yaml.v3"
)

// Config is a declarative machine definition. State and action names are
// resolved against host-supplied implementations by NewMachineFromConfig.
type Config struct {
	Name                  string             `json:"name"                  yaml:"name"`
	Start                 string             `json:"start"                 yaml:"start"`
	IgnoreUndefinedEvents bool               `json:"ignoreUndefinedEvents" yaml:"ignoreUndefinedEvents"`
	States                []StateConfig      `json:"states"                yaml:"states"`
	Transitions           []TransitionConfig `json:"transitions"           yaml:"transitions"`
	Timeouts              []TimeoutConfig    `json:"timeouts"              yaml:"timeouts"`
}

// StateConfig declares a state. Impl names the host implementation and
// defaults to Name.
type StateConfig struct {
	Name  string `json:"name"  yaml:"name"`
	Group string `json:"group" yaml:"group"`
	Impl  string `json:"impl"  yaml:"impl"`
}

// TransitionConfig declares a transition. Action is optional.
type TransitionConfig struct {
	From   string `json:"from"   yaml:"from"`
	Event  string `json:"event"  yaml:"event"`
	To     string `json:"to"     yaml:"to"`
	Action string `json:"action" yaml:"action"`
	Args   []any  `json:"args"   yaml:"args"`
}

// TimeoutConfig declares a timeout binding.
type TimeoutConfig struct {
	State string   `json:"state" yaml:"state"`
	Event string   `json:"event" yaml:"event"`
	After Duration `json:"after" yaml:"after"`
}

// Duration accepts either a Go duration string ("1.5s", "200ms") or a plain
// number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: duration must be a scalar (line %d)", ErrInvalidConfig, node.Line)
	}

	if secs, err := strconv.ParseFloat(node.Value, 64); err == nil {
		*d = Duration(Seconds(secs))

		return nil
	}

	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("%w: bad duration %q (line %d)", ErrInvalidConfig, node.Value, node.Line)
	}

	*d = Duration(parsed)

	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// LoadConfig loads and validates a definition from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromFS loads a definition from a filesystem such as embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads and validates a definition from YAML bytes.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the definition for structural problems and reports all of
// them at once, including timeout events without a transition.
func (c *Config) Validate() error {
	return c.validate(true)
}

// validate is Validate with the timeout-event check optional. Machines are
// built without it; a dangling timeout is reported when it is armed.
func (c *Config) validate(checkTimeoutEvents bool) error {
	var errs fsmerrors.Collection

	states := make(map[string]bool, len(c.States))

	for i, st := range c.States {
		switch {
		case st.Name == "":
			errs.Add(fmt.Errorf("%w: state %d has no name", ErrInvalidConfig, i))
		case states[st.Name]:
			errs.Add(fmt.Errorf("%w: %s", ErrDuplicateState, st.Name))
		default:
			states[st.Name] = true
		}
	}

	if c.Start == "" {
		errs.Add(ErrNoStartState)
	} else if !states[c.Start] {
		errs.Add(fmt.Errorf("%w: start state %s", ErrUnknownState, c.Start))
	}

	defined := make(map[transitionKey]bool, len(c.Transitions))

	for _, tr := range c.Transitions {
		if tr.Event == "" {
			errs.Add(fmt.Errorf("%w: transition from %s has no event", ErrInvalidConfig, tr.From))
		}

		for _, id := range []string{tr.From, tr.To} {
			if !states[id] {
				errs.Add(WrapTransitionError(StateID(tr.From), EventID(tr.Event), StateID(tr.To),
					fmt.Errorf("%w: %s", ErrUnknownState, id)))
			}
		}

		defined[transitionKey{from: StateID(tr.From), event: EventID(tr.Event)}] = true
	}

	for _, to := range c.Timeouts {
		switch {
		case !states[to.State]:
			errs.Add(fmt.Errorf("%w: timeout on %s", ErrUnknownState, to.State))
		case to.After < 0:
			errs.Add(WrapStateError(StateID(to.State), ErrInvalidDuration))
		case checkTimeoutEvents && !defined[transitionKey{from: StateID(to.State), event: EventID(to.Event)}]:
			errs.Add(WrapTransitionError(StateID(to.State), EventID(to.Event), "", ErrDanglingTimeoutEvent))
		}
	}

	return errs.GetError()
}

// NewMachineFromConfig builds a machine from a definition. States and
// actions are looked up by name in the given maps. A name missing from
// states is an error; an action name missing from actions is an error too.
// Options in opts are applied after those derived from cfg. As with
// Machine.Start, a timeout event without a transition is not an error here;
// Config.Validate reports it.
func NewMachineFromConfig(
	cfg *Config,
	states map[string]State,
	actions map[string]Action,
	opts ...Option,
) (*Machine, error) {
	if err := cfg.validate(false); err != nil {
		return nil, err
	}

	base := []Option{
		WithName(cfg.Name),
		WithIgnoreUndefinedEvents(cfg.IgnoreUndefinedEvents),
	}

	m := NewMachine(append(base, opts...)...)

	for _, st := range cfg.States {
		implName := st.Impl
		if implName == "" {
			implName = st.Name
		}

		impl, ok := states[implName]
		if !ok {
			return nil, WrapStateError(StateID(st.Name),
				fmt.Errorf("%w: no implementation named %q", ErrInvalidConfig, implName))
		}

		if err := m.AddState(StateID(st.Name), impl, st.Group); err != nil {
			return nil, err
		}
	}

	if err := m.SetStart(StateID(cfg.Start)); err != nil {
		return nil, err
	}

	for _, tr := range cfg.Transitions {
		var action Action

		if tr.Action != "" {
			var ok bool

			action, ok = actions[tr.Action]
			if !ok {
				return nil, WrapTransitionError(StateID(tr.From), EventID(tr.Event), StateID(tr.To),
					fmt.Errorf("%w: no action named %q", ErrInvalidConfig, tr.Action))
			}
		}

		if err := m.AddTransition(StateID(tr.From), EventID(tr.Event), StateID(tr.To), action, tr.Args...); err != nil {
			return nil, err
		}
	}

	for _, to := range cfg.Timeouts {
		if err := m.AddTimeout(StateID(to.State), EventID(to.Event), time.Duration(to.After)); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Definition returns the machine's states, transitions and timeouts as a
// Config. Implementation and action names are not retained by the machine,
// so Impl and Action are left empty.
func (m *Machine) Definition() *Config {
	cfg := &Config{
		Name:                  m.name,
		Start:                 string(m.states.start),
		IgnoreUndefinedEvents: m.opts.ignoreUndefined,
	}

	for _, id := range m.states.ids("") {
		state := m.states.states[id]
		cfg.States = append(cfg.States, StateConfig{Name: string(id), Group: state.group})
	}

	for _, tr := range m.transitions.snapshot() {
		cfg.Transitions = append(cfg.Transitions, TransitionConfig{
			From:  string(tr.From),
			Event: string(tr.Event),
			To:    string(tr.To),
		})
	}

	for _, to := range m.Timeouts() {
		cfg.Timeouts = append(cfg.Timeouts, TimeoutConfig{
			State: string(to.State),
			Event: string(to.Event),
			After: Duration(to.After),
		})
	}

	return cfg
}

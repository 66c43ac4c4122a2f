package rules

import (
	"fmt"
	"sort"

	"algotrade/internal/backtest"
	"algotrade/internal/config"
)

// Factory constructs a rule from its configuration block.
type Factory func(cfg config.RuleConfig) backtest.Rule

// Registry holds a named collection of rule factories for lookup and
// enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty rule Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a rule factory to the registry under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get retrieves a factory by name. The second return value indicates whether
// the factory was found.
func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// List returns a sorted slice of all registered rule names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a Registry with all built-in rules registered.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("sma-cross", func(cfg config.RuleConfig) backtest.Rule {
		return NewSMACross(cfg.ShortPeriod, cfg.LongPeriod)
	})
	r.Register("rsi-threshold", func(cfg config.RuleConfig) backtest.Rule {
		return NewRSIThreshold(cfg.RSIPeriod, cfg.EnterBelow, cfg.ExitAbove)
	})
	return r
}

// FromConfig constructs the rule named by the configuration from the builtin
// registry.
func FromConfig(cfg config.RuleConfig) (backtest.Rule, error) {
	reg := Builtin()
	f, ok := reg.Get(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("rules: unknown rule %q (have %v)", cfg.Name, reg.List())
	}
	return f(cfg), nil
}

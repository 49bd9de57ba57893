package factory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ModuleConfig names a registered module type and carries its raw options.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Builder turns a raw option map into a ready T.
type Builder[T any] func(map[string]any) (T, error)

// Registry maps module type names to their builders. The zero value is not
// usable; create one with NewRegistry.
type Registry[T any] struct {
	mu       sync.RWMutex
	builders map[string]Builder[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{builders: map[string]Builder[T]{}}
}

// Register binds a builder to a type name. Duplicates are rejected so a
// misconfigured builtin surfaces at startup instead of shadowing another.
func (r *Registry[T]) Register(name string, b Builder[T]) error {
	if b == nil {
		return fmt.Errorf("nil builder for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.builders[name]; dup {
		return fmt.Errorf("builder %s registered twice", name)
	}
	r.builders[name] = b
	return nil
}

// Build constructs the module described by cfg. Unknown types report the
// registered alternatives.
func (r *Registry[T]) Build(cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	b, ok := r.builders[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		var zero T
		names := r.names()
		if len(names) == 0 {
			return zero, fmt.Errorf("unknown module type %s (registry empty)", cfg.Type)
		}
		return zero, fmt.Errorf("unknown module type %s (registered: %s)", cfg.Type, strings.Join(names, ", "))
	}
	return b(cfg.Conf)
}

func (r *Registry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode fills out from a raw option map using json tags, so module option
// structs carry the same tag set the config file loader uses.
func Decode(conf map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(conf)
}

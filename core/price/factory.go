package price

import "github.com/voltlab/smartcharge/core/factory"

var sourceRegistry = factory.NewRegistry[Source]()

// RegisterSource adds a price source builder identified by name.
func RegisterSource(name string, b factory.Builder[Source]) error {
	return sourceRegistry.Register(name, b)
}

// NewSources creates one Source per module configuration.
func NewSources(cfgs []factory.ModuleConfig) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := sourceRegistry.Build(c)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

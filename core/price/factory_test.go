package price

import (
	"testing"

	"github.com/voltlab/smartcharge/core/factory"
)

type stubSource struct{ name string }

func (s stubSource) Name() string   { return s.name }
func (s stubSource) Required() bool { return true }

func (s stubSource) Points() ([]RawPoint, error) { return nil, nil }

func TestNewSources(t *testing.T) {
	if err := RegisterSource("stub", func(conf map[string]any) (Source, error) {
		return stubSource{name: conf["name"].(string)}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	srcs, err := NewSources([]factory.ModuleConfig{
		{Type: "stub", Conf: map[string]any{"name": "a"}},
		{Type: "stub", Conf: map[string]any{"name": "b"}},
	})
	if err != nil {
		t.Fatalf("NewSources: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("expected 2 sources got %d", len(srcs))
	}
	if srcs[0].Name() != "a" || srcs[1].Name() != "b" {
		t.Fatalf("unexpected names %s %s", srcs[0].Name(), srcs[1].Name())
	}
}

func TestNewSourcesUnknownType(t *testing.T) {
	if _, err := NewSources([]factory.ModuleConfig{{Type: "nope"}}); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}

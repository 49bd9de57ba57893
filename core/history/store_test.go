package history

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecord_JSON(t *testing.T) {
	rec := Record{
		ID:             "a1",
		Timestamp:      time.Unix(0, 0),
		Status:         "charging",
		Reason:         "inside low rate time slot (price 0.05)",
		Command:        "on",
		NeedKnown:      true,
		NeedSeconds:    3600,
		SlotCount:      2,
		PlannedSeconds: 7200,
		DurationMS:     12,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := []string{"id", "timestamp", "status", "reason", "command", "need_seconds", "slot_count", "planned_seconds", "duration_ms"}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.Backend != "jsonl" || cfg.Path != "activations.log" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.Backend = "csv"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := New(Config{Backend: "csv", Path: "x"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestQuery_Clip(t *testing.T) {
	recs := []Record{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	out := Query{Limit: 2}.clip(recs)
	if len(out) != 2 || out[0].ID != "2" || out[1].ID != "3" {
		t.Fatalf("expected two most recent records, got %+v", out)
	}
	out = Query{}.clip(recs)
	if len(out) != 3 {
		t.Fatalf("expected all records, got %d", len(out))
	}
}

package persist

import "testing"

func TestDefaults(t *testing.T) {
	rec := Defaults()
	if rec.Active != "on" || rec.Status != "unknown" {
		t.Fatalf("unexpected defaults %+v", rec)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	rec, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec != Defaults() {
		t.Fatalf("fresh store must return defaults, got %+v", rec)
	}
	if err := s.Save(Record{Active: "off", Status: "stopped"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, err = s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Active != "off" || rec.Status != "stopped" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

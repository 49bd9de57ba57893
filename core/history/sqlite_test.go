package history

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:history_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	recs := []Record{
		{ID: "a", Timestamp: base, Status: "stopped", Command: "off"},
		{ID: "b", Timestamp: base.Add(time.Hour), Status: "charging", Command: "on", NeedKnown: true, NeedSeconds: 3600},
	}
	for _, r := range recs {
		if err := store.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	out, err := store.Query(context.Background(), Query{Status: "charging"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].ID != "b" || out[0].NeedSeconds != 3600 {
		t.Fatalf("unexpected records: %+v", out)
	}

	out, err = store.Query(context.Background(), Query{End: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("unexpected windowed records: %+v", out)
	}
}

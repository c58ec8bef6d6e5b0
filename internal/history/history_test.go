package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "chzzkwatch/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) = %v, want nil store", driver, st)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func testStore(t *testing.T, driver string) Store {
	t.Helper()
	ext := ".jsonl"
	if driver == "sqlite" {
		ext = ".db"
	}
	st, err := Open(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "history"+ext)}, logx.Nop())
	if err != nil {
		t.Fatalf("Open(%s): %v", driver, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestAppendRecent(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			st := testStore(t, driver)
			ctx := context.Background()

			base := time.Now().UTC().Truncate(time.Second)
			entries := []Entry{
				{At: base, ChannelID: "c1", Name: "Mbeung", Kind: "start"},
				{At: base.Add(time.Second), ChannelID: "c1", Name: "Mbeung", Kind: "threshold_cross", Threshold: 100, Viewers: 150},
				{At: base.Add(2 * time.Second), ChannelID: "c2", Name: "Nari", Kind: "title_change", Old: "A", New: "B"},
			}
			for _, e := range entries {
				if err := st.Append(ctx, e); err != nil {
					t.Fatalf("Append: %v", err)
				}
			}

			got, err := st.Recent(ctx, 2)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Recent(2) returned %d entries", len(got))
			}
			// Oldest-first within the window.
			if got[0].Kind != "threshold_cross" || got[0].Threshold != 100 {
				t.Fatalf("got[0] = %+v", got[0])
			}
			if got[1].Kind != "title_change" || got[1].Old != "A" || got[1].New != "B" {
				t.Fatalf("got[1] = %+v", got[1])
			}
		})
	}
}

func TestRecentEmpty(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			st := testStore(t, driver)
			got, err := st.Recent(context.Background(), 10)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("Recent on empty store = %v", got)
			}
		})
	}
}

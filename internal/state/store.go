// Package state persists the per-channel last-known state between runs.
//
// The store is a single JSON file mapping channel id -> ChannelState. It is
// loaded once at startup, mutated in memory, and written once at the end of
// a run via temp-file-then-rename so a crash mid-run never leaves a
// partially written file.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chzzkwatch/internal/detect"
	logx "chzzkwatch/pkg/logx"
)

// Load reads the store at path. A missing file yields an empty map. A
// corrupt file also yields an empty map: the store is a best-effort cache,
// not a source of truth, so every channel simply starts fresh.
func Load(path string, log logx.Logger) map[string]detect.ChannelState {
	out := map[string]detect.ChannelState{}
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("state file unreadable, starting fresh", logx.String("path", path), logx.Err(err))
		}
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		log.Warn("state file corrupt, starting fresh", logx.String("path", path), logx.Err(err))
		return map[string]detect.ChannelState{}
	}
	return out
}

// Save writes the store atomically: encode to a sibling temp file, then
// rename over the target. 2-space indentation, non-ASCII kept literal.
func Save(path string, states map[string]detect.ChannelState) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: mkdir %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("state: open temp file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(states); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("state: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("state: close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("state: rename: %w", err)
	}
	return nil
}

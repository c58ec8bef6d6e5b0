// Package history keeps an append-only record of every dispatched event.
//
// It is a best-effort audit trail for operators ("when did the last start
// fire?"), not part of the detection state; failures are logged and ignored.
package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the history store.
//
// Driver values:
//   - "file": append-only JSON Lines
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver string
	Path   string
}

// Entry is one recorded event. Keep it compact and schema-stable.
type Entry struct {
	At        time.Time `json:"at"`
	ChannelID string    `json:"channel_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Old       string    `json:"old,omitempty"`
	New       string    `json:"new,omitempty"`
	Threshold int       `json:"threshold,omitempty"`
	Viewers   int       `json:"viewers,omitempty"`
}

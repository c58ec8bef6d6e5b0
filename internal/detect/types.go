package detect

// ChannelState is the persisted last-known state for one monitored channel.
//
// Field names are part of the on-disk state file format, keep them stable.
//
// Title and Category keep their last known non-nil value even when a fresh
// observation omits them. Viewers does not: it always mirrors the latest
// observation and may legitimately be nil while live.
type ChannelState struct {
	IsLive   bool    `json:"is_live"`
	Title    *string `json:"title"`
	Category *string `json:"category"`
	Viewers  *int    `json:"viewers"`

	// PassedThresholds lists the viewer thresholds already notified for the
	// current live session, ascending. Reset on every Start event.
	PassedThresholds []int `json:"passed_thresholds"`
}

// Observation is one poll's best-effort snapshot of a channel. It is never
// persisted; nil fields mean the upstream response omitted them.
type Observation struct {
	IsLive   bool
	Title    *string
	Category *string
	Viewers  *int

	// RawStatus is the upstream status string, kept for logging only.
	RawStatus string
}

type EventKind string

const (
	EventStart          EventKind = "start"
	EventEnd            EventKind = "end"
	EventTitleChange    EventKind = "title_change"
	EventCategoryChange EventKind = "category_change"
	EventThresholdCross EventKind = "threshold_cross"
)

// Event is one semantic change detected between two polls.
//
// Old/New are set for title/category changes, Threshold and Viewers for
// threshold crossings.
type Event struct {
	Kind EventKind

	Old string
	New string

	Threshold int
	Viewers   int
}

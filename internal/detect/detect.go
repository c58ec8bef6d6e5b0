package detect

import "sort"

// Detect computes the events that occurred between the previous persisted
// state and a fresh observation, plus the next state to persist.
//
// It is a total pure function: missing observation fields degrade to
// "no change" / "not crossed", never to an error.
//
// Event order is fixed and is the order notifications must be sent in:
// End-or-Start, TitleChange, CategoryChange, ThresholdCross(es) ascending.
//
// thresholds must be ascending and deduplicated (see NormalizeThresholds).
func Detect(prev ChannelState, obs Observation, thresholds []int) ([]Event, ChannelState) {
	next := ChannelState{
		IsLive:           obs.IsLive,
		Title:            firstNonNil(obs.Title, prev.Title),
		Category:         firstNonNil(obs.Category, prev.Category),
		Viewers:          obs.Viewers,
		PassedThresholds: append([]int{}, prev.PassedThresholds...),
	}

	var events []Event
	started := false
	switch {
	case prev.IsLive && !obs.IsLive:
		events = append(events, Event{Kind: EventEnd})
	case !prev.IsLive && obs.IsLive:
		events = append(events, Event{Kind: EventStart})
		started = true
	}

	// Title/category diffs only apply while continuously live. A fresh Start
	// takes its own title/category verbatim instead.
	if prev.IsLive && obs.IsLive {
		if obs.Title != nil && !strPtrEqual(obs.Title, prev.Title) {
			events = append(events, Event{Kind: EventTitleChange, Old: deref(prev.Title), New: *obs.Title})
		}
		if obs.Category != nil && !strPtrEqual(obs.Category, prev.Category) {
			events = append(events, Event{Kind: EventCategoryChange, Old: deref(prev.Category), New: *obs.Category})
		}
	}

	// Every new live session starts with a clean threshold slate.
	if started {
		next.PassedThresholds = []int{}
	}

	// Threshold crossings are independent of previous liveness: they can fire
	// in the same cycle as a Start when the first observation already exceeds
	// a threshold.
	if obs.IsLive && obs.Viewers != nil {
		v := *obs.Viewers
		passed := make(map[int]bool, len(next.PassedThresholds))
		for _, th := range next.PassedThresholds {
			passed[th] = true
		}
		for _, th := range thresholds {
			if v >= th && !passed[th] {
				next.PassedThresholds = append(next.PassedThresholds, th)
				events = append(events, Event{Kind: EventThresholdCross, Threshold: th, Viewers: v})
			}
		}
		sort.Ints(next.PassedThresholds)
	}

	return events, next
}

// NormalizeThresholds returns the thresholds sorted ascending with
// duplicates removed. Detect relies on this ordering.
func NormalizeThresholds(in []int) []int {
	out := append([]int{}, in...)
	sort.Ints(out)
	n := 0
	for i, th := range out {
		if i > 0 && th == out[i-1] {
			continue
		}
		out[n] = th
		n++
	}
	return out[:n]
}

func firstNonNil(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

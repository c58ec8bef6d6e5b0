package detect

import (
	"reflect"
	"testing"
)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestDetectOfflineNoop(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: false, Title: strp("old"), PassedThresholds: []int{}}
	events, next := Detect(prev, Observation{IsLive: false}, []int{100})
	if len(events) != 0 {
		t.Fatalf("expected no events, got %v", kinds(events))
	}
	if !reflect.DeepEqual(next, prev) {
		t.Fatalf("next = %+v, want unchanged %+v", next, prev)
	}
}

func TestDetectStartResetsThresholds(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: false, PassedThresholds: []int{100, 300}}
	obs := Observation{IsLive: true, Title: strp("T"), Category: strp("C"), Viewers: intp(150)}

	events, next := Detect(prev, obs, []int{100, 300, 500})

	want := []EventKind{EventStart, EventThresholdCross}
	if !reflect.DeepEqual(kinds(events), want) {
		t.Fatalf("events = %v, want %v", kinds(events), want)
	}
	if events[1].Threshold != 100 || events[1].Viewers != 150 {
		t.Fatalf("cross = %+v, want threshold 100 at 150 viewers", events[1])
	}
	if !reflect.DeepEqual(next.PassedThresholds, []int{100}) {
		t.Fatalf("PassedThresholds = %v, want [100] (reset before re-evaluation)", next.PassedThresholds)
	}
	if next.Title == nil || *next.Title != "T" || next.Category == nil || *next.Category != "C" {
		t.Fatalf("start did not seed title/category: %+v", next)
	}
}

func TestDetectStartKeepsPreviousMetadataWhenObservationOmitsIt(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: false, Title: strp("old title"), Category: strp("old cat")}
	events, next := Detect(prev, Observation{IsLive: true}, nil)

	if !reflect.DeepEqual(kinds(events), []EventKind{EventStart}) {
		t.Fatalf("events = %v, want [start]", kinds(events))
	}
	if next.Title == nil || *next.Title != "old title" {
		t.Fatalf("Title = %v, want carried forward", next.Title)
	}
	if next.Category == nil || *next.Category != "old cat" {
		t.Fatalf("Category = %v, want carried forward", next.Category)
	}
}

func TestDetectEndKeepsMetadataAndThresholds(t *testing.T) {
	t.Parallel()
	prev := ChannelState{
		IsLive:           true,
		Title:            strp("A"),
		Category:         strp("C"),
		Viewers:          intp(200),
		PassedThresholds: []int{100},
	}
	events, next := Detect(prev, Observation{IsLive: false}, []int{100, 300})

	if !reflect.DeepEqual(kinds(events), []EventKind{EventEnd}) {
		t.Fatalf("events = %v, want [end]", kinds(events))
	}
	if next.IsLive {
		t.Fatal("next.IsLive = true, want false")
	}
	if *next.Title != "A" || *next.Category != "C" {
		t.Fatalf("metadata not kept: %+v", next)
	}
	if !reflect.DeepEqual(next.PassedThresholds, []int{100}) {
		t.Fatalf("PassedThresholds = %v, want unchanged (reset only on start)", next.PassedThresholds)
	}
	if next.Viewers != nil {
		t.Fatalf("Viewers = %v, want nil (not carried forward)", next.Viewers)
	}
}

func TestDetectTitleChangeWhileLive(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: true, Title: strp("A")}
	events, next := Detect(prev, Observation{IsLive: true, Title: strp("B")}, nil)

	if len(events) != 1 || events[0].Kind != EventTitleChange {
		t.Fatalf("events = %v, want one title_change", kinds(events))
	}
	if events[0].Old != "A" || events[0].New != "B" {
		t.Fatalf("change = %+v, want old A new B", events[0])
	}
	if *next.Title != "B" {
		t.Fatalf("Title = %q, want B", *next.Title)
	}
}

func TestDetectCategoryChangeOrdering(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: true, Title: strp("A"), Category: strp("Talk")}
	obs := Observation{IsLive: true, Title: strp("B"), Category: strp("Game"), Viewers: intp(500)}

	events, _ := Detect(prev, obs, []int{100, 300})

	want := []EventKind{EventTitleChange, EventCategoryChange, EventThresholdCross, EventThresholdCross}
	if !reflect.DeepEqual(kinds(events), want) {
		t.Fatalf("events = %v, want %v", kinds(events), want)
	}
}

func TestDetectMultipleThresholdsAscending(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: true, PassedThresholds: []int{}}
	events, next := Detect(prev, Observation{IsLive: true, Viewers: intp(600)}, []int{100, 300, 500})

	if len(events) != 3 {
		t.Fatalf("expected 3 crossings, got %v", kinds(events))
	}
	for i, wantTh := range []int{100, 300, 500} {
		if events[i].Kind != EventThresholdCross || events[i].Threshold != wantTh {
			t.Fatalf("events[%d] = %+v, want threshold %d", i, events[i], wantTh)
		}
		if events[i].Viewers != 600 {
			t.Fatalf("events[%d].Viewers = %d, want 600", i, events[i].Viewers)
		}
	}
	if !reflect.DeepEqual(next.PassedThresholds, []int{100, 300, 500}) {
		t.Fatalf("PassedThresholds = %v", next.PassedThresholds)
	}
}

func TestDetectNeverRecrossesPassedThresholds(t *testing.T) {
	t.Parallel()
	state := ChannelState{IsLive: true, PassedThresholds: []int{}}
	thresholds := []int{100, 300, 500}

	// Replay a viewer trajectory; every threshold may fire at most once.
	seen := map[int]int{}
	for _, v := range []int{50, 150, 120, 350, 350, 700, 10, 900} {
		events, next := Detect(state, Observation{IsLive: true, Viewers: intp(v)}, thresholds)
		for _, ev := range events {
			if ev.Kind != EventThresholdCross {
				t.Fatalf("unexpected event %+v", ev)
			}
			seen[ev.Threshold]++
		}
		state = next
	}
	for th, n := range seen {
		if n != 1 {
			t.Fatalf("threshold %d fired %d times", th, n)
		}
	}
	if !reflect.DeepEqual(state.PassedThresholds, thresholds) {
		t.Fatalf("PassedThresholds = %v, want %v", state.PassedThresholds, thresholds)
	}
}

func TestDetectIdempotent(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: false, Title: strp("A"), PassedThresholds: []int{}}
	obs := Observation{IsLive: true, Title: strp("B"), Category: strp("C"), Viewers: intp(250)}
	thresholds := []int{100, 300}

	first, next := Detect(prev, obs, thresholds)
	if len(first) == 0 {
		t.Fatal("first call should emit events")
	}
	second, _ := Detect(next, obs, thresholds)
	if len(second) != 0 {
		t.Fatalf("second call with unchanged observation emitted %v", kinds(second))
	}
}

func TestDetectMissingViewersSkipsThresholds(t *testing.T) {
	t.Parallel()
	prev := ChannelState{IsLive: true, Viewers: intp(400), PassedThresholds: []int{}}
	events, next := Detect(prev, Observation{IsLive: true}, []int{100})

	if len(events) != 0 {
		t.Fatalf("events = %v, want none", kinds(events))
	}
	if next.Viewers != nil {
		t.Fatalf("Viewers = %v, want nil (observation had none)", next.Viewers)
	}
	if len(next.PassedThresholds) != 0 {
		t.Fatalf("PassedThresholds = %v, want empty", next.PassedThresholds)
	}
}

func TestDetectNoDiffEventsOnFreshStart(t *testing.T) {
	t.Parallel()
	// Previous session ended with a different title; a fresh start must not
	// report it as a title change.
	prev := ChannelState{IsLive: false, Title: strp("yesterday")}
	events, next := Detect(prev, Observation{IsLive: true, Title: strp("today")}, nil)

	if !reflect.DeepEqual(kinds(events), []EventKind{EventStart}) {
		t.Fatalf("events = %v, want [start]", kinds(events))
	}
	if *next.Title != "today" {
		t.Fatalf("Title = %q, want today", *next.Title)
	}
}

func TestNormalizeThresholds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{name: "unsorted dupes", in: []int{500, 100, 300, 100}, want: []int{100, 300, 500}},
		{name: "empty", in: nil, want: []int{}},
		{name: "single", in: []int{50}, want: []int{50}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeThresholds(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("NormalizeThresholds(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

package notify

import (
	"strings"
	"testing"

	"chzzkwatch/internal/detect"
)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

var meta = StreamerMeta{Name: "Mbeung", URL: "https://chzzk.naver.com/abc"}

func TestFormatStart(t *testing.T) {
	t.Parallel()
	obs := detect.Observation{IsLive: true, Title: strp("새벽 방송"), Category: strp("Just Chatting"), Viewers: intp(42)}
	msg := Format(detect.Event{Kind: detect.EventStart}, meta, obs, detect.ChannelState{})

	if msg.Content != "🔴 **Mbeung** 방송 시작!" {
		t.Fatalf("Content = %q", msg.Content)
	}
	if msg.Embed == nil {
		t.Fatal("expected embed")
	}
	if msg.Embed.Title != "새벽 방송" {
		t.Fatalf("Embed.Title = %q", msg.Embed.Title)
	}
	if !strings.Contains(msg.Embed.Description, "**제목:** 새벽 방송") ||
		!strings.Contains(msg.Embed.Description, "**카테고리:** Just Chatting") ||
		!strings.Contains(msg.Embed.Description, "**시청자수:** 42") {
		t.Fatalf("Description = %q", msg.Embed.Description)
	}
	if msg.Embed.URL != meta.URL {
		t.Fatalf("Embed.URL = %q", msg.Embed.URL)
	}
}

func TestFormatStartWithoutViewers(t *testing.T) {
	t.Parallel()
	obs := detect.Observation{IsLive: true, Title: strp("t")}
	msg := Format(detect.Event{Kind: detect.EventStart}, meta, obs, detect.ChannelState{})
	if strings.Contains(msg.Embed.Description, "시청자수") {
		t.Fatalf("viewer line present without viewers: %q", msg.Embed.Description)
	}
}

func TestFormatEndUsesLastKnownMetadata(t *testing.T) {
	t.Parallel()
	prev := detect.ChannelState{Title: strp("마지막"), Category: strp("Game")}
	msg := Format(detect.Event{Kind: detect.EventEnd}, meta, detect.Observation{}, prev)

	if msg.Content != "⚫️ **Mbeung** 방송 종료." {
		t.Fatalf("Content = %q", msg.Content)
	}
	if !strings.Contains(msg.Embed.Description, "**마지막 제목:** 마지막") ||
		!strings.Contains(msg.Embed.Description, "**마지막 카테고리:** Game") {
		t.Fatalf("Description = %q", msg.Embed.Description)
	}
}

func TestFormatTitleChange(t *testing.T) {
	t.Parallel()
	ev := detect.Event{Kind: detect.EventTitleChange, Old: "A", New: "B"}
	msg := Format(ev, meta, detect.Observation{IsLive: true, Title: strp("B")}, detect.ChannelState{Title: strp("A")})

	if msg.Content != "🔄 **Mbeung** 방송 제목 변경" {
		t.Fatalf("Content = %q", msg.Content)
	}
	if msg.Embed.Description != "**이전:** A\n**현재:** B" {
		t.Fatalf("Description = %q", msg.Embed.Description)
	}
}

func TestFormatCategoryChange(t *testing.T) {
	t.Parallel()
	ev := detect.Event{Kind: detect.EventCategoryChange, Old: "Talk", New: "Game"}
	msg := Format(ev, meta, detect.Observation{IsLive: true}, detect.ChannelState{})

	if msg.Content != "🔧 **Mbeung** 방송 카테고리 변경" {
		t.Fatalf("Content = %q", msg.Content)
	}
	if msg.Embed.Description != "**이전:** Talk\n**현재:** Game" {
		t.Fatalf("Description = %q", msg.Embed.Description)
	}
}

func TestFormatThresholdCross(t *testing.T) {
	t.Parallel()
	ev := detect.Event{Kind: detect.EventThresholdCross, Threshold: 300, Viewers: 412}
	msg := Format(ev, meta, detect.Observation{IsLive: true, Title: strp("t")}, detect.ChannelState{})

	if msg.Content != "🎉 **Mbeung** 방송 시청자 300명 돌파!" {
		t.Fatalf("Content = %q", msg.Content)
	}
	if msg.Embed.Title != "" {
		t.Fatalf("threshold embeds carry no title, got %q", msg.Embed.Title)
	}
	if msg.Embed.Description != "현재 시청자수: 412" {
		t.Fatalf("Description = %q", msg.Embed.Description)
	}
}

func TestFormatMentionPrefix(t *testing.T) {
	t.Parallel()
	m := meta
	m.RoleID = "123456789"
	msg := Format(detect.Event{Kind: detect.EventStart}, m, detect.Observation{IsLive: true}, detect.ChannelState{})
	if !strings.HasPrefix(msg.Content, "<@&123456789> ") {
		t.Fatalf("Content = %q, want mention prefix", msg.Content)
	}
}

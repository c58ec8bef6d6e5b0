// Package notify formats detected events as Discord webhook messages and
// delivers them with a per-destination minimum send spacing.
package notify

import (
	"fmt"
	"strconv"

	"chzzkwatch/internal/detect"
)

// StreamerMeta is the channel identity carried into every message.
type StreamerMeta struct {
	Name   string
	URL    string
	RoleID string // Discord role id for <@&ID> mentions, empty for none
}

// Message is one outbound webhook payload.
type Message struct {
	Content string
	Embed   *Embed
}

// Embed mirrors the subset of the Discord embed object this tool uses.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Format maps one event to its notification. The strings per event kind are
// a fixed lookup users scan by emoji/label; do not reword them.
//
// obs is the observation that produced the event and prev the state before
// it; together they supply the current/last title, category and viewers.
func Format(ev detect.Event, meta StreamerMeta, obs detect.Observation, prev detect.ChannelState) Message {
	mention := ""
	if meta.RoleID != "" {
		mention = "<@&" + meta.RoleID + "> "
	}

	title := firstSet(obs.Title, prev.Title)
	category := firstSet(obs.Category, prev.Category)

	var content, description string
	embedTitle := title

	switch ev.Kind {
	case detect.EventStart:
		content = fmt.Sprintf("%s🔴 **%s** 방송 시작!", mention, meta.Name)
		description = fmt.Sprintf("**제목:** %s\n**카테고리:** %s", title, category)
		if obs.Viewers != nil {
			description += fmt.Sprintf("\n**시청자수:** %d", *obs.Viewers)
		}
	case detect.EventEnd:
		content = fmt.Sprintf("%s⚫️ **%s** 방송 종료.", mention, meta.Name)
		description = fmt.Sprintf("**마지막 제목:** %s\n**마지막 카테고리:** %s", title, category)
	case detect.EventTitleChange:
		content = fmt.Sprintf("%s🔄 **%s** 방송 제목 변경", mention, meta.Name)
		description = fmt.Sprintf("**이전:** %s\n**현재:** %s", ev.Old, ev.New)
	case detect.EventCategoryChange:
		content = fmt.Sprintf("%s🔧 **%s** 방송 카테고리 변경", mention, meta.Name)
		description = fmt.Sprintf("**이전:** %s\n**현재:** %s", ev.Old, ev.New)
	case detect.EventThresholdCross:
		content = fmt.Sprintf("%s🎉 **%s** 방송 시청자 %d명 돌파!", mention, meta.Name, ev.Threshold)
		description = "현재 시청자수: " + strconv.Itoa(ev.Viewers)
		embedTitle = ""
	default:
		content = fmt.Sprintf("%s%s: %s", mention, meta.Name, ev.Kind)
	}

	msg := Message{Content: content}
	if embedTitle != "" || description != "" || meta.URL != "" {
		msg.Embed = &Embed{Title: embedTitle, Description: description, URL: meta.URL}
	}
	return msg
}

func firstSet(a, b *string) string {
	if a != nil && *a != "" {
		return *a
	}
	if b != nil {
		return *b
	}
	return ""
}

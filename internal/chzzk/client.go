// Package chzzk queries the unofficial Chzzk API for live status.
//
// The endpoints used here are unofficial and may change without notice.
// Three endpoints are tried in fixed order with graceful fallbacks; headers
// imitating a real browser are sent to avoid HTTP 403 responses.
package chzzk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chzzkwatch/internal/detect"
	logx "chzzkwatch/pkg/logx"
)

const DefaultBaseURL = "https://api.chzzk.naver.com"

const (
	headerUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"
	headerReferer = "https://chzzk.naver.com/"
	headerOrigin  = "https://chzzk.naver.com"
)

const requestTimeout = 10 * time.Second

// Client fetches best-effort live observations for channels.
type Client struct {
	baseURL string
	http    *http.Client
	log     logx.Logger
}

func NewClient(log logx.Logger) *Client {
	return NewClientWithBase(DefaultBaseURL, &http.Client{Timeout: requestTimeout}, log)
}

// NewClientWithBase exists for tests and proxies.
func NewClientWithBase(baseURL string, hc *http.Client, log logx.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: requestTimeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, log: log}
}

// LiveInfo returns the current observation for a channel. It never returns
// an error: each fallback attempt absorbs its own failures, and when all
// three endpoints fail the default offline observation is returned.
func (c *Client) LiveInfo(ctx context.Context, channelID string) detect.Observation {
	attempts := []func(context.Context, string) (detect.Observation, bool){
		c.fetchLiveDetail,
		c.fetchChannel,
		c.fetchLiveStatus,
	}
	for i, attempt := range attempts {
		obs, ok := attempt(ctx, channelID)
		if ok {
			return obs
		}
		c.log.Debug("chzzk attempt failed", logx.String("channel_id", channelID), logx.Int("attempt", i+1))
	}
	c.log.Warn("all chzzk endpoints failed, assuming offline", logx.String("channel_id", channelID))
	return detect.Observation{IsLive: false}
}

// fetchLiveDetail is the richest endpoint: status, title, category, viewers.
func (c *Client) fetchLiveDetail(ctx context.Context, channelID string) (detect.Observation, bool) {
	var body struct {
		Content struct {
			Status              string `json:"status"`
			LiveTitle           string `json:"liveTitle"`
			LiveCategoryValue   string `json:"liveCategoryValue"`
			LiveCategory        string `json:"liveCategory"`
			ConcurrentUserCount *int   `json:"concurrentUserCount"`
			WatcherCount        *int   `json:"watcherCount"`
		} `json:"content"`
	}
	url := fmt.Sprintf("%s/service/v1/channels/%s/live-detail", c.baseURL, channelID)
	if !c.getJSON(ctx, url, &body) {
		return detect.Observation{}, false
	}

	ct := body.Content
	isLive := false
	if ct.Status != "" {
		switch strings.ToUpper(ct.Status) {
		case "CLOSE", "ENDED", "IDLE":
		default:
			isLive = true
		}
	}

	viewers := ct.ConcurrentUserCount
	if viewers == nil || *viewers == 0 {
		viewers = ct.WatcherCount
	}

	return detect.Observation{
		IsLive:    isLive,
		Title:     strOrNil(ct.LiveTitle),
		Category:  strOrNil(firstNonEmpty(ct.LiveCategoryValue, ct.LiveCategory)),
		Viewers:   viewers,
		RawStatus: ct.Status,
	}, true
}

// fetchChannel only knows whether the channel is currently streaming.
func (c *Client) fetchChannel(ctx context.Context, channelID string) (detect.Observation, bool) {
	var body struct {
		Content struct {
			OpenLive bool `json:"openLive"`
		} `json:"content"`
	}
	url := fmt.Sprintf("%s/service/v1/channels/%s", c.baseURL, channelID)
	if !c.getJSON(ctx, url, &body) {
		return detect.Observation{}, false
	}
	return detect.Observation{IsLive: body.Content.OpenLive}, true
}

// fetchLiveStatus is the lightest fallback: ACTIVE / INACTIVE.
func (c *Client) fetchLiveStatus(ctx context.Context, channelID string) (detect.Observation, bool) {
	var body struct {
		Content struct {
			Status string `json:"status"`
		} `json:"content"`
	}
	url := fmt.Sprintf("%s/polling/v2/channels/%s/live-status", c.baseURL, channelID)
	if !c.getJSON(ctx, url, &body) {
		return detect.Observation{}, false
	}
	status := body.Content.Status
	return detect.Observation{
		IsLive:    strings.EqualFold(status, "ACTIVE"),
		RawStatus: status,
	}, true
}

// getJSON performs one attempt. Any failure (transport, non-200, bad JSON)
// reports false so the caller falls through to the next endpoint.
func (c *Client) getJSON(ctx context.Context, url string, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", headerUserAgent)
	req.Header.Set("Referer", headerReferer)
	req.Header.Set("Origin", headerOrigin)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false
	}
	return true
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

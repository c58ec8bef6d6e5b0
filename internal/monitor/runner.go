// Package monitor sequences one poll run: fetch observations for all
// configured channels, detect events, dispatch notifications in event order,
// persist the state store once at the end.
package monitor

import (
	"context"
	"sync"
	"time"

	"chzzkwatch/internal/config"
	"chzzkwatch/internal/detect"
	"chzzkwatch/internal/history"
	"chzzkwatch/internal/notify"
	"chzzkwatch/internal/state"
	logx "chzzkwatch/pkg/logx"
)

// Source fetches one best-effort observation per channel.
type Source interface {
	LiveInfo(ctx context.Context, channelID string) detect.Observation
}

// Sender delivers one formatted message to a webhook destination.
type Sender interface {
	Send(ctx context.Context, url string, msg notify.Message) error
}

// RunStats summarizes one run for logging.
type RunStats struct {
	Channels     int
	Events       int
	SendFailures int
}

// Runner owns the per-run pipeline. Per-channel pipelines run concurrently;
// they are independent (distinct network calls, disjoint store keys). Only
// the state map write is shared and is guarded by a mutex.
type Runner struct {
	source Source
	sender Sender
	hist   history.Store // may be nil
	log    logx.Logger
}

func New(source Source, sender Sender, hist history.Store, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{source: source, sender: sender, hist: hist, log: log}
}

// RunOnce executes one full poll. Fetch and send failures are absorbed and
// logged; the only returned error is a failure to persist the state store.
func (r *Runner) RunOnce(ctx context.Context, cfg *config.Config) (RunStats, error) {
	start := time.Now()
	thresholds := cfg.Thresholds()
	statePath := cfg.StatePath()

	states := state.Load(statePath, r.log)

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		stats RunStats
	)
	stats.Channels = len(cfg.Streamers)

	for _, s := range cfg.Streamers {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, failures := r.processStreamer(ctx, s, thresholds, states, &mu)
			mu.Lock()
			stats.Events += events
			stats.SendFailures += failures
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := state.Save(statePath, states); err != nil {
		return stats, err
	}

	r.log.Info("run finished",
		logx.Int("channels", stats.Channels),
		logx.Int("events", stats.Events),
		logx.Int("send_failures", stats.SendFailures),
		logx.Duration("dur", time.Since(start)),
	)
	return stats, nil
}

// processStreamer runs one channel's fetch-detect-notify pipeline. Events
// for the channel are sent strictly in detection order.
func (r *Runner) processStreamer(ctx context.Context, s config.Streamer, thresholds []int, states map[string]detect.ChannelState, mu *sync.Mutex) (events, failures int) {
	log := r.log.With(logx.String("channel_id", s.ChannelID), logx.String("name", s.Name))

	obs := r.source.LiveInfo(ctx, s.ChannelID)

	mu.Lock()
	prev := states[s.ChannelID]
	mu.Unlock()

	detected, next := detect.Detect(prev, obs, thresholds)
	if len(detected) > 0 {
		log.Info("events detected", logx.Int("count", len(detected)), logx.Bool("is_live", obs.IsLive))
	} else {
		log.Debug("no change", logx.Bool("is_live", obs.IsLive), logx.String("status", obs.RawStatus))
	}

	meta := notify.StreamerMeta{Name: s.Name, URL: s.ChzzkURL, RoleID: string(s.DiscordRoleID)}
	for _, ev := range detected {
		r.record(ctx, s, ev)
		if s.WebhookURL == "" {
			continue
		}
		msg := notify.Format(ev, meta, obs, prev)
		if err := r.sender.Send(ctx, s.WebhookURL, msg); err != nil {
			failures++
			log.Warn("notification send failed", logx.String("kind", string(ev.Kind)), logx.Err(err))
			continue
		}
		log.Debug("notification sent", logx.String("kind", string(ev.Kind)))
	}

	mu.Lock()
	states[s.ChannelID] = next
	mu.Unlock()

	return len(detected), failures
}

// record appends the event to the history store, best-effort.
func (r *Runner) record(ctx context.Context, s config.Streamer, ev detect.Event) {
	if r.hist == nil {
		return
	}
	err := r.hist.Append(ctx, history.Entry{
		At:        time.Now(),
		ChannelID: s.ChannelID,
		Name:      s.Name,
		Kind:      string(ev.Kind),
		Old:       ev.Old,
		New:       ev.New,
		Threshold: ev.Threshold,
		Viewers:   ev.Viewers,
	})
	if err != nil {
		r.log.Debug("history append failed", logx.String("channel_id", s.ChannelID), logx.Err(err))
	}
}

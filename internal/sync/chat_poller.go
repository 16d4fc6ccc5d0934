// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"time"

	"github.com/tomtom215/streamwatch/internal/cache"
	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
	"github.com/tomtom215/streamwatch/internal/sink"
)

// ChatLoopName labels the chat loop in logs, metrics and status.
const ChatLoopName = "chat"

// CommentSource fetches pages of replayed chat.
type CommentSource interface {
	GetComments(ctx context.Context, videoID, cursor string) (*models.CommentsPage, error)
}

// ChatPollerConfig holds the immutable settings of the chat loop.
type ChatPollerConfig struct {
	Interval        time.Duration
	EventName       string
	Prefix          string
	VideoIDs        []string
	MaxPagesPerTick int
	DedupCapacity   int
	DedupTTL        time.Duration
}

// ChatPoller counts new comments and distinct commenters per video each
// tick. Comments are deduplicated by id, so re-reading a page after a
// restart or from a stale cursor does not double count.
type ChatPoller struct {
	config ChatPollerConfig
	source CommentSource
	sink   sink.Sink
	now    func() time.Time

	// loop state, touched only by the tick goroutine
	seen     *cache.Deduper
	cursors  map[string]string
	channels map[string]string

	loop *loop
}

// NewChatPoller creates the chat loop.
func NewChatPoller(source CommentSource, out sink.Sink, config ChatPollerConfig) *ChatPoller {
	if config.MaxPagesPerTick <= 0 {
		config.MaxPagesPerTick = 50
	}
	p := &ChatPoller{
		config:   config,
		source:   source,
		sink:     out,
		now:      time.Now,
		seen:     cache.NewDeduper(config.DedupCapacity, config.DedupTTL),
		cursors:  make(map[string]string, len(config.VideoIDs)),
		channels: make(map[string]string, len(config.VideoIDs)),
	}
	p.loop = &loop{name: ChatLoopName, interval: config.Interval, tick: p.tick}
	return p
}

// Start begins the polling loop. The first tick runs immediately.
func (p *ChatPoller) Start(ctx context.Context) error {
	return p.loop.start(ctx)
}

// Stop stops the polling loop and waits for the current tick to finish.
func (p *ChatPoller) Stop() {
	p.loop.stop()
}

// Status reports tick counters and the last tick's stats.
func (p *ChatPoller) Status() LoopStatus {
	return p.loop.status()
}

// videoCounts is what one tick learned about one video.
type videoCounts struct {
	pages      int
	messages   int
	duplicates int
	commenters map[string]struct{}
}

func (p *ChatPoller) tick(ctx context.Context) TickStats {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	timestamp := p.now().UTC()
	stats := TickStats{StartedAt: timestamp}

	for _, videoID := range p.config.VideoIDs {
		if ctx.Err() != nil {
			break
		}
		stats.Units++

		counts, err := p.readVideo(ctx, videoID)
		stats.Pages += counts.pages
		stats.Duplicates += counts.duplicates
		if err != nil {
			stats.UnitErrors++
			log.Warn().Err(err).Str("video_id", videoID).Int("pages_read", counts.pages).Msg("Chat read aborted for this tick")
			// Comments of the pages already read are marked seen and the
			// cursor moved past them: they are submitted now or never.
			if counts.pages == 0 {
				continue
			}
		}

		batch := []models.Datapoint{
			AssembleChat(videoID, p.channels[videoID], timestamp, p.config.EventName,
				ChatMessagesClass(p.config.Prefix), counts.messages),
			AssembleChat(videoID, p.channels[videoID], timestamp, p.config.EventName,
				ChatCommentersClass(p.config.Prefix), len(counts.commenters)),
		}
		accepted, err := p.sink.Submit(ctx, batch)
		stats.Datapoints += accepted
		if err != nil {
			lost := sink.LostCount(err, len(batch))
			stats.Lost += lost
			log.Error().Err(err).Str("video_id", videoID).Int("lost", lost).Msg("Failed to submit chat datapoints")
		}
	}

	p.seen.CleanupExpired()

	log.Info().
		Int("videos", stats.Units).
		Int("pages", stats.Pages).
		Int("datapoints", stats.Datapoints).
		Int("duplicates", stats.Duplicates).
		Msg("Chat tick complete")
	return stats
}

// readVideo follows the video's cursor for up to MaxPagesPerTick pages.
// The cursor only advances past pages that were read successfully. On error
// the counts of those pages are returned along with it.
func (p *ChatPoller) readVideo(ctx context.Context, videoID string) (videoCounts, error) {
	counts := videoCounts{commenters: make(map[string]struct{})}
	cursor := p.cursors[videoID]

	for counts.pages < p.config.MaxPagesPerTick {
		page, err := p.source.GetComments(ctx, videoID, cursor)
		if err != nil {
			return counts, err
		}
		counts.pages++

		for i := range page.Comments {
			comment := &page.Comments[i]
			if comment.ChannelID != "" {
				p.channels[videoID] = comment.ChannelID
			}
			if p.seen.IsDuplicate(videoID + "/" + comment.ID) {
				counts.duplicates++
				metrics.ChatCommentsSeen.WithLabelValues("duplicate").Inc()
				continue
			}
			metrics.ChatCommentsSeen.WithLabelValues("new").Inc()
			counts.messages++
			counts.commenters[comment.Commenter.ID] = struct{}{}
		}

		if page.Next == "" {
			break
		}
		cursor = page.Next
		p.cursors[videoID] = cursor
	}

	return counts, nil
}

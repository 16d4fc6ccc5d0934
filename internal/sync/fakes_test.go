// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
	"github.com/tomtom215/streamwatch/internal/sink"
)

var errUpstream = errors.New("upstream unavailable")

// fakeTwitch serves canned streams, games and comments.
type fakeTwitch struct {
	mu stdsync.Mutex

	// streams pages keyed by "<first user login>|<after cursor>"
	streamPages map[string]*models.StreamsPage
	streamErrs  map[string]error
	streamCalls []models.StreamFilter

	games      map[string]string
	gameErrs   map[string]error
	gameCalls  map[string]int
	gameDelay  time.Duration
	totalGames int

	commentPages map[string]*models.CommentsPage // keyed by "<video>|<cursor>"
	commentErrs  map[string]error
	commentCalls []string
}

func newFakeTwitch() *fakeTwitch {
	return &fakeTwitch{
		streamPages:  make(map[string]*models.StreamsPage),
		streamErrs:   make(map[string]error),
		games:        make(map[string]string),
		gameErrs:     make(map[string]error),
		gameCalls:    make(map[string]int),
		commentPages: make(map[string]*models.CommentsPage),
		commentErrs:  make(map[string]error),
	}
}

func streamKey(f models.StreamFilter) string {
	first := ""
	if len(f.UserLogins) > 0 {
		first = f.UserLogins[0]
	}
	return first + "|" + f.After
}

func (f *fakeTwitch) addStreamPage(firstLogin, after, cursor string, streams ...models.Stream) {
	f.streamPages[firstLogin+"|"+after] = &models.StreamsPage{
		Data:       streams,
		Pagination: models.Pagination{Cursor: cursor},
	}
}

func (f *fakeTwitch) GetStreams(_ context.Context, filter models.StreamFilter) (*models.StreamsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.streamCalls = append(f.streamCalls, filter.Clone())
	key := streamKey(filter)
	if err := f.streamErrs[key]; err != nil {
		return nil, err
	}
	page, ok := f.streamPages[key]
	if !ok {
		return &models.StreamsPage{}, nil
	}
	return page, nil
}

func (f *fakeTwitch) GetGames(ctx context.Context, ids []string) (*models.GamesPage, error) {
	if f.gameDelay > 0 {
		time.Sleep(f.gameDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.totalGames++
	page := &models.GamesPage{}
	for _, id := range ids {
		f.gameCalls[id]++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.gameErrs[id]; err != nil {
			return nil, err
		}
		if name, ok := f.games[id]; ok {
			page.Data = append(page.Data, models.Game{ID: id, Name: name})
		}
	}
	return page, nil
}

func (f *fakeTwitch) GetComments(_ context.Context, videoID, cursor string) (*models.CommentsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := videoID + "|" + cursor
	f.commentCalls = append(f.commentCalls, key)
	if err := f.commentErrs[key]; err != nil {
		return nil, err
	}
	if page, ok := f.commentPages[key]; ok {
		return page, nil
	}
	return &models.CommentsPage{}, nil
}

func (f *fakeTwitch) lookups(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gameCalls[id]
}

func (f *fakeTwitch) streamRequests() []models.StreamFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StreamFilter(nil), f.streamCalls...)
}

// recordingSink captures every submitted batch.
type recordingSink struct {
	mu      stdsync.Mutex
	batches [][]models.Datapoint
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Submit(_ context.Context, batch []models.Datapoint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]models.Datapoint(nil), batch...))
	if s.err != nil {
		return 0, &sink.Error{Sink: s.Name(), Lost: len(batch), Err: s.err}
	}
	return len(batch), nil
}

func (s *recordingSink) submitted() [][]models.Datapoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]models.Datapoint(nil), s.batches...)
}

func stream(id, login, gameID string, viewers int) models.Stream {
	return models.Stream{
		ID:          id,
		UserID:      "uid-" + login,
		UserLogin:   login,
		UserName:    login,
		GameID:      gameID,
		Type:        "live",
		ViewerCount: viewers,
	}
}

func logins(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("user%04d", i)
	}
	return out
}

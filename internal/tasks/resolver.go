package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/matcher"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
)

// Pacer blocks before an external call to keep within upstream rate limits.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay waits the same duration before every call.
type FixedDelay time.Duration

// Wait sleeps for the delay or until ctx is done.
func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(d))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelay never waits.
var NoDelay Pacer = FixedDelay(0)

// Resolver finds the best video for a single track by trying queries in order.
type Resolver struct {
	searcher services.VideoSearcher
	pacer    Pacer
	limit    int
	logger   *log.Logger
	now      func() time.Time
}

// NewResolver creates a resolver requesting limit candidates per query.
func NewResolver(searcher services.VideoSearcher, pacer Pacer, limit int, logger *log.Logger) *Resolver {
	if pacer == nil {
		pacer = NoDelay
	}
	if limit <= 0 {
		limit = 5
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{searcher: searcher, pacer: pacer, limit: limit, logger: logger, now: time.Now}
}

// Resolve issues the generated queries for track until one yields a candidate scoring at
// least [matcher.MinScore]. A failed query counts as one without candidates.
//
// The result has no video when every query is exhausted or ctx ends first.
func (r *Resolver) Resolve(ctx context.Context, track models.Track) models.MatchResult {
	result := models.MatchResult{Track: track, QueriesAttempted: []string{}}
	defer func() { result.Timestamp = r.now() }()

	for i, query := range matcher.GenerateQueries(track) {
		if i > 0 {
			if err := r.pacer.Wait(ctx); err != nil {
				return result
			}
		}

		result.QueriesAttempted = append(result.QueriesAttempted, query)
		candidates, err := r.searcher.SearchVideos(ctx, query, r.limit)
		if err != nil {
			if ctx.Err() != nil {
				return result
			}
			r.logger.Debug("query failed", "track", track.ID, "query", query, "err", err)
			continue
		}

		best, score, ok := matcher.BestMatch(track, candidates)
		if !ok {
			r.logger.Debug("no match", "track", track.ID, "query", query, "candidates", len(candidates), "best", score)
			continue
		}

		result.Video = &best
		result.Confidence = matcher.Confidence(track, &best)
		r.logger.Debug("matched", "track", track.ID, "video", best.ID, "score", score, "confidence", result.Confidence)
		return result
	}
	return result
}

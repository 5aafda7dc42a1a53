package savedsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"careercraft/jobsearch-service/internal/model"
)

// CompletedChannel is the pub/sub channel a run summary is published on.
const CompletedChannel = "search.completed"

// Searcher runs one pipeline pass.
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) model.ResultSet
}

// Publisher delivers run events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, event any) error
}

// CompletedEvent is published after every recorded run.
type CompletedEvent struct {
	Type          string         `json:"type"`
	SavedSearchID string         `json:"savedSearchId"`
	Name          string         `json:"name"`
	Total         int            `json:"total"`
	Attempted     int            `json:"attempted"`
	Succeeded     int            `json:"succeeded"`
	Failed        []model.Source `json:"failed"`
	RanAt         time.Time      `json:"ranAt"`
}

// Runner executes every active saved search and records the counts.
type Runner struct {
	repo      Repository
	searcher  Searcher
	publisher Publisher // optional
	log       *zap.Logger
	now       func() time.Time
}

// NewRunner returns a Runner. publisher may be nil.
func NewRunner(repo Repository, searcher Searcher, publisher Publisher, log *zap.Logger) *Runner {
	return &Runner{
		repo:      repo,
		searcher:  searcher,
		publisher: publisher,
		log:       log.Named("savedsearch"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunAll runs every active saved search in order. A failing preset is logged
// and skipped; only failing to load the presets is returned.
func (r *Runner) RunAll(ctx context.Context) error {
	searches, err := r.repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load active saved searches: %w", err)
	}
	if len(searches) == 0 {
		r.log.Info("no active saved searches")
		return nil
	}

	r.log.Info("running saved searches", zap.Int("count", len(searches)))
	for _, ss := range searches {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := r.Run(ctx, ss); err != nil {
			r.log.Warn("saved search run failed", zap.String("id", ss.ID), zap.Error(err))
		}
	}
	return nil
}

// Run executes one saved search, stores its counts and publishes the event.
// A publish failure is logged, not returned.
func (r *Runner) Run(ctx context.Context, ss model.SavedSearch) (model.SearchRun, error) {
	rs := r.searcher.Search(ctx, ss.Request())

	run := model.SearchRun{
		ID:            uuid.NewString(),
		SavedSearchID: ss.ID,
		Report:        rs.Report,
		Total:         len(rs.Records),
		RanAt:         r.now(),
	}
	if err := r.repo.RecordRun(ctx, run); err != nil {
		return model.SearchRun{}, fmt.Errorf("record run: %w", err)
	}

	r.log.Info("saved search run recorded",
		zap.String("id", ss.ID),
		zap.String("name", ss.Name),
		zap.Int("total", run.Total),
		zap.Int("succeeded", run.Report.Succeeded),
		zap.Int("attempted", run.Report.Attempted),
	)

	if r.publisher != nil {
		event := CompletedEvent{
			Type:          CompletedChannel,
			SavedSearchID: ss.ID,
			Name:          ss.Name,
			Total:         run.Total,
			Attempted:     run.Report.Attempted,
			Succeeded:     run.Report.Succeeded,
			Failed:        run.Report.Failed,
			RanAt:         run.RanAt,
		}
		if err := r.publisher.Publish(ctx, CompletedChannel, event); err != nil {
			r.log.Warn("publish failed", zap.String("channel", CompletedChannel), zap.Error(err))
		}
	}
	return run, nil
}

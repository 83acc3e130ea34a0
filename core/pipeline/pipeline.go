package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soundmap/metrics"
	"soundmap/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options 控制一次采集的规模与节奏
type Options struct {
	Window      string
	TrackLimit  int
	GeoLimit    int
	PerTrackCap int
	Cooldown    time.Duration
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		Window:      "DAYS_30",
		TrackLimit:  50,
		GeoLimit:    50,
		PerTrackCap: 20,
		Cooldown:    300 * time.Millisecond,
	}
}

// Sink persists an assembled snapshot.
type Sink interface {
	Name() string
	Save(ctx context.Context, s *model.Snapshot) error
}

// Result is what a run hands back to the CLI for reporting and CSV export.
type Result struct {
	Snapshot *model.Snapshot
	// AllTracks is the full top-tracks list; Snapshot.Tracks holds only the capped subset.
	AllTracks         []model.Track
	PerTrack          PerTrackReport
	SkippedBreakdowns int
	RemoteCalls       int64
	Duration          time.Duration
}

// Runner drives one collection pass: identity, tracks, geo, index, assembly, sinks.
type Runner struct {
	src     Source
	opts    Options
	sinks   []Sink
	logger  *zap.Logger
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(src Source, opts Options, logger *zap.Logger, sinks ...Sink) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		src:    src,
		opts:   opts,
		sinks:  sinks,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		sleep:  sleepContext,
	}
}

// SetMetrics 设置运行指标
func (r *Runner) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Run executes the pipeline. Identity and track failures stop the run before
// any sink is written. Sink failures are joined and returned together with
// the result, since the snapshot itself was assembled successfully.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()
	src := &countingSource{Source: r.src}

	user, err := src.Me(ctx)
	if err != nil {
		r.metrics.ObservePipelineRun("auth_error")
		return nil, fmt.Errorf("identity check: %w: %w", ErrAuth, err)
	}
	r.logger.Info("[Pipeline] authenticated",
		zap.String("username", user.DisplayName()),
		zap.Int64("followers", user.FollowersCount),
		zap.Bool("pro", user.IsPro))

	tracks, err := NewTrackFetcher(src, r.logger).FetchTopTracks(ctx, r.opts.Window, r.opts.TrackLimit)
	if err != nil {
		if errors.Is(err, ErrEmptyResult) {
			r.metrics.ObservePipelineRun("empty")
		} else {
			r.metrics.ObservePipelineRun("transport_error")
		}
		return nil, err
	}

	geo := NewGeoAggregator(src, r.opts.Cooldown, r.logger)
	geo.SetMetrics(r.metrics)
	geo.sleep = r.sleep

	agg := geo.FetchAggregate(ctx, r.opts.Window, r.opts.GeoLimit)
	perTrack, report, err := geo.CollectPerTrack(ctx, tracks, r.opts.Window, r.opts.GeoLimit, r.opts.PerTrackCap)
	if err != nil {
		r.metrics.ObservePipelineRun("canceled")
		return nil, fmt.Errorf("collect per-track geo: %w", err)
	}

	index, skipped := buildCountryIndex(perTrack)
	if skipped > 0 {
		r.logger.Warn("[Pipeline] breakdowns without a valid country code skipped", zap.Int("count", skipped))
	}

	snap := Assemble(user, agg.Countries, agg.Cities, perTrack, index)
	snap.Meta = &model.SnapshotMeta{
		ID:          r.newID(),
		GeneratedAt: r.now().UTC(),
		Window:      r.opts.Window,
	}

	res := &Result{
		Snapshot:          snap,
		AllTracks:         tracks,
		PerTrack:          report,
		SkippedBreakdowns: skipped,
		RemoteCalls:       src.calls.Load(),
	}

	if err := r.save(ctx, snap); err != nil {
		r.metrics.ObservePipelineRun("sink_error")
		res.Duration = r.now().Sub(started)
		return res, err
	}

	res.Duration = r.now().Sub(started)
	r.metrics.ObservePipelineRun("ok")
	r.metrics.SetSnapshot(len(snap.Tracks), len(snap.Aggregate.Countries), len(snap.Aggregate.Cities))
	r.logger.Info("[Pipeline] run complete",
		zap.String("snapshot_id", snap.Meta.ID),
		zap.Int("tracks", len(snap.Tracks)),
		zap.Int("countries", len(snap.Aggregate.Countries)),
		zap.Int("cities", len(snap.Aggregate.Cities)),
		zap.Int64("remote_calls", res.RemoteCalls),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func (r *Runner) save(ctx context.Context, snap *model.Snapshot) error {
	var errs []error
	for _, sink := range r.sinks {
		if err := sink.Save(ctx, snap); err != nil {
			r.logger.Error("[Pipeline] sink failed", zap.String("sink", sink.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
			continue
		}
		r.logger.Info("[Pipeline] snapshot saved", zap.String("sink", sink.Name()))
	}
	return errors.Join(errs...)
}

package pipeline

import (
	"context"

	"soundmap/model"

	"go.uber.org/zap"
)

// TrackFetcher retrieves the top tracks of a reporting window.
type TrackFetcher struct {
	src    Source
	logger *zap.Logger
}

func NewTrackFetcher(src Source, logger *zap.Logger) *TrackFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackFetcher{src: src, logger: logger}
}

// FetchTopTracks returns tracks in source order (descending plays, not re-sorted).
// An empty list is ErrEmptyResult; without tracks nothing downstream is meaningful.
func (f *TrackFetcher) FetchTopTracks(ctx context.Context, window string, limit int) ([]model.Track, error) {
	items, err := f.src.TopTracks(ctx, window, limit)
	if err != nil {
		return nil, transportError("fetch top tracks", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyResult
	}

	tracks := make([]model.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, item.ToTrack())
	}
	f.logger.Info("[TrackFetcher] fetched top tracks",
		zap.String("window", window),
		zap.Int("count", len(tracks)))
	return tracks, nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"soundmap/model"
)

// Pipeline-terminating and recoverable failure classes.
var (
	ErrTransport   = errors.New("insights source failure")
	ErrAuth        = errors.New("authentication failed")
	ErrEmptyResult = errors.New("source returned no tracks")
)

// Source is the remote analytics contract. *insights.Client implements it.
type Source interface {
	Me(ctx context.Context) (*model.User, error)
	TopTracks(ctx context.Context, window string, limit int) ([]model.TrackCount, error)
	TopCountries(ctx context.Context, window string, limit int, trackURN string) ([]model.CountryCount, error)
	TopCities(ctx context.Context, window string, limit int, trackURN string) ([]model.CityCount, error)
}

// transportError converts a raw client error before it reaches aggregation code.
func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

// countingSource counts remote calls for the run report.
type countingSource struct {
	Source
	calls atomic.Int64
}

func (c *countingSource) Me(ctx context.Context) (*model.User, error) {
	c.calls.Add(1)
	return c.Source.Me(ctx)
}

func (c *countingSource) TopTracks(ctx context.Context, window string, limit int) ([]model.TrackCount, error) {
	c.calls.Add(1)
	return c.Source.TopTracks(ctx, window, limit)
}

func (c *countingSource) TopCountries(ctx context.Context, window string, limit int, trackURN string) ([]model.CountryCount, error) {
	c.calls.Add(1)
	return c.Source.TopCountries(ctx, window, limit, trackURN)
}

func (c *countingSource) TopCities(ctx context.Context, window string, limit int, trackURN string) ([]model.CityCount, error) {
	c.calls.Add(1)
	return c.Source.TopCities(ctx, window, limit, trackURN)
}

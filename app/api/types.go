package api

import (
	"context"

	"github.com/nwohater/lackeynews/app/news"
	"github.com/nwohater/lackeynews/app/sources"
)

type AggregatorInterface interface {
	Run(ctx context.Context, opts news.FetchOptions) *news.AggregatedNews
	SourceCount() int
}

var _ AggregatorInterface = (*news.Aggregator)(nil)

type Handler struct {
	aggregator   AggregatorInterface
	registry     *sources.Registry
	defaultLimit int
}

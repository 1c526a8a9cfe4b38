package search

import (
	"context"

	"github.com/young1lin/groundsearch/internal/models"
)

// Provider is the external grounded search call. Each Search returns
// exactly one response or one error; there are no partial results.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search sends the query and returns the synthesized answer with citations
	Search(ctx context.Context, query string) (*models.SearchResponse, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, query string) (*models.SearchResponse, error)

// Name returns "func"
func (f ProviderFunc) Name() string {
	return "func"
}

// Search calls f
func (f ProviderFunc) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	return f(ctx, query)
}

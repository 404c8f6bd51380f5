package market

import (
	"context"
	"fmt"
)

// NoopClient is the offline provider: every quote is unavailable. Useful
// for running the server without network access; valuations degrade to
// stale-but-consistent per the ledger's partial-failure rules.
type NoopClient struct{}

var _ Data = (*NoopClient)(nil)

// NewNoopClient creates the offline provider.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (c *NoopClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
}

func (c *NoopClient) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	return map[string]*Quote{}, nil
}

func (c *NoopClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return nil, nil
}

func (c *NoopClient) Screener(ctx context.Context, screenID string, count int) ([]SearchResult, error) {
	return nil, nil
}

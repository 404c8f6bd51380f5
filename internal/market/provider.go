package market

import (
	"fmt"

	"paper-trading-go/internal/config"

	"go.uber.org/zap"
)

// New selects the market data provider named in the configuration.
func New(cfg *config.Market, logger *zap.Logger) (Data, error) {
	switch cfg.Provider {
	case "yahoo":
		return NewYahooClient(cfg, logger), nil
	case "finnhub":
		if cfg.FinnhubToken == "" {
			return nil, fmt.Errorf("finnhub provider requires market.finnhub_token")
		}
		return NewFinnhubClient(cfg, logger), nil
	case "noop":
		return NewNoopClient(), nil
	default:
		return nil, fmt.Errorf("unknown market provider: %q", cfg.Provider)
	}
}

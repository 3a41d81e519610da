package collector

import (
	"context"

	"CryptoSentinel/internal/model"
)

// Fetcher defines the interface for fetching raw market inputs. Every method
// is independent so the collector can degrade one source at a time.
type Fetcher interface {
	FetchQuotes(ctx context.Context, ids []string) (map[string]model.MarketSnapshot, error)
	FetchGlobal(ctx context.Context) (*model.GlobalMetrics, error)
	FetchFearGreed(ctx context.Context) (value int, label string, err error)
	FetchDailyCloses(ctx context.Context, ticker string, days int) ([]model.PricePoint, error)
	FetchChannelVideos(ctx context.Context, channelID string) ([]model.Video, error)
	Name() string
}

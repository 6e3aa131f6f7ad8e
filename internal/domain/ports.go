package domain

import "context"

type CarRepository interface {
	CountMakes(ctx context.Context) (int64, error)
	// SeedCatalog upserts makes and their models; safe to run more than once.
	SeedCatalog(ctx context.Context, makes []CarMake) error
	ListCarModels(ctx context.Context) ([]CarModel, error)
}

type UserRepository interface {
	UserExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, u User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
}

// DealerGateway is the remote dealer/review service. Payloads are opaque JSON.
type DealerGateway interface {
	FetchDealers(ctx context.Context, state string) ([]any, error)
	FetchDealer(ctx context.Context, id int64) (any, error)
	FetchReviews(ctx context.Context, dealerID int64) ([]any, error)
	PostReview(ctx context.Context, payload map[string]any) (map[string]any, error)
}

type SentimentAnalyzer interface {
	// Analyze returns the sentiment label of text or ErrNoSentiment.
	Analyze(ctx context.Context, text string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

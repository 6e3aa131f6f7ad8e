package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"car_dealership/internal/adapters/observability"
	"car_dealership/internal/domain"
)

// AllStates selects every dealer regardless of state.
const AllStates = "All"

type DealerOptions struct {
	CacheTTL         time.Duration // dealer lists and details; 0 disables
	SentimentTTL     time.Duration // cached labels; 0 disables
	SentimentTimeout time.Duration // per review
	Workers          int           // concurrent sentiment calls per request
}

// DealerService reads dealers and reviews through the gateway. Gateway
// failures are logged and surface as absent data, never as errors, except on
// the review write path.
type DealerService struct {
	gw    domain.DealerGateway
	sa    domain.SentimentAnalyzer
	cache domain.Cache
	opts  DealerOptions
}

func NewDealerService(gw domain.DealerGateway, sa domain.SentimentAnalyzer, cache domain.Cache, opts DealerOptions) *DealerService {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.SentimentTimeout <= 0 {
		opts.SentimentTimeout = 5 * time.Second
	}
	return &DealerService{gw: gw, sa: sa, cache: cache, opts: opts}
}

// ListDealers returns all dealers for AllStates (or ""), otherwise those in state.
// The result is never nil.
func (s *DealerService) ListDealers(ctx context.Context, state string) []any {
	if state == AllStates {
		state = ""
	}
	key := "dealers:" + state
	out := []any{}
	if s.cacheGet(ctx, key, &out) {
		return out
	}

	dealers, err := s.gw.FetchDealers(ctx, state)
	if err != nil {
		log.Warn().Err(err).Str("state", state).Msg("fetch dealers failed")
		return []any{}
	}
	if dealers == nil {
		return []any{}
	}
	s.cacheSet(ctx, key, dealers, s.opts.CacheTTL)
	return dealers
}

// GetDealer returns the upstream dealer payload, or nil when unavailable.
func (s *DealerService) GetDealer(ctx context.Context, id int64) any {
	key := fmt.Sprintf("dealer:%d", id)
	var out any
	if s.cacheGet(ctx, key, &out) {
		return out
	}

	d, err := s.gw.FetchDealer(ctx, id)
	if err != nil {
		log.Warn().Err(err).Int64("dealer_id", id).Msg("fetch dealer failed")
		return nil
	}
	if d != nil {
		s.cacheSet(ctx, key, d, s.opts.CacheTTL)
	}
	return d
}

// GetDealerReviews returns the dealer's reviews in upstream order, each labelled
// with a sentiment. Labels are resolved concurrently and independently: a failed
// or slow analysis only defaults its own review to neutral.
func (s *DealerService) GetDealerReviews(ctx context.Context, dealerID int64) []domain.Review {
	raw, err := s.gw.FetchReviews(ctx, dealerID)
	if err != nil {
		log.Warn().Err(err).Int64("dealer_id", dealerID).Msg("fetch reviews failed")
		return []domain.Review{}
	}

	out := make([]domain.Review, len(raw))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, item := range raw {
		i, item := i, item
		g.Go(func() error {
			rv := mapReview(item)
			rv.Sentiment = s.sentiment(ctx, rv.Review)
			out[i] = rv
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// PostReview forwards a review to the dealer service.
func (s *DealerService) PostReview(ctx context.Context, payload map[string]any) error {
	if _, err := s.gw.PostReview(ctx, payload); err != nil {
		return fmt.Errorf("post review: %w", err)
	}
	return nil
}

// WarmDealer resolves and caches sentiment labels for every review of a dealer.
func (s *DealerService) WarmDealer(ctx context.Context, dealerID int64) int {
	return len(s.GetDealerReviews(ctx, dealerID))
}

// DealerIDs lists the ids of all known dealers.
func (s *DealerService) DealerIDs(ctx context.Context) []int64 {
	return dealerIDs(s.ListDealers(ctx, AllStates))
}

func (s *DealerService) sentiment(ctx context.Context, text string) string {
	key := sentimentKey(text)
	var label string
	if s.cacheGet(ctx, key, &label) && label != "" {
		observability.ObserveSentiment(label, "cache")
		return label
	}
	if s.sa == nil {
		observability.ObserveSentiment(domain.SentimentNeutral, "default")
		return domain.SentimentNeutral
	}

	actx, cancel := context.WithTimeout(ctx, s.opts.SentimentTimeout)
	defer cancel()
	label, err := s.sa.Analyze(actx, text)
	if err != nil || label == "" {
		if err != nil {
			log.Debug().Err(err).Msg("sentiment unavailable, defaulting to neutral")
		}
		observability.ObserveSentiment(domain.SentimentNeutral, "default")
		return domain.SentimentNeutral
	}
	s.cacheSet(ctx, key, label, s.opts.SentimentTTL)
	observability.ObserveSentiment(label, "analyzer")
	return label
}

func sentimentKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return "sentiment:" + hex.EncodeToString(sum[:])
}

// cache helpers: a nil cache or a cache error behaves as a miss
func (s *DealerService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (s *DealerService) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(ttl.Seconds())); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"car_dealership/internal/domain"
)

// ---- fakes ----

type fakeGateway struct {
	mu       sync.Mutex
	dealers  map[string][]any
	dealer   map[int64]any
	reviews  map[int64][]any
	fail     error
	posted   []map[string]any
	postErr  error
	fetchCnt int
}

func (g *fakeGateway) FetchDealers(ctx context.Context, state string) ([]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCnt++
	if g.fail != nil {
		return nil, g.fail
	}
	return g.dealers[state], nil
}

func (g *fakeGateway) FetchDealer(ctx context.Context, id int64) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCnt++
	if g.fail != nil {
		return nil, g.fail
	}
	d, ok := g.dealer[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (g *fakeGateway) FetchReviews(ctx context.Context, dealerID int64) ([]any, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	return g.reviews[dealerID], nil
}

func (g *fakeGateway) PostReview(ctx context.Context, payload map[string]any) (map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.postErr != nil {
		return nil, g.postErr
	}
	g.posted = append(g.posted, payload)
	return payload, nil
}

// fakeAnalyzer answers from labels; unknown texts fail. delay applies to texts in slow.
type fakeAnalyzer struct {
	mu     sync.Mutex
	labels map[string]string
	slow   map[string]time.Duration
	calls  int
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	a.mu.Lock()
	a.calls++
	d := a.slow[text]
	l, ok := a.labels[text]
	a.mu.Unlock()
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return "", errors.New("analyzer down")
	}
	return l, nil
}

// memCache is an in-memory domain.Cache with JSON round-tripping like the redis adapter.
type memCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeCarRepo struct {
	mu     sync.Mutex
	makes  []domain.CarMake
	seeds  int
	delay  time.Duration
	models []domain.CarModel
}

func (r *fakeCarRepo) CountMakes(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.makes)), nil
}

func (r *fakeCarRepo) SeedCatalog(ctx context.Context, makes []domain.CarMake) error {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeds++
	r.makes = append(r.makes, makes...)
	for _, mk := range makes {
		for _, m := range mk.Models {
			m.MakeName = mk.Name
			r.models = append(r.models, m)
		}
	}
	return nil
}

func (r *fakeCarRepo) ListCarModels(ctx context.Context) ([]domain.CarModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CarModel(nil), r.models...), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *fakeUserRepo) UserExists(ctx context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users == nil {
		r.users = map[string]domain.User{}
	}
	if _, ok := r.users[u.Username]; ok {
		return 0, domain.ErrAlreadyRegistered
	}
	u.ID = int64(len(r.users) + 1)
	r.users[u.Username] = u
	return u.ID, nil
}

func (r *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

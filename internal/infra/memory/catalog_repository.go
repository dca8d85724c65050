package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"trivia-lobby-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the full question catalog from a backing store
// (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (map[string][]domain.Question, error)
}

// CatalogRepository caches the catalog with TTL to avoid repeated DB hits.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	catalog   map[string][]domain.Question
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Categories(ctx context.Context) ([]string, error) {
	catalog, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(catalog))
	for key := range catalog {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *CatalogRepository) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	catalog, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	questions, ok := catalog[category]
	if !ok {
		return nil, domain.ErrInvalidCategory
	}
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out, nil
}

func (r *CatalogRepository) get(ctx context.Context) (map[string][]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if r.catalog != nil && r.expiresAt.After(now) {
		catalog := r.catalog
		r.mu.RUnlock()
		return catalog, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.catalog != nil && r.expiresAt.After(now) {
			catalog := r.catalog
			r.mu.RUnlock()
			return catalog, nil
		}
		r.mu.RUnlock()

		catalog, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.catalog = catalog
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string][]domain.Question), nil
}

// StaticCatalogLoader is a simple loader backed by an in-memory map (useful
// for tests/demos and no-database startup).
type StaticCatalogLoader struct {
	catalog map[string][]domain.Question
}

func NewStaticCatalogLoader(catalog map[string][]domain.Question) *StaticCatalogLoader {
	return &StaticCatalogLoader{catalog: catalog}
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context) (map[string][]domain.Question, error) {
	return l.catalog, nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

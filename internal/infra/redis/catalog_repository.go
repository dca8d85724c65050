package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"trivia-lobby-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the full question catalog from a backing store
// (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (map[string][]domain.Question, error)
}

// CatalogRepository caches the catalog as a JSON blob in Redis and falls back
// to the loader on cache miss. Stored as: SET catalog:questions {json} EX ttl.
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
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
	return questions, nil
}

func (r *CatalogRepository) get(ctx context.Context) (map[string][]domain.Question, error) {
	if catalog, ok := r.fromCache(ctx); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := r.fromCache(ctx); ok {
			return catalog, nil
		}

		catalog, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(catalog); err == nil {
			_ = r.client.Set(ctx, r.cacheKey(), raw, r.ttlWithJitter()).Err()
		}
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string][]domain.Question), nil
}

func (r *CatalogRepository) fromCache(ctx context.Context) (map[string][]domain.Question, bool) {
	raw, err := r.client.Get(ctx, r.cacheKey()).Bytes()
	if err != nil {
		return nil, false
	}
	var catalog map[string][]domain.Question
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, false
	}
	return catalog, true
}

func (r *CatalogRepository) cacheKey() string {
	return "catalog:questions"
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"trivia-lobby-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads question categories stored as JSONB in Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (map[string][]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT name, questions FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	catalog := make(map[string][]domain.Question)
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		var questions []domain.Question
		if err := json.Unmarshal(raw, &questions); err != nil {
			return nil, fmt.Errorf("unmarshal category %q: %w", name, err)
		}
		catalog[name] = questions
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

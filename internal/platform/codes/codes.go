// Package codes issues sequential document codes backed by Postgres.
package codes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Generator allocates codes such as COT-000001 atomically per prefix.
type Generator struct {
	pool *pgxpool.Pool
}

func NewGenerator(pool *pgxpool.Pool) *Generator {
	return &Generator{pool: pool}
}

// Next reserves the following sequence value for the prefix and formats it.
func (g *Generator) Next(ctx context.Context, prefix string) (string, error) {
	const query = `
		INSERT INTO document_sequences (prefix, value)
		VALUES ($1, 1)
		ON CONFLICT (prefix)
		DO UPDATE SET value = document_sequences.value + 1
		RETURNING value`

	var seq int64
	if err := g.pool.QueryRow(ctx, query, prefix).Scan(&seq); err != nil {
		return "", fmt.Errorf("codes: next %s: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%06d", prefix, seq), nil
}

package storage

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/lueurxax/idea-miner/internal/core/domain"
)

// UpsertIdea inserts an idea, or returns the idea already stored under the same title
// unchanged. Ideas are immutable once created; a conflicting insert only fills a missing
// embedding. The returned Embedding is set only when this call created the idea.
func (db *DB) UpsertIdea(ctx context.Context, fields domain.IdeaFields, embedding []float32) (domain.Idea, error) {
	const op = "upsert idea"

	fields = domain.IdeaFields{
		Title:        SanitizeUTF8(strings.TrimSpace(fields.Title)),
		Thesis:       SanitizeUTF8(fields.Thesis),
		TechStack:    SanitizeUTF8(fields.TechStack),
		Monetization: SanitizeUTF8(fields.Monetization),
	}

	if fields.Title == "" {
		return domain.Idea{}, invalid(op, "title is empty")
	}

	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	var (
		idea     domain.Idea
		inserted bool
	)

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO ideas (title, thesis, tech_stack, monetization, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (title) DO UPDATE SET
			embedding = COALESCE(ideas.embedding, EXCLUDED.embedding)
		RETURNING id::text, title, thesis, tech_stack, monetization, created_at, (xmax = 0)
	`, fields.Title, fields.Thesis, fields.TechStack, fields.Monetization, vec).Scan(
		&idea.ID, &idea.Title, &idea.Thesis, &idea.TechStack, &idea.Monetization, &idea.CreatedAt, &inserted,
	)
	if err != nil {
		return domain.Idea{}, classify(op, err)
	}

	if inserted {
		idea.Embedding = embedding
	}

	return idea, nil
}

// CountIdeas returns the number of stored ideas.
func (db *DB) CountIdeas(ctx context.Context) (int64, error) {
	var n int64

	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM ideas`).Scan(&n); err != nil {
		return 0, classify("count ideas", err)
	}

	return n, nil
}

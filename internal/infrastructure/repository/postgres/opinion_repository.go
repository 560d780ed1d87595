package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/openjurist/enhancer/internal/core/domain"
)

// OpinionRepository persists enhanced documents. Upsert is idempotent per
// external id; enrichment fields only overwrite when the new pass produced a
// value, so a retry with better judge data never erases a prior court
// resolution.
type OpinionRepository struct {
	db *sql.DB
}

func NewOpinionRepository(db *sql.DB) *OpinionRepository {
	return &OpinionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *OpinionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS opinions (
	id TEXT PRIMARY KEY,
	case_number TEXT NOT NULL,
	document_type TEXT NOT NULL,
	category TEXT NOT NULL,
	court_id TEXT,
	court_name TEXT,
	judge TEXT,
	judge_source TEXT,
	citation_count INTEGER NOT NULL DEFAULT 0,
	citations JSONB NOT NULL DEFAULT '[]'::jsonb,
	keywords JSONB NOT NULL DEFAULT '[]'::jsonb,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	content TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_opinions_category ON opinions(category);
CREATE INDEX IF NOT EXISTS idx_opinions_court_id ON opinions(court_id);
CREATE INDEX IF NOT EXISTS idx_opinions_updated_at ON opinions(updated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *OpinionRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	citationsJSON, err := json.Marshal(doc.Citations())
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}
	keywordsJSON, err := json.Marshal(doc.Keywords())
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO opinions (
	id, case_number, document_type, category, court_id, court_name, judge, judge_source,
	citation_count, citations, keywords, metadata, quality_score, content, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
ON CONFLICT (id) DO UPDATE SET
	case_number = EXCLUDED.case_number,
	document_type = EXCLUDED.document_type,
	category = EXCLUDED.category,
	court_id = COALESCE(NULLIF(EXCLUDED.court_id, ''), opinions.court_id),
	court_name = COALESCE(NULLIF(EXCLUDED.court_name, ''), opinions.court_name),
	judge = COALESCE(NULLIF(EXCLUDED.judge, ''), opinions.judge),
	judge_source = COALESCE(NULLIF(EXCLUDED.judge_source, ''), opinions.judge_source),
	citation_count = GREATEST(EXCLUDED.citation_count, opinions.citation_count),
	citations = CASE WHEN EXCLUDED.citation_count > 0 THEN EXCLUDED.citations ELSE opinions.citations END,
	keywords = CASE WHEN EXCLUDED.keywords <> '[]'::jsonb THEN EXCLUDED.keywords ELSE opinions.keywords END,
	metadata = opinions.metadata || EXCLUDED.metadata,
	quality_score = EXCLUDED.quality_score,
	content = COALESCE(NULLIF(EXCLUDED.content, ''), opinions.content),
	updated_at = EXCLUDED.updated_at
`,
		doc.ID, doc.CaseNumber, doc.DocumentType, string(doc.Category),
		doc.CourtID(), doc.CourtName(), doc.Judge(), doc.JudgeSource(),
		len(doc.Citations()), citationsJSON, keywordsJSON, metadataJSON,
		doc.QualityScore, doc.Content, now,
	)
	if err != nil {
		return fmt.Errorf("upsert opinion: %w", err)
	}
	return nil
}

// GetByID reads one persisted opinion projection; used by operator tooling.
func (r *OpinionRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, case_number, document_type, category, metadata, quality_score, content
FROM opinions
WHERE id = $1
`, id)

	var doc domain.Document
	var category string
	var metadataRaw []byte

	err := row.Scan(&doc.ID, &doc.CaseNumber, &doc.DocumentType, &category, &metadataRaw, &doc.QualityScore, &doc.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get opinion", err)
		}
		return nil, fmt.Errorf("scan opinion: %w", err)
	}

	if err := json.Unmarshal(metadataRaw, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	doc.Category = domain.Category(category)
	return &doc, nil
}

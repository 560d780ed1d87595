package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "")
	t.Setenv("PIPELINE_BATCH_LIMIT", "")
	t.Setenv("PIPELINE_STRICT_VALIDATION", "")
	t.Setenv("PIPELINE_STAGE_TIMEOUT", "")
	t.Setenv("SOURCE_PAGE_SIZE", "")
	t.Setenv("SOURCE_RATE_LIMIT", "")

	cfg := Load()
	if cfg.Workers != 4 {
		t.Fatalf("expected default workers 4, got %d", cfg.Workers)
	}
	if cfg.BatchLimit != 100 {
		t.Fatalf("expected default batch limit 100, got %d", cfg.BatchLimit)
	}
	if cfg.StrictValidation {
		t.Fatal("strict validation must default to off")
	}
	if cfg.StageTimeout != 10*time.Second {
		t.Fatalf("expected default stage timeout 10s, got %v", cfg.StageTimeout)
	}
	if cfg.SourcePageSize != 50 {
		t.Fatalf("expected default page size 50, got %d", cfg.SourcePageSize)
	}
	if cfg.SourceRateLimit != 5 {
		t.Fatalf("expected default rate limit 5, got %v", cfg.SourceRateLimit)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "8")
	t.Setenv("PIPELINE_BATCH_LIMIT", "25")
	t.Setenv("PIPELINE_STRICT_VALIDATION", "true")
	t.Setenv("PIPELINE_STAGE_TIMEOUT", "30s")
	t.Setenv("NEO4J_URI", "bolt://localhost:7687")

	cfg := Load()
	if cfg.Workers != 8 {
		t.Fatalf("expected workers 8, got %d", cfg.Workers)
	}
	if cfg.BatchLimit != 25 {
		t.Fatalf("expected batch limit 25, got %d", cfg.BatchLimit)
	}
	if !cfg.StrictValidation {
		t.Fatal("expected strict validation on")
	}
	if cfg.StageTimeout != 30*time.Second {
		t.Fatalf("expected stage timeout 30s, got %v", cfg.StageTimeout)
	}
	if cfg.Neo4jURI != "bolt://localhost:7687" {
		t.Fatalf("expected neo4j uri override, got %q", cfg.Neo4jURI)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "many")
	t.Setenv("PIPELINE_STAGE_TIMEOUT", "soon")
	t.Setenv("PIPELINE_STRICT_VALIDATION", "yep")

	cfg := Load()
	if cfg.Workers != 4 {
		t.Fatalf("malformed int must fall back to default, got %d", cfg.Workers)
	}
	if cfg.StageTimeout != 10*time.Second {
		t.Fatalf("malformed duration must fall back to default, got %v", cfg.StageTimeout)
	}
	if cfg.StrictValidation {
		t.Fatal("malformed bool must fall back to default")
	}
}

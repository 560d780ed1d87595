// Package citegraph records the opinion citation network: one node per
// opinion, one per cited reference, CITES edges between them. Optional sink;
// graph failures are warnings, not run failures.
package citegraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/openjurist/enhancer/internal/core/domain"
)

type Graph struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Graph{driver: driver}, nil
}

const recordCitationsQuery = `
MERGE (o:Opinion {id: $id})
SET o.case_number = $case_number,
    o.court_id = $court_id,
    o.category = $category
WITH o
UNWIND $citations AS text
MERGE (c:Citation {text: text})
MERGE (o)-[:CITES]->(c)
`

func (g *Graph) RecordCitations(ctx context.Context, doc *domain.Document, citations []domain.Citation) error {
	texts := make([]string, 0, len(citations))
	for _, cit := range citations {
		texts = append(texts, cit.Text)
	}

	_, err := neo4j.ExecuteQuery(ctx, g.driver, recordCitationsQuery,
		map[string]any{
			"id":          doc.ID,
			"case_number": doc.CaseNumber,
			"court_id":    doc.CourtID(),
			"category":    string(doc.Category),
			"citations":   texts,
		},
		neo4j.EagerResultTransformer,
	)
	if err != nil {
		return fmt.Errorf("record citations: %w", err)
	}
	return nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

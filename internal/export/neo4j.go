package export

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// batchSize bounds the rows sent with one UNWIND statement.
const batchSize = 1000

// Neo4jExporter loads a graph into Neo4j using batched UNWIND merges.
type Neo4jExporter struct {
	driver neo4j.DriverWithContext
	log    *log.Logger
}

// NewNeo4jExporter connects to uri and verifies the connection.
func NewNeo4jExporter(ctx context.Context, uri, user, password string, logger *log.Logger) (*Neo4jExporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j %s: %w", uri, err)
	}
	return &Neo4jExporter{driver: driver, log: logger}, nil
}

func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

func (e *Neo4jExporter) run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, e.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// Export replaces any previously exported graph with g.
func (e *Neo4jExporter) Export(ctx context.Context, g *Graph) error {
	steps := []struct {
		name string
		fn   func(context.Context, *Graph) error
	}{
		{"clean", e.clean},
		{"indexes", e.indexes},
		{"classes", e.loadClasses},
		{"methods", e.loadMethods},
		{"calls", e.loadCalls},
	}
	for _, s := range steps {
		if err := s.fn(ctx, g); err != nil {
			return fmt.Errorf("neo4j %s: %w", s.name, err)
		}
	}
	return nil
}

func (e *Neo4jExporter) clean(ctx context.Context, _ *Graph) error {
	e.log.Info("cleaning existing dex graph")
	for _, q := range []string{
		"MATCH ()-[r:CALLS]->() DELETE r",
		"MATCH (n:DexMethod) DETACH DELETE n",
		"MATCH (n:DexClass) DETACH DELETE n",
	} {
		if err := e.run(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

func (e *Neo4jExporter) indexes(ctx context.Context, _ *Graph) error {
	for _, q := range []string{
		"CREATE INDEX dex_class_name IF NOT EXISTS FOR (n:DexClass) ON (n.name)",
		"CREATE INDEX dex_method_key IF NOT EXISTS FOR (n:DexMethod) ON (n.key)",
	} {
		if err := e.run(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

func (e *Neo4jExporter) loadClasses(ctx context.Context, g *Graph) error {
	e.log.Info("loading classes", "count", len(g.Classes))
	return e.batched(ctx, classParams(g),
		`UNWIND $batch AS row
		 MERGE (n:DexClass {name: row.name})
		 SET n.flags = row.flags, n.framework = row.framework
		 WITH n, row
		 FOREACH (b IN CASE WHEN row.base = '' THEN [] ELSE [row.base] END |
		   MERGE (p:DexClass {name: b})
		   MERGE (n)-[:EXTENDS]->(p))
		 FOREACH (i IN row.interfaces |
		   MERGE (p:DexClass {name: i})
		   MERGE (n)-[:IMPLEMENTS]->(p))`)
}

func (e *Neo4jExporter) loadMethods(ctx context.Context, g *Graph) error {
	e.log.Info("loading methods", "count", len(g.Methods))
	return e.batched(ctx, methodParams(g),
		`UNWIND $batch AS row
		 MERGE (m:DexMethod {key: row.key})
		 SET m.name = row.name, m.signature = row.signature, m.return = row.return,
		     m.flags = row.flags, m.instructions = row.instructions
		 WITH m, row
		 MATCH (c:DexClass {name: row.class})
		 MERGE (c)-[:DECLARES]->(m)`)
}

func (e *Neo4jExporter) loadCalls(ctx context.Context, g *Graph) error {
	e.log.Info("loading call edges", "count", len(g.Calls))
	return e.batched(ctx, callParams(g),
		`UNWIND $batch AS row
		 MERGE (caller:DexMethod {key: row.caller})
		 MERGE (callee:DexMethod {key: row.callee})
		 MERGE (caller)-[r:CALLS {index: row.index}]->(callee)
		 SET r.kind = row.kind, r.resolved = row.resolved`)
}

func (e *Neo4jExporter) batched(ctx context.Context, rows []map[string]any, cypher string) error {
	for _, b := range batches(rows, batchSize) {
		if err := e.run(ctx, cypher, map[string]any{"batch": b}); err != nil {
			return err
		}
	}
	return nil
}

func batches(rows []map[string]any, n int) [][]map[string]any {
	var out [][]map[string]any
	for len(rows) > n {
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

func classParams(g *Graph) []map[string]any {
	rows := make([]map[string]any, 0, len(g.Classes))
	for _, c := range g.Classes {
		intfs := c.Interfaces
		if intfs == nil {
			intfs = []string{}
		}
		rows = append(rows, map[string]any{
			"name": c.Name, "base": c.Base, "interfaces": intfs,
			"flags": int64(c.Flags), "framework": c.Framework,
		})
	}
	return rows
}

func methodParams(g *Graph) []map[string]any {
	rows := make([]map[string]any, 0, len(g.Methods))
	for _, m := range g.Methods {
		rows = append(rows, map[string]any{
			"key": m.Key, "class": m.Class, "name": m.Name, "signature": m.Signature,
			"return": m.Return, "flags": int64(m.Flags), "instructions": int64(m.Instructions),
		})
	}
	return rows
}

func callParams(g *Graph) []map[string]any {
	rows := make([]map[string]any, 0, len(g.Calls))
	for _, c := range g.Calls {
		rows = append(rows, map[string]any{
			"caller": c.Caller, "callee": c.Callee, "kind": c.Kind,
			"index": int64(c.Index), "resolved": c.Resolved,
		})
	}
	return rows
}

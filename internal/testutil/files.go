package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates files under dir. Keys are slash-separated relative
// paths; parent directories are created as needed.
func WriteTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

// LegacyShop is a small postgres source tree: two tables, a view over both
// and a stored query over the view.
var LegacyShop = map[string]string{
	"tables.sql": `CREATE TABLE customers (
  id SERIAL PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE orders (
  id SERIAL PRIMARY KEY,
  customer_id INT NOT NULL REFERENCES customers (id),
  total NUMERIC(10, 2)
);
`,
	"views.sql": `CREATE VIEW customer_totals AS
SELECT c.name, SUM(o.total) AS total
FROM customers c
JOIN orders o ON o.customer_id = c.id
GROUP BY c.name;
`,
	"queries/top_customers.sql": `SELECT name, total
FROM customer_totals
WHERE total > 100
ORDER BY total DESC;
`,
}

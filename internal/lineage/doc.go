// Package lineage builds the dependency graph over parsed legacy assets.
//
// Table lineage comes from the tables and views each statement reads (CTE
// names excluded) and from the targets of foreign keys. Column lineage maps
// each output column of a view or query to the source table columns it is
// computed from, when that can be resolved.
//
// # Basic Usage
//
//	result := lineage.Build(parsed)
//	for _, id := range result.DDLOrder {
//	    fmt.Println(result.Assets[id].Name)
//	}
//
// Build never fails: parse errors and cycles are recorded as data on the
// result and scoped to the assets they concern.
package lineage

package arcgis

import (
	"fmt"
	"strings"
)

// CombineWhere joins two where clauses with AND, treating "" and "1=1" as
// no-ops.
func CombineWhere(base, clause string) string {
	base = strings.TrimSpace(base)
	if clause == "" || clause == "1=1" {
		if base != "" {
			return base
		}
		if clause != "" {
			return clause
		}
		return "1=1"
	}
	if base == "" || base == "1=1" {
		return clause
	}
	return fmt.Sprintf("(%s) AND (%s)", base, clause)
}

// EscapeSQLLiteral doubles single quotes for safe embedding in a where
// clause literal.
func EscapeSQLLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// BuildInClause renders a "field IN ('a', 'b')" clause. Empty value lists
// yield the always-false clause so callers can combine blindly.
func BuildInClause(field string, values []string) string {
	safe := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		safe = append(safe, "'"+EscapeSQLLiteral(value)+"'")
	}
	if len(safe) == 0 {
		return "1=0"
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(safe, ", "))
}

// Chunk splits values into batches of at most size, for IN clauses that
// would otherwise exceed server query-length limits.
func Chunk(values []string, size int) [][]string {
	if size <= 0 || len(values) == 0 {
		return nil
	}
	var batches [][]string
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		batches = append(batches, values[start:end])
	}
	return batches
}

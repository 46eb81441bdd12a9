// Package postgres holds the pgx-backed repositories. Every operation is
// wrapped in ObserveDB so DB latency and error classes show up in metrics.
package postgres

import "strings"

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")

	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}

	return strings.Join(parts, ", ")
}

package query

import "strings"

// LikeEscape is appended after a LIKE placeholder so the backslash escapes
// built by ContainsPattern hold on both Postgres and SQLite
const LikeEscape = ` ESCAPE '\'`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern lowercases term and wraps it for a case-insensitive
// substring LIKE match, escaping the LIKE wildcards it contains
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(term)) + "%"
}

// Package gate validates and executes analytic SQL against a staged
// compartment: only read-only statement forms are allowed through, and any
// chunk-reference token found in a result cell is transparently resolved
// back to its original content before the row reaches the caller.
package gate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/biostage/biostage/pkg/types"
)

// allowedLeadingWords are the statement-opening keywords the gate admits.
// Everything else is rejected outright, before the blocked-pattern pass
// even runs.
var allowedLeadingWords = map[string]bool{
	"select":  true,
	"with":    true,
	"pragma":  true,
	"explain": true,
}

// blockedPatterns catches the mutating forms that could otherwise slip
// through as an allowed leading word (e.g. a CTE wrapping a DELETE, or a
// CREATE TABLE that isn't temporary).
//
// Go's regexp engine (RE2) has no lookaround, so the temp-table exclusion
// on drop/create can't be written as a negative lookahead. It doesn't need
// one: "temp"/"temporary" sits between the keyword and "table" in the
// allowed forms ("drop temp table", "create temporary table"), so a plain
// "drop\s+table"/"create\s+table" pattern already fails to match them,
// while still matching (and correctly blocking) a non-temp table whose
// name merely contains "temp", e.g. "drop table temp_cache".
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\bdrop\s+table\b`),
	regexp.MustCompile(`(?is)\bdelete\s+from\b`),
	regexp.MustCompile(`(?is)\bupdate\b.*\bset\b`),
	regexp.MustCompile(`(?is)\binsert\s+into\b`),
	regexp.MustCompile(`(?is)\balter\s+table\b`),
	regexp.MustCompile(`(?is)\bcreate\s+(?:or\s+replace\s+)?table\b`),
	regexp.MustCompile(`(?is)\battach\s+database\b`),
	regexp.MustCompile(`(?is)\bdetach\s+database\b`),
}

// createTempPattern recognises the temp-table/temp-view forms the gate
// allows a caller to scratch-build against, for the purpose of labelling
// the query type.
var createTempPattern = regexp.MustCompile(`(?is)^\s*create\s+(?:or\s+replace\s+)?temp(?:orary)?\s+(?:table|view)\b`)

// dropTempPattern mirrors createTempPattern for the matching drop form.
var dropTempPattern = regexp.MustCompile(`(?is)^\s*drop\s+temp(?:orary)?\s+(?:table|view)\b`)

// leadingWord returns the first whitespace-delimited token of sql, lower
// cased, skipping a leading run of SQL line/block comments.
func leadingWord(sql string) string {
	s := strings.TrimSpace(sql)
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = strings.TrimSpace(s[i+1:])
				continue
			}
			return ""
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = strings.TrimSpace(s[i+2:])
				continue
			}
			return ""
		}
		break
	}
	end := 0
	for end < len(s) && !isWordBreak(s[end]) {
		end++
	}
	return strings.ToLower(s[:end])
}

func isWordBreak(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '(' || b == ';'
}

// Validate checks sql against the allow-list and blocked-pattern rules and
// returns a query-type label for the statement. An empty or whitespace-only
// statement, an unrecognised leading keyword, or a match against any
// blocked pattern all return types.ErrOperationNotAllowed.
func Validate(sql string) (queryType string, err error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty statement", types.ErrOperationNotAllowed)
	}

	word := leadingWord(trimmed)
	if !allowedLeadingWords[word] && !createTempPattern.MatchString(trimmed) && !dropTempPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: statement must begin with one of select/with/pragma/explain/create temp/drop temp, got %q", types.ErrOperationNotAllowed, word)
	}

	for _, pattern := range blockedPatterns {
		if pattern.MatchString(trimmed) {
			return "", fmt.Errorf("%w: statement matches a blocked mutating pattern", types.ErrOperationNotAllowed)
		}
	}

	return classify(trimmed, word), nil
}

// classify assigns the query-type label attached to a QueryResult.
func classify(trimmed, word string) string {
	switch {
	case createTempPattern.MatchString(trimmed) || dropTempPattern.MatchString(trimmed):
		return "create_temp"
	case word == "with":
		return "cte"
	case word == "pragma":
		return "pragma"
	case word == "explain":
		return "explain"
	default:
		return "select"
	}
}

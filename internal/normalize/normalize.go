// Package normalize maps arbitrary strings to safe SQL identifiers. Both
// Table and Column are total (they never fail) and idempotent on
// already-normalised input.
package normalize

import (
	"strings"
	"unicode"
)

// reservedWords is the fixed list of SQL words that cannot stand alone
// as a table or column name. Read-only after init.
var reservedWords = map[string]bool{
	"table": true, "index": true, "view": true, "column": true,
	"primary": true, "key": true, "foreign": true, "constraint": true,
	"order": true, "group": true, "select": true, "from": true,
	"where": true, "insert": true, "update": true, "delete": true,
	"create": true, "drop": true, "alter": true, "join": true,
	"inner": true, "outer": true, "left": true, "right": true,
	"union": true, "all": true, "distinct": true, "having": true,
	"limit": true, "offset": true, "as": true, "on": true,
}

// synonyms collapses a handful of domain-specific identifier spellings to
// their canonical snake_case form before reserved-word checking. Read-only
// after init.
var synonyms = map[string]string{
	"compoundid":   "compound_id",
	"compound_id_": "compound_id",
	"drugid":       "drug_id",
	"geneid":       "gene_id",
	"diseaseid":    "disease_id",
}

// Table normalises a candidate table name.
func Table(name string) string {
	return finish(sanitize(name), "table")
}

// Column normalises a candidate column name, first converting camelCase to
// snake_case.
func Column(name string) string {
	return finish(sanitize(camelToSnake(name)), "col")
}

// sanitize lowercases, replaces disallowed characters, collapses and trims
// underscore runs, and applies the synonym table. It does not yet handle
// the digit-leading or reserved-word cases; finish does that.
func sanitize(name string) string {
	lower := strings.ToLower(name)
	if syn, ok := synonyms[lower]; ok {
		lower = syn
	}

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	collapsed := collapseUnderscores(b.String())
	return strings.Trim(collapsed, "_")
}

// collapseUnderscores reduces any run of "_" to a single "_".
func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// camelToSnake converts camelCase / PascalCase boundaries to underscores.
// Existing underscores and non-letters are left untouched; sanitize handles
// the rest.
func camelToSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// finish applies the digit/empty-leading prefix and reserved-word suffix
// rules common to both Table and Column.
func finish(s, emptyPrefix string) string {
	if s == "" {
		return emptyPrefix + "_unnamed"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = emptyPrefix + "_" + s
	}
	if reservedWords[s] {
		s = s + "_" + emptyPrefix
	}
	return s
}

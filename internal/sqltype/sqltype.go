// Package sqltype infers and widens SQLite storage classes from observed
// JSON values, and maps declared type names from a schema descriptor onto
// the same storage-class vocabulary.
package sqltype

import (
	"strings"

	"github.com/biostage/biostage/pkg/types"
)

// Set accumulates the distinct storage classes observed for one column.
type Set map[types.StorageClass]bool

// NewSet returns an empty observation set.
func NewSet() Set {
	return make(Set)
}

// Observe classifies v and records its storage class in the set:
// null/undefined and string -> TEXT, bool -> INTEGER, integral number ->
// INTEGER, non-integral number -> REAL, anything else -> TEXT.
func (s Set) Observe(v types.JSON) {
	s[ClassOf(v)] = true
}

// ClassOf classifies a single decoded JSON value.
func ClassOf(v types.JSON) types.StorageClass {
	switch val := v.(type) {
	case nil:
		return types.Text
	case bool:
		return types.Integer
	case float64:
		if val == float64(int64(val)) {
			return types.Integer
		}
		return types.Real
	case int, int64:
		return types.Integer
	case string:
		return types.Text
	default:
		return types.Text
	}
}

// Resolve widens a set of observations to a single storage class, following
// the order TEXT > REAL > INTEGER: if TEXT was ever observed, TEXT wins;
// else REAL beats INTEGER; an empty set resolves to TEXT (nullable by
// default).
func Resolve(s Set) types.StorageClass {
	if len(s) == 0 || s[types.Text] {
		return types.Text
	}
	if s[types.Real] {
		return types.Real
	}
	return types.Integer
}

// declaredAliases maps a schema descriptor's declared type spelling onto a
// storage class. Unrecognised spellings default to TEXT, reported by
// FromDeclared through ok == false; nothing logs them.
var declaredAliases = map[string]types.StorageClass{
	"text": types.Text, "string": types.Text, "varchar": types.Text,
	"char": types.Text, "id": types.Text, "uuid": types.Text,
	"date": types.Text, "datetime": types.Text, "timestamp": types.Text,
	"int": types.Integer, "integer": types.Integer, "bigint": types.Integer,
	"smallint": types.Integer, "boolean": types.Integer, "bool": types.Integer,
	"float": types.Real, "double": types.Real, "real": types.Real,
	"decimal": types.Numeric, "numeric": types.Numeric,
	"blob": types.Blob, "bytes": types.Blob,
}

// FromDeclared resolves a pre-stated type name to a storage class. ok is
// false when the name was not recognised, in which case the returned class
// is still a usable TEXT default.
func FromDeclared(name string) (class types.StorageClass, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	class, ok = declaredAliases[key]
	if !ok {
		return types.Text, false
	}
	return class, true
}

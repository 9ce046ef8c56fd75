package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalised", "target", "target"},
		{"mixed case and spaces", "My Target Table", "my_target_table"},
		{"leading digit", "123abc", "table_123abc"},
		{"reserved word", "select", "select_table"},
		{"empty", "", "table_unnamed"},
		{"punctuation", "disease-target!!", "disease_target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Table(tt.in))
		})
	}
}

func TestColumn(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"camelCase", "approvedSymbol", "approved_symbol"},
		{"already snake", "approved_symbol", "approved_symbol"},
		{"reserved word", "order", "order_col"},
		{"leading digit", "2fa", "col_2fa"},
		{"acronym boundary", "geneID", "gene_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Column(tt.in))
		})
	}
}

func TestIdempotent(t *testing.T) {
	for _, in := range []string{"target", "approved_symbol", "disease_target", "col_2fa"} {
		assert.Equal(t, Table(in), Table(Table(in)))
		assert.Equal(t, Column(in), Column(Column(in)))
	}
}

func TestNeverFails(t *testing.T) {
	for _, in := range []string{"", "   ", "!!!", "____", "123", "a-b-c-d"} {
		assert.NotPanics(t, func() {
			Table(in)
			Column(in)
		})
	}
}

package sqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biostage/biostage/pkg/types"
)

func TestClassOf(t *testing.T) {
	assert.Equal(t, types.Text, ClassOf(nil))
	assert.Equal(t, types.Integer, ClassOf(true))
	assert.Equal(t, types.Integer, ClassOf(float64(1)))
	assert.Equal(t, types.Real, ClassOf(float64(1.5)))
	assert.Equal(t, types.Text, ClassOf("hello"))
	assert.Equal(t, types.Text, ClassOf(map[string]any{"a": 1}))
}

func TestResolveWidening(t *testing.T) {
	tests := []struct {
		name string
		obs  []types.JSON
		want types.StorageClass
	}{
		{"all integer", []types.JSON{float64(1), float64(2)}, types.Integer},
		{"integer then real widens", []types.JSON{float64(1), float64(1.5)}, types.Real},
		{"any text wins", []types.JSON{float64(1), float64(1.5), "a"}, types.Text},
		{"empty defaults text", nil, types.Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet()
			for _, v := range tt.obs {
				s.Observe(v)
			}
			assert.Equal(t, tt.want, Resolve(s))
		})
	}
}

func TestFromDeclared(t *testing.T) {
	tests := []struct {
		decl    string
		want    types.StorageClass
		wantOK  bool
	}{
		{"VARCHAR", types.Text, true},
		{"BIGINT", types.Integer, true},
		{"BOOLEAN", types.Integer, true},
		{"FLOAT", types.Real, true},
		{"DOUBLE", types.Real, true},
		{"DECIMAL", types.Numeric, true},
		{"TIMESTAMP", types.Text, true},
		{"FROBNICATE", types.Text, false},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			class, ok := FromDeclared(tt.decl)
			assert.Equal(t, tt.want, class)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

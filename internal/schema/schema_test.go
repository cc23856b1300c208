// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnsN(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("col_%02d", i+1)
	}
	return cols
}

func definitionYAML(count int, cols []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "version: test\ncount: %d\ncolumns:\n", count)
	for _, c := range cols {
		fmt.Fprintf(&b, "  - %q\n", c)
	}
	return b.String()
}

func TestDefaultSchemaLoads(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 32, r.Len())
	assert.Equal(t, "person_id", r.Columns()[0])
	assert.NoError(t, r.Validate(r.Columns()))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissing))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"empty document", "   \n", ErrMissing},
		{"count not declared", "columns: [a, b]\n", ErrMissing},
		{"no columns", "count: 0\ncolumns: []\n", ErrMissing},
		{"82 declared 81 present", definitionYAML(82, columnsN(81)), ErrCountMismatch},
		{"fewer declared than present", definitionYAML(2, columnsN(3)), ErrCountMismatch},
		{"blank column", definitionYAML(3, []string{"a", "  ", "c"}), ErrEmptyName},
		{"duplicate column", definitionYAML(3, []string{"a", "b", "a"}), ErrDuplicateColumn},
		{"duplicate differs by case", definitionYAML(2, []string{"Name", "name"}), ErrDuplicateColumn},
		{
			"alias for unknown column",
			"count: 1\ncolumns: [a]\naliases:\n  b: [x]\n",
			ErrUnknownColumn,
		},
		{
			"alias shadows another column",
			"count: 2\ncolumns: [a, b]\naliases:\n  a: [b]\n",
			ErrAliasConflict,
		},
		{
			"alias claimed twice",
			"count: 2\ncolumns: [a, b]\naliases:\n  a: [x]\n  b: [X]\n",
			ErrAliasConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, tt.want), "got %v, want kind %v", err, tt.want)
		})
	}
}

func TestCountMismatchNeverTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(definitionYAML(82, columnsN(81))), 0o644))

	_, err := Load(path)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindCountMismatch, se.Kind)
	assert.Contains(t, se.Error(), "declared 82 columns, found 81")
}

func TestValidateIsExact(t *testing.T) {
	r, err := Parse([]byte(definitionYAML(3, []string{"a", "b", "c"})))
	require.NoError(t, err)

	tests := []struct {
		name string
		cols []string
		ok   bool
	}{
		{"identical", []string{"a", "b", "c"}, true},
		{"reordered", []string{"a", "c", "b"}, false},
		{"missing column", []string{"a", "b"}, false},
		{"extra column", []string{"a", "b", "c", "d"}, false},
		{"case differs", []string{"a", "B", "c"}, false},
		{"trailing space", []string{"a", "b ", "c"}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(r, tt.cols)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrColumnMismatch), "got %v", err)
		})
	}
}

func TestValidateNilRegistry(t *testing.T) {
	assert.True(t, errors.Is(Validate(nil, []string{"a"}), ErrMissing))
}

func TestColumnsReturnsCopy(t *testing.T) {
	r, err := Parse([]byte(definitionYAML(2, []string{"a", "b"})))
	require.NoError(t, err)
	cols := r.Columns()
	cols[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, r.Columns())
}

func TestCanonicalize(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	got, err := r.Canonicalize([]string{"Person_ID", " display_name ", "github_login", "Topics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"person_id", "full_name", "code_host_handle", "raw_signal_tags"}, got)

	_, err = r.Canonicalize([]string{"person_id", "fullname"})
	assert.True(t, errors.Is(err, ErrUnknownColumn), "fuzzy near-miss must not match: %v", err)

	_, err = r.Canonicalize([]string{"name", "full_name"})
	assert.True(t, errors.Is(err, ErrDuplicateColumn))
}

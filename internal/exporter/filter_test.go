package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "qxcli/internal/errors"
)

func TestParseTable(t *testing.T) {
	raw := []byte("Q1,Q2\n\"a,comma\",b\nc,d\n")

	rows, err := ParseTable(raw)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Q1", "Q2"}, rows[0])
	assert.Equal(t, []string{"a,comma", "b"}, rows[1])
}

func TestParseTable_RaggedRows(t *testing.T) {
	raw := []byte("Q1,Q2,Q3\na,b\nonly-one\n")

	rows, err := ParseTable(raw)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[1], 2)
	assert.Len(t, rows[2], 1)
}

func TestParseTable_UnbalancedQuoting(t *testing.T) {
	raw := []byte("Q1,Q2\n\"broken,b\nc,d\n")

	_, err := ParseTable(raw)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestDropMetadataRows(t *testing.T) {
	tests := []struct {
		name     string
		input    [][]string
		expected [][]string
	}{
		{
			name: "header plus four data rows keeps N-2",
			input: [][]string{
				{"Q1", "Q2"},
				{"How satisfied?", "How likely?"},
				{`{"ImportId":"QID1"}`, `{"ImportId":"QID2"}`},
				{"5", "9"},
				{"3", "7"},
			},
			expected: [][]string{
				{"Q1", "Q2"},
				{"5", "9"},
				{"3", "7"},
			},
		},
		{
			name:     "header only passes through",
			input:    [][]string{{"Q1", "Q2"}},
			expected: [][]string{{"Q1", "Q2"}},
		},
		{
			name: "header plus one metadata row drops what exists",
			input: [][]string{
				{"Q1", "Q2"},
				{"How satisfied?", "How likely?"},
			},
			expected: [][]string{{"Q1", "Q2"}},
		},
		{
			name: "blank rows before the header are preserved",
			input: [][]string{
				{"", ""},
				{"Q1", "Q2"},
				{"label one", "label two"},
				{"import ids", "import ids"},
				{"1", "2"},
			},
			expected: [][]string{
				{"", ""},
				{"Q1", "Q2"},
				{"1", "2"},
			},
		},
		{
			name: "import footer rows are dropped",
			input: [][]string{
				{"Q1"},
				{"label"},
				{"import id"},
				{"42"},
				{`{"ImportId":"finished"}`},
			},
			expected: [][]string{
				{"Q1"},
				{"42"},
			},
		},
		{
			name:     "empty table",
			input:    [][]string{},
			expected: [][]string{},
		},
		{
			name:     "all blank rows pass through",
			input:    [][]string{{"", ""}, {" "}},
			expected: [][]string{{"", ""}, {" "}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DropMetadataRows(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDropMetadataRows_RowCountInvariant(t *testing.T) {
	// For N >= 3 rows with no footer, output is exactly N-2 rows
	// and row 0 of the output equals row 0 of the input.
	input := [][]string{
		{"Q1", "Q2", "Q3"},
		{"meta", "meta", "meta"},
		{"meta", "meta", "meta"},
		{"r1", "r1", "r1"},
		{"r2", "r2", "r2"},
		{"r3", "r3", "r3"},
	}

	got := DropMetadataRows(input)
	assert.Len(t, got, len(input)-2)
	assert.Equal(t, input[0], got[0])
	assert.Equal(t, input[3:], got[1:])
}

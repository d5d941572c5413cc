package dataprocessing

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		headerRow   int
		wantColumns []string
		wantRows    int
		wantErr     error
	}{
		{
			name:        "header on first row",
			input:       "a,b\n1,x\n2,y\n",
			wantColumns: []string{"a", "b"},
			wantRows:    2,
		},
		{
			name:        "header further down discards lines above",
			input:       "report generated today\n\na,b\n1,2\n",
			headerRow:   1,
			wantColumns: []string{"a", "b"},
			wantRows:    1,
		},
		{
			name:        "utf8 bom stripped",
			input:       "\ufeffname,value\nx,1\n",
			wantColumns: []string{"name", "value"},
			wantRows:    1,
		},
		{
			name:        "header only",
			input:       "a,b,c\n",
			wantColumns: []string{"a", "b", "c"},
			wantRows:    0,
		},
		{
			name:        "duplicate and empty headers",
			input:       "a,a,,a\n1,2,3,4\n",
			wantColumns: []string{"a", "a.1", "Unnamed: 2", "a.2"},
			wantRows:    1,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrEmptyFile,
		},
		{
			name:    "whitespace only",
			input:   "  \n\n",
			wantErr: ErrEmptyFile,
		},
		{
			name:      "header row past end",
			input:     "a,b\n1,2\n",
			headerRow: 2,
			wantErr:   ErrHeaderRowOutOfRange,
		},
		{
			name:      "negative header row",
			input:     "a,b\n1,2\n",
			headerRow: -1,
			wantErr:   ErrHeaderRowOutOfRange,
		},
		{
			name:    "row longer than header",
			input:   "a,b\n1,2,3\n",
			wantErr: ErrRaggedRow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := LoadCSV(strings.NewReader(tt.input), LoadOptions{HeaderRow: tt.headerRow})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantColumns, table.Columns())
			rows, cols := table.Shape()
			assert.Equal(t, tt.wantRows, rows)
			assert.Equal(t, len(tt.wantColumns), cols)
		})
	}
}

func TestLoadCSV_ShortRowsPadded(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("a,b,c\n1\n4,5,6\n"), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"1", "", ""}, {"4", "5", "6"}}, table.Records())
}

func TestTable_KindsAndMissing(t *testing.T) {
	input := "num,cat,mixed,empty\n1,x,1,\nNA,y,two,NaN\n3.5,,3,null\n"
	table, err := LoadCSV(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, map[string]ColumnKind{
		"num":   KindNumeric,
		"cat":   KindCategorical,
		"mixed": KindCategorical,
		"empty": KindNumeric,
	}, table.Kinds())

	values, err := table.Numeric("num")
	require.NoError(t, err)
	assert.Equal(t, 1.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.Equal(t, 3.5, values[2])

	_, err = table.Numeric("cat")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = table.Column("nope")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestIsMissing(t *testing.T) {
	for _, cell := range []string{"", " ", "NA", "N/A", "NaN", "nan", "null", "NULL", "None"} {
		assert.True(t, IsMissing(cell), "cell %q", cell)
	}
	for _, cell := range []string{"0", "none", "n", "-"} {
		assert.False(t, IsMissing(cell), "cell %q", cell)
	}
}

func TestTable_HeadAndDrop(t *testing.T) {
	table, err := NewTable([]string{"id", "a", "b"}, [][]string{
		{"1", "x", "10"},
		{"2", "y", "20"},
		{"3", "z", "30"},
	})
	require.NoError(t, err)

	head := table.Head(2)
	assert.Len(t, head, 2)
	head[0][0] = "changed"
	assert.Equal(t, "1", table.Records()[0][0], "Head must return a copy")

	assert.Len(t, table.Head(100), 3)
	assert.Empty(t, table.Head(-1))
}

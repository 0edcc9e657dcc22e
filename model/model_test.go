package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRecord_Dimensions(t *testing.T) {
	table := TableRecord{Rows: [][]string{{"a", "b"}, {"c", "d"}}}

	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, 2, table.ColCount())
	assert.True(t, table.IsRectangular())
	assert.False(t, table.IsEmpty())
}

func TestTableRecord_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		table TableRecord
		want  bool
	}{
		{"no rows", TableRecord{}, true},
		{"empty header", TableRecord{Rows: [][]string{{}, {"x"}}}, true},
		{"single cell", TableRecord{Rows: [][]string{{"x"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.table.IsEmpty())
		})
	}
}

func TestTableRecord_Normalize(t *testing.T) {
	tests := []struct {
		name         string
		rows         [][]string
		want         [][]string
		wantAdjusted int
	}{
		{
			name:         "already rectangular",
			rows:         [][]string{{"a", "b"}, {"c", "d"}},
			want:         [][]string{{"a", "b"}, {"c", "d"}},
			wantAdjusted: 0,
		},
		{
			name:         "short row padded",
			rows:         [][]string{{"a", "b", "c"}, {"d"}},
			want:         [][]string{{"a", "b", "c"}, {"d", "", ""}},
			wantAdjusted: 1,
		},
		{
			name:         "long row truncated",
			rows:         [][]string{{"a", "b"}, {"c", "d", "e"}, {"f", "g"}},
			want:         [][]string{{"a", "b"}, {"c", "d"}, {"f", "g"}},
			wantAdjusted: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := TableRecord{Rows: tt.rows}
			got, adjusted := table.Normalize()

			assert.Equal(t, tt.want, got.Rows)
			assert.Equal(t, tt.wantAdjusted, adjusted)
			assert.True(t, got.IsRectangular())
		})
	}
}

func TestTableRecord_Compact(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want [][]string
	}{
		{
			name: "gap row and column",
			rows: [][]string{{"a", "", "b"}, {"", "", ""}, {"c", "", "d"}},
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "whitespace counts as blank",
			rows: [][]string{{" ", "x"}, {"\t", "y"}},
			want: [][]string{{"x"}, {"y"}},
		},
		{
			name: "partly filled column kept",
			rows: [][]string{{"a", ""}, {"b", "c"}},
			want: [][]string{{"a", ""}, {"b", "c"}},
		},
		{
			name: "ragged rows keep their shape",
			rows: [][]string{{"h1", "h2"}, {"only"}, {"", ""}},
			want: [][]string{{"h1", "h2"}, {"only"}},
		},
		{
			name: "all blank",
			rows: [][]string{{"", ""}, {""}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TableRecord{Rows: tt.rows}.Compact()
			assert.Equal(t, tt.want, got.Rows)
		})
	}
}

func TestStats_String(t *testing.T) {
	s := Stats{Pages: 2, Images: 1, Tables: 3, TextBlocks: 2, ImagesSkipped: 1, RowsAdjusted: 4}
	assert.Equal(t, "pages=2 images=1 tables=3 text_blocks=2 images_skipped=1 rows_adjusted=4", s.String())
}

func TestTableRecord_NormalizeDoesNotAlias(t *testing.T) {
	table := TableRecord{Rows: [][]string{{"a", "b"}}}
	got, _ := table.Normalize()
	got.Rows[0][0] = "changed"

	assert.Equal(t, "a", table.Rows[0][0])
}

func TestPageRecord_HasText(t *testing.T) {
	assert.False(t, (&PageRecord{Text: " \n\t "}).HasText())
	assert.True(t, (&PageRecord{Text: " x "}).HasText())
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in      string
		want    Quality
		wantErr bool
	}{
		{"", QualityBalanced, false},
		{"Balanced", QualityBalanced, false},
		{"fast", QualityFast, false},
		{"FAST", QualityFast, false},
		{"High Quality", QualityHigh, false},
		{"high-quality", QualityHigh, false},
		{"high_quality", QualityHigh, false},
		{"high", QualityHigh, false},
		{"ultra", QualityBalanced, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuality(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuality_TextRoundTrip(t *testing.T) {
	for _, q := range Qualities() {
		text, err := q.MarshalText()
		require.NoError(t, err)

		var back Quality
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, q, back)
	}
}

func TestQuality_String(t *testing.T) {
	assert.Equal(t, "Fast", QualityFast.String())
	assert.Equal(t, "Balanced", QualityBalanced.String())
	assert.Equal(t, "High Quality", QualityHigh.String())
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.IncludeImages)
	assert.True(t, opts.IncludeTables)
	assert.Equal(t, QualityBalanced, opts.Quality)
	assert.Equal(t, Want{Tables: true, Images: true}, opts.Want())
}

func TestErrEncryptedWrapsUnreadable(t *testing.T) {
	assert.True(t, errors.Is(ErrEncrypted, ErrSourceUnreadable))
	assert.False(t, errors.Is(ErrSourceUnreadable, ErrEncrypted))
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "trending", want: CategoryGeneral},
		{in: "General", want: CategoryGeneral},
		{in: " news ", want: CategoryNews},
		{in: "sports", want: CategorySports},
		{in: "ENTERTAINMENT", want: CategoryEntertainment},
		{in: "weather", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCategoriesDropsDuplicates(t *testing.T) {
	got, err := ParseCategories([]string{"sports", "general", "trending", "sports"})
	require.NoError(t, err)
	assert.Equal(t, []Category{CategorySports, CategoryGeneral}, got)
}

func TestNewTrendRecordRankOnlyForGeneral(t *testing.T) {
	assert.Equal(t, NA, NewTrendRecord(CategoryGeneral).Rank)
	assert.Empty(t, NewTrendRecord(CategoryNews).Rank)
	assert.Equal(t, "Unknown", NewTrendRecord(CategoryNews).Location)
}

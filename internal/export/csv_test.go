package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xscrape/internal/types"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTweets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", TweetsFile)
	records := []types.TweetRecord{
		{
			DisplayName: "Alice", Username: "@alice", Text: "hello, \"world\"\nsecond line",
			Replies: "1", Retweets: "2", Likes: "3.4K", Views: "10K",
			MediaURLs: []string{"https://a/1.jpg", "https://a/2.jpg"},
			PostedAt:  time.Date(2024, 4, 30, 23, 15, 0, 0, time.FixedZone("CEST", 2*3600)),
			FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		types.NewTweetRecord(),
	}

	require.NoError(t, WriteTweets(path, records))

	rows := readCSV(t, path)
	require.Len(t, rows, len(records)+1)
	assert.Equal(t, TweetHeader, rows[0])
	assert.Equal(t, []string{
		"Alice", "@alice", "hello, \"world\"\nsecond line",
		"1", "2", "3.4K", "10K",
		"https://a/1.jpg https://a/2.jpg",
		"21:15:00 30-04-2024 +0000",
		"12:00:00 01-05-2024 +0000",
	}, rows[1])
	assert.Equal(t, []string{"NA", "NA", "NA", "NA", "NA", "NA", "NA", "", "NA", "NA"}, rows[2])
}

func TestWriteTweetsOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), TweetsFile)
	require.NoError(t, WriteTweets(path, []types.TweetRecord{types.NewTweetRecord(), types.NewTweetRecord()}))
	require.NoError(t, WriteTweets(path, nil))

	rows := readCSV(t, path)
	assert.Equal(t, [][]string{TweetHeader}, rows)
}

func TestWriteTrends(t *testing.T) {
	dir := t.TempDir()
	fetched := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		c      types.Category
		record types.TrendRecord
		want   []string
	}{
		{
			c: types.CategoryGeneral,
			record: types.TrendRecord{
				Category: types.CategoryGeneral, Rank: "1", Location: "Trending in US",
				TagOrText: "#go", PostVolume: "12K", FetchedAt: fetched,
			},
			want: []string{"1", "Trending in US", "#go", "12K", "12:00:00 01-05-2024 +0000"},
		},
		{
			c: types.CategoryNews,
			record: types.TrendRecord{
				Category: types.CategoryNews, Location: "Politics", TagOrText: "Election",
				PostVolume: types.NA, FetchedAt: fetched,
			},
			want: []string{"Politics", "Election", "NA", "12:00:00 01-05-2024 +0000"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			path, err := WriteTrends(dir, tt.c, []types.TrendRecord{tt.record, tt.record, tt.record})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, string(tt.c)+".csv"), path)

			rows := readCSV(t, path)
			require.Len(t, rows, 4)
			assert.Equal(t, TrendHeader(tt.c), rows[0])
			for _, row := range rows[1:] {
				assert.Equal(t, tt.want, row)
			}
		})
	}
}

func TestWriteTrendsEmpty(t *testing.T) {
	path, err := WriteTrends(t.TempDir(), types.CategorySports, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"location_label", "tag_or_text", "post_volume", "fetched_at"}}, readCSV(t, path))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "NA", FormatTime(time.Time{}))
	assert.Equal(t, "00:30:00 02-01-2024 +0000",
		FormatTime(time.Date(2024, 1, 1, 19, 30, 0, 0, time.FixedZone("EST", -5*3600))))
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func writeFeed(t *testing.T, lines ...string) string {
	t.Helper()
	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	for _, l := range lines {
		_, err := gz.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "feed.jsonl.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// --- Tests ---

func TestDecodeItem(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, shopID int64, name, price string, qty int, tags []string, hasLoc bool)
	}{
		{
			name:  "string price with location",
			input: `{"shopId":3,"name":"Loaf","price":"3.50","quantity":4,"tags":["vegan"],"latitude":6.9,"longitude":79.8,"extra":{"a":1}}`,
			check: func(t *testing.T, shopID int64, name, price string, qty int, tags []string, hasLoc bool) {
				assert.Equal(t, int64(3), shopID)
				assert.Equal(t, "Loaf", name)
				assert.Equal(t, "3.5", price)
				assert.Equal(t, 4, qty)
				assert.Equal(t, []string{"vegan"}, tags)
				assert.True(t, hasLoc)
			},
		},
		{
			name:  "numeric price, null coordinates",
			input: `{"shopId":1,"name":"Bananas","price":0.8,"quantity":10,"latitude":null,"longitude":null}`,
			check: func(t *testing.T, _ int64, _ string, price string, _ int, _ []string, hasLoc bool) {
				assert.Equal(t, "0.8", price)
				assert.False(t, hasLoc)
			},
		},
		{
			name:  "only one coordinate",
			input: `{"shopId":1,"name":"Rice","price":1,"latitude":6.9}`,
			check: func(t *testing.T, _ int64, _ string, _ string, _ int, _ []string, hasLoc bool) {
				assert.False(t, hasLoc)
			},
		},
		{name: "not an object", input: `[1,2]`, wantErr: true},
		{name: "bad price", input: `{"price":"abc"}`, wantErr: true},
		{name: "truncated", input: `{"shopId":1,`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := decodeItem(jx.DecodeStr(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, it.ShopID, it.Name, it.Price.String(), it.Quantity, it.Tags, it.Location != nil)
		})
	}
}

func TestItemSet(t *testing.T) {
	s := newItemSet(0)
	s.add(1, "Wholegrain Loaf")

	assert.True(t, s.contains(1, "wholegrain loaf "))
	assert.False(t, s.contains(2, "Wholegrain Loaf"))
	assert.False(t, s.contains(1, "Croissant"))
}

func TestDecodeFeeds(t *testing.T) {
	path := writeFeed(t,
		`{"shopId":1,"name":"Loaf","price":"3.50","quantity":2}`,
		``,
		`not json`,
		`{"shopId":1,"name":"Buns","price":2,"quantity":6}`,
	)

	results, err := decodeFeeds(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 1, results[0].invalid)
	require.Len(t, results[0].items, 2)
	assert.Equal(t, "Loaf", results[0].items[0].Name)
	assert.Equal(t, "Buns", results[0].items[1].Name)
}

func TestDecodeFeeds_MissingFile(t *testing.T) {
	_, err := decodeFeeds(context.Background(), []string{filepath.Join(t.TempDir(), "nope.jsonl.gz")})
	require.Error(t, err)
}

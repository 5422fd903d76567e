package urlutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.COM/Products",
			want: "https://example.com/Products",
		},
		{
			name: "strips fragment",
			in:   "https://example.com/chairs#reviews",
			want: "https://example.com/chairs",
		},
		{
			name: "strips default https port",
			in:   "https://example.com:443/chairs",
			want: "https://example.com/chairs",
		},
		{
			name: "strips default http port",
			in:   "http://example.com:80/",
			want: "http://example.com/",
		},
		{
			name: "keeps non-default port",
			in:   "https://example.com:8443/chairs",
			want: "https://example.com:8443/chairs",
		},
		{
			name: "drops tracking parameters",
			in:   "https://example.com/chairs?utm_source=x&utm_campaign=y&color=red",
			want: "https://example.com/chairs?color=red",
		},
		{
			name: "drops fbclid and gclid",
			in:   "https://example.com/chairs?fbclid=abc&gclid=def",
			want: "https://example.com/chairs",
		},
		{
			name: "trims trailing slash on paths",
			in:   "https://example.com/chairs/",
			want: "https://example.com/chairs",
		},
		{
			name: "keeps root slash",
			in:   "https://example.com/",
			want: "https://example.com/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once, err := Normalize("HTTPS://Example.com/Chairs/?utm_source=x#top")
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestToAbsolute(t *testing.T) {
	base, err := url.Parse("https://example.com/furniture/chairs")
	require.NoError(t, err)

	tests := []struct {
		href string
		want string
	}{
		{"/products/aalto", "https://example.com/products/aalto"},
		{"lounge", "https://example.com/furniture/lounge"},
		{"https://other.com/x", "https://other.com/x"},
	}
	for _, tt := range tests {
		got, err := ToAbsolute(base, tt.href)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSameHost(t *testing.T) {
	assert.True(t, SameHost("https://www.example.com/a", "https://example.com/b"))
	assert.False(t, SameHost("https://example.com/a", "https://other.com/a"))
	assert.False(t, SameHost("not a url", "also not"))
}

func TestIsWebURL(t *testing.T) {
	assert.True(t, IsWebURL("https://example.com"))
	assert.True(t, IsWebURL("http://example.com/path"))
	assert.False(t, IsWebURL("example.com"))
	assert.False(t, IsWebURL("ftp://example.com"))
	assert.False(t, IsWebURL("vitra"))
}

func TestHashStable(t *testing.T) {
	a := Hash("https://example.com/chairs")
	b := Hash("https://example.com/chairs")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Hash("https://example.com/tables"))
}

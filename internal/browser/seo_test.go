package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFavicon(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		href    string
		want    string
	}{
		{
			name:    "relative href resolves against page",
			pageURL: "https://site.example/watch/42",
			href:    "/static/fav.png",
			want:    "https://site.example/static/fav.png",
		},
		{
			name:    "relative path without leading slash",
			pageURL: "https://site.example/watch/42",
			href:    "fav.png",
			want:    "https://site.example/watch/fav.png",
		},
		{
			name:    "absolute href passes through",
			pageURL: "https://site.example/",
			href:    "https://cdn.example/fav.ico",
			want:    "https://cdn.example/fav.ico",
		},
		{
			name:    "missing href defaults to favicon.ico",
			pageURL: "https://site.example/deep/page",
			href:    "",
			want:    "https://site.example/favicon.ico",
		},
		{
			name:    "whitespace href defaults to favicon.ico",
			pageURL: "https://site.example/",
			href:    "   ",
			want:    "https://site.example/favicon.ico",
		},
		{
			name:    "page url without host yields empty",
			pageURL: "notaurl",
			href:    "/fav.ico",
			want:    "",
		},
		{
			name:    "malformed page url yields empty",
			pageURL: "://bad",
			href:    "/fav.ico",
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFavicon(tt.pageURL, tt.href))
		})
	}
}

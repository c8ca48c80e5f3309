package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		err  bool
	}{
		{name: "plain key", in: "PRODUCT/2026/09/01/img.webp", want: "PRODUCT/2026/09/01/img.webp"},
		{name: "leading slash stripped", in: "/PRODUCT/img.webp", want: "PRODUCT/img.webp"},
		{name: "empty", in: "", err: true},
		{name: "whitespace only", in: "   ", err: true},
		{name: "parent traversal", in: "../etc/passwd", err: true},
		{name: "embedded traversal", in: "PRODUCT/../../etc/passwd", err: true},
		{name: "dot only", in: "/", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanKey(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	require.Equal(t, "image/webp", contentTypeFor("a/b.webp"))
	require.Equal(t, "image/jpeg", contentTypeFor("a/b.JPG"))
	require.Equal(t, "image/png", contentTypeFor("a/b.png"))
	require.Equal(t, "application/octet-stream", contentTypeFor("a/b.bin"))
}

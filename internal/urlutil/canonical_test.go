package urlutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no trailing slash", input: "http://a.com", want: "http://a.com"},
		{name: "trailing slash", input: "http://a.com/", want: "http://a.com"},
		{name: "path trailing slash", input: "https://blog.example.com/posts/", want: "https://blog.example.com/posts"},
		{name: "only one slash stripped", input: "http://a.com//", want: "http://a.com/"},
		{name: "query kept", input: "http://a.com/?x=1", want: "http://a.com/?x=1"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotentForSingleSlash(t *testing.T) {
	for _, u := range []string{"http://a.com", "http://a.com/", "https://b.org/x/", "https://b.org/x"} {
		once := Normalize(u)
		assert.Equal(t, once, Normalize(once), "normalize(%q)", u)
	}
	assert.Equal(t, Normalize("http://a.com"), Normalize("http://a.com/"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "http", input: "http://example.com", wantErr: false},
		{name: "https with path", input: "https://example.com/blog/", wantErr: false},
		{name: "uppercase scheme", input: "HTTPS://EXAMPLE.COM", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "relative", input: "/path/only", wantErr: true},
		{name: "ftp", input: "ftp://example.com", wantErr: true},
		{name: "no host", input: "http://", wantErr: true},
		{name: "garbage", input: "http://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidURL), "expected ErrInvalidURL, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "example.com", Host("https://Example.COM:8443/x"))
	assert.Equal(t, "", Host("http://[::1"))
}

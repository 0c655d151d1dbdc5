package pubcontent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"2024/first-post", "2024-first-post"},
		{"  Go & Web!  ", "go-web"},
		{"already-slug", "already-slug"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slugify(tt.input), "Slugify(%q)", tt.input)
	}
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://example.com/blog/hello/", BuildURL("https://example.com", "blog", "hello"))
	assert.Equal(t, "https://example.com", BuildURL("https://example.com"))
}

func TestTagsRoundTrip(t *testing.T) {
	joined := JoinTags([]string{" Go", "Web "})
	assert.Equal(t, ",go,web,", joined)
	assert.Equal(t, []string{"go", "web"}, ParseTags(joined))
	assert.Equal(t, []string{}, ParseTags(",,"))
	assert.Equal(t, ",,", JoinTags(nil))
}

func TestFilterEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FilterEmpty([]string{" a ", "", "  ", "b"}))
	assert.Nil(t, FilterEmpty(nil))
}

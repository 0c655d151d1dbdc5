package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostFrontMatterJSON(t *testing.T) {
	post, err := New(nil).Validate(t.Context(), Record{
		"title":       String("Far future"),
		"description": String("Edge of the date range"),
		"pubDate":     Number(8e15),
		"updatedDate": Number(-8e15),
		"tags":        Sequence(String("time")),
	})
	require.NoError(t, err)

	b, err := json.Marshal(post)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Far future",
		"description": "Edge of the date range",
		"pubDate": "+255479-11-28T14:13:20Z",
		"updatedDate": "-251540-02-04T09:46:40Z",
		"heroImage": null,
		"socialImage": null,
		"tags": ["time"]
	}`, string(b))

	var back PostFrontMatter
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, post.PubDate.Equal(back.PubDate))
	updated, ok := back.UpdatedDate.Get()
	require.True(t, ok)
	assert.True(t, time.UnixMilli(-8e15).Equal(updated))
	assert.Equal(t, post.Tags, back.Tags)
}

func TestPostFrontMatterJSONRejectsBadDate(t *testing.T) {
	var p PostFrontMatter
	assert.Error(t, json.Unmarshal([]byte(`{"title":"x","pubDate":"soon"}`), &p))
}

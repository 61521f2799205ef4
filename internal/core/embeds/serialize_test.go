package embeds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialization_RoundTrip(t *testing.T) {
	original := validAsset()
	original.AuthorName = "Someone"
	original.AuthorURL = "https://www.youtube.com/@someone"
	original.ProviderIcon = "https://www.youtube.com/favicon.ico"
	original.PublishedTime = "2024-01-02T03:04:05Z"
	original.License = "CC-BY"
	original.CMS = "wordpress"
	original.Favicon = "https://www.youtube.com/favicon.ico"
	original.Keywords = []string{"music", "live"}
	original.Language = "en"
	original.Languages = []string{"en", "de"}
	original.Redirect = "https://youtu.be/abc123"
	original.Tags = []string{"legacy"}
	original.Images = []ImageRef{{URL: "https://i.ytimg.com/a.jpg", Width: 480, Height: 360, Size: 1024, Mime: "image/jpeg"}}
	original.ImageWidth = 480
	original.ImageHeight = 360
	original.ProviderIcons = []ImageRef{{URL: "https://www.youtube.com/icon.png", Width: 32, Height: 32}}

	data, err := original.MarshalStored()
	require.NoError(t, err)

	decoded, err := FromStored(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestSerialization_RoundTripEmptyLists(t *testing.T) {
	original := validAsset()
	original.Feeds = []string{}
	original.Keywords = []string{}
	original.Images = []ImageRef{}

	normalized := original.Normalized()
	assert.Nil(t, normalized.Feeds)
	assert.Nil(t, normalized.Keywords)
	assert.Nil(t, normalized.Images)

	data, err := normalized.MarshalStored()
	require.NoError(t, err)

	decoded, err := FromStored(data)
	require.NoError(t, err)
	assert.Equal(t, normalized, decoded)
}

func TestToSerializable_CodeIsFlatString(t *testing.T) {
	a := validAsset()
	out := a.ToSerializable()

	code, ok := out["code"].(string)
	require.True(t, ok, "code must serialize as a string")
	assert.Equal(t, a.Code, code)

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.IsType(t, "", generic["code"])
}

func TestToSerializable_OmitsAbsentFields(t *testing.T) {
	out := (&EmbeddedAsset{Title: "T", URL: "https://x.test"}).ToSerializable()

	assert.Equal(t, map[string]interface{}{"title": "T", "url": "https://x.test"}, out)
}

func TestFromStored_LegacyShapes(t *testing.T) {
	payload := `{
		"title": "Old",
		"url": "https://x.test/old",
		"code": {"html": "<iframe></iframe>"},
		"width": "640",
		"height": 360.0,
		"images": ["https://x.test/a.png", "https://x.test/b.png"],
		"providerIcons": [{"url": "https://x.test/i.png", "width": "16", "height": 16}],
		"somethingElse": true
	}`

	a, err := FromStored([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "Old", a.Title)
	assert.Empty(t, a.Code, "structurally expanded code cannot be recovered")
	assert.Equal(t, 640, a.Width)
	assert.Equal(t, 360, a.Height)
	assert.Equal(t, []ImageRef{{URL: "https://x.test/a.png"}, {URL: "https://x.test/b.png"}}, a.Images)
	assert.Equal(t, []ImageRef{{URL: "https://x.test/i.png", Width: 16, Height: 16}}, a.ProviderIcons)
}

func TestFromStored_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{"title":`},
		{"non-numeric width", `{"title":"T","width":"wide"}`},
		{"bad images", `{"title":"T","images":{"url":"x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromStored([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestFromRaw_OEmbedAliases(t *testing.T) {
	raw := map[string]interface{}{
		"type":             "video",
		"title":            "Clip",
		"url":              "https://www.youtube.com/watch?v=abc123",
		"html":             `<iframe src="https://www.youtube.com/embed/abc123?feature=oembed"></iframe>`,
		"author_name":      "Someone",
		"author_url":       "https://www.youtube.com/@someone",
		"provider_name":    "YouTube",
		"provider_url":     "https://www.youtube.com/",
		"thumbnail_url":    "https://i.ytimg.com/vi/abc123/hqdefault.jpg",
		"thumbnail_width":  480,
		"thumbnail_height": "360",
		"width":            200,
		"height":           113,
		"version":          "1.0",
	}

	a, err := FromRaw(raw)
	require.NoError(t, err)

	assert.Equal(t, TypeVideo, a.Type)
	assert.Equal(t, raw["html"], a.Code)
	assert.Equal(t, "Someone", a.AuthorName)
	assert.Equal(t, "https://www.youtube.com/@someone", a.AuthorURL)
	assert.Equal(t, "YouTube", a.ProviderName)
	assert.Equal(t, "https://www.youtube.com/", a.ProviderURL)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/hqdefault.jpg", a.Image)
	assert.Equal(t, 480, a.ImageWidth)
	assert.Equal(t, 360, a.ImageHeight)
	assert.Equal(t, 200, a.Width)

	id, err := a.VideoID()
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestFromRaw_CamelCaseWins(t *testing.T) {
	a, err := FromRaw(map[string]interface{}{
		"title":         "T",
		"url":           "https://x.test",
		"code":          "<b>camel</b>",
		"html":          "<i>snake</i>",
		"providerName":  "Camel",
		"provider_name": "Snake",
	})
	require.NoError(t, err)

	assert.Equal(t, "<b>camel</b>", a.Code)
	assert.Equal(t, "Camel", a.ProviderName)
}

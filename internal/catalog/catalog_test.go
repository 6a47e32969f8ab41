package catalog

import (
	"testing"

	"viralpik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.True(t, c.HasPlatform(models.PlatformYouTube))
	assert.True(t, c.HasPlatform(models.PlatformFX))
	assert.False(t, c.HasPlatform("myspace"))
	assert.GreaterOrEqual(t, len(c.TagPool), 5)

	d, ok := c.DefaultDimensions(models.PlatformYouTube, "thumbnail")
	require.True(t, ok)
	assert.Equal(t, models.Dimensions{Width: 1280, Height: 720}, d)

	_, ok = c.DefaultDimensions(models.PlatformFX, "sound_effect")
	assert.False(t, ok, "fx types have no canonical size")

	_, ok = c.Lookup(models.PlatformTikTok, "thumbnail")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("platforms: ["))
	assert.Error(t, err)

	_, err = Parse([]byte("tag_pool: [a]"))
	assert.Error(t, err)

	_, err = Parse([]byte(`
platforms:
  - id: youtube
    asset_types:
      - id: thumbnail
      - id: thumbnail
`))
	assert.Error(t, err)
}

package main

import (
	"testing"

	"viralpik/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseDoc = `
swagger: "2.0"
paths:
  /feed:
    parameters:
      - name: offset
        in: query
    get:
      responses:
        "200": {description: ok}
  /download:
    post:
      responses:
        "200": {description: ok}
        "429": {description: limit reached}
  /legacy:
    get:
      responses:
        "200": {description: ok}
`

func TestBreakingChanges(t *testing.T) {
	base, err := parseSurface([]byte(baseDoc))
	require.NoError(t, err)
	assert.Len(t, base, 3)

	revision, err := parseSurface([]byte(`{"paths": {
		"/feed": {"get": {"responses": {"200": {"description": "ok"}}}},
		"/download": {"post": {"responses": {"200": {"description": "ok"}}}}
	}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"removed path: /legacy",
		"removed response code: POST /download -> 429",
	}, breakingChanges(base, revision))
	assert.Empty(t, breakingChanges(revision, base))
}

func TestParseSurface_RequiresPaths(t *testing.T) {
	_, err := parseSurface([]byte(`swagger: "2.0"`))
	assert.Error(t, err)
}

func TestCompiledDocIsSelfCompatible(t *testing.T) {
	surface, err := parseSurface([]byte(docs.SwaggerInfo.ReadDoc()))
	require.NoError(t, err)
	assert.Contains(t, surface, "/download")
	assert.Empty(t, breakingChanges(surface, surface))
}

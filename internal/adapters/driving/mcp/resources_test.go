package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

func TestExtractScholarID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid URI", "citetrack://scholars/X1/publications", "X1"},
		{"invalid prefix", "file://scholars/X1/publications", ""},
		{"missing suffix", "citetrack://scholars/X1", ""},
		{"nested path", "citetrack://scholars/a/b/publications", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractScholarID(tt.uri))
		})
	}
}

func TestExtractClusterID(t *testing.T) {
	assert.Equal(t, "111", extractClusterID("citetrack://publications/111/citing"))
	assert.Empty(t, extractClusterID("citetrack://publications/111"))
	assert.Empty(t, extractClusterID("citetrack://scholars/111/citing"))
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleScholarsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("without settings lists nothing", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleScholarsResource(ctx, readRequest("citetrack://scholars"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.JSONEq(t, "[]", result.Contents[0].Text)
	})

	t.Run("tracked scholars with cached summaries", func(t *testing.T) {
		server := newTestServer(t, &Ports{Settings: &mockSettingsService{tracked: []string{"X1", "X2"}}})

		result, err := server.handleScholarsResource(ctx, readRequest("citetrack://scholars"))

		require.NoError(t, err)
		var infos []ScholarOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 2)
		assert.True(t, infos[0].Cached)
		assert.Equal(t, "Ada Lovelace", infos[0].Name)
		assert.False(t, infos[1].Cached)
		assert.Equal(t, "X2", infos[1].ScholarID)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})
}

func TestServer_handlePublicationsResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{})

	result, err := server.handlePublicationsResource(ctx, readRequest("citetrack://scholars/X1/publications"))

	require.NoError(t, err)
	var pubs []domain.Publication
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &pubs))
	assert.Len(t, pubs, 3)

	_, err = server.handlePublicationsResource(ctx, readRequest("citetrack://scholars/nobody/publications"))
	assert.Error(t, err)

	_, err = server.handlePublicationsResource(ctx, readRequest("citetrack://scholars/"))
	assert.Error(t, err)
}

func TestServer_handleCitingResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{})

	result, err := server.handleCitingResource(ctx, readRequest("citetrack://publications/111/citing"))

	require.NoError(t, err)
	var articles []domain.CitingArticle
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &articles))
	require.Len(t, articles, 1)
	assert.Equal(t, "c1", articles[0].ID)

	_, err = server.handleCitingResource(ctx, readRequest("citetrack://publications/999/citing"))
	assert.Error(t, err)
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for CiteTrack resources.
	uriScheme = "citetrack://"

	// resourceWindow caps how many cached entries a resource lists.
	resourceWindow = 1000
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "scholars",
		Name:        "scholars",
		Description: "Tracked scholars with their cached summaries",
		MIMEType:    "application/json",
	}, s.handleScholarsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "scholars/{scholarId}/publications",
		Name:        "scholar-publications",
		Description: "Cached publications of a scholar, most cited first",
		MIMEType:    "application/json",
	}, s.handlePublicationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "publications/{clusterId}/citing",
		Name:        "citing-articles",
		Description: "Cached articles citing a publication, newest first",
		MIMEType:    "application/json",
	}, s.handleCitingResource)
}

// handleScholarsResource lists the tracked scholars.
func (s *Server) handleScholarsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	var ids []string
	if s.ports.Settings != nil {
		ids = s.ports.Settings.TrackedScholars()
	}

	infos := make([]ScholarOutput, len(ids))
	for i, id := range ids {
		infos[i] = ScholarOutput{ScholarID: id}
		if info, ok := s.ports.Cache.GetBasicInfo(id); ok {
			infos[i] = scholarOutput(info)
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handlePublicationsResource lists a scholar's cached publications.
func (s *Server) handlePublicationsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	scholarID := extractScholarID(req.Params.URI)
	if scholarID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	pubs, ok := s.ports.Cache.GetPublications(scholarID, domain.DefaultSortMode, 0, resourceWindow)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, pubs)
}

// handleCitingResource lists the cached articles citing a publication.
func (s *Server) handleCitingResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	clusterID := extractClusterID(req.Params.URI)
	if clusterID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	articles, ok := s.ports.Cache.GetCitingArticles(clusterID, true, 0, resourceWindow)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, articles)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractScholarID extracts the id from citetrack://scholars/{scholarId}/publications.
func extractScholarID(uri string) string {
	return between(uri, uriScheme+"scholars/", "/publications")
}

// extractClusterID extracts the id from citetrack://publications/{clusterId}/citing.
func extractClusterID(uri string) string {
	return between(uri, uriScheme+"publications/", "/citing")
}

func between(uri, prefix, suffix string) string {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}

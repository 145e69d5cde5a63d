package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

const (
	defaultPublicationsLimit = 20
	defaultCitingLimit       = 10
	maxLimit                 = 100
)

// ScholarInput identifies a scholar profile.
type ScholarInput struct {
	ScholarID string `json:"scholar_id" jsonschema:"the scholar profile id, e.g. the user= parameter of a profile URL"`
}

// ScholarOutput is the cached summary of a scholar.
type ScholarOutput struct {
	Cached      bool      `json:"cached"`
	ScholarID   string    `json:"scholar_id"`
	Name        string    `json:"name,omitempty"`
	Citations   int       `json:"citations,omitempty"`
	HIndex      *int      `json:"h_index,omitempty"`
	I10Index    *int      `json:"i10_index,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// PublicationsInput selects a window of a scholar's publications.
type PublicationsInput struct {
	ScholarID string `json:"scholar_id" jsonschema:"the scholar profile id"`
	Sort      string `json:"sort,omitempty" jsonschema:"sort mode: total (default), pubdate or title"`
	Offset    int    `json:"offset,omitempty" jsonschema:"index of the first publication"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of publications (default 20)"`
}

// PublicationsOutput is a window of cached publications.
type PublicationsOutput struct {
	Cached       bool                 `json:"cached"`
	Sort         string               `json:"sort"`
	Publications []PublicationOutput `json:"publications"`
	Count        int                 `json:"count"`
	HasMore      bool                `json:"has_more"`
}

// PublicationOutput is one listed publication.
type PublicationOutput struct {
	Title     string `json:"title"`
	ClusterID string `json:"cluster_id,omitempty"`
	Citations *int   `json:"citations,omitempty"`
	Year      *int   `json:"year,omitempty"`
}

// CitingInput selects a window of the articles citing a publication.
type CitingInput struct {
	ClusterID  string `json:"cluster_id" jsonschema:"the cluster id of the cited publication"`
	SortByDate bool   `json:"sort_by_date,omitempty" jsonschema:"newest first instead of by relevance"`
	Offset     int    `json:"offset,omitempty" jsonschema:"index of the first article"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of articles (default 10)"`
}

// CitingOutput is a window of cached citing articles.
type CitingOutput struct {
	Cached   bool                   `json:"cached"`
	Articles []CitingArticleOutput `json:"articles"`
	Count    int                   `json:"count"`
}

// CitingArticleOutput is one citing article.
type CitingArticleOutput struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Venue      string   `json:"venue,omitempty"`
	Citations  *int     `json:"citations,omitempty"`
	ScholarURL string   `json:"scholar_url,omitempty"`
	PDFURL     string   `json:"pdf_url,omitempty"`
}

// FetchScholarInput schedules a comprehensive fetch.
type FetchScholarInput struct {
	ScholarID string `json:"scholar_id" jsonschema:"the scholar profile id"`
	Refresh   bool   `json:"refresh,omitempty" jsonschema:"refetch pages that were fetched before"`
}

// FetchScholarOutput reports how many fetch tasks were queued.
type FetchScholarOutput struct {
	Enqueued int `json:"enqueued"`
	Pending  int `json:"pending"`
}

// FetchCitingOutput reports whether the first citing page is now cached.
type FetchCitingOutput struct {
	Cached bool `json:"cached"`
}

// StatsInput takes no arguments.
type StatsInput struct{}

// StatsOutput summarises the cache and the fetch queue.
type StatsOutput struct {
	Scholars       int            `json:"scholars"`
	Publications   int            `json:"publications"`
	CitingArticles int            `json:"citing_articles"`
	Snapshots      int            `json:"snapshots"`
	Pending        int            `json:"pending"`
	Running        bool           `json:"running"`
	Completed      int            `json:"completed"`
	Failed         int            `json:"failed"`
	FetchesByKind  map[string]int `json:"fetches_by_kind,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_scholar",
		Description: "Get the cached profile summary of a scholar",
	}, s.handleGetScholar)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_publications",
		Description: "List a scholar's cached publications in a sort mode",
	}, s.handleGetPublications)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_citing_articles",
		Description: "List the cached articles citing a publication",
	}, s.handleGetCitingArticles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_scholar",
		Description: "Queue a background fetch of a scholar's profile and publications",
	}, s.handleFetchScholar)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_citing_articles",
		Description: "Fetch the first pages of articles citing a publication",
	}, s.handleFetchCitingArticles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cache_stats",
		Description: "Summarise the cache contents and the fetch queue",
	}, s.handleStats)
}

func (s *Server) handleGetScholar(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ScholarInput,
) (*mcp.CallToolResult, ScholarOutput, error) {
	if input.ScholarID == "" {
		return nil, ScholarOutput{}, fmt.Errorf("%w: scholar_id is required", domain.ErrInvalidInput)
	}

	info, ok := s.ports.Cache.GetBasicInfo(input.ScholarID)
	if !ok {
		return nil, ScholarOutput{ScholarID: input.ScholarID}, nil
	}

	return nil, scholarOutput(info), nil
}

func scholarOutput(info *domain.BasicInfo) ScholarOutput {
	return ScholarOutput{
		Cached:      true,
		ScholarID:   info.ScholarID,
		Name:        info.Name,
		Citations:   info.Citations,
		HIndex:      info.HIndex,
		I10Index:    info.I10Index,
		LastUpdated: info.LastUpdated.Format(time.RFC3339),
	}
}

func (s *Server) handleGetPublications(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input PublicationsInput,
) (*mcp.CallToolResult, PublicationsOutput, error) {
	if input.ScholarID == "" {
		return nil, PublicationsOutput{}, fmt.Errorf("%w: scholar_id is required", domain.ErrInvalidInput)
	}
	sort := domain.SortMode(input.Sort).OrDefault()
	if !sort.IsValid() {
		return nil, PublicationsOutput{}, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, input.Sort)
	}
	limit := clampLimit(input.Limit, defaultPublicationsLimit)
	offset := max(input.Offset, 0)

	pubs, ok := s.ports.Cache.GetPublications(input.ScholarID, sort, offset, limit)
	output := PublicationsOutput{
		Cached:       ok,
		Sort:         sort.String(),
		Publications: make([]PublicationOutput, len(pubs)),
		Count:        len(pubs),
	}
	for i, p := range pubs {
		output.Publications[i] = PublicationOutput{
			Title:     p.Title,
			ClusterID: p.ClusterID,
			Citations: p.CitationCount,
			Year:      p.Year,
		}
	}
	if ok {
		output.HasMore = !s.ports.Cache.NeedsFetchMore(input.ScholarID, sort, offset+limit)
	}
	return nil, output, nil
}

func (s *Server) handleGetCitingArticles(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CitingInput,
) (*mcp.CallToolResult, CitingOutput, error) {
	if input.ClusterID == "" {
		return nil, CitingOutput{}, fmt.Errorf("%w: cluster_id is required", domain.ErrInvalidInput)
	}
	limit := clampLimit(input.Limit, defaultCitingLimit)

	articles, ok := s.ports.Cache.GetCitingArticles(input.ClusterID, input.SortByDate, max(input.Offset, 0), limit)
	output := CitingOutput{
		Cached:   ok,
		Articles: make([]CitingArticleOutput, len(articles)),
		Count:    len(articles),
	}
	for i := range articles {
		output.Articles[i] = citingArticleOutput(articles[i])
	}
	return nil, output, nil
}

func (s *Server) handleFetchScholar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchScholarInput,
) (*mcp.CallToolResult, FetchScholarOutput, error) {
	if s.ports.Coordinator == nil {
		return nil, FetchScholarOutput{}, ErrFetchUnavailable
	}

	fetch := s.ports.Coordinator.FetchComprehensive
	if input.Refresh {
		fetch = s.ports.Coordinator.RefreshComprehensive
	}
	n, err := fetch(ctx, input.ScholarID)
	if err != nil {
		return nil, FetchScholarOutput{}, err
	}
	return nil, FetchScholarOutput{Enqueued: n, Pending: s.ports.Coordinator.Stats().Pending}, nil
}

func (s *Server) handleFetchCitingArticles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CitingInput,
) (*mcp.CallToolResult, FetchCitingOutput, error) {
	if s.ports.Coordinator == nil {
		return nil, FetchCitingOutput{}, ErrFetchUnavailable
	}
	if input.ClusterID == "" {
		return nil, FetchCitingOutput{}, fmt.Errorf("%w: cluster_id is required", domain.ErrInvalidInput)
	}

	ok := s.ports.Coordinator.FetchCitingArticlesWithPrefetch(ctx, input.ClusterID, domain.PriorityHigh)
	return nil, FetchCitingOutput{Cached: ok}, nil
}

func (s *Server) handleStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	cache := s.ports.Cache.Stats()
	output := StatsOutput{
		Scholars:       cache.Scholars,
		Publications:   cache.Publications,
		CitingArticles: cache.CitingArticles,
		Snapshots:      cache.Snapshots,
	}

	if s.ports.Coordinator != nil {
		queue := s.ports.Coordinator.Stats()
		output.Pending = queue.Pending
		output.Running = queue.Running
		output.Completed = queue.Completed
		output.Failed = queue.Failed
		if len(queue.ByKind) > 0 {
			output.FetchesByKind = make(map[string]int, len(queue.ByKind))
			for kind, n := range queue.ByKind {
				output.FetchesByKind[string(kind)] = n
			}
		}
	}
	return nil, output, nil
}

func citingArticleOutput(a domain.CitingArticle) CitingArticleOutput {
	return CitingArticleOutput{
		ID:         a.ID,
		Title:      a.Title,
		Authors:    a.Authors,
		Year:       a.Year,
		Venue:      a.Venue,
		Citations:  a.CitationCount,
		ScholarURL: a.ScholarURL,
		PDFURL:     a.PDFURL,
	}
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, maxLimit)
}

package scholar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.FetchService = (*Client)(nil)

const (
	// PublicationsPageSize is the profile page size requested.
	PublicationsPageSize = 100

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 8 << 20
)

// Client fetches profile and cited-by pages over HTTP.
type Client struct {
	httpClient *http.Client
	limiter    *RateLimiter
	baseURL    string
	userAgent  string
	now        func() time.Time
	log        logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimiter replaces the request pacing.
func WithRateLimiter(l *RateLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a client from the fetch settings.
func NewClient(settings domain.FetchSettings, opts ...ClientOption) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = settings.RequestTimeout

	c := &Client{
		httpClient: &http.Client{
			Timeout:   settings.ResourceTimeout,
			Transport: transport,
		},
		limiter:   NewRateLimiter(settings.RequestInterval),
		baseURL:   settings.BaseURL,
		userAgent: settings.UserAgent,
		now:       time.Now,
		log:       logger.Scope("scholar"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchBasicProfileAndFirstPage returns the profile summary together with
// the first page of publications under the canonical sort.
func (c *Client) FetchBasicProfileAndFirstPage(ctx context.Context, scholarID string) (*domain.ProfilePage, error) {
	page, err := c.FetchPublicationsPage(ctx, scholarID, domain.DefaultSortMode, 0)
	if err != nil {
		return nil, err
	}
	if page.Info == nil {
		return nil, &domain.FetchError{
			Kind: domain.FetchErrParse,
			Op:   "fetch profile " + scholarID,
			Err:  errors.New("no profile summary on page"),
		}
	}
	return page, nil
}

// FetchPublicationsPage returns one page of publications.
func (c *Client) FetchPublicationsPage(
	ctx context.Context,
	scholarID string,
	sort domain.SortMode,
	offset int,
) (*domain.ProfilePage, error) {
	op := fmt.Sprintf("fetch publications %s/%s@%d", scholarID, sort.OrDefault(), offset)
	if scholarID == "" || offset < 0 || !sort.OrDefault().IsValid() {
		return nil, domain.NewFetchError(domain.FetchErrValidation, op, nil)
	}

	body, err := c.get(ctx, op, c.profileURL(scholarID, sort, offset))
	if err != nil {
		return nil, err
	}

	page, err := parseProfilePage(bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchErrParse, op, err)
	}
	if page.Info == nil && len(page.Publications) == 0 && offset == 0 {
		return nil, domain.NewFetchError(domain.FetchErrParse, op, errors.New("unrecognised profile page"))
	}

	c.log.Debug("%s: %d publications", op, len(page.Publications))
	return page, nil
}

// FetchCitingArticlesPage returns one page of articles citing a publication.
func (c *Client) FetchCitingArticlesPage(
	ctx context.Context,
	publicationID string,
	sortByDate bool,
	offset int,
) ([]domain.CitingArticle, error) {
	op := fmt.Sprintf("fetch citing %s/%t@%d", publicationID, sortByDate, offset)
	if publicationID == "" || offset < 0 {
		return nil, domain.NewFetchError(domain.FetchErrValidation, op, nil)
	}

	body, err := c.get(ctx, op, c.citedByURL(publicationID, sortByDate, offset))
	if err != nil {
		return nil, err
	}

	articles, err := parseCitingPage(bytes.NewReader(body), c.baseURL, c.now())
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchErrParse, op, err)
	}

	c.log.Debug("%s: %d articles", op, len(articles))
	return articles, nil
}

func (c *Client) profileURL(scholarID string, sort domain.SortMode, offset int) string {
	q := url.Values{}
	q.Set("user", scholarID)
	q.Set("hl", "en")
	q.Set("cstart", strconv.Itoa(offset))
	q.Set("pagesize", strconv.Itoa(PublicationsPageSize))
	if sort := sort.OrDefault(); sort != domain.DefaultSortMode {
		q.Set("sortby", sort.String())
	}
	return c.baseURL + "/citations?" + q.Encode()
}

func (c *Client) citedByURL(publicationID string, sortByDate bool, offset int) string {
	q := url.Values{}
	q.Set("hl", "en")
	q.Set("cites", publicationID)
	if sortByDate {
		q.Set("scisbd", "1")
	}
	if offset > 0 {
		q.Set("start", strconv.Itoa(offset))
	}
	return c.baseURL + "/scholar?" + q.Encode()
}

// get performs one paced request and classifies failures.
func (c *Client) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyTransport(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchErrValidation, op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(op, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classifyTransport(op, err)
	}

	if isCaptcha(string(body)) {
		until := c.limiter.Backoff(resp)
		c.log.Warn("%s: verification page served, pausing until %s", op, until.Format(time.TimeOnly))
		return nil, &domain.FetchError{
			Kind:       domain.FetchErrRateLimited,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New("captcha"),
		}
	}

	return body, nil
}

// checkStatus maps the HTTP status onto a fetch error kind.
func (c *Client) checkStatus(op string, resp *http.Response) error {
	status := resp.StatusCode
	var kind domain.FetchErrorKind
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		until := c.limiter.Backoff(resp)
		c.log.Warn("%s: rate limited, pausing until %s", op, until.Format(time.TimeOnly))
		kind = domain.FetchErrRateLimited
	case status == http.StatusNotFound:
		kind = domain.FetchErrNotFound
	case status >= 500:
		kind = domain.FetchErrServer
	default:
		kind = domain.FetchErrTransport
	}
	return &domain.FetchError{Kind: kind, Op: op, StatusCode: status}
}

func classifyTransport(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewFetchError(domain.FetchErrTimeout, op, err)
	}
	return domain.NewFetchError(domain.FetchErrTransport, op, err)
}

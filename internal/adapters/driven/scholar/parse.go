package scholar

import (
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

var (
	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	digits      = regexp.MustCompile(`\d+`)
)

// captchaMarkers identify the interstitial served instead of a result page.
var captchaMarkers = []string{
	"gs_captcha_ccl",
	"recaptcha",
	"Please show you're not a robot",
}

func isCaptcha(html string) bool {
	for _, marker := range captchaMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}

// parseProfilePage reads the summary block and publication rows of a
// profile page. Info is nil when the page has no summary block.
func parseProfilePage(r io.Reader) (*domain.ProfilePage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	page := &domain.ProfilePage{
		Info:         parseProfileInfo(doc),
		Publications: []domain.Publication{},
	}

	doc.Find("tr.gsc_a_tr").Each(func(_ int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find("a.gsc_a_at").First().Text())
		if title == "" {
			return
		}
		pub := domain.Publication{Title: title}

		cited := row.Find("a.gsc_a_ac").First()
		if n, ok := parseInt(cited.Text()); ok {
			pub.CitationCount = domain.IntPtr(n)
		}
		if href, ok := cited.Attr("href"); ok {
			pub.ClusterID = queryParam(href, "cites")
		}
		if year, ok := parseInt(row.Find(".gsc_a_h").First().Text()); ok {
			pub.Year = domain.IntPtr(year)
		}

		page.Publications = append(page.Publications, pub)
	})

	return page, nil
}

// parseProfileInfo reads the name and the "All" column of the citation
// table: citations, h-index, i10-index.
func parseProfileInfo(doc *goquery.Document) *domain.ProfileInfo {
	name := strings.TrimSpace(doc.Find("#gsc_prf_in").First().Text())
	if name == "" {
		return nil
	}

	var cells []int
	doc.Find("td.gsc_rsb_std").Each(func(_ int, td *goquery.Selection) {
		n, _ := parseInt(td.Text())
		cells = append(cells, n)
	})

	// Rows are citations, h-index, i10-index with All and Since columns.
	info := &domain.ProfileInfo{Name: name}
	if len(cells) > 0 {
		info.TotalCitations = cells[0]
	}
	if len(cells) > 2 {
		info.HIndex = domain.IntPtr(cells[2])
	}
	if len(cells) > 4 {
		info.I10Index = domain.IntPtr(cells[4])
	}
	return info
}

// parseCitingPage reads the result entries of a cited-by page.
func parseCitingPage(r io.Reader, baseURL string, fetchedAt time.Time) ([]domain.CitingArticle, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	articles := []domain.CitingArticle{}
	doc.Find("div.gs_r.gs_or").Each(func(_ int, entry *goquery.Selection) {
		heading := entry.Find("h3.gs_rt").First()
		title := strings.TrimSpace(heading.Find("a").First().Text())
		if title == "" {
			title = cleanTitle(heading.Text())
		}
		if title == "" {
			return
		}

		article := domain.CitingArticle{
			ID:        entry.AttrOr("data-cid", ""),
			Title:     title,
			FetchedAt: fetchedAt,
		}
		if href, ok := heading.Find("a").First().Attr("href"); ok {
			article.ScholarURL = absoluteURL(baseURL, href)
		}
		if href, ok := entry.Find(".gs_or_ggsm a").First().Attr("href"); ok {
			article.PDFURL = absoluteURL(baseURL, href)
		}

		article.Authors, article.Venue, article.Year = parseByline(entry.Find(".gs_a").First().Text())

		entry.Find(".gs_fl a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			href := link.AttrOr("href", "")
			cites := queryParam(href, "cites")
			if cites == "" {
				return true
			}
			if n, ok := parseInt(link.Text()); ok {
				article.CitationCount = domain.IntPtr(n)
			}
			if article.ID == "" {
				article.ID = cites
			}
			return false
		})

		if article.ID == "" {
			// Entries without a cluster still need a stable identity.
			article.ID = "title:" + strings.ToLower(title)
		}
		articles = append(articles, article)
	})

	return articles, nil
}

// parseByline splits "A Author, B Author - Venue, 2021 - publisher".
func parseByline(text string) (authors []string, venue string, year *int) {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	parts := strings.Split(text, " - ")

	for _, name := range strings.Split(parts[0], ",") {
		name = strings.TrimSpace(strings.Trim(name, "…"))
		if name != "" {
			authors = append(authors, name)
		}
	}

	if len(parts) > 1 {
		middle := parts[1]
		if match := yearPattern.FindString(middle); match != "" {
			n, _ := strconv.Atoi(match)
			year = domain.IntPtr(n)
			middle = strings.Replace(middle, match, "", 1)
		}
		venue = strings.Trim(strings.TrimSpace(middle), ",… ")
	}
	return authors, venue, year
}

// cleanTitle strips the "[PDF]" style markers the service prefixes.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			break
		}
		s = strings.TrimSpace(s[end+1:])
	}
	return s
}

func parseInt(s string) (int, bool) {
	match := digits.FindString(strings.ReplaceAll(s, ",", ""))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	return n, err == nil
}

func queryParam(href, name string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	value := u.Query().Get(name)
	// Merged clusters are listed as "123,456"; the first is canonical.
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	return value
}

func absoluteURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(u).String()
}

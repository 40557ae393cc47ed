// Package pubmed builds spaces from PubMed search results through the
// NCBI E-utilities: one esearch for the id list, then batched efetch
// calls for the article metadata.
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/logger"
)

const (
	// anchorSelector is where the portal is mounted.
	anchorSelector = `main > div[class='inner-wrap']`

	// eutilsBase is the NCBI E-utilities endpoint.
	eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// maxResults caps the id list fetched per search.
	maxResults = 1000

	// fetchBatchSize is how many articles one efetch call covers.
	fetchBatchSize = 50

	// DefaultRequestInterval paces efetch calls; NCBI rejects clients
	// that exceed a few requests per second without an API key.
	DefaultRequestInterval = time.Second
)

// textAvailabilityFilters translates the site's text-availability filter
// tokens into query-level filters.
var textAvailabilityFilters = map[string]string{
	"simsearch1.fha":   "hasabstract[filter]",
	"simsearch2.ffrft": "free full text[filter]",
	"simsearch3.fft":   "full text[filter]",
}

// articleAttrFilters translates the site's article-attribute filter
// tokens.
var articleAttrFilters = map[string]string{
	"articleattr.data": "data[filter]",
}

// Ensure Connection implements the interface.
var _ driven.Connection = (*Connection)(nil)

// Connection extracts PubMed search results into records.
type Connection struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// Option configures a Connection.
type Option func(*Connection)

// WithRequestInterval overrides the pacing between efetch calls.
func WithRequestInterval(interval time.Duration) Option {
	return func(c *Connection) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// withNow fixes the clock for date-range filters in tests.
func withNow(now func() time.Time) Option {
	return func(c *Connection) {
		c.now = now
	}
}

// New creates the PubMed connection.
func New(opts ...Option) *Connection {
	c := &Connection{
		limiter: rate.NewLimiter(rate.Every(DefaultRequestInterval), 1),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the connection's display name.
func (c *Connection) Name() string {
	return "Pubmed"
}

// Description returns a brief explanation of what the connection does.
func (c *Connection) Description() string {
	return "Builds spaces based on the results of your Pubmed search"
}

// Trigger matches PubMed search result pages.
func (c *Connection) Trigger(url string) bool {
	return strings.Contains(url, "pubmed.ncbi.nlm.nih.gov/?term")
}

// esearchResponse is the slice of an esearch response this connection
// reads.
type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Extract translates the page's search into an esearch call, then fetches
// the article metadata in batches. Articles missing any of the declared
// fields are dropped so the batch stays schema-consistent.
func (c *Connection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	searchURL, err := c.searchURL(pageURL)
	if err != nil {
		return nil, err
	}

	body, err := collab.Pages.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search pubmed: %w", err)
	}
	var search esearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := search.Result.IDList
	logger.Debug("pubmed search matched %d articles", len(ids))

	var records []domain.Record
	for i := 0; i < len(ids); i += fetchBatchSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		end := i + fetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		articles, err := c.fetchArticles(ctx, ids[i:end], collab)
		if err != nil {
			return nil, err
		}

		for _, article := range articles {
			record, ok := article.record()
			if !ok {
				continue
			}
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no complete articles in result set", domain.ErrDocumentTooShort)
	}

	return &domain.Batch{
		Records: records,
		FieldTypes: domain.FieldTypeMap{
			"title":    domain.FieldTitle,
			"date":     domain.FieldDate,
			"abstract": domain.FieldSemantic,
			"pmid":     domain.FieldCategoric,
			"authors":  domain.FieldCategoric,
		},
	}, nil
}

// InjectUI mounts the portal above the result list.
func (c *Connection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	return collab.Portals.BuildPortal(ctx, spaceID, c.Name(), anchorSelector, nil)
}

// searchURL translates the page URL's search parameters into an esearch
// request. Site filter tokens become query-level filters ORed onto the
// term; date-range tokens become a pdat window ending today.
func (c *Connection) searchURL(pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	pageParams := parsed.Query()
	term := pageParams.Get("term")
	if term == "" {
		return "", fmt.Errorf("%w: no term in %s", domain.ErrInvalidInput, pageURL)
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("format", "json")

	var extraFilters []string
	for key, values := range pageParams {
		if strings.HasPrefix(key, "ps_") || key == "page" {
			continue
		}
		for _, value := range values {
			if value == "" {
				continue
			}

			if key == "sort" {
				params.Set("sort", value)
				continue
			}
			if key != "filter" {
				continue
			}

			if strings.HasPrefix(value, "datesearch.y_") {
				yearsPast, err := strconv.Atoi(strings.TrimPrefix(value, "datesearch.y_"))
				if err != nil {
					yearsPast = 1
				}
				now := c.now()
				params.Set("datetype", "pdat")
				params.Set("mindate", fmt.Sprintf("%d/%02d/%02d", now.Year()-yearsPast, now.Month(), now.Day()))
				params.Set("maxdate", fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day()))
				continue
			}
			if filter, ok := articleAttrFilters[value]; ok {
				extraFilters = append(extraFilters, filter)
				continue
			}
			if filter, ok := textAvailabilityFilters[value]; ok {
				extraFilters = append(extraFilters, filter)
			}
		}
	}

	for _, filter := range extraFilters {
		term += " OR " + filter
	}
	params.Set("term", term)

	return eutilsBase + "/esearch.fcgi?" + params.Encode(), nil
}

// pubmedAuthor is one author element of an efetch response.
type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

// pubmedArticle is the slice of one PubmedArticle element this
// connection reads.
type pubmedArticle struct {
	PMID         string         `xml:"MedlineCitation>PMID"`
	Title        string         `xml:"MedlineCitation>Article>ArticleTitle"`
	AbstractText []string       `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Authors      []pubmedAuthor `xml:"MedlineCitation>Article>AuthorList>Author"`
	Year         string         `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
}

// record flattens an article into a record, reporting false when any
// declared field would be empty.
func (a *pubmedArticle) record() (domain.Record, bool) {
	abstract := strings.Join(a.AbstractText, " ")

	names := make([]string, 0, len(a.Authors))
	for _, author := range a.Authors {
		name := strings.TrimSpace(author.LastName + " " + author.ForeName)
		if name != "" {
			names = append(names, name)
		}
	}
	authors := strings.Join(names, ", ")

	if a.Title == "" || abstract == "" || authors == "" || a.Year == "" || a.PMID == "" {
		return nil, false
	}

	return domain.Record{
		"title":    a.Title,
		"date":     a.Year,
		"abstract": abstract,
		"pmid":     a.PMID,
		"authors":  authors,
	}, true
}

// efetchResponse is the envelope of an efetch call.
type efetchResponse struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

// fetchArticles fetches the metadata for one batch of article ids.
func (c *Connection) fetchArticles(ctx context.Context, ids []string, collab *driven.Collaborators) ([]pubmedArticle, error) {
	fetchURL := fmt.Sprintf("%s/efetch.fcgi?db=pubmed&id=%s&retmode=xml", eutilsBase, strings.Join(ids, ","))

	body, err := collab.Pages.Fetch(ctx, fetchURL)
	if err != nil {
		return nil, fmt.Errorf("fetch article batch: %w", err)
	}

	var response efetchResponse
	if err := xml.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode article batch: %w", err)
	}
	return response.Articles, nil
}

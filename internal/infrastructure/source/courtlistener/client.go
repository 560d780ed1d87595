// Package courtlistener fetches opinion and docket documents from a
// CourtListener-style REST API. Pagination, client-side rate limiting and
// retry live here; the pipeline only sees FetchBatch.
package courtlistener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/openjurist/enhancer/internal/core/domain"
	"github.com/openjurist/enhancer/internal/infrastructure/resilience"
)

const defaultPageSize = 50

// PDFExtractor recovers text for documents whose API payload carries no
// plain text but references a downloaded PDF.
type PDFExtractor interface {
	ExtractFile(ctx context.Context, path string) (string, error)
}

type Options struct {
	Token       string
	PageSize    int
	RateLimit   rate.Limit
	RateBurst   int
	HTTPTimeout time.Duration
	Executor    *resilience.Executor
	PDF         PDFExtractor
}

type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	pdf        PDFExtractor
}

func New(baseURL string, options Options) *Client {
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	limit := options.RateLimit
	if limit <= 0 {
		limit = rate.Limit(5)
	}
	burst := options.RateBurst
	if burst <= 0 {
		burst = 1
	}
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      options.Token,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		executor:   options.Executor,
		pdf:        options.PDF,
	}
}

type apiDocument struct {
	ID         json.Number `json:"id"`
	CaseNumber string      `json:"case_number"`
	Type       string      `json:"type"`
	PlainText  string      `json:"plain_text"`
	Metadata   any         `json:"metadata"`
	LocalPath  string      `json:"local_path"`
}

type apiPage struct {
	Next    string        `json:"next"`
	Results []apiDocument `json:"results"`
}

// FetchBatch pages through the API until limit documents are collected or a
// short page signals exhaustion.
func (c *Client) FetchBatch(ctx context.Context, limit int, filters domain.SourceFilters) ([]domain.RawDocument, error) {
	if limit <= 0 {
		return nil, nil
	}

	next := c.firstPageURL(filters)
	out := make([]domain.RawDocument, 0, limit)

	for next != "" && len(out) < limit {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Results {
			raw, err := c.toRawDocument(ctx, item)
			if err != nil {
				return nil, err
			}
			out = append(out, raw)
			if len(out) == limit {
				break
			}
		}
		if len(page.Results) < c.pageSize {
			break
		}
		next = page.Next
	}
	return out, nil
}

func (c *Client) firstPageURL(filters domain.SourceFilters) string {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if filters.Court != "" {
		query.Set("court", filters.Court)
	}
	if filters.DocumentType != "" {
		query.Set("type", filters.DocumentType)
	}
	return c.baseURL + "/opinions/?" + query.Encode()
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*apiPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var page apiPage
	call := func(ctx context.Context) error {
		return c.getJSON(ctx, pageURL, &page)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Do(ctx, "source.fetch_page", classifyHTTPError, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create fetch request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("source fetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode fetch response: %w", err)
	}
	return nil
}

func (c *Client) toRawDocument(ctx context.Context, item apiDocument) (domain.RawDocument, error) {
	raw := domain.RawDocument{
		ID:           item.ID.String(),
		CaseNumber:   item.CaseNumber,
		DocumentType: item.Type,
		Content:      item.PlainText,
		MetadataBlob: item.Metadata,
		PDFPath:      item.LocalPath,
	}

	// RECAP documents often arrive without extracted text; fall back to the
	// downloaded PDF when one is referenced.
	if raw.Content == "" && raw.PDFPath != "" && c.pdf != nil {
		text, err := c.pdf.ExtractFile(ctx, raw.PDFPath)
		if err != nil {
			return domain.RawDocument{}, fmt.Errorf("pdf fallback for %s: %w", raw.ID, err)
		}
		raw.Content = text
	}
	return raw, nil
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return "source fetch status: " + e.status
}

func classifyHTTPError(err error) resilience.Outcome {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.code == http.StatusTooManyRequests:
			return resilience.Outcome{Retryable: true}
		case se.code >= 500:
			return resilience.Outcome{Retryable: true, CountsAsFailure: true}
		default:
			return resilience.Outcome{CountsAsFailure: false}
		}
	}
	// Transport-level errors (timeouts, resets) are worth another attempt.
	return resilience.Outcome{Retryable: true, CountsAsFailure: true}
}

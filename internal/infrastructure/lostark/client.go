package lostark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"aucwatch/internal/config"
	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/contextx"
	"aucwatch/pkg/errcodes"
	"aucwatch/pkg/httpx"
	"aucwatch/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	auctionSearchPath = "/auctions/items"
	marketSearchPath  = "/markets/items"

	// CategoryCodeWildcard asks the upstream to search all market categories.
	// Some deployments reject it with a 400; see marketFallbackCategories.
	CategoryCodeWildcard = 0
)

// marketFallbackCategories are tried in order when the upstream rejects a
// wildcard market search. The first candidate returning any results wins.
var marketFallbackCategories = []int{40000, 50000, 60000, 70000, 90000} //nolint:gochecknoglobals

// Client is the thin gateway over the upstream auction/market search API.
// It normalizes the provider's wire shapes into the canonical entity.Item.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// staticTokenAuthenticator satisfies the httpx bearer contract with the
// long-lived API token from config.
type staticTokenAuthenticator struct {
	token string
}

func (a staticTokenAuthenticator) Authenticate(context.Context) error {
	return nil
}

func (a staticTokenAuthenticator) BearerToken() string {
	return a.token
}

func NewClient(cfg config.Lostark) *Client {
	var transport http.RoundTripper = http.DefaultTransport

	if cfg.LogRequests {
		transport = httpx.NewLoggingRoundTripper(
			transport,
			httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
			httpx.WithLogFieldMaxLen(cfg.LogFieldMaxLen),
		)
	}

	transport = httpx.NewAuthBearerRoundTripper(
		transport,
		staticTokenAuthenticator{token: cfg.Token},
	)

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// SearchAuctions runs one page of an auction search.
func (c *Client) SearchAuctions(ctx context.Context, q entity.AuctionSearchCriteria) (*entity.SearchResult, error) {
	req := auctionSearchRequest{
		ItemName:      q.ItemName,
		ItemGrade:     q.ItemGrade,
		ItemTier:      q.ItemTier,
		CategoryCode:  q.CategoryCode,
		EtcOptions:    toEtcOptions(q.Filters),
		Sort:          "BUY_PRICE",
		SortCondition: "ASC",
		PageNo:        q.PageNo,
	}

	var resp auctionSearchResponse
	if err := c.post(ctx, auctionSearchPath, req, &resp); err != nil {
		logger(ctx).Error("auction search failed", "item", q.ItemName, "page", q.PageNo, logx.Error(err))
		return nil, domain.WrapError(err, errcodes.SearchFailed, "auction search failed")
	}

	return normalizeAuctionResponse(resp), nil
}

// SearchMarket runs one page of a market search. A 400 on a wildcard category
// triggers a bounded fallback over a short static category list; the first
// candidate yielding results is returned, otherwise the original error
// propagates.
func (c *Client) SearchMarket(ctx context.Context, q entity.MarketSearchCriteria) (*entity.SearchResult, error) {
	result, err := c.searchMarketOnce(ctx, q.ItemName, q.CategoryCode, q.PageNo)
	if err == nil {
		return result, nil
	}

	if q.CategoryCode != CategoryCodeWildcard || !isBadRequest(err) {
		logger(ctx).Error("market search failed", "item", q.ItemName, "page", q.PageNo, logx.Error(err))
		return nil, domain.WrapError(err, errcodes.SearchFailed, "market search failed")
	}

	for _, code := range marketFallbackCategories {
		candidate, candidateErr := c.searchMarketOnce(ctx, q.ItemName, code, q.PageNo)
		if candidateErr != nil {
			continue
		}
		if candidate.TotalCount > 0 {
			return candidate, nil
		}
	}

	logger(ctx).Error("market search failed after category fallback", "item", q.ItemName, logx.Error(err))

	return nil, domain.WrapError(err, errcodes.SearchFailed, "market search failed")
}

func (c *Client) searchMarketOnce(ctx context.Context, name string, categoryCode, pageNo int) (*entity.SearchResult, error) {
	req := marketSearchRequest{
		ItemName:      name,
		CategoryCode:  categoryCode,
		Sort:          "CURRENT_MIN_PRICE",
		SortCondition: "ASC",
		PageNo:        pageNo,
	}

	var resp marketSearchResponse
	if err := c.post(ctx, marketSearchPath, req, &resp); err != nil {
		return nil, err
	}

	return normalizeMarketResponse(resp), nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.status, e.body)
}

func isBadRequest(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusBadRequest
}

func (c *Client) post(ctx context.Context, path string, request, dest any) error {
	b, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	const maxErrorBody = 2048

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{status: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	return nil
}

func toEtcOptions(filters []value.OptionFilter) []etcOption {
	if len(filters) == 0 {
		return nil
	}

	out := make([]etcOption, 0, len(filters))
	for _, f := range filters {
		out = append(out, etcOption{
			FirstOption:  f.FirstOption,
			SecondOption: f.SecondOption,
			MinValue:     f.MinValue,
			MaxValue:     f.MaxValue,
		})
	}

	return out
}

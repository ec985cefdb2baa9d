package lostark

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"aucwatch/internal/config"
	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/errcodes"
)

func testClient(baseURL string) *Client {
	return NewClient(config.Lostark{
		BaseURL: baseURL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})
}

func floatPtr(v float64) *float64 { return &v }

func TestSearchAuctions(t *testing.T) {
	var captured auctionSearchRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, auctionSearchPath, r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		require.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"PageNo": 1,
			"PageSize": 10,
			"TotalCount": 1,
			"Items": [{
				"Id": 0,
				"Name": "도약하는 용사의 목걸이",
				"Grade": "유물",
				"Tier": 3,
				"GradeQuality": 92,
				"AuctionInfo": {"StartPrice": 5000, "BuyPrice": 9000, "BidStartPrice": 4500},
				"Options": [{"OptionName": "치명", "Value": 500}]
			}]
		}`))
	}))
	defer server.Close()

	tier := 3
	min := 500.0

	result, err := testClient(server.URL).SearchAuctions(context.Background(), entity.AuctionSearchCriteria{
		ItemName:     "도약하는 용사의 목걸이",
		ItemGrade:    "유물",
		ItemTier:     &tier,
		CategoryCode: value.CategoryCodeAccessory,
		Filters: []value.OptionFilter{
			{FirstOption: value.GroupCombatStat, SecondOption: 15, MinValue: &min, MaxValue: &min},
		},
		PageNo: 1,
	})
	require.NoError(t, err)

	// Request serialization.
	require.Equal(t, "BUY_PRICE", captured.Sort)
	require.Equal(t, "ASC", captured.SortCondition)
	require.Equal(t, value.CategoryCodeAccessory, captured.CategoryCode)
	require.Len(t, captured.EtcOptions, 1)

	// Response normalization.
	require.Equal(t, 1, result.TotalCount)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	require.Equal(t, "도약하는 용사의 목걸이", item.Name)
	require.NotNil(t, item.Quality)
	require.Equal(t, 92, *item.Quality, "GradeQuality maps to Quality")
	require.Equal(t, []value.ItemOption{{Name: "치명", Value: 500}}, item.Options)
	require.NotNil(t, item.Auction)
	require.InDelta(t, 5000, item.Auction.StartPrice, 0)
	require.NotNil(t, item.Auction.BuyPrice)
	require.InDelta(t, 9000, *item.Auction.BuyPrice, 0)
	require.Nil(t, item.Market)
}

func TestSearchAuctionsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).SearchAuctions(context.Background(), entity.AuctionSearchCriteria{
		ItemName: "x",
		PageNo:   1,
	})
	require.True(t, domain.IsCode(err, errcodes.SearchFailed))
}

func TestSearchMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, marketSearchPath, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"PageNo": 1,
			"PageSize": 10,
			"TotalCount": 1,
			"Items": [{
				"Id": 66102005,
				"Name": "파괴석 결정",
				"Grade": "일반",
				"CurrentMinPrice": 12,
				"YDayAvgPrice": 14.5,
				"RecentPrice": 12
			}]
		}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).SearchMarket(context.Background(), entity.MarketSearchCriteria{
		ItemName:     "파괴석 결정",
		CategoryCode: 50000,
		PageNo:       1,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	require.Equal(t, int64(66102005), item.ID)
	require.NotNil(t, item.Market)
	require.Equal(t, floatPtr(12), item.Market.CurrentMinPrice)
	require.Equal(t, floatPtr(14.5), item.Market.YDayAvgPrice)
	require.Nil(t, item.Auction)
}

func TestSearchMarketWildcardFallback(t *testing.T) {
	var requestedCodes []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req marketSearchRequest
		require.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&req))
		requestedCodes = append(requestedCodes, req.CategoryCode)

		switch req.CategoryCode {
		case CategoryCodeWildcard:
			http.Error(w, "CategoryCode is required", http.StatusBadRequest)
		case 50000:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"PageNo":1,"PageSize":10,"TotalCount":1,"Items":[{"Id":1,"Name":"수호석","CurrentMinPrice":3}]}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"PageNo":1,"PageSize":10,"TotalCount":0,"Items":[]}`))
		}
	}))
	defer server.Close()

	result, err := testClient(server.URL).SearchMarket(context.Background(), entity.MarketSearchCriteria{
		ItemName:     "수호석",
		CategoryCode: CategoryCodeWildcard,
		PageNo:       1,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalCount)
	require.Len(t, result.Items, 1)

	// Wildcard first, then the fallback list in order until a hit.
	require.Equal(t, []int{CategoryCodeWildcard, 40000, 50000}, requestedCodes)
}

func TestSearchMarketNon400NoFallback(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).SearchMarket(context.Background(), entity.MarketSearchCriteria{
		ItemName:     "수호석",
		CategoryCode: CategoryCodeWildcard,
		PageNo:       1,
	})
	require.True(t, domain.IsCode(err, errcodes.SearchFailed))
	require.Equal(t, 1, calls, "only a 400 on a wildcard search triggers the fallback")
}

func TestSearchMarketExplicitCategory400NoFallback(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := testClient(server.URL).SearchMarket(context.Background(), entity.MarketSearchCriteria{
		ItemName:     "수호석",
		CategoryCode: 50000,
		PageNo:       1,
	})
	require.True(t, domain.IsCode(err, errcodes.SearchFailed))
	require.Equal(t, 1, calls)
}

func TestIsBadRequestUnwraps(t *testing.T) {
	se := &statusError{status: http.StatusBadRequest, body: "bad request"}

	require.True(t, isBadRequest(se))
	require.True(t, isBadRequest(fmt.Errorf("post %s: %w", marketSearchPath, se)))
	require.False(t, isBadRequest(&statusError{status: http.StatusTooManyRequests}))
	require.False(t, isBadRequest(errors.New("bad request")))
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rxtech-lab/dca-executor/internal/constants"
	"github.com/rxtech-lab/dca-executor/internal/errors"
	"golang.org/x/sync/singleflight"
)

// PriceService resolves a supported token's USD price from the Coinranking
// API. Results are cached per token address for a short TTL and concurrent
// lookups for the same address share one upstream request.
type PriceService interface {
	GetPriceUsd(ctx context.Context, tokenAddress string) (float64, error)
}

type priceEntry struct {
	price     float64
	fetchedAt time.Time
}

type priceService struct {
	client  *http.Client
	apiBase string
	apiKey  string
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]priceEntry
	group singleflight.Group
}

// NewPriceService creates a new PriceService with the given API base URL,
// access key and cache TTL.
func NewPriceService(apiBase, apiKey string, ttl time.Duration) PriceService {
	return NewPriceServiceWithClock(apiBase, apiKey, ttl, &http.Client{Timeout: 10 * time.Second}, time.Now)
}

// NewPriceServiceWithClock is NewPriceService with an injectable HTTP client
// and clock so that TTL behavior is deterministic under test.
func NewPriceServiceWithClock(apiBase, apiKey string, ttl time.Duration, client *http.Client, now func() time.Time) PriceService {
	return &priceService{
		client:  client,
		apiBase: apiBase,
		apiKey:  apiKey,
		ttl:     ttl,
		now:     now,
		cache:   make(map[string]priceEntry),
	}
}

// coinrankingPriceResponse is the expected success shape. The price arrives
// as a decimal string; anything else is a schema violation.
type coinrankingPriceResponse struct {
	Data struct {
		Price *string `json:"price"`
	} `json:"data"`
}

func (s *priceService) GetPriceUsd(ctx context.Context, tokenAddress string) (float64, error) {
	if !common.IsHexAddress(tokenAddress) {
		return 0, errors.Newf(errors.KindUnsupportedAsset, "invalid token address %s", tokenAddress)
	}
	key := common.HexToAddress(tokenAddress).Hex()

	coinID, ok := constants.CoinrankingIDByToken[key]
	if !ok {
		return 0, errors.Newf(errors.KindUnsupportedAsset, "no price mapping for token %s", key)
	}

	if price, ok := s.cachedPrice(key); ok {
		return price, nil
	}

	// Collapse concurrent misses for the same token into one upstream call.
	value, err, _ := s.group.Do(key, func() (any, error) {
		if price, ok := s.cachedPrice(key); ok {
			return price, nil
		}

		price, err := s.fetchPrice(ctx, coinID)
		if err != nil {
			return 0, err
		}

		s.mu.Lock()
		s.cache[key] = priceEntry{price: price, fetchedAt: s.now()}
		s.mu.Unlock()

		return price, nil
	})
	if err != nil {
		return 0, err
	}
	return value.(float64), nil
}

// cachedPrice returns the cached price for key if it is still within TTL.
// Expiry is purely time based; entries never outlive the TTL on a hit.
func (s *priceService) cachedPrice(key string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return 0, false
	}
	if s.now().Sub(entry.fetchedAt) >= s.ttl {
		delete(s.cache, key)
		return 0, false
	}
	return entry.price, true
}

func (s *priceService) fetchPrice(ctx context.Context, coinID string) (float64, error) {
	requestURL := fmt.Sprintf("%s/v2/coin/%s/price", s.apiBase, coinID)
	query := url.Values{}
	query.Add("blockchains[]", "base")
	query.Add("tags[]", "meme")
	requestURL += "?" + query.Encode()

	// The access token travels in a header so the logged URL stays free of secrets.
	slog.Info("fetching asset price from Coinranking", "url", requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, errors.Wrap(errors.KindPriceFetch, "failed to build price request", err)
	}
	req.Header.Set("x-access-token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(errors.KindPriceFetch, "price request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errors.Newf(errors.KindPriceFetch, "price api returned status %d", resp.StatusCode)
	}

	var body coinrankingPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, errors.Wrap(errors.KindPriceFetch, "failed to decode price response", err)
	}
	if body.Data.Price == nil {
		return 0, errors.New(errors.KindPriceFetch, "invalid price response: missing data.price")
	}

	price, err := strconv.ParseFloat(*body.Data.Price, 64)
	if err != nil {
		return 0, errors.Wrap(errors.KindPriceFetch, fmt.Sprintf("invalid price value %q", *body.Data.Price), err)
	}
	return price, nil
}

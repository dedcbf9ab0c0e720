package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sierra-outfitters/sierra-agent/internal/version"
)

const (
	defaultEmbeddingModel  = "text-embedding-3-small"
	defaultEmbeddingAPIURL = "https://api.openai.com/v1/embeddings"
	defaultThreshold       = 0.3

	embeddingCachePrefix = "embeddingcache"
	embeddingCacheTTL    = 7 * 24 * time.Hour

	embedMaxRetries = 3
	embedRetryDelay = 1 * time.Second
)

// Search ranks catalog products for a free-text query. Implementations must
// treat a failure as recoverable: the caller falls back to keyword matching
// and the conversation turn never fails because of search.
type Search interface {
	Search(ctx context.Context, query string, topK int) ([]Product, error)
}

// SearchConfig configures the semantic search backend.
type SearchConfig struct {
	APIKey         string
	APIURL         string
	EmbeddingModel string
	Threshold      float64
	RedisAddr      string
}

// NewSearch selects the search strategy once at startup: semantic search if
// the embedding backend can be constructed, keyword matching otherwise. The
// choice is fixed for the session.
func NewSearch(cfg SearchConfig, catalog []Product) Search {
	sem, err := NewSemanticSearch(cfg, catalog)
	if err != nil {
		log.Printf("semantic search unavailable (%v), using keyword search", err)
		return NewKeywordSearch(catalog)
	}
	log.Println("semantic product search enabled")
	return sem
}

// KeywordSearch matches query terms against product text fields.
type KeywordSearch struct {
	catalog []Product
}

var _ Search = (*KeywordSearch)(nil)

func NewKeywordSearch(catalog []Product) *KeywordSearch {
	return &KeywordSearch{catalog: catalog}
}

// Search returns up to topK products containing any query term. A zero-match
// or empty query returns nil so the caller applies its catalog fallback.
func (k *KeywordSearch) Search(_ context.Context, query string, topK int) ([]Product, error) {
	terms := strings.Fields(strings.TrimSpace(query))
	var matches []Product
	for i := range k.catalog {
		if k.catalog[i].MatchesTerms(terms) {
			matches = append(matches, k.catalog[i])
		}
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// SemanticSearch ranks products by cosine similarity between the query
// embedding and each product's embedding. Embeddings come from the OpenAI
// embeddings endpoint; an optional Redis cache avoids re-embedding the same
// text across restarts. Catalog embeddings are computed once, on first use.
type SemanticSearch struct {
	catalog    []Product
	apiKey     string
	apiURL     string
	model      string
	threshold  float64
	httpClient *http.Client
	rdb        *redis.Client

	embedOnce  sync.Once
	embedErr   error
	embeddings [][]float32
}

var _ Search = (*SemanticSearch)(nil)

// NewSemanticSearch builds the semantic backend. It fails when no API key is
// configured; a missing or unreachable Redis only disables the cache.
func NewSemanticSearch(cfg SearchConfig, catalog []Product) (*SemanticSearch, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("no embedding API key configured")
	}
	s := &SemanticSearch{
		catalog:    catalog,
		apiKey:     cfg.APIKey,
		apiURL:     cfg.APIURL,
		model:      cfg.EmbeddingModel,
		threshold:  cfg.Threshold,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if s.apiURL == "" {
		s.apiURL = defaultEmbeddingAPIURL
	}
	if s.model == "" {
		s.model = defaultEmbeddingModel
	}
	if s.threshold == 0 {
		s.threshold = defaultThreshold
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable at %s, embedding cache disabled: %v", cfg.RedisAddr, err)
		} else {
			s.rdb = rdb
		}
	}
	return s, nil
}

// Search embeds the query and ranks the catalog by cosine similarity,
// returning up to topK products above the similarity threshold.
func (s *SemanticSearch) Search(ctx context.Context, query string, topK int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if err := s.ensureCatalogEmbeddings(ctx); err != nil {
		return nil, err
	}
	queryVec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(s.catalog))
	for i := range s.catalog {
		ranked = append(ranked, scored{idx: i, score: cosineSimilarity(queryVec, s.embeddings[i])})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	var results []Product
	for _, r := range ranked {
		if r.score < s.threshold || len(results) >= topK {
			break
		}
		results = append(results, s.catalog[r.idx])
	}
	return results, nil
}

// ensureCatalogEmbeddings computes every product embedding exactly once.
func (s *SemanticSearch) ensureCatalogEmbeddings(ctx context.Context) error {
	s.embedOnce.Do(func() {
		s.embeddings = make([][]float32, len(s.catalog))
		for i := range s.catalog {
			vec, err := s.embed(ctx, s.catalog[i].EmbeddingText())
			if err != nil {
				s.embedErr = fmt.Errorf("embedding catalog item %s: %w", s.catalog[i].SKU, err)
				return
			}
			s.embeddings[i] = vec
		}
	})
	return s.embedErr
}

// embed returns the embedding vector for a text, consulting the Redis cache
// first. Cache keys are versioned so catalog or prompt-logic changes
// invalidate stale vectors.
func (s *SemanticSearch) embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey := version.VersionedCacheKey(embeddingCachePrefix, s.model+"::"+text)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var vec []float32
			if json.Unmarshal(cached, &vec) == nil {
				return vec, nil
			}
		} else if err != redis.Nil {
			log.Printf("redis GET failed for embedding cache: %v", err)
		}
	}

	vec, err := s.fetchEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(vec); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, raw, embeddingCacheTTL).Err(); err != nil {
				log.Printf("redis SET failed for embedding cache: %v", err)
			}
		}
	}
	return vec, nil
}

// fetchEmbedding calls the embeddings endpoint with retry and backoff.
func (s *SemanticSearch) fetchEmbedding(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}{Input: text, Model: s.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	var lastErr error
	delay := embedRetryDelay
	for attempt := 1; attempt <= embedMaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("embedding request failed (attempt %d/%d): %w", attempt, embedMaxRetries, err)
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read embedding response: %w", readErr)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("embedding API status %d: %s", resp.StatusCode, string(body))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, lastErr
			}
			continue
		}

		var wire struct {
			Data []struct {
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding response: %w", err)
		}
		if len(wire.Data) == 0 {
			return nil, errors.New("no embedding data returned")
		}
		return wire.Data[0].Embedding, nil
	}
	return nil, lastErr
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package product

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mall-be/internal/category"
	"mall-be/internal/logger"

	"go.uber.org/zap"
)

// LoadResult summarizes one feed import.
type LoadResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Loader imports the catalog feed. Product photos are not fetched.
type Loader struct {
	Categories category.Service
	Products   Repository
	HTTPClient *http.Client
}

func NewLoader(categories category.Service, products Repository) *Loader {
	return &Loader{
		Categories: categories,
		Products:   products,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *Loader) Load(ctx context.Context, url string) (*LoadResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "loader"),
		zap.String("method", "Load"),
		zap.String("url", url),
	)

	items, err := l.fetch(ctx, url)
	if err != nil {
		log.Error("failed to fetch product feed", zap.Error(err))
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyFeed
	}

	res := &LoadResult{Total: len(items)}
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			res.Skipped++
			continue
		}
		if item.Price < 0 {
			log.Warn("skipping product with negative price",
				zap.String("name", name),
				zap.Int64("price", item.Price),
			)
			res.Skipped++
			continue
		}

		c, err := l.Categories.GetOrCreate(ctx, item.CategoryName)
		if err != nil {
			return res, fmt.Errorf("category %q: %w", item.CategoryName, err)
		}

		_, created, err := l.Products.GetOrCreate(ctx, &Product{
			CategoryID:  c.ID,
			Name:        name,
			Description: item.Desc,
			Price:       item.Price,
			Status:      StatusActive,
		})
		if err != nil {
			return res, fmt.Errorf("product %q: %w", name, err)
		}
		if created {
			res.Created++
		}
	}

	log.Info("product feed loaded",
		zap.Int("total", res.Total),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]SeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected feed status %d: %s", resp.StatusCode, body)
	}

	var items []SeedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode product feed: %w", err)
	}
	return items, nil
}

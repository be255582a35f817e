package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// Index keeps a full-text copy of the catalog
type Index interface {
	IndexProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// Search returns matching product ids, best match first
	Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
}

type document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Sizes       []string `json:"sizes"`
}

type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewClient connects to Elasticsearch and checks it answers
func NewClient(cfg config.SearchConfig) (*elasticsearch.Client, error) {
	logger.Info("Connecting to Elasticsearch", map[string]interface{}{
		"url": cfg.URL,
	})

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}

	logger.Info("Connected to Elasticsearch")
	return client, nil
}

func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	return &ElasticIndex{client: client, index: index}
}

func (e *ElasticIndex) IndexProduct(ctx context.Context, product *model.Product) error {
	doc := document{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		Sizes:       product.Sizes,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("elasticsearch: encode product: %w", err)
	}

	res, err := e.client.Index(
		e.index,
		&buf,
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch: index product: %s", res.Status())
	}
	return nil
}

func (e *ElasticIndex) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := e.client.Delete(e.index, id.String(), e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: delete product: %w", err)
	}
	defer res.Body.Close()
	// Already gone is fine
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch: delete product: %s", res.Status())
	}
	return nil
}

func (e *ElasticIndex) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"size":    limit,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("elasticsearch: decode response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

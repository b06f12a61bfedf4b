package fakestore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/integrations"
	"github.com/matzehuels/stackquery/pkg/query"
)

// DefaultBaseURL is the public demo catalog.
const DefaultBaseURL = "https://fakestoreapi.com"

// DefaultCategory is listed when no category is given. The spelling is the
// catalog's own.
const DefaultCategory = "jewelery"

// Resource is the query key resource for category listings.
const Resource = "fakestore.products"

// Client fetches product listings from the catalog API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a catalog client. An empty baseURL selects
// [DefaultBaseURL].
func NewClient(baseURL string, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(nil, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Product is one catalog item.
type Product struct {
	ID          int     `json:"id" msgpack:"id"`
	Title       string  `json:"title" msgpack:"title"`
	Price       float64 `json:"price" msgpack:"price"`
	Description string  `json:"description" msgpack:"description"`
	Category    string  `json:"category" msgpack:"category"`
	Image       string  `json:"image" msgpack:"image"`
}

// Category lists the products in category.
func (c *Client) Category(ctx context.Context, category string) ([]Product, error) {
	if err := errors.ValidateCategory(category); err != nil {
		return nil, err
	}
	var products []Product
	u := fmt.Sprintf("%s/products/category/%s", c.baseURL, url.PathEscape(category))
	if err := c.Get(ctx, u, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Products lists the whole catalog.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.Get(ctx, c.baseURL+"/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CategoryKey returns the query key for a category listing.
func CategoryKey(category string) query.Key {
	return query.NewKey(Resource, category)
}

// CategoryQuery returns the query for category. It uses the cache's
// default stale time, so every query revalidates unless configured
// otherwise.
func (c *Client) CategoryQuery(category string) query.Definition {
	if category == "" {
		category = DefaultCategory
	}
	return query.Definition{
		Key: CategoryKey(category),
		Fetch: func(ctx context.Context) (any, error) {
			return c.Category(ctx, category)
		},
		Options: query.Options{Decode: query.DecodeMsgpack[[]Product]()},
	}
}

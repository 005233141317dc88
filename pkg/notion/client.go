// Package notion wraps the Notion API used to read and publish the question
// catalog database.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultRateLimit is Notion's documented average request rate.
const DefaultRateLimit = 3.0

// Client defines the Notion API operations used by the catalog loader and
// publisher.
type Client interface {
	GetDatabase(ctx context.Context, dbID string) (*notionapi.Database, error)
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*catalogClient)

// WithRateLimit overrides DefaultRateLimit. rps <= 0 disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *catalogClient) {
		c.limiter = nil
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// catalogClient implements Client on top of *notionapi.Client. Every call
// waits on the shared limiter first.
type catalogClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
}

// NewClient creates a Notion client for the given integration token.
func NewClient(token string, opts ...ClientOption) Client {
	c := &catalogClient{
		api:     notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call throttles fn and wraps its error with op.
func call[T any](ctx context.Context, c *catalogClient, op string, fn func() (T, error)) (T, error) {
	var zero T
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, eris.Wrap(err, "notion: rate limit")
		}
	}
	v, err := fn()
	if err != nil {
		return zero, eris.Wrap(err, "notion: "+op)
	}
	return v, nil
}

func (c *catalogClient) GetDatabase(ctx context.Context, dbID string) (*notionapi.Database, error) {
	return call(ctx, c, "get database "+dbID, func() (*notionapi.Database, error) {
		return c.api.Database.Get(ctx, notionapi.DatabaseID(dbID))
	})
}

func (c *catalogClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return call(ctx, c, "query database "+dbID, func() (*notionapi.DatabaseQueryResponse, error) {
		return c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	})
}

func (c *catalogClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return call(ctx, c, "create page", func() (*notionapi.Page, error) {
		return c.api.Page.Create(ctx, req)
	})
}

func (c *catalogClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return call(ctx, c, "update page "+pageID, func() (*notionapi.Page, error) {
		return c.api.Page.Update(ctx, notionapi.PageID(pageID), req)
	})
}

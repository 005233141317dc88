package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetDatabase(ctx context.Context, dbID string) (*notionapi.Database, error) {
	args := m.Called(ctx, dbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Database), args.Error(1)
}

func (m *MockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *MockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *MockClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func TestMockClientSatisfiesInterface(t *testing.T) {
	t.Parallel()
	var _ Client = (*MockClient)(nil)
}

func TestNewClientReturnsClient(t *testing.T) {
	c := NewClient("test-token")
	assert.NotNil(t, c)
}

func TestNewClient_RateLimit(t *testing.T) {
	tests := []struct {
		name      string
		opts      []ClientOption
		wantLimit float64
		wantBurst int
	}{
		{"default", nil, DefaultRateLimit, 1},
		{"custom", []ClientOption{WithRateLimit(10)}, 10, 10},
		{"fractional", []ClientOption{WithRateLimit(0.5)}, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("test-token", tt.opts...).(*catalogClient)
			require.NotNil(t, c.limiter)
			assert.InDelta(t, tt.wantLimit, float64(c.limiter.Limit()), 0.001)
			assert.Equal(t, tt.wantBurst, c.limiter.Burst())
		})
	}

	unlimited := NewClient("test-token", WithRateLimit(0)).(*catalogClient)
	assert.Nil(t, unlimited.limiter)
}

func TestClient_CancelledContextStopsAtLimiter(t *testing.T) {
	c := NewClient("test-token")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetDatabase(ctx, "db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: rate limit")

	_, err = c.QueryDatabase(ctx, "db", &notionapi.DatabaseQueryRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: rate limit")

	_, err = c.CreatePage(ctx, &notionapi.PageCreateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: rate limit")

	_, err = c.UpdatePage(ctx, "page", &notionapi.PageUpdateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: rate limit")
}

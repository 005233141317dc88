package registry

import (
	"context"
	"slices"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"
)

// mockNotionClient records Notion calls made by the loader and publisher.
type mockNotionClient struct {
	mock.Mock
}

func (m *mockNotionClient) GetDatabase(ctx context.Context, dbID string) (*notionapi.Database, error) {
	args := m.Called(ctx, dbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Database), args.Error(1)
}

func (m *mockNotionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *mockNotionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *mockNotionClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

// questionDatabase returns a database carrying every publisher property
// except those named in missing.
func questionDatabase(missing ...string) *notionapi.Database {
	props := notionapi.PropertyConfigs{}
	for _, name := range requiredProps {
		if !slices.Contains(missing, name) {
			props[name] = &notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText}
		}
	}
	return &notionapi.Database{Properties: props}
}

package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessment-cli/internal/config"
	"github.com/sells-group/assessment-cli/internal/model"
)

func TestLoad_Embedded(t *testing.T) {
	questions, err := Load(context.Background(), config.CatalogConfig{Source: config.CatalogEmbedded}, config.NotionConfig{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, questions)
}

func TestLoad_MaxPriority(t *testing.T) {
	all, err := Load(context.Background(), config.CatalogConfig{Source: config.CatalogEmbedded}, config.NotionConfig{}, nil)
	require.NoError(t, err)

	p0, err := Load(context.Background(), config.CatalogConfig{Source: config.CatalogEmbedded, MaxPriority: "P0"}, config.NotionConfig{}, nil)
	require.NoError(t, err)
	assert.Less(t, len(p0), len(all))
	for _, q := range p0 {
		assert.Equal(t, "P0", q.Priority)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: Q_A
  text: {en: A?}
  type: free_text
  active: true
`), 0o644))

	questions, err := Load(context.Background(), config.CatalogConfig{Source: config.CatalogFile, Path: path}, config.NotionConfig{}, nil)
	require.NoError(t, err)
	require.Len(t, questions, 1)
}

func TestLoad_Notion(t *testing.T) {
	mc := new(mockNotionClient)
	ctx := context.Background()
	mc.On("QueryDatabase", ctx, "q-db", mock.Anything).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{makeQuestionPage("p1", "Q_A", "A?", "single_choice", 1, []string{"yes"}, nil, nil)},
		}, nil).Once()

	questions, err := Load(ctx, config.CatalogConfig{Source: config.CatalogNotion}, config.NotionConfig{QuestionDB: "q-db"}, mc)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	mc.AssertExpectations(t)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, config.CatalogConfig{Source: config.CatalogNotion}, config.NotionConfig{}, nil)
	assert.Error(t, err)

	_, err = Load(ctx, config.CatalogConfig{Source: "ftp"}, config.NotionConfig{}, nil)
	assert.Error(t, err)

	_, err = Load(ctx, config.CatalogConfig{Source: config.CatalogFile, Path: "/missing.json"}, config.NotionConfig{}, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	lo, hi := 10.0, 1.0
	text := map[string]string{"en": "?"}

	tests := []struct {
		name    string
		q       []model.Question
		wantErr string
	}{
		{"ok", []model.Question{{ID: "a", Type: model.QuestionNumeric, Text: text}}, ""},
		{"empty id", []model.Question{{Type: model.QuestionNumeric, Text: text}}, "empty id"},
		{"duplicate", []model.Question{{ID: "a", Type: model.QuestionNumeric, Text: text}, {ID: "a", Type: model.QuestionNumeric, Text: text}}, "duplicate"},
		{"choice without options", []model.Question{{ID: "a", Type: model.QuestionSingleChoice, Text: text}}, "without options"},
		{"unknown type", []model.Question{{ID: "a", Type: "matrix", Text: text}}, "unknown type"},
		{"bounds", []model.Question{{ID: "a", Type: model.QuestionNumeric, Text: text, Validation: model.Validation{Min: &lo, Max: &hi}}}, "min above max"},
		{"no text", []model.Question{{ID: "a", Type: model.QuestionNumeric}}, "no text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.q)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

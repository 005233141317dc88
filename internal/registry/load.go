package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/config"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/pkg/notion"
)

// Load reads the question catalog from the configured source, applies the
// priority filter and validates the result. client is only used for the
// notion source and may be nil otherwise.
func Load(ctx context.Context, cfg config.CatalogConfig, notionCfg config.NotionConfig, client notion.Client) ([]model.Question, error) {
	var (
		questions []model.Question
		err       error
	)

	switch cfg.Source {
	case config.CatalogEmbedded, "":
		questions, err = DefaultQuestions()
	case config.CatalogFile:
		questions, err = LoadQuestionsFromFile(cfg.Path)
	case config.CatalogNotion:
		if client == nil {
			return nil, eris.New("registry: notion source requires a client")
		}
		questions, err = LoadQuestionRegistry(ctx, client, notionCfg.QuestionDB)
	default:
		return nil, eris.Errorf("registry: unknown catalog source %q", cfg.Source)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxPriority != "" {
		questions = model.FilterByMaxPriority(questions, cfg.MaxPriority)
	}

	if err := Validate(questions); err != nil {
		return nil, err
	}

	zap.L().Info("registry: catalog loaded",
		zap.String("source", cfg.Source),
		zap.Int("questions", len(questions)),
	)
	return questions, nil
}

// Validate checks catalog integrity: unique IDs, known types, choice
// questions with options and sane numeric bounds.
func Validate(questions []model.Question) error {
	var errs []string
	seen := make(map[string]struct{}, len(questions))

	for _, q := range questions {
		if q.ID == "" {
			errs = append(errs, "question with empty id")
			continue
		}
		if _, dup := seen[q.ID]; dup {
			errs = append(errs, fmt.Sprintf("%s: duplicate id", q.ID))
		}
		seen[q.ID] = struct{}{}

		switch q.Type {
		case model.QuestionSingleChoice, model.QuestionMultiChoice:
			if len(q.Options) == 0 {
				errs = append(errs, fmt.Sprintf("%s: choice question without options", q.ID))
			}
		case model.QuestionNumeric, model.QuestionScale, model.QuestionFreeText:
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown type %q", q.ID, q.Type))
		}

		v := q.Validation
		if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			errs = append(errs, fmt.Sprintf("%s: min above max", q.ID))
		}
		if len(q.Text) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no text", q.ID))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("registry: invalid catalog: %s", strings.Join(errs, "; "))
	}
	return nil
}

package registry

import (
	_ "embed"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/model"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// DefaultQuestions returns the built-in question catalog.
func DefaultQuestions() ([]model.Question, error) {
	questions, err := decodeYAMLQuestions(defaultCatalog)
	if err != nil {
		return nil, eris.Wrap(err, "registry: decode default catalog")
	}
	return questions, nil
}

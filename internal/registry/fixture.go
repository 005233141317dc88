package registry

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/assessment-cli/internal/model"
)

// questionFile is the document form of a question file. A bare list of
// questions is accepted as well.
type questionFile struct {
	Questions []model.Question `json:"questions" yaml:"questions"`
}

// LoadQuestionsFromFile reads questions from path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as JSON.
func LoadQuestionsFromFile(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read questions file")
	}

	var questions []model.Question
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		questions, err = decodeYAMLQuestions(data)
	default:
		questions, err = decodeJSONQuestions(data)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "registry: decode questions file %s", path)
	}
	if len(questions) == 0 {
		return nil, eris.Errorf("registry: questions file %s is empty", path)
	}
	return questions, nil
}

func decodeJSONQuestions(data []byte) ([]model.Question, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var doc questionFile
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Questions, nil
	}
	var questions []model.Question
	if err := json.Unmarshal(trimmed, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func decodeYAMLQuestions(data []byte) ([]model.Question, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	node := root.Content[0]
	if node.Kind == yaml.MappingNode {
		var doc questionFile
		if err := node.Decode(&doc); err != nil {
			return nil, err
		}
		return doc.Questions, nil
	}
	var questions []model.Question
	if err := node.Decode(&questions); err != nil {
		return nil, err
	}
	return questions, nil
}

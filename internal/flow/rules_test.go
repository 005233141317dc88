package flow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessment-cli/internal/model"
)

func TestPredicate_Match(t *testing.T) {
	t.Parallel()

	answers := model.AnswerSet{
		"str":  "Declining",
		"num":  65.0,
		"text": "70",
		"skip": nil,
		"list": []any{"facebook"},
		"none": []any{},
	}

	tests := []struct {
		name string
		p    Predicate
		id   string
		want bool
	}{
		{"equals case-insensitive", Equals("declining"), "str", true},
		{"equals mismatch", Equals("growing"), "str", false},
		{"one of", OneOf("stable", "declining"), "str", true},
		{"one of miss", OneOf("stable", "growing"), "str", false},
		{"greater than", GreaterThan(50), "num", true},
		{"greater than boundary", GreaterThan(65), "num", false},
		{"greater than string number", GreaterThan(50), "text", true},
		{"greater than non-number", GreaterThan(0), "str", false},
		{"less than", LessThan(70), "num", true},
		{"less than boundary", LessThan(65), "num", false},
		{"present string", Present(), "str", true},
		{"present list", Present(), "list", true},
		{"present empty list", Present(), "none", false},
		{"present missing", Present(), "missing", false},
		{"missing", Equals("no"), "missing", false},
		{"skipped", Equals("no"), "skip", false},
		{"empty predicate", Predicate{}, "str", false},
		{"combined", Predicate{OneOf: []string{"70"}, GreaterThan: ptr(60)}, "text", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Match(answers, tt.id))
		})
	}
}

func ptr(f float64) *float64 { return &f }

func TestDefaultRules_Valid(t *testing.T) {
	t.Parallel()
	r := DefaultRules()
	require.NoError(t, r.Validate())
	assert.Len(t, r.Branches, 3)
	assert.Len(t, r.DeepDives, 3)

	e := NewEngine(r)
	assert.True(t, e.Excluded("Services", "inventory"))
	assert.True(t, e.Excluded("technology", "Inventory"))
	assert.False(t, e.Excluded("retail", "inventory"))
	assert.False(t, e.Excluded("services", "finance"))
}

func TestLoadRules(t *testing.T) {
	content := `
branches:
  - question_id: Q_A
    when: {equals: "no"}
    target: Q_C
deep_dives:
  - question_id: Q_B
    when: {greater_than: 10}
    follow_up: Q_B_DD
sector_exclusions:
  - sector: services
    categories: [inventory, logistics]
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, r.Branches, 1)
	assert.Equal(t, "Q_C", r.Branches[0].Target)
	assert.Equal(t, "no", r.Branches[0].When.Equals)
	require.Len(t, r.DeepDives, 1)
	require.NotNil(t, r.DeepDives[0].When.GreaterThan)
	assert.Equal(t, 10.0, *r.DeepDives[0].When.GreaterThan)
	assert.Equal(t, []string{"inventory", "logistics"}, r.SectorExclusions[0].Categories)
}

func TestLoadRules_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("branches: [unclosed"), 0o644))
	_, err = LoadRules(bad)
	assert.Error(t, err)

	incomplete := filepath.Join(dir, "incomplete.yaml")
	require.NoError(t, os.WriteFile(incomplete, []byte("branches:\n  - question_id: Q_A\n    target: Q_B\n"), 0o644))
	_, err = LoadRules(incomplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "branch #0 is incomplete")
}

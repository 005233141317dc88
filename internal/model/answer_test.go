package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestAnswerSet_Accessors(t *testing.T) {
	t.Parallel()

	set := AnswerSet{
		"yes_q":   "Yes",
		"no_q":    "no",
		"bool_q":  true,
		"num_q":   "1,250",
		"float_q": 42.5,
		"list_q":  []any{"facebook", "instagram"},
		"one_q":   "linkedin",
		"skip_q":  nil,
	}

	assert.True(t, set.YesNo("yes_q"))
	assert.False(t, set.YesNo("no_q"))
	assert.True(t, set.YesNo("bool_q"))
	assert.False(t, set.YesNo("missing"))
	assert.False(t, set.YesNo("skip_q"))

	assert.Equal(t, 1250.0, set.Float("num_q", 0))
	assert.Equal(t, 42.5, set.Float("float_q", 0))
	assert.Equal(t, -1.0, set.Float("missing", -1))
	assert.Equal(t, 7.0, set.Float("yes_q", 7))

	assert.Equal(t, []string{"facebook", "instagram"}, set.List("list_q"))
	assert.Equal(t, []string{"linkedin"}, set.List("one_q"))
	assert.Nil(t, set.List("missing"))

	assert.Equal(t, "stable", set.String("missing", "stable"))
	assert.True(t, set.Has("skip_q"))
	assert.False(t, set.Has("missing"))
}

func TestNewAnswerSet_SkippedIsNil(t *testing.T) {
	t.Parallel()

	set := NewAnswerSet([]Answer{
		{QuestionID: "a", Value: "yes"},
		{QuestionID: "b", Value: "ignored", Skipped: true},
		{QuestionID: "c", Value: " 12 ", Normalized: 12.0},
	})
	assert.Equal(t, "yes", set["a"])
	assert.Equal(t, 12.0, set["c"])
	v, ok := set["b"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	choice := Question{ID: "c", Type: QuestionSingleChoice, Options: []Option{{Value: "yes"}, {Value: "no"}}}
	multi := Question{ID: "m", Type: QuestionMultiChoice, Options: []Option{{Value: "a"}, {Value: "b"}, {Value: "c"}}, Validation: Validation{MaxSelections: 2}}
	num := Question{ID: "n", Type: QuestionNumeric, Validation: Validation{Min: ptr(0), Max: ptr(100)}}
	text := Question{ID: "t", Type: QuestionFreeText, Validation: Validation{MaxLength: 5}}

	tests := []struct {
		name    string
		q       Question
		raw     any
		want    any
		wantErr bool
	}{
		{"choice ok", choice, " yes ", "yes", false},
		{"choice unknown", choice, "maybe", nil, true},
		{"choice wrong type", choice, 3, nil, true},
		{"multi ok", multi, []any{"a", "b"}, []string{"a", "b"}, false},
		{"multi scalar", multi, "c", []string{"c"}, false},
		{"multi too many", multi, []string{"a", "b", "c"}, nil, true},
		{"multi unknown", multi, []string{"z"}, nil, true},
		{"multi non-string", multi, []any{1}, nil, true},
		{"numeric string", num, "42", 42.0, false},
		{"numeric below", num, -1, nil, true},
		{"numeric above", num, 101.0, nil, true},
		{"numeric garbage", num, "lots", nil, true},
		{"numeric NaN string", Question{ID: "n", Type: QuestionNumeric}, "NaN", nil, true},
		{"numeric Inf string", Question{ID: "n", Type: QuestionNumeric}, "Inf", nil, true},
		{"numeric -Inf float", Question{ID: "n", Type: QuestionScale}, math.Inf(-1), nil, true},
		{"numeric overflow", Question{ID: "n", Type: QuestionNumeric}, "1e999", nil, true},
		{"text ok", text, "hello", "hello", false},
		{"text too long", text, "hello!", nil, true},
		{"nil value", choice, nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeValue(tt.q, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAnswer))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

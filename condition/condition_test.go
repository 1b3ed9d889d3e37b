package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pStyl3/libloot/metadata"
)

// countingEvaluator answers from a fixed table and counts invocations.
type countingEvaluator struct {
	results map[string]bool
	err     error
	calls   int
}

func (e *countingEvaluator) Evaluate(condition string) (bool, error) {
	e.calls++
	if e.err != nil {
		return false, e.err
	}
	return e.results[condition], nil
}

func TestCacheEvaluate(t *testing.T) {
	t.Run("empty condition is true without consulting the evaluator", func(t *testing.T) {
		evaluator := &countingEvaluator{}
		cache := NewCache(evaluator)
		ok, err := cache.Evaluate("")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, evaluator.calls)
	})

	t.Run("results are cached per condition string", func(t *testing.T) {
		evaluator := &countingEvaluator{results: map[string]bool{`file("A.esp")`: true}}
		cache := NewCache(evaluator)

		for i := 0; i < 3; i++ {
			ok, err := cache.Evaluate(`file("A.esp")`)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		assert.Equal(t, 1, evaluator.calls)

		cache.Clear()
		_, err := cache.Evaluate(`file("A.esp")`)
		require.NoError(t, err)
		assert.Equal(t, 2, evaluator.calls)
	})

	t.Run("evaluator failure is a condition syntax error", func(t *testing.T) {
		evaluator := &countingEvaluator{err: errors.New("unexpected token")}
		cache := NewCache(evaluator)
		_, err := cache.Evaluate("not a condition")
		require.Error(t, err)
		assert.True(t, metadata.IsCode(err, metadata.ErrorCodeConditionSyntax))
	})

	t.Run("nil evaluator treats conditions as satisfied", func(t *testing.T) {
		cache := NewCache(nil)
		ok, err := cache.Evaluate("anything")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCacheFilterPluginMetadata(t *testing.T) {
	evaluator := &countingEvaluator{results: map[string]bool{"keep": true}}
	cache := NewCache(evaluator)

	m, err := metadata.NewPluginMetadata("Blank.esp")
	require.NoError(t, err)
	m.SetLoadAfterFiles([]metadata.File{
		{Name: "Kept.esp", Condition: "keep"},
		{Name: "Dropped.esp", Condition: "drop"},
		{Name: "Unconditional.esp"},
	})
	m.SetMessages([]metadata.Message{
		{Type: metadata.MessageTypeSay, Condition: "drop"},
		{Type: metadata.MessageTypeWarn},
	})
	m.SetTags([]metadata.Tag{
		{Name: "Delev", Addition: true, Condition: "keep"},
		{Name: "Relev", Addition: true, Condition: "drop"},
	})

	filtered, err := cache.FilterPluginMetadata(m)
	require.NoError(t, err)

	files := filtered.LoadAfterFiles()
	require.Len(t, files, 2)
	assert.Equal(t, "Kept.esp", files[0].Name)
	assert.Equal(t, "Unconditional.esp", files[1].Name)

	messages := filtered.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, metadata.MessageTypeWarn, messages[0].Type)

	tags := filtered.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, "Delev", tags[0].Name)

	// The original metadata is untouched.
	assert.Len(t, m.LoadAfterFiles(), 3)
}

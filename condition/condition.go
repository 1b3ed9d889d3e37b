// Package condition connects the sorting core to the external condition
// evaluator. The core knows nothing about condition grammar; it only needs
// a boolean per condition string, cached for the duration of one sort.
package condition

import (
	"fmt"

	"github.com/pStyl3/libloot/metadata"
)

// Evaluator is the condition oracle supplied by the caller.
type Evaluator interface {
	// Evaluate resolves a single condition string to a boolean. A
	// malformed condition is an error.
	Evaluate(condition string) (bool, error)
}

// AlwaysTrue is an Evaluator that treats every condition as satisfied.
// It is the default when the caller supplies no evaluator.
type AlwaysTrue struct{}

// Evaluate implements Evaluator.
func (AlwaysTrue) Evaluate(string) (bool, error) { return true, nil }

// Cache wraps an Evaluator and memoises its results keyed by the condition
// string. A Cache belongs to one sort context; Clear resets it at the
// start of each sort.
type Cache struct {
	evaluator Evaluator
	results   map[string]bool
}

// NewCache creates a cache around the given evaluator. A nil evaluator
// behaves as AlwaysTrue.
func NewCache(evaluator Evaluator) *Cache {
	if evaluator == nil {
		evaluator = AlwaysTrue{}
	}
	return &Cache{
		evaluator: evaluator,
		results:   make(map[string]bool),
	}
}

// Clear drops all cached results.
func (c *Cache) Clear() {
	c.results = make(map[string]bool)
}

// Evaluate resolves a condition, consulting the cache first. The empty
// condition is always true. Evaluator failures surface as
// CONDITION_SYNTAX_ERROR.
func (c *Cache) Evaluate(cond string) (bool, error) {
	if cond == "" {
		return true, nil
	}
	if result, ok := c.results[cond]; ok {
		return result, nil
	}
	result, err := c.evaluator.Evaluate(cond)
	if err != nil {
		return false, metadata.WrapError(metadata.ErrorCodeConditionSyntax,
			fmt.Sprintf("cannot evaluate condition %q", cond), err)
	}
	c.results[cond] = result
	return result, nil
}

// FilterPluginMetadata returns a copy of m with every item whose condition
// evaluates false removed. Items without a condition are kept.
func (c *Cache) FilterPluginMetadata(m metadata.PluginMetadata) (metadata.PluginMetadata, error) {
	out := m

	loadAfter, err := c.filterFiles(m.LoadAfterFiles())
	if err != nil {
		return metadata.PluginMetadata{}, err
	}
	out.SetLoadAfterFiles(loadAfter)

	requirements, err := c.filterFiles(m.Requirements())
	if err != nil {
		return metadata.PluginMetadata{}, err
	}
	out.SetRequirements(requirements)

	incompatibilities, err := c.filterFiles(m.Incompatibilities())
	if err != nil {
		return metadata.PluginMetadata{}, err
	}
	out.SetIncompatibilities(incompatibilities)

	messages, err := c.filterMessages(m.Messages())
	if err != nil {
		return metadata.PluginMetadata{}, err
	}
	out.SetMessages(messages)

	tags, err := c.filterTags(m.Tags())
	if err != nil {
		return metadata.PluginMetadata{}, err
	}
	out.SetTags(tags)

	return out, nil
}

// FilterMessages returns the subset of messages whose conditions hold.
func (c *Cache) FilterMessages(messages []metadata.Message) ([]metadata.Message, error) {
	return c.filterMessages(messages)
}

func (c *Cache) filterFiles(files []metadata.File) ([]metadata.File, error) {
	out := make([]metadata.File, 0, len(files))
	for _, f := range files {
		ok, err := c.Evaluate(f.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (c *Cache) filterMessages(messages []metadata.Message) ([]metadata.Message, error) {
	out := make([]metadata.Message, 0, len(messages))
	for _, m := range messages {
		ok, err := c.Evaluate(m.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Cache) filterTags(tags []metadata.Tag) ([]metadata.Tag, error) {
	out := make([]metadata.Tag, 0, len(tags))
	for _, t := range tags {
		ok, err := c.Evaluate(t.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}

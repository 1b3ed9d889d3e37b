// Package yamlcodec implements the metadata document oracle for the YAML
// metadata syntax used by masterlists and userlists. The sorting core only
// depends on the DocumentCodec interface; this package is wired in by the
// façade as the default implementation.
package yamlcodec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pStyl3/libloot/metadata"
)

// Codec translates between YAML document bytes and the structured
// metadata document.
type Codec struct{}

// New creates a Codec.
func New() *Codec { return &Codec{} }

// document is the YAML shape of a metadata document.
type document struct {
	Prelude  yaml.Node      `yaml:"prelude,omitempty"`
	BashTags []string       `yaml:"bash_tags,omitempty"`
	Globals  []messageEntry `yaml:"globals,omitempty"`
	Plugins  []pluginEntry  `yaml:"plugins,omitempty"`
	Groups   []groupEntry   `yaml:"groups,omitempty"`
}

type groupEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	After       []string `yaml:"after,omitempty"`
}

// Decode parses document bytes into a structured document. Malformed YAML
// and invalid entries are PARSE_ERRORs.
func (c *Codec) Decode(data []byte) (metadata.Document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return metadata.Document{}, metadata.WrapError(metadata.ErrorCodeParse,
			"malformed metadata document", err)
	}
	return c.convert(doc)
}

// DecodeWithPrelude parses document bytes after substituting the prelude
// document into the masterlist's prelude section. The substitution is
// textual, so anchors defined in the prelude resolve in the rest of the
// document.
func (c *Codec) DecodeWithPrelude(data, prelude []byte) (metadata.Document, error) {
	return c.Decode(SubstitutePrelude(data, prelude))
}

// Encode serialises a document. Field order is fixed by the document
// structure, so encoding is stable.
func (c *Codec) Encode(doc metadata.Document) ([]byte, error) {
	out := document{
		BashTags: doc.BashTags,
	}
	for _, m := range doc.Globals {
		out.Globals = append(out.Globals, toMessageEntry(m))
	}
	for _, p := range doc.Plugins {
		out.Plugins = append(out.Plugins, toPluginEntry(p))
	}
	for _, g := range doc.Groups {
		out.Groups = append(out.Groups, groupEntry{
			Name:        g.Name,
			Description: g.Description,
			After:       g.AfterGroups,
		})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, metadata.WrapError(metadata.ErrorCodeParse, "cannot encode metadata document", err)
	}
	return data, nil
}

func (c *Codec) convert(doc document) (metadata.Document, error) {
	out := metadata.Document{
		BashTags: doc.BashTags,
	}
	for _, m := range doc.Globals {
		out.Globals = append(out.Globals, m.toMessage())
	}
	for _, g := range doc.Groups {
		if g.Name == "" {
			return metadata.Document{}, metadata.NewError(metadata.ErrorCodeParse,
				"a group must have a non-empty name")
		}
		out.Groups = append(out.Groups, metadata.Group{
			Name:        g.Name,
			Description: g.Description,
			AfterGroups: g.After,
		})
	}
	for _, p := range doc.Plugins {
		m, err := p.toMetadata()
		if err != nil {
			return metadata.Document{}, err
		}
		out.Plugins = append(out.Plugins, m)
	}
	return out, nil
}

// SubstitutePrelude replaces the top-level prelude section of a masterlist
// with the given prelude document, or prepends one when the masterlist has
// none. The replacement is line-based: the prelude section runs from the
// "prelude:" line to the next line at column zero.
func SubstitutePrelude(masterlist, prelude []byte) []byte {
	indented := indentBlock(string(prelude))
	lines := strings.Split(string(masterlist), "\n")

	start := -1
	for i, line := range lines {
		if line == "prelude:" || strings.HasPrefix(line, "prelude:") && !strings.HasPrefix(line, " ") {
			start = i
			break
		}
	}
	if start == -1 {
		return []byte("prelude:\n" + indented + "\n" + string(masterlist))
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if line != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, "#") {
			end = i
			break
		}
	}

	var sb strings.Builder
	for _, line := range lines[:start] {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("prelude:\n")
	sb.WriteString(indented)
	sb.WriteString("\n")
	for i, line := range lines[end:] {
		sb.WriteString(line)
		if i < len(lines[end:])-1 {
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String())
}

func indentBlock(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}

func parseError(format string, args ...any) error {
	return metadata.NewError(metadata.ErrorCodeParse, fmt.Sprintf(format, args...))
}

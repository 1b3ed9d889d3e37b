package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store holds the contents of one metadata document (a masterlist or a
// userlist) and answers effective-metadata queries against it. A Store is
// not safe for concurrent mutation; callers serialise writes.
type Store struct {
	codec DocumentCodec

	bashTags []string
	globals  []Message
	groups   []Group

	// regexEntries keeps regex-named metadata in document order; lookup
	// iterates them before the exact entry.
	regexEntries []PluginMetadata

	// exactEntries maps normalised filename to metadata; exactOrder keeps
	// insertion order for deterministic snapshots.
	exactEntries map[string]PluginMetadata
	exactOrder   []string
}

// NewStore creates an empty store using the given document codec.
func NewStore(codec DocumentCodec) *Store {
	return &Store{
		codec:        codec,
		exactEntries: make(map[string]PluginMetadata),
	}
}

// Load replaces the store contents with the document at path. A missing or
// unreadable file is a FILE_ACCESS_ERROR; a document the codec rejects is
// a PARSE_ERROR. On failure the store is left unchanged.
func (s *Store) Load(path string) error {
	return s.load(path, nil)
}

// LoadWithPrelude is Load with the prelude document at preludePath
// substituted into the masterlist before decoding.
func (s *Store) LoadWithPrelude(path, preludePath string) error {
	prelude, err := os.ReadFile(preludePath)
	if err != nil {
		return WrapError(ErrorCodeFileAccess, fmt.Sprintf("cannot read prelude %q", preludePath), err)
	}
	return s.load(path, prelude)
}

func (s *Store) load(path string, prelude []byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapError(ErrorCodeFileAccess, fmt.Sprintf("cannot read metadata document %q", path), err)
	}

	var doc Document
	if prelude != nil {
		doc, err = s.codec.DecodeWithPrelude(data, prelude)
	} else {
		doc, err = s.codec.Decode(data)
	}
	if err != nil {
		if CodeOf(err) != "" {
			return err
		}
		return WrapError(ErrorCodeParse, fmt.Sprintf("cannot parse metadata document %q", path), err)
	}

	return s.replace(doc)
}

func (s *Store) replace(doc Document) error {
	exact := make(map[string]PluginMetadata, len(doc.Plugins))
	order := make([]string, 0, len(doc.Plugins))
	var regexEntries []PluginMetadata

	for _, m := range doc.Plugins {
		if m.IsRegexPlugin() {
			regexEntries = append(regexEntries, m)
			continue
		}
		key := strings.ToLower(m.Name())
		if _, exists := exact[key]; exists {
			return NewError(ErrorCodeParse,
				fmt.Sprintf("more than one entry exists for plugin %q", m.Name()))
		}
		exact[key] = m
		order = append(order, key)
	}

	s.bashTags = append([]string(nil), doc.BashTags...)
	s.globals = append([]Message(nil), doc.Globals...)
	s.groups = append([]Group(nil), doc.Groups...)
	s.regexEntries = regexEntries
	s.exactEntries = exact
	s.exactOrder = order
	return nil
}

// Save writes the store contents to path. A missing parent directory is an
// INVALID_ARGUMENT; an existing file with overwrite=false is a
// FILE_ACCESS_ERROR.
func (s *Store) Save(path string, overwrite bool) error {
	return s.write(path, overwrite, s.document())
}

// SaveMinimal writes only the tags and dirty info of each plugin entry,
// producing the minimal masterlist projection.
func (s *Store) SaveMinimal(path string, overwrite bool) error {
	return s.write(path, overwrite, s.minimalDocument())
}

func (s *Store) write(path string, overwrite bool, doc Document) error {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewError(ErrorCodeInvalidArgument,
			fmt.Sprintf("output directory %q does not exist", dir))
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return NewError(ErrorCodeFileAccess,
			fmt.Sprintf("the file %q already exists", path))
	}

	data, err := s.codec.Encode(doc)
	if err != nil {
		return WrapError(ErrorCodeParse, "cannot encode metadata document", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapError(ErrorCodeFileAccess, fmt.Sprintf("cannot write %q", path), err)
	}
	return nil
}

func (s *Store) document() Document {
	return Document{
		BashTags: s.BashTags(),
		Globals:  s.Messages(),
		Plugins:  s.Plugins(),
		Groups:   append([]Group(nil), s.groups...),
	}
}

func (s *Store) minimalDocument() Document {
	full := s.Plugins()
	minimal := make([]PluginMetadata, 0, len(full))
	for _, m := range full {
		entry, err := NewPluginMetadata(m.Name())
		if err != nil {
			continue
		}
		entry.SetTags(m.Tags())
		entry.SetDirtyInfo(m.DirtyInfo())
		if entry.HasNameOnly() {
			continue
		}
		minimal = append(minimal, entry)
	}
	return Document{Plugins: minimal}
}

// BashTags returns the known Bash Tags declared by the document.
func (s *Store) BashTags() []string {
	return append([]string(nil), s.bashTags...)
}

// Messages returns the document's global messages.
func (s *Store) Messages() []Message {
	return append([]Message(nil), s.globals...)
}

// Groups returns the document's groups. The default group is always
// present even when the document does not define it.
func (s *Store) Groups() []Group {
	out := make([]Group, 0, len(s.groups)+1)
	hasDefault := false
	for _, g := range s.groups {
		if g.Name == DefaultGroupName {
			hasDefault = true
		}
		g.AfterGroups = append([]string(nil), g.AfterGroups...)
		out = append(out, g)
	}
	if !hasDefault {
		out = append([]Group{DefaultGroup()}, out...)
	}
	return out
}

// SetGroups replaces the document's groups.
func (s *Store) SetGroups(groups []Group) {
	s.groups = append([]Group(nil), groups...)
}

// Plugins returns every plugin metadata entry: regex entries in document
// order, then exact entries in insertion order.
func (s *Store) Plugins() []PluginMetadata {
	out := make([]PluginMetadata, 0, len(s.regexEntries)+len(s.exactOrder))
	out = append(out, s.regexEntries...)
	for _, key := range s.exactOrder {
		out = append(out, s.exactEntries[key])
	}
	return out
}

// FindPlugin returns the effective metadata for the named plugin: the merge
// of every regex entry matching the name, in document order, followed by
// the exact entry. The result's name is the queried name. The boolean is
// false when nothing matches.
func (s *Store) FindPlugin(name string) (PluginMetadata, bool) {
	effective, err := NewPluginMetadata(name)
	if err != nil || effective.IsRegexPlugin() {
		// Queries use literal filenames only.
		return PluginMetadata{}, false
	}

	found := false
	for _, entry := range s.regexEntries {
		if entry.NameMatches(name) {
			effective = effective.MergeMetadata(entry)
			found = true
		}
	}
	if entry, ok := s.exactEntries[strings.ToLower(name)]; ok {
		effective = effective.MergeMetadata(entry)
		found = true
	}
	if !found {
		return PluginMetadata{}, false
	}
	return effective, true
}

// AddPlugin stores a new metadata entry. Adding a second exact entry for
// the same plugin is an INVALID_ARGUMENT; regex entries always append.
func (s *Store) AddPlugin(m PluginMetadata) error {
	if m.Name() == "" {
		return NewError(ErrorCodeInvalidArgument, "plugin metadata name must not be empty")
	}
	if m.IsRegexPlugin() {
		s.regexEntries = append(s.regexEntries, m)
		return nil
	}
	key := strings.ToLower(m.Name())
	if _, exists := s.exactEntries[key]; exists {
		return NewError(ErrorCodeInvalidArgument,
			fmt.Sprintf("metadata already exists for plugin %q", m.Name()))
	}
	s.exactEntries[key] = m
	s.exactOrder = append(s.exactOrder, key)
	return nil
}

// SetPlugin stores a metadata entry, replacing any existing exact entry
// for the same plugin.
func (s *Store) SetPlugin(m PluginMetadata) error {
	if !m.IsRegexPlugin() {
		s.ErasePlugin(m.Name())
	}
	return s.AddPlugin(m)
}

// ErasePlugin removes the exact entry for the named plugin, and any regex
// entries whose pattern equals the name.
func (s *Store) ErasePlugin(name string) {
	key := strings.ToLower(name)
	if _, ok := s.exactEntries[key]; ok {
		delete(s.exactEntries, key)
		for i, k := range s.exactOrder {
			if k == key {
				s.exactOrder = append(s.exactOrder[:i], s.exactOrder[i+1:]...)
				break
			}
		}
		return
	}
	kept := s.regexEntries[:0]
	for _, entry := range s.regexEntries {
		if !strings.EqualFold(entry.Name(), name) {
			kept = append(kept, entry)
		}
	}
	s.regexEntries = kept
}

// Clear empties the store.
func (s *Store) Clear() {
	s.bashTags = nil
	s.globals = nil
	s.groups = nil
	s.regexEntries = nil
	s.exactEntries = make(map[string]PluginMetadata)
	s.exactOrder = nil
}

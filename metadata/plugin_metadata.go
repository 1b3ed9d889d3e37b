package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

// regexMetaChars are the characters whose presence marks a plugin metadata
// name as a regular expression rather than a literal filename.
const regexMetaChars = `:\*?|`

// IsRegexName reports whether name is interpreted as a regular expression.
func IsRegexName(name string) bool {
	return strings.ContainsAny(name, regexMetaChars)
}

// PluginMetadata is the metadata attached to one plugin name, which may be
// a literal filename or a regular expression matching several filenames.
type PluginMetadata struct {
	name  string
	regex *regexp.Regexp // nil for literal names

	group *string

	loadAfter         []File
	requirements      []File
	incompatibilities []File
	messages          []Message
	tags              []Tag
	dirtyInfo         []CleaningData
	cleanInfo         []CleaningData
	locations         []Location
}

// NewPluginMetadata creates metadata for the given plugin name. Names
// containing regex metacharacters are precompiled as case-insensitive,
// fully-anchored regular expressions; a malformed pattern is an
// INVALID_ARGUMENT error.
func NewPluginMetadata(name string) (PluginMetadata, error) {
	if name == "" {
		return PluginMetadata{}, NewError(ErrorCodeInvalidArgument, "plugin metadata name must not be empty")
	}
	m := PluginMetadata{name: name}
	if IsRegexName(name) {
		re, err := regexp.Compile("(?i)^" + name + "$")
		if err != nil {
			return PluginMetadata{}, WrapError(ErrorCodeInvalidArgument,
				fmt.Sprintf("invalid regex plugin name %q", name), err)
		}
		m.regex = re
	}
	return m, nil
}

// Name returns the plugin name or regex pattern the metadata applies to.
func (m PluginMetadata) Name() string { return m.name }

// IsRegexPlugin reports whether the metadata name is a regular expression.
func (m PluginMetadata) IsRegexPlugin() bool { return m.regex != nil }

// NameMatches reports whether the metadata applies to the given filename.
// Literal names compare case-insensitively; regex names match the whole
// filename.
func (m PluginMetadata) NameMatches(filename string) bool {
	if m.regex != nil {
		return m.regex.MatchString(filename)
	}
	return strings.EqualFold(m.name, filename)
}

// Group returns the plugin's group name and whether one is set.
func (m PluginMetadata) Group() (string, bool) {
	if m.group == nil {
		return "", false
	}
	return *m.group, true
}

// GroupOrDefault returns the plugin's group name, or the default group
// when none is set.
func (m PluginMetadata) GroupOrDefault() string {
	if m.group == nil {
		return DefaultGroupName
	}
	return *m.group
}

// SetGroup sets the plugin's group.
func (m *PluginMetadata) SetGroup(group string) {
	m.group = &group
}

// UnsetGroup removes any explicit group assignment.
func (m *PluginMetadata) UnsetGroup() {
	m.group = nil
}

// LoadAfterFiles returns the files the plugin loads after.
func (m PluginMetadata) LoadAfterFiles() []File { return cloneFiles(m.loadAfter) }

// SetLoadAfterFiles replaces the load-after file list.
func (m *PluginMetadata) SetLoadAfterFiles(files []File) { m.loadAfter = cloneFiles(files) }

// Requirements returns the files the plugin requires.
func (m PluginMetadata) Requirements() []File { return cloneFiles(m.requirements) }

// SetRequirements replaces the requirement list.
func (m *PluginMetadata) SetRequirements(files []File) { m.requirements = cloneFiles(files) }

// Incompatibilities returns the files the plugin is incompatible with.
func (m PluginMetadata) Incompatibilities() []File { return cloneFiles(m.incompatibilities) }

// SetIncompatibilities replaces the incompatibility list.
func (m *PluginMetadata) SetIncompatibilities(files []File) { m.incompatibilities = cloneFiles(files) }

// Messages returns the messages attached to the plugin.
func (m PluginMetadata) Messages() []Message { return append([]Message(nil), m.messages...) }

// SetMessages replaces the message list.
func (m *PluginMetadata) SetMessages(messages []Message) {
	m.messages = append([]Message(nil), messages...)
}

// Tags returns the plugin's Bash Tag suggestions.
func (m PluginMetadata) Tags() []Tag { return append([]Tag(nil), m.tags...) }

// SetTags replaces the tag suggestion list.
func (m *PluginMetadata) SetTags(tags []Tag) { m.tags = append([]Tag(nil), tags...) }

// DirtyInfo returns the known dirty states of the plugin.
func (m PluginMetadata) DirtyInfo() []CleaningData {
	return append([]CleaningData(nil), m.dirtyInfo...)
}

// SetDirtyInfo replaces the dirty info list.
func (m *PluginMetadata) SetDirtyInfo(info []CleaningData) {
	m.dirtyInfo = append([]CleaningData(nil), info...)
}

// CleanInfo returns the known clean states of the plugin.
func (m PluginMetadata) CleanInfo() []CleaningData {
	return append([]CleaningData(nil), m.cleanInfo...)
}

// SetCleanInfo replaces the clean info list.
func (m *PluginMetadata) SetCleanInfo(info []CleaningData) {
	m.cleanInfo = append([]CleaningData(nil), info...)
}

// Locations returns where the plugin can be obtained.
func (m PluginMetadata) Locations() []Location { return append([]Location(nil), m.locations...) }

// SetLocations replaces the location list.
func (m *PluginMetadata) SetLocations(locations []Location) {
	m.locations = append([]Location(nil), locations...)
}

// HasNameOnly reports whether the metadata carries nothing beyond its name
// and so is not worth serialising.
func (m PluginMetadata) HasNameOnly() bool {
	return m.group == nil &&
		len(m.loadAfter) == 0 &&
		len(m.requirements) == 0 &&
		len(m.incompatibilities) == 0 &&
		len(m.messages) == 0 &&
		len(m.tags) == 0 &&
		len(m.dirtyInfo) == 0 &&
		len(m.cleanInfo) == 0 &&
		len(m.locations) == 0
}

// MergeMetadata merges other into a copy of m, with other's values taking
// precedence: other's group wins when set, file/tag/location lists are
// set-unioned, messages are concatenated m-first, and dirty/clean info is
// unioned keyed by CRC. The receiver's name is kept.
func (m PluginMetadata) MergeMetadata(other PluginMetadata) PluginMetadata {
	out := m.clone()

	if other.group != nil {
		g := *other.group
		out.group = &g
	}

	out.loadAfter = unionFiles(out.loadAfter, other.loadAfter)
	out.requirements = unionFiles(out.requirements, other.requirements)
	out.incompatibilities = unionFiles(out.incompatibilities, other.incompatibilities)
	out.messages = append(out.messages, other.messages...)
	out.tags = unionTags(out.tags, other.tags)
	out.dirtyInfo = unionCleaningData(out.dirtyInfo, other.dirtyInfo)
	out.cleanInfo = unionCleaningData(out.cleanInfo, other.cleanInfo)
	out.locations = unionLocations(out.locations, other.locations)

	return out
}

func (m PluginMetadata) clone() PluginMetadata {
	out := PluginMetadata{name: m.name, regex: m.regex}
	if m.group != nil {
		g := *m.group
		out.group = &g
	}
	out.loadAfter = cloneFiles(m.loadAfter)
	out.requirements = cloneFiles(m.requirements)
	out.incompatibilities = cloneFiles(m.incompatibilities)
	out.messages = append([]Message(nil), m.messages...)
	out.tags = append([]Tag(nil), m.tags...)
	out.dirtyInfo = append([]CleaningData(nil), m.dirtyInfo...)
	out.cleanInfo = append([]CleaningData(nil), m.cleanInfo...)
	out.locations = append([]Location(nil), m.locations...)
	return out
}

func cloneFiles(files []File) []File {
	return append([]File(nil), files...)
}

func unionFiles(a, b []File) []File {
	out := a
	for _, f := range b {
		found := false
		for _, existing := range out {
			if existing.equals(f) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, f)
		}
	}
	return out
}

func unionTags(a, b []Tag) []Tag {
	out := a
	for _, t := range b {
		found := false
		for _, existing := range out {
			if existing == t {
				found = true
				break
			}
		}
		if !found {
			out = append(out, t)
		}
	}
	return out
}

func unionCleaningData(a, b []CleaningData) []CleaningData {
	out := a
	for _, d := range b {
		found := false
		for _, existing := range out {
			if existing.CRC == d.CRC {
				found = true
				break
			}
		}
		if !found {
			out = append(out, d)
		}
	}
	return out
}

func unionLocations(a, b []Location) []Location {
	out := a
	for _, l := range b {
		found := false
		for _, existing := range out {
			if existing.URL == l.URL {
				found = true
				break
			}
		}
		if !found {
			out = append(out, l)
		}
	}
	return out
}

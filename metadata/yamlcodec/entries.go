package yamlcodec

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pStyl3/libloot/metadata"
)

// fileEntry is a file reference, which the syntax allows as a bare scalar
// filename or as a mapping with extra fields.
type fileEntry struct {
	Name       string      `yaml:"name"`
	Display    string      `yaml:"display,omitempty"`
	Detail     contentList `yaml:"detail,omitempty"`
	Condition  string      `yaml:"condition,omitempty"`
	Constraint string      `yaml:"constraint,omitempty"`
}

func (f *fileEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		f.Name = value.Value
		return nil
	}
	type raw fileEntry
	return value.Decode((*raw)(f))
}

func (f fileEntry) toFile() metadata.File {
	return metadata.File{
		Name:        f.Name,
		DisplayName: f.Display,
		Detail:      f.Detail,
		Condition:   f.Condition,
		Constraint:  f.Constraint,
	}
}

func fromFile(f metadata.File) fileEntry {
	return fileEntry{
		Name:       f.Name,
		Display:    f.DisplayName,
		Detail:     contentList(f.Detail),
		Condition:  f.Condition,
		Constraint: f.Constraint,
	}
}

// tagEntry is a Bash Tag suggestion: a bare scalar, with a "-" prefix for
// removals, or a mapping with a condition.
type tagEntry struct {
	Name      string `yaml:"name"`
	Condition string `yaml:"condition,omitempty"`
}

func (t *tagEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Name = value.Value
		return nil
	}
	type raw tagEntry
	return value.Decode((*raw)(t))
}

func (t tagEntry) toTag() metadata.Tag {
	name := t.Name
	addition := true
	if strings.HasPrefix(name, "-") {
		addition = false
		name = name[1:]
	}
	return metadata.Tag{Name: name, Addition: addition, Condition: t.Condition}
}

func fromTag(t metadata.Tag) tagEntry {
	name := t.Name
	if !t.Addition {
		name = "-" + name
	}
	return tagEntry{Name: name, Condition: t.Condition}
}

// locationEntry is a location: a bare scalar URL or a mapping.
type locationEntry struct {
	Link string `yaml:"link"`
	Name string `yaml:"name,omitempty"`
}

func (l *locationEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		l.Link = value.Value
		return nil
	}
	type raw locationEntry
	return value.Decode((*raw)(l))
}

// contentList is localised message content: a bare scalar is shorthand for
// a single default-language entry.
type contentList []metadata.MessageContent

func (c *contentList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*c = contentList{{Text: value.Value}}
		return nil
	}
	var entries []metadata.MessageContent
	if err := value.Decode(&entries); err != nil {
		return err
	}
	*c = contentList(entries)
	return nil
}

// messageEntry is a message attached to a plugin or to the whole document.
type messageEntry struct {
	Type      string      `yaml:"type"`
	Content   contentList `yaml:"content"`
	Condition string      `yaml:"condition,omitempty"`
}

func (m messageEntry) toMessage() metadata.Message {
	msgType := metadata.MessageType(m.Type)
	switch msgType {
	case metadata.MessageTypeSay, metadata.MessageTypeWarn, metadata.MessageTypeError:
	default:
		msgType = metadata.MessageTypeSay
	}
	return metadata.Message{
		Type:      msgType,
		Content:   m.Content,
		Condition: m.Condition,
	}
}

func toMessageEntry(m metadata.Message) messageEntry {
	return messageEntry{
		Type:      string(m.Type),
		Content:   contentList(m.Content),
		Condition: m.Condition,
	}
}

// cleaningEntry is one dirty or clean state of a plugin.
type cleaningEntry struct {
	CRC    uint32      `yaml:"crc"`
	Util   string      `yaml:"util"`
	ITM    int         `yaml:"itm,omitempty"`
	UDR    int         `yaml:"udr,omitempty"`
	NAV    int         `yaml:"nav,omitempty"`
	Detail contentList `yaml:"detail,omitempty"`
}

func (e cleaningEntry) toCleaningData() metadata.CleaningData {
	return metadata.CleaningData{
		CRC:                   e.CRC,
		CleaningUtility:       e.Util,
		ITMCount:              e.ITM,
		DeletedReferenceCount: e.UDR,
		DeletedNavmeshCount:   e.NAV,
		Detail:                e.Detail,
	}
}

func fromCleaningData(d metadata.CleaningData) cleaningEntry {
	return cleaningEntry{
		CRC:    d.CRC,
		Util:   d.CleaningUtility,
		ITM:    d.ITMCount,
		UDR:    d.DeletedReferenceCount,
		NAV:    d.DeletedNavmeshCount,
		Detail: contentList(d.Detail),
	}
}

// pluginEntry is one plugin metadata entry.
type pluginEntry struct {
	Name  string          `yaml:"name"`
	Group *string         `yaml:"group,omitempty"`
	After []fileEntry     `yaml:"after,omitempty"`
	Req   []fileEntry     `yaml:"req,omitempty"`
	Inc   []fileEntry     `yaml:"inc,omitempty"`
	Msg   []messageEntry  `yaml:"msg,omitempty"`
	Tag   []tagEntry      `yaml:"tag,omitempty"`
	Dirty []cleaningEntry `yaml:"dirty,omitempty"`
	Clean []cleaningEntry `yaml:"clean,omitempty"`
	URL   []locationEntry `yaml:"url,omitempty"`
}

func (p pluginEntry) toMetadata() (metadata.PluginMetadata, error) {
	if p.Name == "" {
		return metadata.PluginMetadata{}, parseError("a plugin metadata entry must have a name")
	}
	m, err := metadata.NewPluginMetadata(p.Name)
	if err != nil {
		return metadata.PluginMetadata{}, metadata.WrapError(metadata.ErrorCodeParse,
			"invalid plugin metadata entry", err)
	}
	if p.Group != nil {
		m.SetGroup(*p.Group)
	}
	m.SetLoadAfterFiles(filesOf(p.After))
	m.SetRequirements(filesOf(p.Req))
	m.SetIncompatibilities(filesOf(p.Inc))

	var messages []metadata.Message
	for _, e := range p.Msg {
		messages = append(messages, e.toMessage())
	}
	m.SetMessages(messages)

	var tags []metadata.Tag
	for _, e := range p.Tag {
		tags = append(tags, e.toTag())
	}
	m.SetTags(tags)

	var dirty []metadata.CleaningData
	for _, e := range p.Dirty {
		dirty = append(dirty, e.toCleaningData())
	}
	m.SetDirtyInfo(dirty)

	var clean []metadata.CleaningData
	for _, e := range p.Clean {
		clean = append(clean, e.toCleaningData())
	}
	m.SetCleanInfo(clean)

	var locations []metadata.Location
	for _, e := range p.URL {
		locations = append(locations, metadata.Location{URL: e.Link, Name: e.Name})
	}
	m.SetLocations(locations)

	return m, nil
}

func toPluginEntry(m metadata.PluginMetadata) pluginEntry {
	p := pluginEntry{Name: m.Name()}
	if group, ok := m.Group(); ok {
		p.Group = &group
	}
	p.After = entriesOf(m.LoadAfterFiles())
	p.Req = entriesOf(m.Requirements())
	p.Inc = entriesOf(m.Incompatibilities())
	for _, msg := range m.Messages() {
		p.Msg = append(p.Msg, toMessageEntry(msg))
	}
	for _, t := range m.Tags() {
		p.Tag = append(p.Tag, fromTag(t))
	}
	for _, d := range m.DirtyInfo() {
		p.Dirty = append(p.Dirty, fromCleaningData(d))
	}
	for _, d := range m.CleanInfo() {
		p.Clean = append(p.Clean, fromCleaningData(d))
	}
	for _, l := range m.Locations() {
		p.URL = append(p.URL, locationEntry{Link: l.URL, Name: l.Name})
	}
	return p
}

func filesOf(entries []fileEntry) []metadata.File {
	var out []metadata.File
	for _, e := range entries {
		out = append(out, e.toFile())
	}
	return out
}

func entriesOf(files []metadata.File) []fileEntry {
	var out []fileEntry
	for _, f := range files {
		out = append(out, fromFile(f))
	}
	return out
}

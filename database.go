package libloot

import (
	"github.com/pStyl3/libloot/metadata"
	"github.com/pStyl3/libloot/sorting"
)

// The methods in this file form the metadata database surface of a Game:
// loading and writing the masterlist and userlist, and querying the merged
// view of both.

// LoadMasterlist replaces the masterlist contents with the document at
// path.
func (g *Game) LoadMasterlist(path string) error {
	return g.masterlist.Load(path)
}

// LoadMasterlistWithPrelude replaces the masterlist contents with the
// document at path, substituting the prelude document at preludePath.
func (g *Game) LoadMasterlistWithPrelude(path, preludePath string) error {
	return g.masterlist.LoadWithPrelude(path, preludePath)
}

// LoadUserlist replaces the userlist contents with the document at path.
func (g *Game) LoadUserlist(path string) error {
	return g.userlist.Load(path)
}

// WriteUserMetadata serialises the userlist to path.
func (g *Game) WriteUserMetadata(path string, overwrite bool) error {
	return g.userlist.Save(path, overwrite)
}

// WriteMinimalList serialises a minimal masterlist (tags and dirty info
// only) to path.
func (g *Game) WriteMinimalList(path string, overwrite bool) error {
	return g.masterlist.SaveMinimal(path, overwrite)
}

// KnownBashTags returns the union of the Bash Tags declared by the
// masterlist and the userlist, masterlist-first, without duplicates.
func (g *Game) KnownBashTags() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tags := range [][]string{g.masterlist.BashTags(), g.userlist.BashTags()} {
		for _, tag := range tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// GeneralMessages returns the messages that apply to the whole load order,
// masterlist messages first. With evaluateConditions, messages whose
// conditions do not hold are omitted.
func (g *Game) GeneralMessages(evaluateConditions bool) ([]metadata.Message, error) {
	messages := append(g.masterlist.Messages(), g.userlist.Messages()...)
	if !evaluateConditions {
		return messages, nil
	}
	return g.conditions.FilterMessages(messages)
}

// Groups returns the group definitions: the masterlist's merged with the
// userlist's when includeUser is set, the masterlist's alone otherwise.
// The default group is always present.
func (g *Game) Groups(includeUser bool) []metadata.Group {
	if !includeUser {
		return g.masterlist.Groups()
	}
	return metadata.MergeGroups(g.masterlist.Groups(), g.userlist.Groups())
}

// UserGroups returns the groups defined in the userlist.
func (g *Game) UserGroups() []metadata.Group {
	return g.userlist.Groups()
}

// SetUserGroups replaces the userlist's group definitions.
func (g *Game) SetUserGroups(groups []metadata.Group) {
	g.userlist.SetGroups(groups)
}

// GroupsPath returns the vertices on a shortest path between two groups in
// the merged group graph, each annotated with whether the edge leading to
// it is user-defined. The result is empty when no path exists.
func (g *Game) GroupsPath(fromGroup, toGroup string) ([]sorting.GroupVertex, error) {
	graph, err := sorting.NewGroupGraph(g.masterlist.Groups(), g.userlist.Groups(),
		g.options.MasterlistGroupCyclesFatal)
	if err != nil {
		return nil, err
	}
	if !graph.HasGroup(fromGroup) {
		return nil, &metadata.UndefinedGroupError{GroupName: fromGroup}
	}
	if !graph.HasGroup(toGroup) {
		return nil, &metadata.UndefinedGroupError{GroupName: toGroup}
	}
	return graph.ShortestPath(fromGroup, toGroup), nil
}

// PluginMetadata returns the effective metadata for the named plugin: the
// masterlist's regex-expanded entry, merged with the userlist's when
// includeUser is set. With evaluateConditions, items whose conditions do
// not hold are removed. The boolean is false when no metadata exists.
func (g *Game) PluginMetadata(name string, includeUser, evaluateConditions bool) (metadata.PluginMetadata, bool, error) {
	merged, found := g.masterlist.FindPlugin(name)
	if includeUser {
		if userEntry, ok := g.userlist.FindPlugin(name); ok {
			if found {
				merged = merged.MergeMetadata(userEntry)
			} else {
				merged = userEntry
			}
			found = true
		}
	}
	if !found {
		return metadata.PluginMetadata{}, false, nil
	}
	if evaluateConditions {
		evaluated, err := g.conditions.FilterPluginMetadata(merged)
		if err != nil {
			return metadata.PluginMetadata{}, false, err
		}
		merged = evaluated
	}
	return merged, true, nil
}

// PluginUserMetadata returns the effective userlist metadata for the named
// plugin.
func (g *Game) PluginUserMetadata(name string, evaluateConditions bool) (metadata.PluginMetadata, bool, error) {
	m, found := g.userlist.FindPlugin(name)
	if !found {
		return metadata.PluginMetadata{}, false, nil
	}
	if evaluateConditions {
		evaluated, err := g.conditions.FilterPluginMetadata(m)
		if err != nil {
			return metadata.PluginMetadata{}, false, err
		}
		m = evaluated
	}
	return m, true, nil
}

// SetPluginUserMetadata stores the given metadata in the userlist,
// replacing any existing entry for the same plugin.
func (g *Game) SetPluginUserMetadata(m metadata.PluginMetadata) error {
	if m.Name() == "" {
		return metadata.NewError(metadata.ErrorCodeInvalidArgument,
			"cannot store user metadata without a plugin name")
	}
	return g.userlist.SetPlugin(m)
}

// DiscardPluginUserMetadata removes the userlist entry for the named
// plugin.
func (g *Game) DiscardPluginUserMetadata(name string) {
	g.userlist.ErasePlugin(name)
}

// DiscardAllUserMetadata empties the userlist.
func (g *Game) DiscardAllUserMetadata() {
	g.userlist.Clear()
}

package metadata

// DefaultGroupName is the name of the group every plugin belongs to unless
// its metadata says otherwise. The default group always exists.
const DefaultGroupName = "default"

// Group is a named cohort of plugins with declarative "loads after group X"
// ordering between cohorts.
type Group struct {
	// Name uniquely identifies the group. It must be non-empty.
	Name string `yaml:"name"`
	// Description is a human-readable description of the group's purpose.
	Description string `yaml:"description,omitempty"`
	// AfterGroups names the groups this group's plugins load after.
	AfterGroups []string `yaml:"after,omitempty"`
}

// DefaultGroup returns the distinguished default group.
func DefaultGroup() Group {
	return Group{Name: DefaultGroupName}
}

// MergeGroups merges masterlist and userlist group definitions by name.
// The user description replaces the masterlist description when non-empty;
// after-group lists are concatenated masterlist-first, preserving order and
// duplicates (the group graph deduplicates edges). The result keeps
// masterlist order, then appends user-only groups in their order, and
// always contains the default group.
func MergeGroups(masterlist, userlist []Group) []Group {
	merged := make([]Group, 0, len(masterlist)+len(userlist)+1)
	index := make(map[string]int, len(masterlist))

	for _, g := range masterlist {
		if i, ok := index[g.Name]; ok {
			// Duplicate definitions within one document concatenate too.
			merged[i].AfterGroups = append(merged[i].AfterGroups, g.AfterGroups...)
			if g.Description != "" {
				merged[i].Description = g.Description
			}
			continue
		}
		index[g.Name] = len(merged)
		merged = append(merged, Group{
			Name:        g.Name,
			Description: g.Description,
			AfterGroups: append([]string(nil), g.AfterGroups...),
		})
	}

	for _, g := range userlist {
		if i, ok := index[g.Name]; ok {
			if g.Description != "" {
				merged[i].Description = g.Description
			}
			merged[i].AfterGroups = append(merged[i].AfterGroups, g.AfterGroups...)
			continue
		}
		index[g.Name] = len(merged)
		merged = append(merged, Group{
			Name:        g.Name,
			Description: g.Description,
			AfterGroups: append([]string(nil), g.AfterGroups...),
		})
	}

	if _, ok := index[DefaultGroupName]; !ok {
		merged = append([]Group{DefaultGroup()}, merged...)
	}
	return merged
}

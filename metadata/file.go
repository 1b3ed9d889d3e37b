package metadata

import "strings"

// File references another plugin or archive file from a plugin's metadata:
// a requirement, an incompatibility or a load-after hint.
type File struct {
	// Name is the referenced filename. Comparison is case-insensitive.
	Name string `yaml:"name"`
	// DisplayName overrides Name in user-facing messages.
	DisplayName string `yaml:"display,omitempty"`
	// Detail explains the reference, e.g. why a requirement exists.
	Detail []MessageContent `yaml:"detail,omitempty"`
	// Condition gates the reference.
	Condition string `yaml:"condition,omitempty"`
	// Constraint is an additional condition the referenced file must
	// satisfy for the reference to apply.
	Constraint string `yaml:"constraint,omitempty"`
}

func (f File) equals(other File) bool {
	if !strings.EqualFold(f.Name, other.Name) {
		return false
	}
	if f.DisplayName != other.DisplayName || f.Condition != other.Condition || f.Constraint != other.Constraint {
		return false
	}
	if len(f.Detail) != len(other.Detail) {
		return false
	}
	for i := range f.Detail {
		if f.Detail[i] != other.Detail[i] {
			return false
		}
	}
	return true
}

// Tag is a Bash Tag suggestion: an addition or removal of a tag consumed
// by a downstream merging tool.
type Tag struct {
	// Name is the tag name, without any removal prefix.
	Name string `yaml:"name"`
	// Addition is true when the tag is suggested for addition and false
	// when suggested for removal.
	Addition bool `yaml:"addition"`
	// Condition gates the suggestion.
	Condition string `yaml:"condition,omitempty"`
}

// Location records where a plugin can be obtained.
type Location struct {
	// URL locates the plugin online.
	URL string `yaml:"link"`
	// Name describes the location.
	Name string `yaml:"name,omitempty"`
}

// CleaningData describes one known dirty or clean state of a plugin,
// keyed by the CRC of the plugin file it applies to.
type CleaningData struct {
	// CRC identifies the plugin revision the data applies to.
	CRC uint32 `yaml:"crc"`
	// CleaningUtility names the tool used to produce or verify the state.
	CleaningUtility string `yaml:"util"`
	// ITMCount is the number of identical-to-master records found.
	ITMCount int `yaml:"itm,omitempty"`
	// DeletedReferenceCount is the number of deleted references found.
	DeletedReferenceCount int `yaml:"udr,omitempty"`
	// DeletedNavmeshCount is the number of deleted navmeshes found.
	DeletedNavmeshCount int `yaml:"nav,omitempty"`
	// Detail holds extra information, e.g. manual cleaning instructions.
	Detail []MessageContent `yaml:"detail,omitempty"`
}

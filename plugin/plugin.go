// Package plugin defines the runtime view of an installed game plugin as
// consumed by the sorting core, together with the collaborator interfaces
// that supply plugin data and the on-disk load order.
package plugin

import "strings"

// Plugin is the read-only view of an installed plugin that the sorter needs.
// Implementations are typically produced by a Parser from the plugin file on
// disk; tests use Record directly.
type Plugin interface {
	// Name returns the plugin filename. Plugin identity is case-insensitive
	// on filename; use NormalizeFilename for map keys.
	Name() string

	// IsMaster reports whether the plugin has the master flag set.
	IsMaster() bool

	// IsLightPlugin reports whether the plugin occupies the light plugin
	// address space.
	IsLightPlugin() bool

	// IsMediumPlugin reports whether the plugin occupies the medium plugin
	// address space.
	IsMediumPlugin() bool

	// IsBlueprintMaster reports whether the plugin is a blueprint master.
	// Blueprint masters load after all non-blueprint plugins.
	IsBlueprintMaster() bool

	// IsUpdatePlugin reports whether the plugin contains no new records,
	// only overrides.
	IsUpdatePlugin() bool

	// Masters returns the filenames of the plugin's declared masters, in
	// declaration order.
	Masters() []string

	// CRC returns the CRC-32 of the plugin file content, or 0 when unknown
	// (e.g. the plugin was loaded headers-only).
	CRC() uint32

	// OverrideRecordCount returns the number of records the plugin
	// overrides rather than introduces.
	OverrideRecordCount() int

	// DoRecordsOverlap reports whether the plugin overrides any record
	// that other also contains.
	DoRecordsOverlap(other Plugin) bool

	// AssetCount returns the number of assets the plugin's archives add.
	AssetCount() int

	// DoAssetsOverlap reports whether the plugin's archives contain any
	// asset path that other's archives also contain.
	DoAssetsOverlap(other Plugin) bool
}

// Parser parses a plugin file into its runtime view. Parsing the binary
// plugin format is outside the sorting core; implementations are supplied
// by the host.
type Parser interface {
	// Parse reads the plugin at path. When headersOnly is true only the
	// header fields (flags and masters) need to be populated; record and
	// asset data may be left empty.
	Parse(path string, headersOnly bool) (Plugin, error)
}

// LoadOrderReader reads the current on-disk load order.
type LoadOrderReader interface {
	ReadLoadOrder() ([]string, error)
}

// LoadOrderWriter persists a load order to disk.
type LoadOrderWriter interface {
	WriteLoadOrder(names []string) error
}

// NormalizeFilename folds a plugin filename for case-insensitive identity
// comparison. All map keys and equality checks on plugin names go through
// this.
func NormalizeFilename(name string) string {
	return strings.ToLower(name)
}

// NamesEqual reports whether two plugin filenames identify the same plugin.
func NamesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

package plugin

// Record is a concrete Plugin backed by in-memory data. The façade uses it
// for hardcoded plugins and tests use it to build fixtures; real plugin
// files are turned into Records by a Parser implementation.
type Record struct {
	FileName        string
	Master          bool
	Light           bool
	Medium          bool
	BlueprintMaster bool
	Update          bool
	MasterNames     []string
	Crc             uint32

	// OverrideRecords holds the identifiers of records this plugin
	// overrides. Identifiers are opaque to the sorter; only count and
	// intersection matter.
	OverrideRecords []string

	// Assets holds the asset paths contributed by the plugin's archives.
	Assets []string
}

func (r *Record) Name() string            { return r.FileName }
func (r *Record) IsMaster() bool          { return r.Master }
func (r *Record) IsLightPlugin() bool     { return r.Light }
func (r *Record) IsMediumPlugin() bool    { return r.Medium }
func (r *Record) IsBlueprintMaster() bool { return r.BlueprintMaster }
func (r *Record) IsUpdatePlugin() bool    { return r.Update }
func (r *Record) CRC() uint32             { return r.Crc }

func (r *Record) Masters() []string {
	out := make([]string, len(r.MasterNames))
	copy(out, r.MasterNames)
	return out
}

func (r *Record) OverrideRecordCount() int { return len(r.OverrideRecords) }

func (r *Record) DoRecordsOverlap(other Plugin) bool {
	o, ok := other.(*Record)
	if !ok {
		return false
	}
	return intersects(r.OverrideRecords, o.OverrideRecords)
}

func (r *Record) AssetCount() int { return len(r.Assets) }

func (r *Record) DoAssetsOverlap(other Plugin) bool {
	o, ok := other.(*Record)
	if !ok {
		return false
	}
	return intersects(r.Assets, o.Assets)
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

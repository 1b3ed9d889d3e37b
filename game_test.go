package libloot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pStyl3/libloot/metadata"
	"github.com/pStyl3/libloot/plugin"
)

const testMasterlist = `
bash_tags:
  - Delev
globals:
  - type: say
    content: 'A general message.'
    condition: 'keep'
  - type: warn
    content: 'A dropped message.'
    condition: 'drop'
groups:
  - name: default
  - name: late
    after:
      - default
plugins:
  - name: 'Blank.esp'
    group: late
    tag:
      - Delev
`

const testUserlist = `
bash_tags:
  - Relev
plugins:
  - name: 'Blank.esp'
    after:
      - 'Blank.esm'
`

// tableEvaluator answers conditions from a fixed table; unknown conditions
// are unsatisfied.
type tableEvaluator struct {
	results map[string]bool
}

func (e *tableEvaluator) Evaluate(condition string) (bool, error) {
	return e.results[condition], nil
}

// stubParser returns canned plugin records by filename.
type stubParser struct {
	records map[string]*plugin.Record
}

func (p *stubParser) Parse(path string, headersOnly bool) (plugin.Plugin, error) {
	rec, ok := p.records[filepath.Base(path)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return rec, nil
}

type stubLoadOrder struct {
	order   []string
	written [][]string
}

func (s *stubLoadOrder) ReadLoadOrder() ([]string, error) { return s.order, nil }
func (s *stubLoadOrder) WriteLoadOrder(names []string) error {
	s.written = append(s.written, names)
	return nil
}

func writeDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	game, err := NewGame(Tes5SE, t.TempDir(), t.TempDir(), opts...)
	require.NoError(t, err)
	return game
}

func TestNewGame(t *testing.T) {
	t.Run("valid game type", func(t *testing.T) {
		game, err := NewGame(Starfield, "/games/starfield", "/home/user/starfield")
		require.NoError(t, err)
		assert.Equal(t, Starfield, game.Type())
	})

	t.Run("invalid game type", func(t *testing.T) {
		_, err := NewGame(GameType(99), "", "")
		require.Error(t, err)
		assert.True(t, metadata.IsCode(err, metadata.ErrorCodeInvalidArgument))
	})
}

func TestParseGameType(t *testing.T) {
	for _, name := range []string{"tes4", "tes5", "tes5se", "fo3", "fonv", "fo4", "starfield"} {
		parsed, err := ParseGameType(name)
		require.NoError(t, err)
		assert.Equal(t, name, parsed.String())
	}
	_, err := ParseGameType("morrowind")
	assert.Error(t, err)
}

func TestGameMetadataAccess(t *testing.T) {
	game := newTestGame(t, WithConditionEvaluator(&tableEvaluator{results: map[string]bool{"keep": true}}))
	require.NoError(t, game.LoadMasterlist(writeDocument(t, "masterlist.yaml", testMasterlist)))
	require.NoError(t, game.LoadUserlist(writeDocument(t, "userlist.yaml", testUserlist)))

	t.Run("known bash tags union", func(t *testing.T) {
		assert.Equal(t, []string{"Delev", "Relev"}, game.KnownBashTags())
	})

	t.Run("general messages unevaluated", func(t *testing.T) {
		messages, err := game.GeneralMessages(false)
		require.NoError(t, err)
		assert.Len(t, messages, 2)
	})

	t.Run("general messages evaluated", func(t *testing.T) {
		messages, err := game.GeneralMessages(true)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, metadata.MessageTypeSay, messages[0].Type)
	})

	t.Run("plugin metadata without user entry", func(t *testing.T) {
		m, found, err := game.PluginMetadata("Blank.esp", false, false)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "late", m.GroupOrDefault())
		assert.Empty(t, m.LoadAfterFiles())
	})

	t.Run("plugin metadata merged with user entry", func(t *testing.T) {
		m, found, err := game.PluginMetadata("Blank.esp", true, false)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "late", m.GroupOrDefault())
		require.Len(t, m.LoadAfterFiles(), 1)
		assert.Equal(t, "Blank.esm", m.LoadAfterFiles()[0].Name)
	})

	t.Run("plugin user metadata only", func(t *testing.T) {
		m, found, err := game.PluginUserMetadata("Blank.esp", false)
		require.NoError(t, err)
		require.True(t, found)
		_, groupSet := m.Group()
		assert.False(t, groupSet)
		assert.Len(t, m.LoadAfterFiles(), 1)
	})

	t.Run("unknown plugin", func(t *testing.T) {
		_, found, err := game.PluginMetadata("Other.esp", true, false)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("groups path", func(t *testing.T) {
		path, err := game.GroupsPath("default", "late")
		require.NoError(t, err)
		require.Len(t, path, 2)
		assert.Equal(t, "default", path[0].Name)
		assert.Equal(t, "late", path[1].Name)
		assert.False(t, path[1].EdgeIsUserDefined)
	})

	t.Run("groups path to unknown group", func(t *testing.T) {
		_, err := game.GroupsPath("default", "missing")
		require.Error(t, err)
		assert.True(t, metadata.IsCode(err, metadata.ErrorCodeUndefinedGroup))
	})
}

func TestGameUserMetadataLifecycle(t *testing.T) {
	game := newTestGame(t)

	m, err := metadata.NewPluginMetadata("Blank.esp")
	require.NoError(t, err)
	m.SetGroup("late")
	require.NoError(t, game.SetPluginUserMetadata(m))

	stored, found, err := game.PluginUserMetadata("Blank.esp", false)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "late", stored.GroupOrDefault())

	t.Run("replacing an entry keeps a single entry", func(t *testing.T) {
		replacement, err := metadata.NewPluginMetadata("Blank.esp")
		require.NoError(t, err)
		replacement.SetGroup("early")
		require.NoError(t, game.SetPluginUserMetadata(replacement))

		stored, found, err := game.PluginUserMetadata("Blank.esp", false)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "early", stored.GroupOrDefault())
	})

	t.Run("discard single entry", func(t *testing.T) {
		game.DiscardPluginUserMetadata("Blank.esp")
		_, found, err := game.PluginUserMetadata("Blank.esp", false)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("discard everything", func(t *testing.T) {
		entry, err := metadata.NewPluginMetadata("Other.esp")
		require.NoError(t, err)
		entry.SetGroup("late")
		require.NoError(t, game.SetPluginUserMetadata(entry))
		game.SetUserGroups([]metadata.Group{{Name: "late", AfterGroups: []string{"default"}}})

		game.DiscardAllUserMetadata()
		_, found, err := game.PluginUserMetadata("Other.esp", false)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, []metadata.Group{metadata.DefaultGroup()}, game.UserGroups())
	})
}

func TestGameWriteUserMetadataRoundTrip(t *testing.T) {
	game := newTestGame(t)
	require.NoError(t, game.LoadUserlist(writeDocument(t, "userlist.yaml", testUserlist)))

	dir := t.TempDir()
	out := filepath.Join(dir, "userlist.yaml")
	require.NoError(t, game.WriteUserMetadata(out, false))

	t.Run("existing file without overwrite fails", func(t *testing.T) {
		err := game.WriteUserMetadata(out, false)
		require.Error(t, err)
		assert.True(t, metadata.IsCode(err, metadata.ErrorCodeFileAccess))
	})

	reloaded := newTestGame(t)
	require.NoError(t, reloaded.LoadUserlist(out))

	assert.Equal(t, game.KnownBashTags(), reloaded.KnownBashTags())
	original, foundOriginal, err := game.PluginUserMetadata("Blank.esp", false)
	require.NoError(t, err)
	restored, foundRestored, err := reloaded.PluginUserMetadata("Blank.esp", false)
	require.NoError(t, err)
	require.True(t, foundOriginal)
	require.True(t, foundRestored)
	assert.Equal(t, original.LoadAfterFiles(), restored.LoadAfterFiles())
}

func TestGameWriteMinimalList(t *testing.T) {
	game := newTestGame(t)
	require.NoError(t, game.LoadMasterlist(writeDocument(t, "masterlist.yaml", testMasterlist)))

	out := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, game.WriteMinimalList(out, false))

	reloaded := newTestGame(t)
	require.NoError(t, reloaded.LoadMasterlist(out))
	m, found, err := reloaded.PluginMetadata("Blank.esp", false, false)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, m.Tags(), 1)
	_, groupSet := m.Group()
	assert.False(t, groupSet)
}

func TestGameLoadPlugins(t *testing.T) {
	parser := &stubParser{records: map[string]*plugin.Record{
		"Blank.esm": {FileName: "Blank.esm", Master: true},
		"Blank.esp": {FileName: "Blank.esp"},
	}}
	game := newTestGame(t, WithPluginParser(parser))

	require.NoError(t, game.LoadPlugins([]string{"Blank.esm", "Blank.esp"}, false))
	loaded, ok := game.LoadedPlugin("blank.ESM")
	require.True(t, ok)
	assert.True(t, loaded.IsMaster())

	t.Run("unknown plugin is a file access error", func(t *testing.T) {
		err := game.LoadPlugins([]string{"Missing.esp"}, false)
		require.Error(t, err)
		assert.True(t, metadata.IsCode(err, metadata.ErrorCodeFileAccess))
	})

	t.Run("no parser configured", func(t *testing.T) {
		bare := newTestGame(t)
		err := bare.LoadPlugins([]string{"Blank.esm"}, false)
		require.Error(t, err)
		assert.True(t, metadata.IsCode(err, metadata.ErrorCodeInvalidArgument))
	})
}

func TestGameLoadOrderState(t *testing.T) {
	oracle := &stubLoadOrder{order: []string{"Blank.esm", "Blank.esp"}}
	game := newTestGame(t, WithLoadOrderReader(oracle), WithLoadOrderWriter(oracle))

	require.NoError(t, game.LoadCurrentLoadOrderState())
	assert.Equal(t, []string{"Blank.esm", "Blank.esp"}, game.LoadOrder())

	require.NoError(t, game.SetLoadOrder([]string{"Blank.esp", "Blank.esm"}))
	require.Len(t, oracle.written, 1)
	assert.Equal(t, []string{"Blank.esp", "Blank.esm"}, game.LoadOrder())
}

func TestGameSortPlugins(t *testing.T) {
	game := newTestGame(t)
	game.SetLoadedPlugins([]plugin.Plugin{
		&plugin.Record{FileName: "Blank.esp"},
		&plugin.Record{FileName: "Blank.esm", Master: true},
	})

	t.Run("master flag ordering applies without metadata", func(t *testing.T) {
		order, err := game.SortPlugins([]string{"Blank.esp", "Blank.esm"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Blank.esm", "Blank.esp"}, order)
	})

	t.Run("user metadata steers the sort", func(t *testing.T) {
		game.SetLoadedPlugins([]plugin.Plugin{
			&plugin.Record{FileName: "A.esp"},
			&plugin.Record{FileName: "B.esp"},
		})
		m, err := metadata.NewPluginMetadata("A.esp")
		require.NoError(t, err)
		m.SetLoadAfterFiles([]metadata.File{{Name: "B.esp"}})
		require.NoError(t, game.SetPluginUserMetadata(m))

		order, err := game.SortPlugins([]string{"A.esp", "B.esp"})
		require.NoError(t, err)
		assert.Equal(t, []string{"B.esp", "A.esp"}, order)
	})

	t.Run("unloaded plugin is an invalid argument", func(t *testing.T) {
		_, err := game.SortPlugins([]string{"Nope.esp"})
		require.Error(t, err)
		assert.True(t, metadata.IsCode(err, metadata.ErrorCodeInvalidArgument))
	})
}

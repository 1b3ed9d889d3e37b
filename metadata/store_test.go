package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCodec returns canned documents and records what it encodes, so the
// store can be tested without a real serialisation format.
type stubCodec struct {
	doc       Document
	decodeErr error
	encoded   *Document
}

func (c *stubCodec) Decode([]byte) (Document, error) {
	if c.decodeErr != nil {
		return Document{}, c.decodeErr
	}
	return c.doc, nil
}

func (c *stubCodec) DecodeWithPrelude(data, prelude []byte) (Document, error) {
	return c.Decode(data)
}

func (c *stubCodec) Encode(doc Document) ([]byte, error) {
	c.encoded = &doc
	return []byte("encoded"), nil
}

func mustMetadata(t *testing.T, name string) PluginMetadata {
	t.Helper()
	m, err := NewPluginMetadata(name)
	require.NoError(t, err)
	return m
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStoreLoad(t *testing.T) {
	t.Run("missing file is a file access error", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		err := store.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrorCodeFileAccess))
	})

	t.Run("codec rejection is a parse error", func(t *testing.T) {
		store := NewStore(&stubCodec{decodeErr: errors.New("boom")})
		err := store.Load(writeTempFile(t, "masterlist.yaml", "content"))
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrorCodeParse))
	})

	t.Run("load replaces contents", func(t *testing.T) {
		codec := &stubCodec{doc: Document{
			BashTags: []string{"Delev"},
			Plugins:  []PluginMetadata{mustMetadata(t, "Blank.esp")},
		}}
		store := NewStore(codec)
		require.NoError(t, store.Load(writeTempFile(t, "masterlist.yaml", "content")))
		assert.Equal(t, []string{"Delev"}, store.BashTags())
		assert.Len(t, store.Plugins(), 1)

		codec.doc = Document{}
		require.NoError(t, store.Load(writeTempFile(t, "masterlist.yaml", "content")))
		assert.Empty(t, store.BashTags())
		assert.Empty(t, store.Plugins())
	})

	t.Run("duplicate exact entries are rejected", func(t *testing.T) {
		codec := &stubCodec{doc: Document{
			Plugins: []PluginMetadata{
				mustMetadata(t, "Blank.esp"),
				mustMetadata(t, "blank.esp"),
			},
		}}
		store := NewStore(codec)
		err := store.Load(writeTempFile(t, "masterlist.yaml", "content"))
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrorCodeParse))
	})
}

func TestStoreSave(t *testing.T) {
	t.Run("missing directory is an invalid argument", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		err := store.Save(filepath.Join(t.TempDir(), "missing", "userlist.yaml"), true)
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrorCodeInvalidArgument))
	})

	t.Run("existing file without overwrite is a file access error", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		path := writeTempFile(t, "userlist.yaml", "old")
		err := store.Save(path, false)
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrorCodeFileAccess))
	})

	t.Run("overwrite replaces the file", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		path := writeTempFile(t, "userlist.yaml", "old")
		require.NoError(t, store.Save(path, true))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "encoded", string(data))
	})
}

func TestStoreSaveMinimal(t *testing.T) {
	codec := &stubCodec{}
	store := NewStore(codec)

	full := mustMetadata(t, "Blank.esp")
	full.SetGroup("late")
	full.SetTags([]Tag{{Name: "Delev", Addition: true}})
	full.SetDirtyInfo([]CleaningData{{CRC: 0xDEADBEEF, CleaningUtility: "SSEEdit"}})
	full.SetMessages([]Message{{Type: MessageTypeSay, Content: []MessageContent{{Text: "hi"}}}})
	require.NoError(t, store.AddPlugin(full))

	bare := mustMetadata(t, "Bare.esp")
	bare.SetGroup("late")
	require.NoError(t, store.AddPlugin(bare))

	dir := t.TempDir()
	require.NoError(t, store.SaveMinimal(filepath.Join(dir, "minimal.yaml"), false))

	require.NotNil(t, codec.encoded)
	require.Len(t, codec.encoded.Plugins, 1)
	minimal := codec.encoded.Plugins[0]
	assert.Equal(t, "Blank.esp", minimal.Name())
	assert.Len(t, minimal.Tags(), 1)
	assert.Len(t, minimal.DirtyInfo(), 1)
	assert.Empty(t, minimal.Messages())
	_, groupSet := minimal.Group()
	assert.False(t, groupSet)
}

func TestStoreFindPlugin(t *testing.T) {
	store := NewStore(&stubCodec{})

	regex := mustMetadata(t, `Blank.*\.esp`)
	regex.SetLoadAfterFiles([]File{{Name: "FromRegex.esp"}})
	require.NoError(t, store.AddPlugin(regex))

	exact := mustMetadata(t, "Blank.esp")
	exact.SetLoadAfterFiles([]File{{Name: "FromExact.esp"}})
	exact.SetGroup("late")
	require.NoError(t, store.AddPlugin(exact))

	t.Run("regex and exact entries merge in order", func(t *testing.T) {
		m, found := store.FindPlugin("Blank.esp")
		require.True(t, found)
		assert.Equal(t, "Blank.esp", m.Name())
		files := m.LoadAfterFiles()
		require.Len(t, files, 2)
		assert.Equal(t, "FromRegex.esp", files[0].Name)
		assert.Equal(t, "FromExact.esp", files[1].Name)
		assert.Equal(t, "late", m.GroupOrDefault())
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		m, found := store.FindPlugin("BLANK.esp")
		require.True(t, found)
		assert.Len(t, m.LoadAfterFiles(), 2)
	})

	t.Run("regex-only match", func(t *testing.T) {
		m, found := store.FindPlugin("Blank - Different.esp")
		require.True(t, found)
		files := m.LoadAfterFiles()
		require.Len(t, files, 1)
		assert.Equal(t, "FromRegex.esp", files[0].Name)
	})

	t.Run("no match", func(t *testing.T) {
		_, found := store.FindPlugin("Other.esp")
		assert.False(t, found)
	})
}

func TestStoreMutation(t *testing.T) {
	t.Run("adding a duplicate exact entry fails", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		require.NoError(t, store.AddPlugin(mustMetadata(t, "Blank.esp")))
		err := store.AddPlugin(mustMetadata(t, "blank.esp"))
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrorCodeInvalidArgument))
	})

	t.Run("set replaces an existing entry", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		first := mustMetadata(t, "Blank.esp")
		first.SetGroup("early")
		require.NoError(t, store.AddPlugin(first))

		second := mustMetadata(t, "Blank.esp")
		second.SetGroup("late")
		require.NoError(t, store.SetPlugin(second))

		m, found := store.FindPlugin("Blank.esp")
		require.True(t, found)
		assert.Equal(t, "late", m.GroupOrDefault())
	})

	t.Run("erase removes the entry", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		require.NoError(t, store.AddPlugin(mustMetadata(t, "Blank.esp")))
		store.ErasePlugin("BLANK.ESP")
		_, found := store.FindPlugin("Blank.esp")
		assert.False(t, found)
	})

	t.Run("clear empties the store", func(t *testing.T) {
		store := NewStore(&stubCodec{})
		require.NoError(t, store.AddPlugin(mustMetadata(t, "Blank.esp")))
		store.SetGroups([]Group{{Name: "late"}})
		store.Clear()
		assert.Empty(t, store.Plugins())
		assert.Equal(t, []Group{DefaultGroup()}, store.Groups())
	})
}

func TestStoreGroups(t *testing.T) {
	store := NewStore(&stubCodec{})
	assert.Equal(t, []Group{DefaultGroup()}, store.Groups())

	store.SetGroups([]Group{{Name: "late", AfterGroups: []string{"default"}}})
	groups := store.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, DefaultGroupName, groups[0].Name)
	assert.Equal(t, "late", groups[1].Name)
}

package libloot

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pStyl3/libloot/condition"
	"github.com/pStyl3/libloot/conf"
	"github.com/pStyl3/libloot/log"
	"github.com/pStyl3/libloot/metadata"
	"github.com/pStyl3/libloot/metadata/yamlcodec"
	"github.com/pStyl3/libloot/plugin"
	"github.com/pStyl3/libloot/sorting"
)

// Game is a sorting context for one installed game: it tracks loaded
// plugins, the masterlist and userlist metadata stores, and the
// collaborators that parse plugins and evaluate conditions. A Game is not
// safe for concurrent mutation; independent Games may run concurrently.
type Game struct {
	gameType      GameType
	gamePath      string
	localDataPath string

	parser          plugin.Parser
	loadOrderReader plugin.LoadOrderReader
	loadOrderWriter plugin.LoadOrderWriter
	conditions      *condition.Cache
	options         conf.SortOptions

	masterlist *metadata.Store
	userlist   *metadata.Store

	plugins     map[string]plugin.Plugin
	pluginOrder []string
	loadOrder   []string
}

// Option configures a Game at construction.
type Option func(*gameConfig)

type gameConfig struct {
	parser          plugin.Parser
	codec           metadata.DocumentCodec
	evaluator       condition.Evaluator
	loadOrderReader plugin.LoadOrderReader
	loadOrderWriter plugin.LoadOrderWriter
	options         *conf.SortOptions
}

// WithPluginParser supplies the plugin oracle used by LoadPlugins.
func WithPluginParser(p plugin.Parser) Option {
	return func(c *gameConfig) { c.parser = p }
}

// WithDocumentCodec supplies the metadata document oracle. The default is
// the YAML codec.
func WithDocumentCodec(codec metadata.DocumentCodec) Option {
	return func(c *gameConfig) { c.codec = codec }
}

// WithConditionEvaluator supplies the condition oracle. The default treats
// every condition as satisfied.
func WithConditionEvaluator(e condition.Evaluator) Option {
	return func(c *gameConfig) { c.evaluator = e }
}

// WithLoadOrderReader supplies the load-order oracle's read half.
func WithLoadOrderReader(r plugin.LoadOrderReader) Option {
	return func(c *gameConfig) { c.loadOrderReader = r }
}

// WithLoadOrderWriter supplies the load-order oracle's write half.
func WithLoadOrderWriter(w plugin.LoadOrderWriter) Option {
	return func(c *gameConfig) { c.loadOrderWriter = w }
}

// WithSortOptions overrides the default sort options.
func WithSortOptions(opts conf.SortOptions) Option {
	return func(c *gameConfig) { c.options = &opts }
}

// NewGame creates a sorting context for the game installed at gamePath
// with user data at localDataPath.
func NewGame(gameType GameType, gamePath, localDataPath string, opts ...Option) (*Game, error) {
	if !gameType.IsValid() {
		return nil, metadata.NewError(metadata.ErrorCodeInvalidArgument,
			fmt.Sprintf("unsupported game type %d", int(gameType)))
	}

	cfg := gameConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.codec == nil {
		cfg.codec = yamlcodec.New()
	}
	options := conf.DefaultSortOptions()
	if cfg.options != nil {
		options = *cfg.options
	}

	return &Game{
		gameType:        gameType,
		gamePath:        gamePath,
		localDataPath:   localDataPath,
		parser:          cfg.parser,
		loadOrderReader: cfg.loadOrderReader,
		loadOrderWriter: cfg.loadOrderWriter,
		conditions:      condition.NewCache(cfg.evaluator),
		options:         options,
		masterlist:      metadata.NewStore(cfg.codec),
		userlist:        metadata.NewStore(cfg.codec),
		plugins:         make(map[string]plugin.Plugin),
	}, nil
}

// Type returns the game type the context was created for.
func (g *Game) Type() GameType { return g.gameType }

// ClearConditionCache drops all cached condition results. The cache is
// also cleared automatically at the start of each sort.
func (g *Game) ClearConditionCache() {
	g.conditions.Clear()
}

// DataPath returns the directory plugin files are loaded from.
func (g *Game) DataPath() string {
	return filepath.Join(g.gamePath, "Data")
}

// LoadPlugins parses the named plugins and replaces any previously loaded
// plugin data for them. With headersOnly, record and asset data is not
// read; such plugins sort correctly against structural constraints but
// contribute no overlap edges.
func (g *Game) LoadPlugins(pluginNames []string, headersOnly bool) error {
	if g.parser == nil {
		return metadata.NewError(metadata.ErrorCodeInvalidArgument,
			"no plugin parser is configured for this game")
	}
	for _, name := range pluginNames {
		p, err := g.parser.Parse(filepath.Join(g.DataPath(), name), headersOnly)
		if err != nil {
			return metadata.WrapError(metadata.ErrorCodeFileAccess,
				fmt.Sprintf("cannot load plugin %q", name), err)
		}
		key := plugin.NormalizeFilename(name)
		if _, seen := g.plugins[key]; !seen {
			g.pluginOrder = append(g.pluginOrder, key)
		}
		g.plugins[key] = p
	}
	log.Debugf("game: loaded %d plugins (headers only: %t)", len(pluginNames), headersOnly)
	return nil
}

// SetLoadedPlugins replaces the loaded plugin set with the given records.
// It is the programmatic alternative to LoadPlugins for hosts that parse
// plugins themselves.
func (g *Game) SetLoadedPlugins(plugins []plugin.Plugin) {
	g.plugins = make(map[string]plugin.Plugin, len(plugins))
	g.pluginOrder = g.pluginOrder[:0]
	for _, p := range plugins {
		key := plugin.NormalizeFilename(p.Name())
		if _, seen := g.plugins[key]; !seen {
			g.pluginOrder = append(g.pluginOrder, key)
		}
		g.plugins[key] = p
	}
}

// LoadedPlugin returns the loaded plugin with the given filename.
func (g *Game) LoadedPlugin(name string) (plugin.Plugin, bool) {
	p, ok := g.plugins[plugin.NormalizeFilename(name)]
	return p, ok
}

// LoadedPlugins returns the filenames of all loaded plugins in the order
// they were first loaded.
func (g *Game) LoadedPlugins() []string {
	out := make([]string, 0, len(g.pluginOrder))
	for _, key := range g.pluginOrder {
		out = append(out, g.plugins[key].Name())
	}
	return out
}

// LoadCurrentLoadOrderState refreshes the cached load order from the
// load-order oracle.
func (g *Game) LoadCurrentLoadOrderState() error {
	if g.loadOrderReader == nil {
		return metadata.NewError(metadata.ErrorCodeInvalidArgument,
			"no load order reader is configured for this game")
	}
	order, err := g.loadOrderReader.ReadLoadOrder()
	if err != nil {
		return metadata.WrapError(metadata.ErrorCodeFileAccess, "cannot read load order", err)
	}
	g.loadOrder = order
	return nil
}

// LoadOrder returns the most recently read load order.
func (g *Game) LoadOrder() []string {
	return append([]string(nil), g.loadOrder...)
}

// SetLoadOrder persists the given order through the load-order oracle and
// caches it on success.
func (g *Game) SetLoadOrder(order []string) error {
	if g.loadOrderWriter == nil {
		return metadata.NewError(metadata.ErrorCodeInvalidArgument,
			"no load order writer is configured for this game")
	}
	if err := g.loadOrderWriter.WriteLoadOrder(order); err != nil {
		return metadata.WrapError(metadata.ErrorCodeFileAccess, "cannot write load order", err)
	}
	g.loadOrder = append([]string(nil), order...)
	return nil
}

// SortPlugins computes a load order for the named plugins, which must all
// be loaded. The input order is the final tie-break and is never mutated;
// on any error the on-disk load order is untouched.
func (g *Game) SortPlugins(pluginNames []string) ([]string, error) {
	// Condition results must not leak between sorts.
	g.conditions.Clear()

	plugins := make([]plugin.Plugin, 0, len(pluginNames))
	for _, name := range pluginNames {
		p, ok := g.plugins[plugin.NormalizeFilename(name)]
		if !ok {
			return nil, metadata.NewError(metadata.ErrorCodeInvalidArgument,
				fmt.Sprintf("plugin %q has not been loaded", name))
		}
		plugins = append(plugins, p)
	}

	masterlistMeta := make(map[string]metadata.PluginMetadata, len(plugins))
	userMeta := make(map[string]metadata.PluginMetadata, len(plugins))
	for _, p := range plugins {
		key := plugin.NormalizeFilename(p.Name())
		if m, ok := g.masterlist.FindPlugin(p.Name()); ok {
			evaluated, err := g.conditions.FilterPluginMetadata(m)
			if err != nil {
				return nil, err
			}
			masterlistMeta[key] = evaluated
		}
		if m, ok := g.userlist.FindPlugin(p.Name()); ok {
			evaluated, err := g.conditions.FilterPluginMetadata(m)
			if err != nil {
				return nil, err
			}
			userMeta[key] = evaluated
		}
	}

	return sorting.Sort(context.Background(), sorting.Request{
		Plugins:            plugins,
		MasterlistMetadata: masterlistMeta,
		UserMetadata:       userMeta,
		MasterlistGroups:   g.masterlist.Groups(),
		UserGroups:         g.userlist.Groups(),
		HardcodedPlugins:   g.gameType.HardcodedPlugins(),
		Options:            g.options,
	})
}

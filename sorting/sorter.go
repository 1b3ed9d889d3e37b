package sorting

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pStyl3/libloot/conf"
	"github.com/pStyl3/libloot/log"
	"github.com/pStyl3/libloot/metadata"
	"github.com/pStyl3/libloot/observability/metrics"
	"github.com/pStyl3/libloot/plugin"
)

const tracerName = "github.com/pStyl3/libloot/sorting"

// Request carries everything one sort needs. The metadata maps are keyed
// by normalised plugin filename and hold condition-evaluated metadata; a
// missing key means no metadata for that plugin. The caller's plugin slice
// is never mutated.
type Request struct {
	// Plugins are the installed plugins in their current load order. The
	// order is the final tie-break.
	Plugins []plugin.Plugin

	// MasterlistMetadata is each plugin's effective masterlist metadata.
	MasterlistMetadata map[string]metadata.PluginMetadata

	// UserMetadata is each plugin's effective userlist metadata.
	UserMetadata map[string]metadata.PluginMetadata

	// MasterlistGroups and UserGroups are the group definitions from the
	// two documents; they are merged during graph construction.
	MasterlistGroups []metadata.Group
	UserGroups       []metadata.Group

	// HardcodedPlugins are the game-imposed ordering mandates, earliest
	// first. Entries that are not installed are ignored.
	HardcodedPlugins []string

	// Options tune the sort; the zero value is replaced by defaults.
	Options conf.SortOptions
}

// Sort computes the load order for the request's plugins. The result is a
// total order consistent with every constraint edge; identical inputs
// produce byte-identical output. An empty input yields an empty output.
func Sort(ctx context.Context, req Request) ([]string, error) {
	start := time.Now()
	order, err := runSort(ctx, req)
	metrics.SortDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		if _, isCycle := err.(*CyclicInteractionError); isCycle {
			metrics.CyclesDetectedTotal.Inc()
		}
		metrics.SortsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.SortsTotal.WithLabelValues("success").Inc()
	return order, nil
}

func runSort(ctx context.Context, req Request) ([]string, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "libloot.sort",
		trace.WithAttributes(attribute.Int("plugins", len(req.Plugins))))
	defer span.End()

	if len(req.Plugins) == 0 {
		return []string{}, nil
	}

	opts := req.Options
	if opts == (conf.SortOptions{}) {
		opts = conf.DefaultSortOptions()
	}

	log.Debugf("sorting: starting sort of %d plugins", len(req.Plugins))

	groupGraph, err := buildGroupGraph(ctx, tracer, req, opts)
	if err != nil {
		return nil, err
	}

	graph, err := buildPluginGraph(ctx, tracer, req, groupGraph, opts)
	if err != nil {
		return nil, err
	}

	_, linearSpan := tracer.Start(ctx, "libloot.sort.linearise")
	order, err := graph.topologicalSort()
	linearSpan.End()
	if err != nil {
		return nil, err
	}

	log.Debugf("sorting: finished, %d edges over %d plugins", graph.edgeCount(), len(order))
	return order, nil
}

func buildGroupGraph(ctx context.Context, tracer trace.Tracer, req Request, opts conf.SortOptions) (*GroupGraph, error) {
	_, span := tracer.Start(ctx, "libloot.sort.group_graph")
	defer span.End()
	return NewGroupGraph(req.MasterlistGroups, req.UserGroups, opts.MasterlistGroupCyclesFatal)
}

func buildPluginGraph(ctx context.Context, tracer trace.Tracer, req Request, groupGraph *GroupGraph, opts conf.SortOptions) (*pluginGraph, error) {
	_, span := tracer.Start(ctx, "libloot.sort.plugin_graph")
	defer span.End()

	masterlistMeta := make([]metadata.PluginMetadata, len(req.Plugins))
	userMeta := make([]metadata.PluginMetadata, len(req.Plugins))
	groups := make([]string, len(req.Plugins))
	for i, p := range req.Plugins {
		key := plugin.NormalizeFilename(p.Name())
		if m, ok := req.MasterlistMetadata[key]; ok {
			masterlistMeta[i] = m
		}
		if m, ok := req.UserMetadata[key]; ok {
			userMeta[i] = m
		}
		// The userlist group assignment overrides the masterlist's.
		groups[i] = metadata.DefaultGroupName
		if name, ok := masterlistMeta[i].Group(); ok {
			groups[i] = name
		}
		if name, ok := userMeta[i].Group(); ok {
			groups[i] = name
		}
	}

	graph, err := newPluginGraph(req.Plugins, masterlistMeta, userMeta, groups)
	if err != nil {
		return nil, err
	}

	type tier struct {
		name       string
		add        func() error
		checkCycle bool
	}
	tiers := []tier{
		{"hardcoded", func() error {
			graph.addHardcodedEdges(req.HardcodedPlugins)
			return nil
		}, true},
		{"master flag", func() error {
			graph.addMasterFlagEdges()
			return nil
		}, true},
		{"master", func() error {
			graph.addMasterEdges()
			return nil
		}, true},
		{"masterlist metadata", func() error {
			graph.addMetadataEdges(masterlistMeta, EdgeTypeMasterlistRequirement, EdgeTypeMasterlistLoadAfter)
			return nil
		}, false},
		{"user metadata", func() error {
			graph.addMetadataEdges(userMeta, EdgeTypeUserRequirement, EdgeTypeUserLoadAfter)
			return nil
		}, true},
		{"group", func() error {
			skipped, err := graph.addGroupEdges(groupGraph)
			metrics.GroupEdgesSkippedTotal.Add(float64(skipped))
			return err
		}, true},
		{"overlap", func() error {
			graph.addOverlapEdges(opts.ParallelOverlapThreshold)
			return nil
		}, true},
		{"tie-break", func() error {
			graph.addTieBreakEdges()
			return nil
		}, false},
	}

	edgesBefore := 0
	for _, t := range tiers {
		if err := t.add(); err != nil {
			return nil, err
		}
		edgesAfter := graph.edgeCount()
		metrics.EdgesAddedTotal.WithLabelValues(t.name).Add(float64(edgesAfter - edgesBefore))
		log.Debugf("sorting: %s tier added %d edges", t.name, edgesAfter-edgesBefore)
		edgesBefore = edgesAfter

		if t.checkCycle {
			if err := graph.checkForCycles(); err != nil {
				return nil, err
			}
		}
	}
	return graph, nil
}

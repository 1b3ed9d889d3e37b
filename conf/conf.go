// Package conf holds the library's tunable options and loads them from
// local configuration files.
package conf

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"

	// Register the YAML codec used to decode configuration files.
	_ "github.com/go-kratos/kratos/v2/encoding/yaml"
)

// SortOptions are the tunables of the sorting subsystem.
type SortOptions struct {
	// MasterlistGroupCyclesFatal makes cycles made only of masterlist
	// group edges fatal instead of tolerated. Masterlist cycles are a
	// known data-quality hazard; the default matches the masterlist
	// authors' expectations.
	MasterlistGroupCyclesFatal bool `json:"masterlist_group_cycles_fatal"`

	// ParallelOverlapThreshold is the installed-plugin count above which
	// overlap pair enumeration runs data-parallel. Zero disables
	// parallelism.
	ParallelOverlapThreshold int `json:"parallel_overlap_threshold"`

	// Language is the preferred language code for message content. It is
	// loaded and stored with the other options; no code in this module
	// reads it, and metadata.Message.SelectContent takes its language as
	// an argument.
	Language string `json:"language"`
}

// DefaultSortOptions returns the options used when no configuration file
// is supplied.
func DefaultSortOptions() SortOptions {
	return SortOptions{
		MasterlistGroupCyclesFatal: false,
		ParallelOverlapThreshold:   512,
		Language:                   "en",
	}
}

// LoadSortOptions reads sort options from the configuration file or
// directory at path. Keys not present keep their defaults.
func LoadSortOptions(path string) (SortOptions, error) {
	opts := DefaultSortOptions()

	source := file.NewSource(path)
	cfg := config.New(config.WithSource(source))
	defer func() { _ = cfg.Close() }()

	if err := cfg.Load(); err != nil {
		return opts, fmt.Errorf("cannot load sort options from %q: %w", path, err)
	}
	if err := cfg.Scan(&opts); err != nil {
		return opts, fmt.Errorf("cannot decode sort options from %q: %w", path, err)
	}
	return opts, nil
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abelzeko/water-feed/internal/entities"
)

// Column layouts published by the monitoring authority
var (
	RiverGaugeColumns = []string{"Date", "Time", "Stage", "Flow"}
	ReservoirColumns  = []string{"Date", "Time", "Elevation", "Tailwater", "Generation", "Turbine Release", "Spillway Release", "Total Release"}
)

const defaultReportBase = "https://www.swl-wc.usace.army.mil/pages/data/tabular/htm/"

// Registry maps source identifiers to their endpoint and schema
type Registry struct {
	sources []entities.SourceSpec
	byID    map[string]int
}

// NewRegistry validates specs and builds a registry that keeps their order
func NewRegistry(specs []entities.SourceSpec) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(specs))}
	for _, spec := range specs {
		if err := validateSpec(spec); err != nil {
			return nil, err
		}
		if _, dup := r.byID[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", spec.ID)
		}
		spec.Columns = append([]string(nil), spec.Columns...)
		r.byID[spec.ID] = len(r.sources)
		r.sources = append(r.sources, spec)
	}
	return r, nil
}

// Sources returns a copy of all specs in registry order
func (r *Registry) Sources() []entities.SourceSpec {
	out := make([]entities.SourceSpec, len(r.sources))
	copy(out, r.sources)
	return out
}

// Lookup returns the spec registered under id
func (r *Registry) Lookup(id string) (entities.SourceSpec, bool) {
	i, ok := r.byID[id]
	if !ok {
		return entities.SourceSpec{}, false
	}
	return r.sources[i], true
}

// Len returns the number of registered sources
func (r *Registry) Len() int {
	return len(r.sources)
}

// Only returns a registry restricted to the given id
func (r *Registry) Only(id string) (*Registry, error) {
	spec, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", id)
	}
	return NewRegistry([]entities.SourceSpec{spec})
}

func validateSpec(spec entities.SourceSpec) error {
	if spec.ID == "" {
		return errors.New("source id is required")
	}
	u, err := url.Parse(spec.Endpoint)
	if err != nil {
		return fmt.Errorf("source %s: invalid endpoint: %w", spec.ID, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source %s: endpoint must be an absolute http(s) URL", spec.ID)
	}
	if len(spec.Columns) < 2 {
		return fmt.Errorf("source %s: schema needs at least Date and Time columns", spec.ID)
	}
	if spec.MinFields < 2 || spec.MinFields > len(spec.Columns) {
		return fmt.Errorf("source %s: min_fields must be between 2 and %d", spec.ID, len(spec.Columns))
	}
	return nil
}

// DefaultRegistry returns the built-in source table
func DefaultRegistry() *Registry {
	river := func(id, page string) entities.SourceSpec {
		return entities.SourceSpec{ID: id, Endpoint: defaultReportBase + page + ".htm", Columns: RiverGaugeColumns, MinFields: 4}
	}
	reservoir := func(id, page string) entities.SourceSpec {
		return entities.SourceSpec{ID: id, Endpoint: defaultReportBase + page + ".htm", Columns: ReservoirColumns, MinFields: 4}
	}

	r, err := NewRegistry([]entities.SourceSpec{
		river("white_river", "fayettev"),
		river("war_eagle", "hindsvil"),
		reservoir("beaver_lake", "beaver"),
		river("kings_river", "berryvil"),
		river("james_river", "galena"),
		reservoir("table_rock", "tabrock"),
		reservoir("bull_shoals", "bulsdam"),
	})
	if err != nil {
		panic(fmt.Sprintf("built-in registry is invalid: %v", err))
	}
	return r
}

// registryFile is the YAML layout of a registry file
type registryFile struct {
	Sources []struct {
		ID        string   `yaml:"id"`
		Endpoint  string   `yaml:"endpoint"`
		Schema    string   `yaml:"schema,omitempty"`
		Columns   []string `yaml:"columns,omitempty"`
		MinFields int      `yaml:"min_fields,omitempty"`
	} `yaml:"sources"`
}

// LoadRegistry reads a YAML registry. A source may name a predefined schema
// ("river" or "reservoir") instead of listing its columns.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return ParseRegistry(raw)
}

// ParseRegistry decodes a YAML registry document
func ParseRegistry(raw []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, errors.New("registry defines no sources")
	}

	specs := make([]entities.SourceSpec, 0, len(file.Sources))
	for _, s := range file.Sources {
		columns := s.Columns
		switch s.Schema {
		case "":
		case "river":
			columns = RiverGaugeColumns
		case "reservoir":
			columns = ReservoirColumns
		default:
			return nil, fmt.Errorf("source %s: unknown schema %q", s.ID, s.Schema)
		}
		minFields := s.MinFields
		if minFields == 0 {
			minFields = min(len(columns), 4)
		}
		specs = append(specs, entities.SourceSpec{
			ID:        s.ID,
			Endpoint:  s.Endpoint,
			Columns:   columns,
			MinFields: minFields,
		})
	}
	return NewRegistry(specs)
}

package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/tab"
)

// fileDashboard is the on-disk form of a dashboard.
type fileDashboard struct {
	Title          string    `yaml:"title" toml:"title"`
	RefreshMinutes int       `yaml:"refresh_minutes" toml:"refresh_minutes"`
	Tabs           []fileTab `yaml:"tabs" toml:"tabs"`
}

type fileTab struct {
	Type          string     `yaml:"type" toml:"type"`
	Label         string     `yaml:"label" toml:"label"`
	ID            string     `yaml:"id" toml:"id"`
	Freshness     string     `yaml:"freshness" toml:"freshness"`
	Hidden        bool       `yaml:"hidden" toml:"hidden"`
	CSVPath       string     `yaml:"csv_path" toml:"csv_path"`
	ChartType     string     `yaml:"chart_type" toml:"chart_type"`
	GraphColumns  seriesList `yaml:"graph_columns" toml:"graph_columns"`
	TableColumns  []string   `yaml:"table_columns" toml:"table_columns"`
	OptionsColumn string     `yaml:"options_column" toml:"options_column"`
	StartValue    string     `yaml:"start_value" toml:"start_value"`
	X             string     `yaml:"x" toml:"x"`
	Y             string     `yaml:"y" toml:"y"`
	DropdownID    string     `yaml:"dropdown_id" toml:"dropdown_id"`
	GraphID       string     `yaml:"graph_id" toml:"graph_id"`
	Children      []string   `yaml:"children" toml:"children"`
}

type seriesEntry struct {
	X         string `yaml:"x" toml:"x"`
	Y         string `yaml:"y" toml:"y"`
	ChartType string `yaml:"chart_type" toml:"chart_type"`
}

// seriesList accepts a single {x, y} mapping or a list of them.
type seriesList []seriesEntry

var seriesKeys = map[string]bool{"x": true, "y": true, "chart_type": true}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *seriesList) UnmarshalYAML(node *yaml.Node) error {
	var nodes []*yaml.Node
	switch node.Kind {
	case yaml.MappingNode:
		nodes = []*yaml.Node{node}
	case yaml.SequenceNode:
		nodes = node.Content
	default:
		return fmt.Errorf("line %d: graph_columns must be a mapping or a list of mappings", node.Line)
	}

	out := make(seriesList, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: graph_columns entries must be mappings", n.Line)
		}
		for i := 0; i < len(n.Content); i += 2 {
			if k := n.Content[i].Value; !seriesKeys[k] {
				return fmt.Errorf("line %d: field %s not found in graph_columns", n.Content[i].Line, k)
			}
		}
		var e seriesEntry
		if err := n.Decode(&e); err != nil {
			return err
		}
		out = append(out, e)
	}
	*l = out
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (l *seriesList) UnmarshalTOML(v any) error {
	var items []any
	switch v := v.(type) {
	case map[string]any:
		items = []any{v}
	case []map[string]any:
		for _, m := range v {
			items = append(items, m)
		}
	case []any:
		items = v
	default:
		return fmt.Errorf("graph_columns must be a table or an array of tables")
	}

	out := make(seriesList, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("graph_columns entries must be tables")
		}
		var e seriesEntry
		for k, raw := range m {
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("graph_columns.%s must be a string", k)
			}
			switch k {
			case "x":
				e.X = s
			case "y":
				e.Y = s
			case "chart_type":
				e.ChartType = s
			default:
				return fmt.Errorf("field %s not found in graph_columns", k)
			}
		}
		out = append(out, e)
	}
	*l = out
	return nil
}

// ParseYAML decodes a dashboard file in YAML form. Unknown fields are
// rejected.
func ParseYAML(data []byte, origin string) (Spec, error) {
	var f fileDashboard
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Spec{}, fmt.Errorf("%w: parsing %s: %v", ErrConfig, origin, err)
	}
	return f.spec(origin), nil
}

// ParseTOML decodes a dashboard file in TOML form. Unknown fields are
// rejected.
func ParseTOML(data []byte, origin string) (Spec, error) {
	var f fileDashboard
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: parsing %s: %v", ErrConfig, origin, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			// graph_columns is decoded by seriesList itself.
			if strings.Contains(k.String(), "graph_columns") {
				continue
			}
			keys = append(keys, k.String())
		}
		if len(keys) > 0 {
			sort.Strings(keys)
			return Spec{}, fmt.Errorf("%w: parsing %s: unknown fields %s", ErrConfig, origin, strings.Join(keys, ", "))
		}
	}
	return f.spec(origin), nil
}

// ParseFile reads a dashboard file from fsys, choosing the decoder by
// extension.
func ParseFile(fsys fs.FS, name string) (Spec, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: reading %s: %v", ErrConfig, name, err)
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data, name)
	case ".toml":
		return ParseTOML(data, name)
	default:
		return Spec{}, fmt.Errorf("%w: %s: unsupported file type", ErrConfig, name)
	}
}

func (f fileDashboard) spec(origin string) Spec {
	s := Spec{
		Title:          f.Title,
		RefreshMinutes: f.RefreshMinutes,
		Origin:         origin,
		Tabs:           make([]tab.Definition, 0, len(f.Tabs)),
	}
	for _, t := range f.Tabs {
		s.Tabs = append(s.Tabs, t.definition())
	}
	return s
}

func (t fileTab) definition() tab.Definition {
	id := t.ID
	if id == "" {
		id = Slug(t.Label)
	}
	def := tab.Definition{
		ID:            id,
		Label:         t.Label,
		Kind:          tab.Kind(t.Type),
		Freshness:     tab.Freshness(t.Freshness),
		Source:        t.CSVPath,
		Hidden:        t.Hidden,
		Columns:       t.TableColumns,
		OptionsColumn: t.OptionsColumn,
		StartValue:    t.StartValue,
		X:             t.X,
		Y:             t.Y,
		ChartKind:     chart.Kind(t.ChartType),
		DropdownID:    t.DropdownID,
		GraphID:       t.GraphID,
		Children:      t.Children,
	}
	for _, e := range t.GraphColumns {
		kind := e.ChartType
		if kind == "" {
			kind = t.ChartType
		}
		def.Series = append(def.Series, chart.SeriesSpec{X: e.X, Y: e.Y, Kind: chart.Kind(kind)})
	}
	return def
}

// Package dataset provides the tabular data model shared by tabs and the
// loaders that read it from disk.
package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrLoad indicates a data source could not be read or parsed.
var ErrLoad = errors.New("dataset: load failed")

// ErrColumn indicates a referenced column does not exist in the dataset.
var ErrColumn = errors.New("dataset: unknown column")

// Dataset is an in-memory table. Cells are kept as strings; numeric
// interpretation happens on demand through Floats.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// Loader reads a dataset from a source reference (typically a file path).
type Loader interface {
	Load(source string) (*Dataset, error)
}


// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Index returns the position of col, or -1 if it is not present.
func (d *Dataset) Index(col string) int {
	for i, c := range d.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Column returns the values of col in row order.
func (d *Dataset) Column(col string) ([]string, error) {
	idx := d.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumn, col)
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Floats returns the values of col parsed as float64. Empty cells parse as 0.
func (d *Dataset) Floats(col string) ([]float64, error) {
	values, err := d.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: column %q row %d: %q is not numeric", col, i+1, v)
		}
		out[i] = f
	}
	return out, nil
}

// Project returns a dataset restricted to cols, in the given order.
// An empty cols list keeps every column.
func (d *Dataset) Project(cols []string) (*Dataset, error) {
	if len(cols) == 0 {
		return d, nil
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = d.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumn, c)
		}
	}
	out := &Dataset{
		Columns: append([]string(nil), cols...),
		Rows:    make([][]string, len(d.Rows)),
	}
	for r, row := range d.Rows {
		projected := make([]string, len(idx))
		for i, j := range idx {
			projected[i] = row[j]
		}
		out.Rows[r] = projected
	}
	return out, nil
}

// Filter returns the rows whose col equals value, preserving row order.
func (d *Dataset) Filter(col, value string) (*Dataset, error) {
	idx := d.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumn, col)
	}
	out := &Dataset{Columns: d.Columns}
	for _, row := range d.Rows {
		if row[idx] == value {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Distinct returns the distinct values of col in first-seen order.
func (d *Dataset) Distinct(col string) ([]string, error) {
	values, err := d.Column(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

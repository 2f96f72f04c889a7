package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CSVLoader reads comma-separated files. The first record is the header.
// Relative sources are opened through FS when it is set; absolute paths and
// a nil FS go straight to the operating system.
type CSVLoader struct {
	FS fs.FS
}

// NewCSVLoader creates a CSVLoader reading relative paths from fsys.
func NewCSVLoader(fsys fs.FS) *CSVLoader {
	return &CSVLoader{FS: fsys}
}

// Load opens source and parses it as CSV.
func (l *CSVLoader) Load(source string) (*Dataset, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: empty source", ErrLoad)
	}
	f, err := l.open(source)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrLoad, source, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrLoad, source, err)
	}
	return ds, nil
}

func (l *CSVLoader) open(source string) (io.ReadCloser, error) {
	if l.FS == nil || filepath.IsAbs(source) {
		return os.Open(source)
	}
	return l.FS.Open(path.Clean(filepath.ToSlash(source)))
}

// ReadCSV parses a header row followed by data rows. Every row must have
// the same number of fields as the header.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, err
	}

	ds := &Dataset{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds, nil
}

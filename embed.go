// Package quickdash provides embedded runtime resources (demo dashboards,
// demo data, web assets) and an overlay filesystem that checks local disk
// first, falling back to embedded.
package quickdash

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed dashboards/*.yaml dashboards/*.toml
var rawDashboards embed.FS

//go:embed data/*.csv
var rawData embed.FS

//go:embed web/*.tmpl web/*.js web/*.css
var rawWeb embed.FS

// Dashboards is the embedded demo dashboards filesystem with the
// "dashboards/" prefix stripped.
var Dashboards = mustSub(rawDashboards, "dashboards")

// Data is the embedded demo data filesystem with the "data/" prefix stripped.
var Data = mustSub(rawData, "data")

// Web is the embedded web assets filesystem with the "web/" prefix stripped.
var Web = mustSub(rawWeb, "web")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// OverlayFS returns a filesystem that checks localDir on disk first,
// falling back to the embedded filesystem for files not found locally.
// An empty localDir serves the embedded filesystem alone.
func OverlayFS(localDir string, embedded fs.FS) fs.FS {
	if localDir == "" {
		return embedded
	}
	return overlayFS{localDir: localDir, embedded: embedded}
}

type overlayFS struct {
	localDir string
	embedded fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, err := os.Open(filepath.Join(o.localDir, filepath.FromSlash(name)))
	if err == nil {
		return f, nil
	}
	return o.embedded.Open(name)
}

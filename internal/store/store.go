// Package store persists projects: the named layer manifests (sources,
// styles, stacking order) a session is rebuilt from. Layer data itself
// stays in its source files and databases; a project records where to find
// it and how to present it.
package store

import (
	"context"
	"time"
)

// ProjectLayer is one manifest entry: where a layer's data lives and how
// the stack presented it.
type ProjectLayer struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // "vector" or "raster"
	Source  string `json:"source"`
	CRS     string `json:"crs"`
	Style   string `json:"style,omitempty"` // YAML, same shape as style files
	ZOrder  int    `json:"z_order"`
	Visible bool   `json:"visible"`
}

// Project is a named layer manifest.
type Project struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Layers    []ProjectLayer `json:"layers"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store defines project persistence.
type Store interface {
	SaveProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, name string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, name string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

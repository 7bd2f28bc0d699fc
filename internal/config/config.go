// Package config is the layered configuration for both binaries: built-in
// defaults, overridden by a KDL config file, overridden by CLI flags —
// spec.md §0.2.
package config

import "time"

// Config holds every knob either binary needs. The zero-value Config is
// never used directly; callers start from Default().
type Config struct {
	Database Database
	Server   Server
	Indexing Indexing
}

// Database configures the embedded key-value store.
type Database struct {
	// Path is the bbolt file location on disk.
	Path string
	// MapSizeBytes is the initial memory-map size handed to the store
	// (spec.md §6's "order of hundreds of gigabytes" environment assumption);
	// it does not cap the file's growth.
	MapSizeBytes int64
}

// Server configures the search HTTP frontend.
type Server struct {
	// ListenAddr is the address the search binary binds, e.g. "0.0.0.0:3000".
	ListenAddr string
	// AdminUser and AdminPassword gate the admin endpoints (the indexer
	// status page and archive-registration form) behind HTTP Basic auth.
	AdminUser     string
	AdminPassword string
	// ResultLimit is K from spec.md §4.6: how many ranked hits the search
	// page shows for every query.
	ResultLimit int
}

// Indexing configures the indexer binary's processing loop.
type Indexing struct {
	// Workers bounds how many records are parsed/extracted/trigrammed in
	// parallel per archive. 0 means runtime.GOMAXPROCS(0).
	Workers int
	// BackoffInterval is how long the processing loop sleeps after finding
	// an empty task queue before retrying (spec.md §4.5's "if none exists").
	BackoffInterval time.Duration
	// FetchTimeout bounds a single archive/path-list download.
	FetchTimeout time.Duration
}

// Default returns the built-in baseline configuration.
func Default() Config {
	return Config{
		Database: Database{
			Path:         "croissantine.db",
			MapSizeBytes: 1 << 30, // 1GiB
		},
		Server: Server{
			ListenAddr:  "0.0.0.0:3000",
			ResultLimit: 20,
		},
		Indexing: Indexing{
			Workers:         0,
			BackoffInterval: 30 * time.Second,
			FetchTimeout:    5 * time.Minute,
		},
	}
}

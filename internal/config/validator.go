package config

import (
	"fmt"
	"runtime"
)

// Validator validates configuration and fills in smart defaults the same
// way the teacher's config.Validator does.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg and applies smart defaults in place.
// Returns an error if validation fails.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("config: database: %w", err)
	}
	if err := v.validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("config: server: %w", err)
	}
	if err := v.validateIndexing(&cfg.Indexing); err != nil {
		return fmt.Errorf("config: indexing: %w", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateDatabase(db *Database) error {
	if db.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if db.MapSizeBytes < 0 {
		return fmt.Errorf("map size cannot be negative, got %d", db.MapSizeBytes)
	}
	return nil
}

func (v *Validator) validateServer(s *Server) error {
	if s.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if s.ResultLimit < 0 {
		return fmt.Errorf("result limit cannot be negative, got %d", s.ResultLimit)
	}
	if (s.AdminUser == "") != (s.AdminPassword == "") {
		return fmt.Errorf("admin user and password must be set together")
	}
	return nil
}

func (v *Validator) validateIndexing(idx *Indexing) error {
	if idx.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", idx.Workers)
	}
	if idx.BackoffInterval < 0 {
		return fmt.Errorf("backoff interval cannot be negative, got %s", idx.BackoffInterval)
	}
	if idx.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout cannot be negative, got %s", idx.FetchTimeout)
	}
	return nil
}

// setSmartDefaults fills in zero-valued fields that should auto-detect from
// the runtime environment rather than stay at a literal zero.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Indexing.Workers == 0 {
		cfg.Indexing.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Server.ResultLimit == 0 {
		cfg.Server.ResultLimit = 20
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}

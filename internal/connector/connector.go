package connector

import (
	"context"

	"github.com/gennetta/gennetta/internal/model"
)

// Provider is the interface every schema provider implements. Live providers
// introspect a real database; demo providers return fabricated data and
// report Live() == false so callers can label the result.
type Provider interface {
	// Name returns the driver name the provider is registered under.
	Name() string

	// Live reports whether the provider performs real introspection.
	Live() bool

	// Analyze produces a snapshot of the base tables reachable through d.
	// Live providers open exactly one connection and close it before
	// returning, whatever the outcome. There are no retries.
	Analyze(ctx context.Context, d Descriptor) (*model.SchemaSnapshot, error)
}

// Config holds per-driver settings supplied from configuration.
type Config struct {
	// SchemaName is the catalog schema enumerated for base tables. Each
	// provider falls back to its dialect default when empty.
	SchemaName string

	// SSLMode is passed through as postgres' sslmode parameter when set.
	SSLMode string

	// Root confines file-based providers to paths inside this directory.
	// Relative paths resolve against it. Empty means unrestricted.
	Root string
}

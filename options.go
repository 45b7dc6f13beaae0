package vindecoder

import (
	"time"

	"autolytiq/vindecoder/internal/catalogstore"
	"autolytiq/vindecoder/internal/obslog"
	"autolytiq/vindecoder/internal/obsmetrics"
)

// Config constructs a Decoder. Store is the only required field; every
// other field has a workable zero value.
type Config struct {
	// Store backs every catalog query. Build one with catalogstore.NewMemStore
	// or catalogstore.NewSQLStore.
	Store catalogstore.Store

	// Logger receives structured logs for each decode stage. A nop logger
	// is used when nil.
	Logger *obslog.Logger

	// Metrics receives per-decode counters/histograms. Metrics are skipped
	// entirely when nil.
	Metrics *obsmetrics.Metrics

	// DefaultTimeout bounds a Decode call that doesn't set its own
	// DecodeOptions.Timeout. Zero means no default timeout.
	DefaultTimeout time.Duration

	// FutureYearGuard is the latest plausible model year (see
	// internal/modelyear); zero disables the guard.
	FutureYearGuard int

	// PreferOfficial breaks residual matcher ties toward official catalog
	// rows over community overlay rows (spec.md §4.7). The zero value is
	// false; set this explicitly (vconfig.Load defaults it to true).
	PreferOfficial bool
}

// DecodeOptions customizes a single Decode call.
type DecodeOptions struct {
	// Timeout overrides Config.DefaultTimeout for this call only.
	Timeout time.Duration

	// ModelYearOverride bypasses position-10 decoding entirely.
	ModelYearOverride *int

	// AssumedMakeID hints the WMI resolver toward a specific make when the
	// code prefix is shared across brands.
	AssumedMakeID *int64

	// IncludePatterns attaches winning-pattern provenance to the result.
	IncludePatterns bool
}

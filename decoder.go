package vindecoder

import (
	"context"
	"fmt"
	"time"

	"autolytiq/vindecoder/internal/assembler"
	"autolytiq/vindecoder/internal/catalogstore"
	"autolytiq/vindecoder/internal/decodeerr"
	"autolytiq/vindecoder/internal/matcher"
	"autolytiq/vindecoder/internal/modelyear"
	"autolytiq/vindecoder/internal/obslog"
	"autolytiq/vindecoder/internal/obsmetrics"
	"autolytiq/vindecoder/internal/obstrace"
	"autolytiq/vindecoder/internal/schemaselect"
	"autolytiq/vindecoder/internal/validator"
	"autolytiq/vindecoder/internal/wmiresolve"

	"go.opentelemetry.io/otel/attribute"
)

// Decoder is the VIN decoding pipeline: Structural Validator -> WMI
// Resolver -> Model-Year Resolver -> Schema Selector -> Pattern Matcher &
// Scorer -> Result Assembler (spec.md §2). A Decoder is safe for
// unlimited concurrent Decode calls once constructed; it holds no
// per-decode mutable state.
type Decoder struct {
	store           catalogstore.Store
	logger          *obslog.Logger
	metrics         *obsmetrics.Metrics
	defaultTimeout  time.Duration
	futureYearGuard int
	preferOfficial  bool
}

// New constructs a Decoder from cfg. cfg.Store must be non-nil.
func New(cfg Config) (*Decoder, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("vindecoder: Config.Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = obslog.Nop()
	}

	return &Decoder{
		store:           cfg.Store,
		logger:          logger,
		metrics:         cfg.Metrics,
		defaultTimeout:  cfg.DefaultTimeout,
		futureYearGuard: cfg.FutureYearGuard,
		preferOfficial:  cfg.PreferOfficial,
	}, nil
}

// Close releases the underlying Store's resources (connections, prepared
// statements). The Decoder must not be used afterward.
func (d *Decoder) Close() error {
	return d.store.Close()
}

// Decode runs the full pipeline against vin. A structural or WMI-not-found
// error short-circuits the remaining stages; DecodeResult.Valid reflects
// whether any fatal error was raised.
func (d *Decoder) Decode(ctx context.Context, vin string, opts DecodeOptions) (DecodeResult, error) {
	timeout := d.defaultTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, traceID := obslog.WithTraceID(ctx, "")
	log := d.logger.WithContext(ctx).WithFields(map[string]interface{}{"vin": vin, "traceId": traceID})

	start := time.Now()
	result, err := d.decode(ctx, vin, opts)
	elapsed := time.Since(start)

	outcome := "valid"
	if err != nil {
		outcome = "error"
	} else if !result.Valid {
		outcome = "invalid"
	}
	if d.metrics != nil {
		d.metrics.RecordDecode(outcome, elapsed)
	}

	if err != nil {
		log.WithError(err).Error("decode failed")
		return DecodeResult{}, err
	}
	log.WithFields(map[string]interface{}{"outcome": outcome, "elapsedMs": elapsed.Milliseconds()}).Debug("decode complete")
	return result, nil
}

func (d *Decoder) decode(ctx context.Context, vin string, opts DecodeOptions) (DecodeResult, error) {
	normalized, structErrs := validator.Validate(vin)
	allErrs := append([]*decodeerr.Error{}, structErrs...)

	if decodeerr.IsFatal(structErrs) {
		return DecodeResult{VIN: normalized.VIN, Valid: false, Errors: allErrs}, nil
	}

	select {
	case <-ctx.Done():
		return DecodeResult{}, ctx.Err()
	default:
	}

	check, err := validator.CheckDigit(normalized.VIN)
	if err != nil {
		allErrs = append(allErrs, decodeerr.New(decodeerr.CodeInvalidCheckDigit, err.Error()))
	} else if !check.Valid {
		allErrs = append(allErrs, decodeerr.New(decodeerr.CodeInvalidCheckDigit,
			fmt.Sprintf("expected check digit %q, got %q", check.Expected, check.Actual)))
	}

	wmiRes, err := obstrace.Stage(ctx, "wmi_resolve", func(ctx context.Context) (wmiresolve.Result, error) {
		res, errs := wmiresolve.Resolve(ctx, d.store, normalized.VIN, opts.AssumedMakeID)
		if decodeerr.IsFatal(errs) {
			return wmiresolve.Result{}, fmt.Errorf("%s", errs[0].Message)
		}
		allErrs = append(allErrs, errs...)
		return res, nil
	})
	if err != nil {
		allErrs = append(allErrs, decodeerr.New(decodeerr.CodeWMINotFound, err.Error()))
		return DecodeResult{VIN: normalized.VIN, Valid: false, Errors: allErrs}, nil
	}

	obstrace.Annotate(ctx, attribute.String("wmi.code", wmiRes.WMI.Code), attribute.Int64("wmi.id", wmiRes.WMI.ID))

	my, myErrs := modelyear.Resolve(normalized.VIN, d.futureYearGuard, opts.ModelYearOverride)
	allErrs = append(allErrs, myErrs...)

	var resolvedYear *int
	if my.Resolved {
		y := my.Year
		resolvedYear = &y
	}

	schemas, schemaErrs := schemaselect.Select(ctx, d.store, wmiRes.WMI.ID, resolvedYear)
	if len(schemas) == 0 {
		allErrs = append(allErrs, schemaErrs...)
		return DecodeResult{VIN: normalized.VIN, Valid: !decodeerr.IsFatal(allErrs), Errors: allErrs}, nil
	}

	elements, matchErrs := matcher.Match(ctx, d.store, schemas, normalized.VIN, d.preferOfficial, wmiRes.WMI.MakeID)
	allErrs = append(allErrs, matchErrs...)
	if len(elements) == 0 && d.metrics != nil {
		d.metrics.RecordPatternMatchMiss()
	}

	manufacturerName, _, _ := d.store.LookupName(ctx, "Manufacturer", wmiRes.WMI.ManufacturerID)
	countryName, _, _ := d.store.LookupName(ctx, "Country", wmiRes.WMI.CountryID)
	var makeName string
	if wmiRes.WMI.MakeID != nil {
		makeName, _, _ = d.store.LookupName(ctx, "Make", *wmiRes.WMI.MakeID)
	}

	var plantCode byte
	if len(normalized.VIN) >= 11 {
		plantCode = normalized.VIN[10]
	}

	assembled := assembler.Assemble(wmiRes.WMI, manufacturerName, countryName, makeName, plantCode, my, check, elements, opts.IncludePatterns)

	return DecodeResult{
		VIN:    normalized.VIN,
		Valid:  !decodeerr.IsFatal(allErrs),
		Result: assembled,
		Errors: allErrs,
	}, nil
}

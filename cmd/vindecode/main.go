// Command vindecode is the standalone CLI for the decoder (spec.md §8): a
// single "decode" subcommand that takes a VIN and prints the grouped
// vehicle/wmi/plant/engine/modelYear/checkDigit result as human-readable
// text or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	vindecoder "autolytiq/vindecoder"
	"autolytiq/vindecoder/internal/catalogdata"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitCatalog = 2
	exitUsage   = 64
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	if len(args) == 0 || args[0] != "decode" {
		fmt.Fprintln(stderr, "usage: vindecode decode [flags] VIN")
		return exitUsage
	}

	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "text", "output format: text or json")
	patterns := fs.Bool("patterns", false, "include winning-pattern provenance")
	raw := fs.Bool("raw", false, "omit the provenance block from text output")
	modelYear := fs.Int("model-year", 0, "override the position-10 model year")
	community := fs.Bool("community", true, "include the bundled community overlay")
	preferOfficial := fs.Bool("prefer-official", true, "break matcher ties toward official catalog rows")

	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: vindecode decode [flags] VIN")
		return exitUsage
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(stderr, "invalid --format %q: must be text or json\n", *format)
		return exitUsage
	}
	vin := fs.Arg(0)

	store, err := catalogdata.NewDefaultStore(*community)
	if err != nil {
		fmt.Fprintf(stderr, "catalog load failed: %v\n", err)
		return exitCatalog
	}
	defer store.Close()

	dec, err := vindecoder.New(vindecoder.Config{
		Store:          store,
		PreferOfficial: *preferOfficial,
	})
	if err != nil {
		fmt.Fprintf(stderr, "decoder init failed: %v\n", err)
		return exitCatalog
	}
	defer dec.Close()

	opts := vindecoder.DecodeOptions{IncludePatterns: *patterns}
	if *modelYear != 0 {
		y := *modelYear
		opts.ModelYearOverride = &y
	}

	result, err := dec.Decode(context.Background(), vin, opts)
	if err != nil {
		fmt.Fprintf(stderr, "decode failed: %v\n", err)
		return exitCatalog
	}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "encode failed: %v\n", err)
			return exitCatalog
		}
	} else {
		printText(stdout, result, *raw)
	}

	if !result.Valid {
		return exitInvalid
	}
	return exitOK
}

func printText(out *os.File, result vindecoder.DecodeResult, raw bool) {
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("VIN %s", result.VIN)))

	status := okStyle.Render("valid")
	if !result.Valid {
		status = errorStyle.Render("invalid")
	}
	fmt.Fprintf(out, "%s %s\n\n", labelStyle.Render("status:"), status)

	v := result.Result.Vehicle
	fmt.Fprint(out, row("make", v.Make))
	fmt.Fprint(out, row("model", v.Model))
	fmt.Fprint(out, row("series", v.Series))
	fmt.Fprint(out, row("trim", v.Trim))
	fmt.Fprint(out, row("body style", v.BodyStyle))
	fmt.Fprint(out, row("vehicle type", v.VehicleType))

	w := result.Result.WMI
	fmt.Fprint(out, row("manufacturer", w.Manufacturer))
	fmt.Fprint(out, row("country", w.Country))
	fmt.Fprint(out, row("region", w.Region))

	if p := result.Result.Plant; p != nil {
		fmt.Fprint(out, row("plant", p.City))
	}

	e := result.Result.Engine
	fmt.Fprint(out, row("fuel type", e.FuelType))
	fmt.Fprint(out, row("electrification", e.ElectrificationLevel))
	fmt.Fprint(out, row("transmission", e.Transmission))
	fmt.Fprint(out, row("drive type", e.DriveType))

	my := result.Result.ModelYear
	if my.Resolved {
		fmt.Fprint(out, row("model year", fmt.Sprintf("%d", my.Year)))
	}

	cd := result.Result.CheckDigit
	cdValue := fmt.Sprintf("expected %q, got %q", cd.Expected, cd.Actual)
	if !cd.Valid {
		cdValue = warnStyle.Render(cdValue)
	}
	fmt.Fprint(out, row("check digit", cdValue))

	if !raw && len(result.Result.Provenance) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, labelStyle.Render("provenance:"))
		for _, p := range result.Result.Provenance {
			fmt.Fprintf(out, "  %-22s pattern=%d specificity=%d confidence=%.2f source=%s\n",
				p.Element, p.PatternID, p.Specificity, p.Confidence, p.Source)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, labelStyle.Render("diagnostics:"))
		for _, e := range result.Errors {
			line := e.String()
			if e.Severity == "fatal" {
				line = errorStyle.Render(line)
			} else {
				line = warnStyle.Render(line)
			}
			fmt.Fprintln(out, "  "+line)
		}
	}
}

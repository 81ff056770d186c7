package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load decodes a pipeline file. Files ending in .toml are decoded as TOML,
// everything else as JSON. Defaults are not applied.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.DecodeFile(path, &p)
		if err != nil {
			return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		for _, k := range md.Undecoded() {
			log.Printf("config: unknown key=%s path=%s", k, path)
		}
		return p, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// CLI is the result of LoadFromArgs: the effective pipeline plus the
// process-level switches that do not belong in a pipeline file.
type CLI struct {
	ConfigPath string
	Validate   bool
	Verbose    bool
	Pipeline   Pipeline
}

// LoadFromArgs defines flags on fs, seeds each flag's default from getenv,
// parses args and builds the effective Pipeline.
//
// Precedence, lowest first:
//  1. the pipeline file named by -config (FILMDW_CONFIG),
//  2. environment variables (FILMDW_*),
//  3. explicit flags.
//
// ApplyDefaults runs last, so zero values fall back to the package defaults.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*CLI, error) {
	cli := &CLI{}

	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOrDefaultFn := func(k string, d bool) bool {
		if v := strings.ToLower(getenv(k)); v != "" {
			switch v {
			case "1", "true", "yes", "on":
				return true
			case "0", "false", "no", "off":
				return false
			}
		}
		return d
	}

	var (
		source, sheet, kind, dsn string
		backend, gwURL, ddAddr   string
		rejectFile               string
		batchSize                int
		createSchema             bool
	)
	fs.StringVar(&cli.ConfigPath, "config", getenv("FILMDW_CONFIG"), "pipeline config path (.json or .toml)")
	fs.StringVar(&source, "source", getenv("FILMDW_SOURCE"), "source workbook or CSV path")
	fs.StringVar(&sheet, "sheet", getenv("FILMDW_SHEET"), "worksheet name (xlsx only)")
	fs.StringVar(&kind, "storage", getenv("FILMDW_STORAGE"), "storage kind: postgres, sqlite or mssql")
	fs.StringVar(&dsn, "dsn", getenv("FILMDW_DSN"), "warehouse DSN")
	fs.BoolVar(&createSchema, "create-schema", boolEnvOrDefaultFn("FILMDW_CREATE_SCHEMA", false), "create missing star-schema tables")
	fs.IntVar(&batchSize, "batch-size", intEnvOrDefaultFn("FILMDW_BATCH_SIZE", 0), "rows per multi-row insert")
	fs.StringVar(&rejectFile, "reject-file", getenv("FILMDW_REJECT_FILE"), "write every row error to this CSV file")
	fs.StringVar(&backend, "metrics-backend", getenv("FILMDW_METRICS_BACKEND"), "metrics backend: none, pushgateway or datadog")
	fs.StringVar(&gwURL, "pushgateway-url", getenv("FILMDW_PUSHGATEWAY_URL"), "Pushgateway base URL")
	fs.StringVar(&ddAddr, "datadog-addr", getenv("FILMDW_DATADOG_ADDR"), "DogStatsD address")
	fs.BoolVar(&cli.Validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&cli.Verbose, "v", boolEnvOrDefaultFn("FILMDW_VERBOSE", false), "enable verbose logs")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var p Pipeline
	if cli.ConfigPath != "" {
		var err error
		if p, err = Load(cli.ConfigPath); err != nil {
			return nil, err
		}
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&p.Source.Path, source)
	overlay(&p.Source.Sheet, sheet)
	overlay(&p.Storage.Kind, kind)
	overlay(&p.Storage.DSN, dsn)
	overlay(&p.Runtime.RejectFile, rejectFile)
	overlay(&p.Metrics.Backend, backend)
	overlay(&p.Metrics.PushgatewayURL, gwURL)
	overlay(&p.Metrics.DatadogAddr, ddAddr)
	if batchSize != 0 {
		p.Runtime.BatchSize = batchSize
	}

	explicit := getenv("FILMDW_CREATE_SCHEMA") != ""
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "create-schema" {
			explicit = true
		}
	})
	if explicit {
		p.Storage.CreateSchema = createSchema
	}

	ApplyDefaults(&p)
	cli.Pipeline = p
	return cli, nil
}

// LoadCLI is the production entry point: flag.CommandLine, os.Getenv and
// os.Args[1:].
func LoadCLI() (*CLI, error) {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

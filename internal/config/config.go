// Package config defines the pipeline configuration for a filmdw run.
//
// A Pipeline is decoded from a JSON or TOML file, overlaid with environment
// variables and command-line flags (see LoadFromArgs), completed with
// ApplyDefaults and linted with ValidatePipeline. The resulting value is passed
// explicitly to pipeline.Run; nothing in the program reads configuration from
// globals.
//
// Example (JSON):
//
//	{
//	  "job":     "filmdw",
//	  "source":  { "kind": "xlsx", "path": "films.xlsx", "sheet": "Films" },
//	  "storage": { "kind": "postgres", "dsn": "postgres://...", "create_schema": true },
//	  "runtime": { "batch_size": 500, "max_error_samples": 5 },
//	  "metrics": { "backend": "none" }
//	}
package config

import "encoding/json"

// Defaults applied by ApplyDefaults.
const (
	DefaultJob          = "filmdw"
	DefaultSheet        = "Films"
	DefaultStorageKind  = "postgres"
	DefaultDSN          = "postgres://postgres@localhost:5432/MovieDW?sslmode=disable"
	DefaultBatchSize    = 500
	DefaultMaxSamples   = 5
	DefaultTitleMaxLen  = 200
	DefaultReviewMaxLen = 500
	DefaultMetrics      = "none"
	DefaultPushgateway  = "http://localhost:9091"
	DefaultDatadogAddr  = "127.0.0.1:8125"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" toml:"job"`

	Source  Source        `json:"source" toml:"source"`
	Storage Storage       `json:"storage" toml:"storage"`
	Runtime RuntimeConfig `json:"runtime" toml:"runtime"`
	Metrics Metrics       `json:"metrics" toml:"metrics"`
}

// Source locates the film batch.
type Source struct {
	// Kind is "xlsx" or "csv". Empty infers it from the path extension.
	Kind string `json:"kind" toml:"kind"`

	// Path is the local filesystem path of the workbook or CSV file.
	Path string `json:"path" toml:"path"`

	// Sheet is the worksheet to read (xlsx only). The first sheet is used
	// when it does not exist.
	Sheet string `json:"sheet" toml:"sheet"`

	// Options carries reader-specific settings:
	//   comma (string, csv delimiter), strict_quotes (bool, csv),
	//   header_map (object, source header -> canonical column)
	Options Options `json:"options" toml:"options"`
}

// Storage selects the warehouse backend.
type Storage struct {
	// Kind is a registered storage kind: postgres, sqlite or mssql.
	Kind string `json:"kind" toml:"kind"`
	DSN  string `json:"dsn" toml:"dsn"`

	// CreateSchema creates missing star-schema tables before loading.
	// Existing tables are never altered.
	CreateSchema bool `json:"create_schema" toml:"create_schema"`
}

// RuntimeConfig controls batching and error reporting.
type RuntimeConfig struct {
	BatchSize       int `json:"batch_size" toml:"batch_size"`
	MaxErrorSamples int `json:"max_error_samples" toml:"max_error_samples"`
	TitleMaxLen     int `json:"title_max_len" toml:"title_max_len"`
	ReviewMaxLen    int `json:"review_max_len" toml:"review_max_len"`

	// RejectFile, when set, receives every row error as CSV.
	RejectFile string `json:"reject_file" toml:"reject_file"`
}

// Metrics selects the metrics backend: none, pushgateway or datadog.
type Metrics struct {
	Backend        string `json:"backend" toml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" toml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" toml:"datadog_addr"`
}

// ApplyDefaults fills zero-valued fields. Negative values are left alone so
// ValidatePipeline can report them.
func ApplyDefaults(p *Pipeline) {
	if p.Job == "" {
		p.Job = DefaultJob
	}
	if p.Source.Sheet == "" {
		p.Source.Sheet = DefaultSheet
	}
	if p.Source.Options == nil {
		p.Source.Options = Options{}
	}
	if p.Storage.Kind == "" {
		p.Storage.Kind = DefaultStorageKind
	}
	if p.Storage.DSN == "" && p.Storage.Kind == DefaultStorageKind {
		p.Storage.DSN = DefaultDSN
	}
	r := &p.Runtime
	if r.BatchSize == 0 {
		r.BatchSize = DefaultBatchSize
	}
	if r.MaxErrorSamples == 0 {
		r.MaxErrorSamples = DefaultMaxSamples
	}
	if r.TitleMaxLen == 0 {
		r.TitleMaxLen = DefaultTitleMaxLen
	}
	if r.ReviewMaxLen == 0 {
		r.ReviewMaxLen = DefaultReviewMaxLen
	}
	m := &p.Metrics
	if m.Backend == "" {
		m.Backend = DefaultMetrics
	}
	if m.PushgatewayURL == "" {
		m.PushgatewayURL = DefaultPushgateway
	}
	if m.DatadogAddr == "" {
		m.DatadogAddr = DefaultDatadogAddr
	}
}

// Options is a small helper to fetch typed values from free-form config maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty
// map when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		case map[string]string:
			for k, s := range m {
				res[k] = s
			}
		}
	}
	return res
}

// UnmarshalJSON decodes a missing or null "options" object to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

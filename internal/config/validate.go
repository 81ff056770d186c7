package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate p; call ApplyDefaults first to validate the effective values.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "source.path must not be empty",
		})
	}

	kind := strings.ToLower(s.Kind)
	if kind == "" {
		switch strings.ToLower(filepath.Ext(s.Path)) {
		case ".xlsx", ".xlsm":
			kind = "xlsx"
		case ".csv", ".txt":
			kind = "csv"
		}
	}
	switch kind {
	case "xlsx":
		if s.Options.String("comma", "") != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.options.comma",
				Message:  "comma is ignored for xlsx sources",
			})
		}
	case "csv":
		if c := s.Options.String("comma", ""); len([]rune(c)) > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.options.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", c),
			})
		}
	case "":
		if s.Path != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.kind",
				Message:  fmt.Sprintf("cannot infer source kind from %q; set source.kind to xlsx or csv", s.Path),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; want xlsx or csv", s.Kind),
		})
	}

	if v, ok := s.Options["header_map"]; ok {
		if _, isMap := v.(map[string]any); !isMap {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.options.header_map",
				Message:  "header_map must be an object of source header -> column name",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"postgres": {},
		"mssql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	positive := []struct {
		path string
		v    int
	}{
		{"runtime.batch_size", r.BatchSize},
		{"runtime.title_max_len", r.TitleMaxLen},
		{"runtime.review_max_len", r.ReviewMaxLen},
	}
	for _, f := range positive {
		if f.v <= 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     f.path,
				Message:  fmt.Sprintf("%s must be positive, got %d", f.path[len("runtime."):], f.v),
			})
		}
	}
	if r.MaxErrorSamples < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.max_error_samples",
			Message:  "max_error_samples must not be negative",
		})
	}
	if r.RejectFile != "" && strings.EqualFold(filepath.Ext(r.RejectFile), ".xlsx") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.reject_file",
			Message:  "reject_file is written as CSV regardless of its extension",
		})
	}
	if r.BatchSize == 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  "batch_size=1 issues one statement per row",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires a URL",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires an address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}
	return issues
}

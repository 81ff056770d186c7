package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"filmdw/internal/config"
	"filmdw/internal/pipeline"
)

func noEnv(string) string { return "" }

func writeCSV(t *testing.T) string {
	t.Helper()
	body := "FilmID,Title,ReleaseDate,BudgetDollars,BoxOfficeDollars,RunTimeMinutes,OscarNominations," +
		"OscarWins,DirectorID,StudioID,GenreID,CountryID,LanguageID,CertificateID,Review\n" +
		"1,Heat,1995-12-15,60000000,187436818,170,0,0,7,3,2,1,1,15,Tense\n"
	p := filepath.Join(t.TempDir(), "films.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRun_EndToEndSQLite(t *testing.T) {
	src := writeCSV(t)
	dsn := filepath.Join(t.TempDir(), "dw.db")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-source", src, "-storage", "sqlite", "-dsn", dsn, "-create-schema"}, noEnv, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit=%d stderr:\n%s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"Total films in warehouse: 1", "Total budget: $60,000,000", "DimLanguage"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(stderr.String(), "load: stage=FactFilmPerformance") {
		t.Fatalf("stage log missing:\n%s", stderr.String())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	src := writeCSV(t)

	cases := []struct {
		name     string
		args     []string
		env      map[string]string
		runErr   error
		wantCode int
		wantErr  string
		wantRun  bool
	}{
		{
			name:     "invalid_config",
			args:     []string{"-storage", "sqlite"},
			wantCode: 1,
			wantErr:  "error: source.path",
		},
		{
			name:     "validate_only",
			args:     []string{"-validate", "-source", src},
			wantCode: 0,
		},
		{
			name:     "validate_from_env",
			args:     []string{"-validate"},
			env:      map[string]string{"FILMDW_SOURCE": src, "FILMDW_STORAGE": "sqlite", "FILMDW_DSN": ":memory:"},
			wantCode: 0,
		},
		{
			name:     "fatal_run_error",
			args:     []string{"-source", src},
			runErr:   errors.New("open storage kind=postgres: connection refused"),
			wantCode: 1,
			wantErr:  "filmdw: open storage",
			wantRun:  true,
		},
		{
			name:     "success",
			args:     []string{"-source", src},
			wantCode: 0,
			wantRun:  true,
		},
		{
			name:     "help",
			args:     []string{"-h"},
			wantCode: 0,
			wantErr:  "Usage: filmdw",
		},
		{
			name:     "bad_flag",
			args:     []string{"-workers=3"},
			wantCode: 1,
			wantErr:  "config:",
		},
		{
			name:     "missing_config_file",
			args:     []string{"-config", filepath.Join(t.TempDir(), "none.json")},
			wantCode: 1,
			wantErr:  "open config",
		},
	}

	orig := runFn
	defer func() { runFn = orig }()

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ran := false
			runFn = func(ctx context.Context, p config.Pipeline) (pipeline.Summary, error) {
				ran = true
				return pipeline.Summary{Job: p.Job}, c.runErr
			}
			getenv := func(k string) string { return c.env[k] }

			var stdout, stderr bytes.Buffer
			code := run(c.args, getenv, &stdout, &stderr)
			if code != c.wantCode {
				t.Fatalf("exit=%d, want %d; stderr:\n%s", code, c.wantCode, stderr.String())
			}
			if c.wantErr != "" && !strings.Contains(stderr.String(), c.wantErr) {
				t.Fatalf("stderr missing %q:\n%s", c.wantErr, stderr.String())
			}
			if ran != c.wantRun {
				t.Fatalf("pipeline ran=%v, want %v", ran, c.wantRun)
			}
		})
	}
}

func TestInstallMetrics_PushgatewayFlushesAtExit(t *testing.T) {
	var pushes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := config.Pipeline{Job: "filmdw", Metrics: config.Metrics{Backend: "pushgateway", PushgatewayURL: srv.URL}}
	flush := installMetrics(p, false)
	flush()
	if pushes.Load() != 1 {
		t.Fatalf("pushes=%d, want 1", pushes.Load())
	}
}

func TestInstallMetrics_DisabledIsNoop(t *testing.T) {
	for _, backend := range []string{"", "none", "graphite"} {
		flush := installMetrics(config.Pipeline{Metrics: config.Metrics{Backend: backend}}, true)
		flush()
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filmdw/internal/config"
	"filmdw/internal/metrics"
	"filmdw/internal/metrics/datadog"
	"filmdw/internal/metrics/prompush"
	"filmdw/internal/pipeline"

	// register all backends with the storage factory.
	_ "filmdw/internal/storage/all"
)

// main loads the configuration, installs the metrics backend and runs one
// batch. It exits 1 on invalid configuration or a fatal run error.
func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

var runFn = pipeline.Run

func run(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	fs := newFlagSet(stderr)
	cli, err := config.LoadFromArgs(fs, getenv, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	p := cli.Pipeline

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", describe(cli))
		return 1
	}
	if cli.Validate {
		log.Printf("Configuration is valid: %v", describe(cli))
		return 0
	}

	flush := installMetrics(p, cli.Verbose)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if cli.Verbose {
		log.Printf("pipeline: source=%s sheet=%s storage=%s batch_size=%d create_schema=%t",
			p.Source.Path, p.Source.Sheet, p.Storage.Kind, p.Runtime.BatchSize, p.Storage.CreateSchema)
	}

	sum, err := runFn(ctx, p)
	if err != nil {
		fmt.Fprintf(stderr, "filmdw: %v\n", err)
		return 1
	}
	if err := pipeline.Report(stdout, sum); err != nil {
		log.Printf("report: %v", err)
	}
	if sum.Failed() {
		log.Printf("pipeline: completed with failed stages in %s", time.Since(start).Truncate(time.Millisecond))
	} else if cli.Verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// installMetrics selects the metrics backend and returns the function that
// flushes it at exit. Backend initialisation failures leave metrics
// disabled.
func installMetrics(p config.Pipeline, verbose bool) func() {
	var b metrics.Backend
	switch p.Metrics.Backend {
	case "pushgateway":
		pb, err := prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			break
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", p.Metrics.PushgatewayURL, p.Metrics.Backend, p.Job)
		b = pb
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  "filmdw.",
			GlobalTags: []string{"job:" + p.Job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			break
		}
		log.Printf("metrics: addr=%v, backend=%v", p.Metrics.DatadogAddr, p.Metrics.Backend)
		b = db
	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", p.Metrics.Backend)
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", p.Metrics.Backend)
	}
	if b == nil {
		return func() {}
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func describe(cli *config.CLI) string {
	if cli.ConfigPath != "" {
		return cli.ConfigPath
	}
	return "flags and environment"
}

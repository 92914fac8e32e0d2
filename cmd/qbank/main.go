// Command qbank converts one question export into the five linked import
// tables and writes them to the configured sink.
//
// The pipeline comes from a JSON config file, from flags, or both: flags
// override the matching config fields, and with no -config at all the flags
// synthesize a complete pipeline, so a one-off conversion is just
//
//	qbank -input exports/az104.xlsx -output out/az104.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"qbank/internal/config"
	"qbank/internal/etl"
	"qbank/internal/metrics"
	"qbank/internal/metrics/datadog"
	"qbank/internal/metrics/prompush"

	// register all sinks with the storage factory.
	_ "qbank/internal/storage/all"
)

func main() {
	var (
		cfgPath        string
		input          string
		output         string
		sinkKind       string
		dsn            string
		lookupPath     string
		templatePath   string
		job            string
		validate       bool
		metricsBackend string
		pushGatewayURL string
		statsdAddr     string
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config JSON path")
	flag.StringVar(&input, "input", "", "input export path or http(s) URL (overrides config)")
	flag.StringVar(&output, "output", "", "output workbook path (overrides config)")
	flag.StringVar(&sinkKind, "sink", "", "storage kind: workbook, sqlite or postgres (overrides config)")
	flag.StringVar(&dsn, "dsn", "", "database DSN for sqlite/postgres sinks (overrides config)")
	flag.StringVar(&lookupPath, "lookup", "", "image-URL lookup JSON path (overrides config)")
	flag.StringVar(&templatePath, "template", "", "destination template workbook path (overrides config)")
	flag.StringVar(&job, "job", "", "job name for logs and metrics (overrides config)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides config)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddr, "statsd-addr", "", "DogStatsD address for the datadog backend")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	p, err := buildPipeline(cfgPath, overrides{
		input:          input,
		output:         output,
		sinkKind:       sinkKind,
		dsn:            dsn,
		lookupPath:     lookupPath,
		templatePath:   templatePath,
		job:            job,
		metricsBackend: metricsBackend,
		pushGatewayURL: pushGatewayURL,
		statsdAddr:     statsdAddr,
	})
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		fatalf("configuration is invalid")
	}
	if validate {
		log.Printf("configuration is valid")
		return
	}

	initMetrics(p, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	if *verbose {
		log.Printf("pipeline: job=%s source=%s parser=%s storage=%s",
			p.Job, p.Source.Kind, p.Parser.Kind, p.Storage.Kind)
	}

	sum, err := etl.Run(context.Background(), p)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *verbose {
		log.Printf("summary: in=%d skipped=%d normalized=%d written=%d fingerprint=%016x",
			sum.RowsIn, sum.RowsSkipped, sum.RowsNormalized, sum.RowsWritten, sum.Fingerprint)
	}
}

// overrides carries the flag values that beat config fields.
type overrides struct {
	input          string
	output         string
	sinkKind       string
	dsn            string
	lookupPath     string
	templatePath   string
	job            string
	metricsBackend string
	pushGatewayURL string
	statsdAddr     string
}

// buildPipeline loads the config file when given and layers the flag
// overrides on top. Without a config file the overrides must describe the
// whole run.
func buildPipeline(cfgPath string, o overrides) (config.Pipeline, error) {
	var p config.Pipeline
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return p, err
		}
		p = loaded
	}

	if o.input != "" {
		if strings.HasPrefix(o.input, "http://") || strings.HasPrefix(o.input, "https://") {
			p.Source = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: o.input}}
		} else {
			p.Source = config.Source{Kind: "file", File: config.SourceFile{Path: o.input}}
		}
	}
	if o.output != "" {
		p.Storage.Workbook.Path = o.output
		if p.Storage.Kind == "" {
			p.Storage.Kind = "workbook"
		}
	}
	if o.sinkKind != "" {
		p.Storage.Kind = o.sinkKind
	}
	if o.dsn != "" {
		p.Storage.DB.DSN = o.dsn
	}
	if o.lookupPath != "" {
		p.Lookup.Path = o.lookupPath
	}
	if o.templatePath != "" {
		p.Template.Path = o.templatePath
	}
	if o.job != "" {
		p.Job = o.job
	}
	if o.metricsBackend != "" {
		p.Metrics.Backend = o.metricsBackend
	}
	if o.pushGatewayURL != "" {
		p.Metrics.PushgatewayURL = o.pushGatewayURL
	}
	if o.statsdAddr != "" {
		p.Metrics.StatsdAddr = o.statsdAddr
	}

	if p.Job == "" {
		p.Job = "qbank"
	}
	return p, nil
}

// initMetrics wires the configured metrics backend: flag/config value first,
// then the METRICS_BACKEND environment variable, defaulting to none.
func initMetrics(p config.Pipeline, verbose bool) {
	backend := p.Metrics.Backend
	if backend == "" {
		backend = os.Getenv("METRICS_BACKEND")
	}
	switch backend {
	case "pushgateway":
		gwURL := p.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Printf("metrics: pushgateway init failed: %v; metrics disabled", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gwURL, p.Job)
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.StatsdAddr,
			Namespace:  "qbank.",
			GlobalTags: []string{"service:qbank"},
		})
		if err != nil {
			log.Printf("metrics: datadog init failed: %v; metrics disabled", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%s job=%s", p.Metrics.StatsdAddr, p.Job)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backend)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

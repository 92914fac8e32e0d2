// Command qbankprobe samples a question export and prints how its columns
// map onto the import schema, or a starter pipeline config.
//
// Usage:
//
//	qbankprobe -url https://exports.example/az104.csv
//	qbankprobe -url file://exports/az104.csv -config -job az104 > az104.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"qbank/internal/probe"
)

var (
	flagURL       = flag.String("url", "", "export URL: http(s)://, file://, or a local path")
	flagBytes     = flag.Int("bytes", 0, "bytes to sample from the start (0 = default)")
	flagRows      = flag.Int("rows", 0, "sample rows to read (0 = default)")
	flagDelimiter = flag.String("delimiter", ",", "CSV field delimiter (single character)")
	flagJob       = flag.String("job", "", "job name used in the generated config")
	flagConfig    = flag.Bool("config", false, "print a starter pipeline config instead of the column mapping")
	flagInsecure  = flag.Bool("insecure", false, "skip TLS certificate verification for the sample fetch")
)

func main() {
	flag.Parse()

	opt := probe.Options{
		URL:              *flagURL,
		MaxBytes:         *flagBytes,
		MaxRows:          *flagRows,
		Delimiter:        probe.DecodeDelimiter(*flagDelimiter),
		Job:              *flagJob,
		AllowInsecureTLS: *flagInsecure,
	}

	rep, err := probe.ProbeURL(context.Background(), opt)
	if err != nil {
		fatalf("%v", err)
	}

	if *flagConfig {
		body, err := rep.PipelineJSON(opt)
		if err != nil {
			fatalf("%v", err)
		}
		os.Stdout.Write(body)
		return
	}
	os.Stdout.Write(rep.RenderText())
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

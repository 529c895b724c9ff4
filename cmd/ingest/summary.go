package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	app "ingest_orders/internal/application/ingest"
	"ingest_orders/internal/schema"
)

func printSummary(out io.Writer, s *app.Summary, target string) {
	if s == nil {
		return
	}

	fmt.Fprintf(out, "run %s -> %s\n", s.RunID, target)
	fmt.Fprintf(out, "records: %d  loaded: %d  skipped: %d  conflicts: %d  elapsed: %s\n",
		s.Records, s.Loaded, len(s.Skipped), len(s.Conflicts), s.Elapsed.Round(time.Millisecond))

	for _, sk := range s.Skipped {
		fmt.Fprintf(out, "  %s\n", sk)
	}
	for _, c := range s.Conflicts {
		fmt.Fprintf(out, "  conflict %s\n", c)
	}

	if s.Counts == nil {
		return
	}
	fmt.Fprintf(out, "extract latency p50 %s  p95 %s  p99 %s\n", s.Latency.P50, s.Latency.P95, s.Latency.P99)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "table\tinserted\ttotal\t")
	for _, name := range schema.Default().InsertOrder() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t\n", name, s.Inserted[name], s.Counts[name])
	}
	tw.Flush()
}

// Command gendata writes a labelled synthetic transaction CSV in the
// upload format.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"fraud-feature-engine/internal/infrastructure/geo"
	"fraud-feature-engine/internal/infrastructure/ingest"
)

func main() {
	entities := flag.Int("entities", 100, "Number of entities")
	perEntity := flag.Int("per-entity", 50, "Transactions per entity")
	fraudRate := flag.Float64("fraud-rate", 0.03, "Share of injected fraud patterns")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	out := flag.String("out", "-", "Output file, - for stdout")
	flag.Parse()

	records, err := ingest.Generate(ingest.GeneratorConfig{
		Entities:  *entities,
		PerEntity: *perEntity,
		FraudRate: *fraudRate,
		Seed:      *seed,
		Locations: geo.Default().Locations(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gendata: %v\n", err)
		os.Exit(1)
	}

	f := os.Stdout
	if *out != "-" {
		if f, err = os.Create(*out); err != nil {
			fmt.Fprintf(os.Stderr, "gendata: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	w := bufio.NewWriter(f)
	if err := ingest.WriteRecords(w, records); err != nil {
		fmt.Fprintf(os.Stderr, "gendata: %v\n", err)
		os.Exit(1)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "gendata: %v\n", err)
		os.Exit(1)
	}
}

// Command genmock generates 24 hourly balloon snapshot fixture files, mixing
// the tuple and object raw schemas the way the live constellation endpoints
// do. Point BALLOON_ENDPOINT at a static file server over the output
// directory to run the service without hitting the real feed.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -balloons 40 -seed 7
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
)

// The generated constellation drifts inside a North-America-sized box so the
// default region filter keeps most of it.
const (
	baseLat   = 40.0
	baseLon   = -100.0
	latSpread = 20.0
	lonSpread = 40.0
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory for hourly snapshot files")
	balloons := flag.Int("balloons", 40, "balloons per hourly file")
	seed := flag.Int64("seed", 1, "rng seed for reproducible fixtures")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	for h := 0; h < 24; h++ {
		hour := fmt.Sprintf("%02d", h)

		// Alternate schemas so both normalizer paths get exercised.
		var payload any
		if h%2 == 0 {
			payload = tupleHour(rng, *balloons)
		} else {
			payload = objectHour(rng, *balloons)
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal hour %s: %w", hour, err)
		}

		path := filepath.Join(*out, hour+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	fmt.Printf("wrote 24 hourly snapshot files to %s\n", *out)
	return nil
}

// tupleHour produces the [lat, lon, alt] schema; altitude in kilometers.
func tupleHour(rng *rand.Rand, n int) [][]float64 {
	payload := make([][]float64, n)
	for i := range payload {
		payload[i] = []float64{
			round4(baseLat + (rng.Float64()-0.5)*latSpread),
			round4(baseLon + (rng.Float64()-0.5)*lonSpread),
			round4(10 + rng.Float64()*10), // stratospheric band, km
		}
	}
	return payload
}

// objectHour produces the id-tagged schema; altitude in feet. Half the
// records use the long field names to cover the fallback path.
func objectHour(rng *rand.Rand, n int) []map[string]any {
	payload := make([]map[string]any, n)
	for i := range payload {
		lat := round4(baseLat + (rng.Float64()-0.5)*latSpread)
		lon := round4(baseLon + (rng.Float64()-0.5)*lonSpread)
		alt := round4(40000 + rng.Float64()*25000)
		id := fmt.Sprintf("mock-balloon-%03d", i)

		if i%2 == 0 {
			payload[i] = map[string]any{"id": id, "lat": lat, "lon": lon, "alt": alt}
		} else {
			payload[i] = map[string]any{"id": id, "latitude": lat, "longitude": lon, "altitude": alt}
		}
	}
	return payload
}

func round4(v float64) float64 {
	return float64(int(v*10000)) / 10000
}

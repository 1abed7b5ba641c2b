// Command seed-signals posts synthetic candidates and events to a running
// radar instance.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/okian/radar/internal/seeder"
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9090", "radar base URL")
		candidates = flag.Int("candidates", 50, "number of candidates to create")
		eventsPer  = flag.Int("events", 200, "events per candidate")
		spanDays   = flag.Int("span", 90, "days to spread events over")
		batchSize  = flag.Int("batch", 500, "events per ingest request")
		seed       = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	if err := run(*baseURL, *candidates, *eventsPer, *spanDays, *batchSize, *seed); err != nil {
		fmt.Fprintln(os.Stderr, "seed-signals:", err)
		os.Exit(1)
	}
}

func run(baseURL string, candidates, eventsPer, spanDays, batchSize int, seed int64) error {
	client := &http.Client{Timeout: 30 * time.Second}
	s := seeder.New(seed)

	cands := s.Candidates(candidates)
	for _, c := range cands {
		body := map[string]any{"slug": c.Slug, "name": c.Name, "tags": c.Tags}
		// Conflicts mean a previous seeding run already created the
		// candidate; events are deduplicated downstream anyway.
		if err := post(client, baseURL+"/candidates", body); err != nil && !isConflict(err) {
			return fmt.Errorf("creating %s: %w", c.Slug, err)
		}
	}
	fmt.Printf("created %d candidates\n", len(cands))

	items := s.Events(cands, eventsPer, spanDays)
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := post(client, baseURL+"/events", map[string]any{"events": items[start:end]}); err != nil {
			return fmt.Errorf("ingesting batch at %d: %w", start, err)
		}
	}
	fmt.Printf("ingested %d events\n", len(items))
	return nil
}

var errConflict = fmt.Errorf("conflict")

func isConflict(err error) bool {
	return errors.Is(err, errConflict)
}

func post(client *http.Client, url string, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return nil
}

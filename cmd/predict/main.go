package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/codec"
	"github.com/joho/godotenv"
)

// #region main
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	addr := flag.String("addr", envOr("MULTISEQ_ADDR", "localhost:50051"), "prediction service address")
	timeout := flag.Duration("timeout", 10*time.Second, "per-query timeout")
	flag.Parse()

	client, err := codec.NewPredictorClient(*addr)
	if err != nil {
		log.Fatalf("failed to connect to prediction service at %s: %v", *addr, err)
	}
	defer client.Close()

	fmt.Println("Prediction client ready.")
	fmt.Printf("  Service: %s\n", *addr)
	fmt.Println("Type a date (2010-08-01 13:00), 'bits 1,2,3', or 'quit' to exit:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		q, err := parseQuery(line)
		if err != nil {
			log.Printf("bad query: %v", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		preds, err := client.Predict(ctx, q)
		cancel()
		if err != nil {
			log.Printf("predict error: %v", err)
			continue
		}

		if len(preds) == 0 {
			fmt.Println("Nothing predicted :(")
			continue
		}
		for _, p := range preds {
			fmt.Printf("SIMILARITY: %g PREDICTED VALUE: %s (same bits %d)\n", p.Similarity, p.PredictedInput, p.NumOfSameBits)
		}
	}
}

// #endregion main

// #region helpers
// parseQuery reads "bits 1,2,3" as explicit bits and anything else as a date.
func parseQuery(line string) (codec.Query, error) {
	rest, ok := strings.CutPrefix(line, "bits ")
	if !ok {
		return codec.Query{Input: line}, nil
	}
	var bits []int
	for _, f := range strings.Split(rest, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return codec.Query{}, fmt.Errorf("bit %q: %w", f, err)
		}
		bits = append(bits, n)
	}
	return codec.Query{Bits: bits}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers

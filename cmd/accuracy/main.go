package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/trendcast/pkg/store"
)

func main() {
	start := flag.String("start", "", "start date YYYY-MM-DD (default: 7 days ago)")
	end := flag.String("end", "", "end date YYYY-MM-DD (default: today)")
	syms := flag.String("symbols", "BTCUSDT", "comma-separated symbols")
	flag.Parse()

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now
	var err error
	if *start != "" {
		from, err = time.Parse("2006-01-02", *start)
		if err != nil {
			log.Fatalf("invalid start date: %v", err)
		}
	}
	if *end != "" {
		to, err = time.Parse("2006-01-02", *end)
		if err != nil {
			log.Fatalf("invalid end date: %v", err)
		}
		to = to.AddDate(0, 0, 1)
	}

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		dsn = "host=localhost user=admin password=password dbname=trendcast sslmode=disable"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("DB open: %v", err)
	}
	defer st.Close()

	fmt.Printf("Directional accuracy from %s to %s\n",
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	for _, sym := range strings.Split(*syms, ",") {
		sym = strings.TrimSpace(sym)
		rows, err := st.ListPredictions(ctx, sym, from, to)
		if err != nil {
			log.Fatalf("%s: list predictions: %v", sym, err)
		}
		correct, total, sqErr := directionalAccuracy(rows)
		if total == 0 {
			fmt.Printf("%s - no consecutive predictions in range\n", sym)
			continue
		}
		fmt.Printf("%s - %d/%d correct (%.2f%%), RMSE=%.4f\n",
			sym, correct, total, 100*float64(correct)/float64(total),
			math.Sqrt(sqErr/float64(total)))
	}
}

// directionalAccuracy compares the sign of each consecutive real move with
// the sign of the predicted move from the same baseline. Pairs that cross a
// run boundary (window index reset) are skipped.
func directionalAccuracy(rows []store.PredictionRow) (correct, total int, sqErr float64) {
	for i := 1; i < len(rows); i++ {
		if rows[i].WindowIndex != rows[i-1].WindowIndex+1 {
			continue
		}
		realUp := rows[i].RealPrice > rows[i-1].RealPrice
		predictedUp := rows[i].PredictedPrice > rows[i-1].RealPrice
		if realUp == predictedUp {
			correct++
		}
		diff := rows[i].PredictedPrice - rows[i].RealPrice
		sqErr += diff * diff
		total++
	}
	return correct, total, sqErr
}

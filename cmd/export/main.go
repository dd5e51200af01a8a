// Command export writes the stored listings as a flat owner CSV, one row per
// co-owner, for spreadsheet review.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/Sidetalker/rental-registry/internal/adapter/sqlite"
	"github.com/Sidetalker/rental-registry/internal/domain"
)

// Leading columns carry what a reviewer scans for; the remainder is
// supplemental detail kept to the right.
var csvHeader = []string{
	"complex", "unit", "owner_name", "is_business",
	"mailing_address", "physical_address",
	"first_name", "middle_name", "last_name", "suffix", "title", "company",
	"mailing_line1", "mailing_line2", "city", "state", "zip5", "zip9",
	"subdivision", "schedule_number", "detail_url",
}

func main() {
	dbPath := flag.String("db", envOrDefault("SQLITE_PATH", "data/listings.db"), "path to the listings database")
	outPath := flag.String("o", "", "output CSV path (default stdout)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*dbPath, *outPath); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(dbPath, outPath string) error {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	listings, err := store.Listings(context.Background())
	if err != nil {
		return err
	}

	var rows []domain.OwnerRow
	for _, listing := range listings {
		rows = append(rows, domain.OwnerRows(listing.Record)...)
	}
	domain.SortOwnerRows(rows)

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	return writeCSV(out, rows)
}

func writeCSV(out io.Writer, rows []domain.OwnerRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Complex, row.Unit, row.OwnerName, strconv.FormatBool(row.IsBusinessOwner),
			row.MailingAddress, row.PhysicalAddress,
			row.Part.First, row.Part.Middle, row.Part.Last, row.Part.Suffix, row.Part.Title, row.Part.Company,
			row.Line1, row.Line2, row.City, row.State, row.Zip5, row.Zip9,
			row.Subdivision, row.ScheduleNumber, row.DetailURL,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

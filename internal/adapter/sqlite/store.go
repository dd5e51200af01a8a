// Package sqlite persists normalized listings in an embedded SQLite file.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Sidetalker/rental-registry/internal/domain"
	"github.com/Sidetalker/rental-registry/internal/renewal"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id               TEXT PRIMARY KEY,
	complex          TEXT NOT NULL DEFAULT '',
	unit             TEXT NOT NULL DEFAULT '',
	owner_name       TEXT NOT NULL DEFAULT '',
	owner_names      TEXT NOT NULL DEFAULT '[]',
	owners           TEXT NOT NULL DEFAULT '[]',
	mailing_address  TEXT NOT NULL DEFAULT '',
	mailing_line1    TEXT NOT NULL DEFAULT '',
	mailing_line2    TEXT NOT NULL DEFAULT '',
	mailing_city     TEXT NOT NULL DEFAULT '',
	mailing_state    TEXT NOT NULL DEFAULT '',
	zip5             TEXT NOT NULL DEFAULT '',
	zip9             TEXT NOT NULL DEFAULT '',
	subdivision      TEXT NOT NULL DEFAULT '',
	schedule_number  TEXT NOT NULL DEFAULT '',
	physical_address TEXT NOT NULL DEFAULT '',
	detail_url       TEXT NOT NULL DEFAULT '',
	is_business      INTEGER NOT NULL DEFAULT 0,
	latitude         REAL,
	longitude        REAL,
	renewal_date     TIMESTAMP,
	renewal_method   TEXT NOT NULL DEFAULT '',
	renewal_category TEXT NOT NULL DEFAULT '',
	renewal_month    TEXT NOT NULL DEFAULT '',
	raw              TEXT NOT NULL DEFAULT '{}',
	processed_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_complex ON listings(complex);
CREATE INDEX IF NOT EXISTS idx_listings_schedule ON listings(schedule_number);
CREATE INDEX IF NOT EXISTS idx_listings_renewal_category ON listings(renewal_category);
`

// StoredListing is a normalized listing together with its renewal
// annotation, as persisted and served.
type StoredListing struct {
	Record  domain.ListingRecord `json:"record"`
	Renewal renewal.Resolution   `json:"renewal"`
}

// Store wraps the SQLite listings database.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the listings database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// listingRow is the flat database shape of a StoredListing.
type listingRow struct {
	ID              string     `db:"id"`
	Complex         string     `db:"complex"`
	Unit            string     `db:"unit"`
	OwnerName       string     `db:"owner_name"`
	OwnerNames      string     `db:"owner_names"`
	Owners          string     `db:"owners"`
	MailingAddress  string     `db:"mailing_address"`
	MailingLine1    string     `db:"mailing_line1"`
	MailingLine2    string     `db:"mailing_line2"`
	MailingCity     string     `db:"mailing_city"`
	MailingState    string     `db:"mailing_state"`
	Zip5            string     `db:"zip5"`
	Zip9            string     `db:"zip9"`
	Subdivision     string     `db:"subdivision"`
	ScheduleNumber  string     `db:"schedule_number"`
	PhysicalAddress string     `db:"physical_address"`
	DetailURL       string     `db:"detail_url"`
	IsBusiness      bool       `db:"is_business"`
	Latitude        *float64   `db:"latitude"`
	Longitude       *float64   `db:"longitude"`
	RenewalDate     *time.Time `db:"renewal_date"`
	RenewalMethod   string     `db:"renewal_method"`
	RenewalCategory string     `db:"renewal_category"`
	RenewalMonth    string     `db:"renewal_month"`
	Raw             string     `db:"raw"`
	ProcessedAt     time.Time  `db:"processed_at"`
}

const insertListing = `
INSERT INTO listings (
	id, complex, unit, owner_name, owner_names, owners,
	mailing_address, mailing_line1, mailing_line2, mailing_city, mailing_state,
	zip5, zip9, subdivision, schedule_number, physical_address, detail_url,
	is_business, latitude, longitude,
	renewal_date, renewal_method, renewal_category, renewal_month,
	raw, processed_at
) VALUES (
	:id, :complex, :unit, :owner_name, :owner_names, :owners,
	:mailing_address, :mailing_line1, :mailing_line2, :mailing_city, :mailing_state,
	:zip5, :zip9, :subdivision, :schedule_number, :physical_address, :detail_url,
	:is_business, :latitude, :longitude,
	:renewal_date, :renewal_method, :renewal_category, :renewal_month,
	:raw, :processed_at
)`

// ReplaceAll swaps the whole listing collection in one transaction.
// Listings are superseded on re-sync, never mutated in place.
func (s *Store) ReplaceAll(ctx context.Context, listings []StoredListing) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("clear listings: %w", err)
	}
	for _, listing := range listings {
		row, err := toRow(listing)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, insertListing, row); err != nil {
			return fmt.Errorf("insert listing %s: %w", listing.Record.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Listings returns the stored collection ordered by complex then unit.
func (s *Store) Listings(ctx context.Context) ([]StoredListing, error) {
	var rows []listingRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM listings ORDER BY complex COLLATE NOCASE, unit COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}

	listings := make([]StoredListing, 0, len(rows))
	for _, row := range rows {
		listing, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// Count returns the number of stored listings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM listings"); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

// CategoryCounts returns the number of listings per renewal category.
func (s *Store) CategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT renewal_category, COUNT(*) FROM listings GROUP BY renewal_category")
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

func toRow(listing StoredListing) (listingRow, error) {
	rec := listing.Record

	ownerNames, err := json.Marshal(rec.OwnerNames)
	if err != nil {
		return listingRow{}, fmt.Errorf("encode owner names: %w", err)
	}
	owners, err := json.Marshal(rec.Owners)
	if err != nil {
		return listingRow{}, fmt.Errorf("encode owners: %w", err)
	}
	raw, err := json.Marshal(rec.Raw)
	if err != nil {
		return listingRow{}, fmt.Errorf("encode raw attributes: %w", err)
	}

	row := listingRow{
		ID:              rec.ID,
		Complex:         rec.Complex,
		Unit:            rec.Unit,
		OwnerName:       rec.OwnerName,
		OwnerNames:      string(ownerNames),
		Owners:          string(owners),
		MailingAddress:  rec.MailingAddress,
		MailingLine1:    rec.MailingLine1,
		MailingLine2:    rec.MailingLine2,
		MailingCity:     rec.MailingCity,
		MailingState:    rec.MailingState,
		Zip5:            rec.Zip5,
		Zip9:            rec.Zip9,
		Subdivision:     rec.Subdivision,
		ScheduleNumber:  rec.ScheduleNumber,
		PhysicalAddress: rec.PhysicalAddress,
		DetailURL:       rec.DetailURL,
		IsBusiness:      rec.IsBusinessOwner,
		Latitude:        rec.Latitude,
		Longitude:       rec.Longitude,
		RenewalCategory: string(listing.Renewal.Category),
		RenewalMonth:    listing.Renewal.MonthKey,
		Raw:             string(raw),
		ProcessedAt:     rec.ProcessedAt,
	}
	if est := listing.Renewal.Estimate; est != nil {
		date := est.Date
		row.RenewalDate = &date
		row.RenewalMethod = string(est.Method)
	}
	return row, nil
}

func fromRow(row listingRow) (StoredListing, error) {
	rec := domain.ListingRecord{
		ID:              row.ID,
		Complex:         row.Complex,
		Unit:            row.Unit,
		OwnerName:       row.OwnerName,
		MailingAddress:  row.MailingAddress,
		MailingLine1:    row.MailingLine1,
		MailingLine2:    row.MailingLine2,
		MailingCity:     row.MailingCity,
		MailingState:    row.MailingState,
		Zip5:            row.Zip5,
		Zip9:            row.Zip9,
		Subdivision:     row.Subdivision,
		ScheduleNumber:  row.ScheduleNumber,
		PhysicalAddress: row.PhysicalAddress,
		DetailURL:       row.DetailURL,
		IsBusinessOwner: row.IsBusiness,
		Latitude:        row.Latitude,
		Longitude:       row.Longitude,
		ProcessedAt:     row.ProcessedAt,
	}
	if err := json.Unmarshal([]byte(row.OwnerNames), &rec.OwnerNames); err != nil {
		return StoredListing{}, fmt.Errorf("decode owner names for %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Owners), &rec.Owners); err != nil {
		return StoredListing{}, fmt.Errorf("decode owners for %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Raw), &rec.Raw); err != nil {
		return StoredListing{}, fmt.Errorf("decode raw attributes for %s: %w", row.ID, err)
	}

	listing := StoredListing{
		Record: rec,
		Renewal: renewal.Resolution{
			Category: renewal.Category(row.RenewalCategory),
			MonthKey: row.RenewalMonth,
		},
	}
	if row.RenewalDate != nil {
		listing.Renewal.Estimate = &renewal.Estimate{
			Date:   row.RenewalDate.UTC(),
			Method: renewal.Method(row.RenewalMethod),
		}
	}
	return listing, nil
}

package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// detailURLTemplate builds the county's public parcel detail page from a
// registration ID or schedule number.
const detailURLTemplate = "https://gis.summitcountyco.gov/map/DetailData.aspx?Schno=%s"

// MapFeature normalizes one raw registry feature into a canonical
// ListingRecord. It never fails: missing or malformed attributes degrade to
// empty fields, and every feature yields at least one owner slot.
func MapFeature(f RawFeature) ListingRecord {
	attrs := f.Attributes

	segments := OwnerNameSegments(attrs)
	owners := make([]OwnerPart, 0, len(segments))
	ownerNames := make([]string, 0, len(segments))
	business := false
	for _, segment := range segments {
		part := SplitOwnerName(segment)
		owners = append(owners, part)
		ownerNames = append(ownerNames, AggregateOwnerName(part))
		if strings.TrimSpace(part.Company) != "" {
			business = true
		}
	}

	addr := ParseMailingAddress(stringAttr(attrs, "OwnerContactPublicMailingAddr"))
	zip5 := zip5Of(addr.Postcode)

	schedule := stringAttr(attrs, "PropertyScheduleText")
	registration := stringAttr(attrs, "HC_RegistrationsOriginalCleaned")

	detailID := registration
	if detailID == "" {
		detailID = schedule
	}
	detailURL := ""
	if detailID != "" {
		detailURL = fmt.Sprintf(detailURLTemplate, url.QueryEscape(detailID))
	}

	physical := stringAttr(attrs, "SitusAddress")
	if physical == "" {
		physical = stringAttr(attrs, "BriefPropertyDescription")
	}

	rec := ListingRecord{
		ID:              listingID(attrs, schedule, registration),
		Complex:         NormalizeComplexName(attrs),
		Unit:            ExtractUnit(attrs),
		OwnerName:       strings.Join(nonEmpty(ownerNames), "; "),
		OwnerNames:      ownerNames,
		Owners:          owners,
		MailingLine1:    addr.Line1,
		MailingLine2:    addr.Line2,
		MailingCity:     addr.City,
		MailingState:    addr.State,
		Zip5:            zip5,
		Zip9:            addr.Postcode,
		Subdivision:     stringAttr(attrs, "SubdivisionName"),
		ScheduleNumber:  schedule,
		PhysicalAddress: physical,
		DetailURL:       detailURL,
		IsBusinessOwner: business,
		Raw:             attrs,
		ProcessedAt:     clock.Now(),
	}
	rec.MailingAddress = combineMailingLines(addr, zip5)

	if f.Geometry != nil {
		lat, lng := f.Geometry.Y, f.Geometry.X
		rec.Latitude = &lat
		rec.Longitude = &lng
	}
	return rec
}

// listingID picks a stable record identifier: schedule number, then
// registration ID, then the feature OBJECTID.
func listingID(attrs Attributes, schedule, registration string) string {
	if schedule != "" {
		return schedule
	}
	if registration != "" {
		return registration
	}
	if objectID := stringAttr(attrs, "OBJECTID"); objectID != "" {
		return "OBJ" + objectID
	}
	return ""
}

func zip5Of(postcode string) string {
	if postcode == "" {
		return ""
	}
	zip5, _, _ := strings.Cut(postcode, "-")
	return strings.TrimSpace(zip5)
}

// combineMailingLines renders the multi-line mailing block: line 1, line 2,
// then "City, ST zip" with whichever pieces are present.
func combineMailingLines(addr MailingAddress, zip5 string) string {
	cityLine := addr.City
	if cityLine != "" && addr.State != "" {
		cityLine = cityLine + ", " + addr.State
	} else if addr.State != "" {
		cityLine = addr.State
	}

	zipForLine := addr.Postcode
	if zipForLine == "" {
		zipForLine = zip5
	}
	if cityLine != "" && zipForLine != "" {
		cityLine = strings.TrimSpace(cityLine + " " + zipForLine)
	} else if cityLine == "" {
		cityLine = zipForLine
	}

	return strings.Join(nonEmpty([]string{addr.Line1, addr.Line2, cityLine}), "\n")
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// OwnerRow is one flat owner-table entry: a ListingRecord exploded into one
// row per co-owner, used by the CSV export.
type OwnerRow struct {
	Complex         string
	Unit            string
	OwnerName       string
	IsBusinessOwner bool
	MailingAddress  string
	Line1           string
	Line2           string
	City            string
	State           string
	Zip5            string
	Zip9            string
	Subdivision     string
	ScheduleNumber  string
	DetailURL       string
	PhysicalAddress string
	Part            OwnerPart
}

// OwnerRows explodes a normalized record into flat owner-table rows, one per
// co-owner.
func OwnerRows(rec ListingRecord) []OwnerRow {
	rows := make([]OwnerRow, 0, len(rec.Owners))
	for i, part := range rec.Owners {
		name := ""
		if i < len(rec.OwnerNames) {
			name = rec.OwnerNames[i]
		}
		rows = append(rows, OwnerRow{
			Complex:         rec.Complex,
			Unit:            rec.Unit,
			OwnerName:       name,
			IsBusinessOwner: strings.TrimSpace(part.Company) != "",
			MailingAddress:  rec.MailingAddress,
			Line1:           rec.MailingLine1,
			Line2:           rec.MailingLine2,
			City:            rec.MailingCity,
			State:           rec.MailingState,
			Zip5:            rec.Zip5,
			Zip9:            rec.Zip9,
			Subdivision:     rec.Subdivision,
			ScheduleNumber:  rec.ScheduleNumber,
			DetailURL:       rec.DetailURL,
			PhysicalAddress: rec.PhysicalAddress,
			Part:            part,
		})
	}
	return rows
}

// SortOwnerRows orders rows by complex (case-insensitive) then unit, with
// numeric units sorted numerically before lexicographic ones and blank units
// last within a complex.
func SortOwnerRows(rows []OwnerRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := strings.ToLower(rows[i].Complex), strings.ToLower(rows[j].Complex)
		if ci != cj {
			return ci < cj
		}
		bi, ki := unitSortKey(rows[i].Unit)
		bj, kj := unitSortKey(rows[j].Unit)
		if bi != bj {
			return bi < bj
		}
		return ki < kj
	})
}

// unitSortKey pads numeric units into a fixed-width form so "9" sorts before
// "10"; blank units sort into a trailing bucket.
func unitSortKey(unit string) (int, string) {
	if unit == "" {
		return 1, ""
	}
	if value, err := strconv.ParseFloat(unit, 64); err == nil {
		return 0, fmt.Sprintf("%012.4f", value)
	}
	return 0, strings.ToLower(unit)
}

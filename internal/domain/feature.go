package domain

import (
	"strconv"
	"strings"
	"time"
)

// Attributes is the raw key/value mapping of a GIS feature as decoded from
// JSON. Values are string, float64, bool, nil, []any, or map[string]any.
type Attributes map[string]any

// Geometry is a WGS-84 point: x is longitude, y is latitude.
type Geometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawFeature is one untrusted record from a feature service. Any attribute
// may be missing, null, or of unexpected type; geometry is optional.
type RawFeature struct {
	Attributes Attributes `json:"attributes"`
	Geometry   *Geometry  `json:"geometry,omitempty"`
}

// OwnerPart holds the structured pieces of a single owner-name segment.
// Company is non-empty only when the segment matched a business-entity
// keyword, in which case all personal-name fields are empty.
type OwnerPart struct {
	First   string `json:"first,omitempty"`
	Middle  string `json:"middle,omitempty"`
	Last    string `json:"last,omitempty"`
	Suffix  string `json:"suffix,omitempty"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
}

// ListingRecord is the canonical entity produced from one RawFeature.
// Records are immutable once built; a re-sync replaces the whole collection
// rather than mutating rows in place.
type ListingRecord struct {
	ID              string      `json:"id"`
	Complex         string      `json:"complex,omitempty"`
	Unit            string      `json:"unit,omitempty"`
	OwnerName       string      `json:"owner_name,omitempty"`
	OwnerNames      []string    `json:"owner_names,omitempty"`
	Owners          []OwnerPart `json:"owners,omitempty"`
	MailingAddress  string      `json:"mailing_address,omitempty"`
	MailingLine1    string      `json:"mailing_line1,omitempty"`
	MailingLine2    string      `json:"mailing_line2,omitempty"`
	MailingCity     string      `json:"mailing_city,omitempty"`
	MailingState    string      `json:"mailing_state,omitempty"`
	Zip5            string      `json:"zip5,omitempty"`
	Zip9            string      `json:"zip9,omitempty"`
	Subdivision     string      `json:"subdivision,omitempty"`
	ScheduleNumber  string      `json:"schedule_number,omitempty"`
	PhysicalAddress string      `json:"physical_address,omitempty"`
	DetailURL       string      `json:"detail_url,omitempty"`
	IsBusinessOwner bool        `json:"is_business_owner"`
	Latitude        *float64    `json:"latitude,omitempty"`
	Longitude       *float64    `json:"longitude,omitempty"`

	// Raw retains the source attributes for audit and non-destructive
	// re-derivation (e.g. renewal signal collection).
	Raw Attributes `json:"raw,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// stringAttr returns the attribute as a trimmed string, tolerating numbers,
// booleans, and nil. Missing or unrenderable values become "".
func stringAttr(attrs Attributes, key string) string {
	if attrs == nil {
		return ""
	}
	return coerceString(attrs[key])
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		// JSON numbers decode as float64; render integers without a decimal.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/Sidetalker/rental-registry/internal/renewal"
)

// RosterSource describes how to query one municipality's STR license roster
// layer and which attributes carry the interesting fields.
type RosterSource struct {
	Municipality      string   `json:"municipality"`
	LayerURL          string   `json:"layer_url"`
	ScheduleField     string   `json:"schedule_field"`
	LicenseIDField    string   `json:"license_id_field"`
	StatusField       string   `json:"status_field"`
	ExpirationField   string   `json:"expiration_field,omitempty"`
	UpdatedField      string   `json:"updated_field,omitempty"`
	Where             string   `json:"where,omitempty"`
	OutFields         []string `json:"out_fields,omitempty"`
	DetailURLTemplate string   `json:"detail_url_template,omitempty"`
}

// RosterRecord is one normalized municipal STR license row.
type RosterRecord struct {
	Municipality     string     `json:"municipality"`
	ScheduleNumber   string     `json:"schedule_number"`
	LicenseID        string     `json:"municipal_license_id"`
	Status           string     `json:"status"`
	NormalizedStatus string     `json:"normalized_status"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	DetailURL        string     `json:"detail_url,omitempty"`
	Raw              Attributes `json:"raw,omitempty"`
}

// statusAlias pairs a roster status keyword with its normalized form.
// Matching is an ordered substring scan over the upper-cased status, so
// earlier entries win when a status matches several keywords.
type statusAlias struct {
	keyword string
	alias   string
}

var statusAliases = []statusAlias{
	{"APPROVED", "active"},
	{"ACTIVE", "active"},
	{"ISSUED", "active"},
	{"CURRENT", "active"},
	{"GOOD STANDING", "active"},
	{"IN GOOD STANDING", "active"},
	{"RENEWED", "active"},
	{"PAID", "active"},
	{"PENDING", "pending"},
	{"UNDER REVIEW", "pending"},
	{"IN PROCESS", "pending"},
	{"EXPIRED", "expired"},
	{"INACTIVE", "inactive"},
	{"SUSPENDED", "inactive"},
	{"REVOKED", "revoked"},
	{"DENIED", "revoked"},
	{"CANCELLED", "revoked"},
	{"CANCELED", "revoked"},
}

// NormalizeStatus maps a raw roster status to one of active, pending,
// expired, inactive, revoked, or unknown.
func NormalizeStatus(value any) string {
	text := coerceString(value)
	if text == "" {
		return "unknown"
	}
	upper := strings.ToUpper(text)
	for _, alias := range statusAliases {
		if strings.Contains(upper, alias.keyword) {
			return alias.alias
		}
	}
	return "unknown"
}

// NormalizeScheduleNumber canonicalizes a county schedule number: trimmed
// and upper-cased, empty when blank or missing.
func NormalizeScheduleNumber(value any) string {
	return strings.ToUpper(coerceString(value))
}

var templateFieldRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// BuildDetailURL expands a source's detail URL template with attribute
// values, e.g. "https://town.example/str/{LICENSE_NO}". Returns "" when the
// source has no template or a referenced attribute is missing.
func BuildDetailURL(source RosterSource, attrs Attributes) string {
	if source.DetailURLTemplate == "" {
		return ""
	}
	missing := false
	expanded := templateFieldRe.ReplaceAllStringFunc(source.DetailURLTemplate, func(match string) string {
		key := match[1 : len(match)-1]
		value := stringAttr(attrs, key)
		if value == "" {
			missing = true
		}
		return value
	})
	if missing {
		return ""
	}
	return expanded
}

// ExtractRosterRecord normalizes one roster feature's attributes. Rows
// without a schedule number or license ID are skipped (ok=false); date
// fields parse best-effort and stay nil when unreadable.
func ExtractRosterRecord(source RosterSource, attrs Attributes) (RosterRecord, bool) {
	schedule := NormalizeScheduleNumber(attrs[source.ScheduleField])
	if schedule == "" {
		return RosterRecord{}, false
	}
	licenseID := coerceString(attrs[source.LicenseIDField])
	if licenseID == "" {
		return RosterRecord{}, false
	}

	status := coerceString(attrs[source.StatusField])
	if status == "" {
		status = "Unknown"
	}

	rec := RosterRecord{
		Municipality:     source.Municipality,
		ScheduleNumber:   schedule,
		LicenseID:        licenseID,
		Status:           status,
		NormalizedStatus: NormalizeStatus(attrs[source.StatusField]),
		DetailURL:        BuildDetailURL(source, attrs),
		Raw:              attrs,
	}

	if source.ExpirationField != "" {
		if date, ok := renewal.ParseDateValue(attrs[source.ExpirationField]); ok {
			rec.ExpirationDate = &date
		}
	}
	if source.UpdatedField != "" {
		if date, ok := renewal.ParseDateValue(attrs[source.UpdatedField]); ok {
			rec.UpdatedAt = &date
		}
	}
	return rec, true
}

// DefaultRosterSources returns the built-in municipal roster configuration.
// Operators can override or extend these via a JSON file (see config).
func DefaultRosterSources() []RosterSource {
	return []RosterSource{
		{
			Municipality:      "Breckenridge",
			LayerURL:          "https://services1.arcgis.com/DbqCQ5IIGIgjLU4g/arcgis/rest/services/STR_Licenses_Public/FeatureServer/0",
			ScheduleField:     "SCHEDULE_NUM",
			LicenseIDField:    "LICENSE_NO",
			StatusField:       "STATUS",
			ExpirationField:   "EXPIRATION",
			UpdatedField:      "LAST_UPDATE",
			DetailURLTemplate: "https://www.townofbreckenridge.com/str/{LICENSE_NO}",
		},
		{
			Municipality:    "Frisco",
			LayerURL:        "https://services7.arcgis.com/r0nAYG7DmzNoKGbT/arcgis/rest/services/Frisco_STR_Licenses/FeatureServer/0",
			ScheduleField:   "SCHEDULE",
			LicenseIDField:  "LICENSE_NO",
			StatusField:     "STATUS",
			ExpirationField: "EXPIRATION",
			UpdatedField:    "LASTUPDATED",
		},
		{
			Municipality:    "Dillon",
			LayerURL:        "https://services7.arcgis.com/4W0wSZ3KFcuX39pB/arcgis/rest/services/Dillon_STR_Licenses/FeatureServer/0",
			ScheduleField:   "SCHEDULE",
			LicenseIDField:  "LICENSE_NO",
			StatusField:     "STATUS",
			ExpirationField: "EXPIRATION",
			UpdatedField:    "LAST_UPDATED",
		},
		{
			Municipality:    "Silverthorne",
			LayerURL:        "https://services7.arcgis.com/p0mEetxHUAZJr0qG/arcgis/rest/services/Silverthorne_STR_Licenses/FeatureServer/0",
			ScheduleField:   "SCHEDULE",
			LicenseIDField:  "LICENSE_NO",
			StatusField:     "STATUS",
			ExpirationField: "EXPIRATION",
			UpdatedField:    "LAST_MODIFIED",
		},
	}
}

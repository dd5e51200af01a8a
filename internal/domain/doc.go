// Package domain models Summit County, CO short-term rental (STR) registry data.
//
// # Data Source
//
// Registry records come from the county's public STR license feature layer,
// hosted on ArcGIS Online. Each feature is one registered rental property
// keyed by its county schedule number ("Schno"), with permit metadata and
// assessor attributes merged in. The attribute schema is loose: any field may
// be missing, null, or carry an unexpected type, so every parser in this
// package degrades to empty output instead of failing a batch.
//
// # Owner Name Conventions
//
// Co-owners arrive as a single HTML fragment in OwnerNamesPublicHTML:
//
//	"JOHN A SMITH<br/>JANE B SMITH"  →  two owner segments
//
// Entities are HTML-escaped and segments are separated by <br> markers.
// When the field is absent, OwnerFullName is used as a single segment, and
// when that is also empty the feature still yields one blank owner slot so
// downstream joins stay one-to-many.
//
// A segment containing a business keyword (" LLC", " TRUST", " INC", ...,
// case-insensitive substring of the upper-cased name) is kept verbatim as a
// company name. Personal names tokenize on whitespace with periods removed;
// a trailing generational suffix (JR/SR/II/III/IV/V) is split off, and an
// embedded "&"/"AND" marks a joint first name ("JOHN & JANE SMITH").
//
// # Mailing Address Conventions
//
// OwnerContactPublicMailingAddr is one string with pipe- or <br>-separated
// segments:
//
//	"PO BOX 771|UNIT 4|BRECKENRIDGE, CO 80424"
//
// The first segment is line 1, the last is "city, state zip", and anything
// between joins into line 2. A tail segment without a comma is treated as a
// bare city.
//
// # Complex Names and Units
//
// The display "complex" label prefers SubdivisionName with platting suffixes
// ("Condo", "Townhomes", "Filing", "Phase", ...) stripped, falling back to
// the situs address with the leading house number and any UNIT/BLDG tail
// removed. Unit identifiers are pulled from BriefPropertyDescription or
// SitusAddress via "UNIT <token>" then "BLDG <token>" patterns.
//
// # Identifiers
//
// The public record identifier prefers HC_RegistrationsOriginalCleaned and
// falls back to PropertyScheduleText. Listing IDs must be stable across
// refetches of the same parcel, so the schedule number is preferred and the
// OBJECTID is only a last resort. See [MapFeature].
package domain

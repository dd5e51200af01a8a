package domain

import (
	"html"
	"regexp"
	"strings"
)

var (
	// addressSplitRe separates mailing-address segments. The registry layer
	// uses pipes; some overlay layers deliver <br> markers instead.
	addressSplitRe = regexp.MustCompile(`(?i)<br\s*/?>|\|`)

	unitRe = regexp.MustCompile(`(?i)UNIT\s+([A-Za-z0-9\-]+)`)
	bldgRe = regexp.MustCompile(`(?i)\bBLDG\s+([A-Za-z0-9\-]+)`)

	digitsRe = regexp.MustCompile(`^\d+$`)
)

// MailingAddress holds the parsed pieces of an owner mailing-address blob.
type MailingAddress struct {
	Line1    string
	Line2    string
	City     string
	State    string
	Postcode string
}

// complexSuffixes are platting suffixes stripped from the end of a
// subdivision name when deriving the display complex label. Checked in
// order, one pass each.
var complexSuffixes = []string{
	" Condo",
	" Condos",
	" Condominiums",
	" Townhomes",
	" Townhome",
	" Pud",
	" Filing",
	" Phase",
}

// complexRenames collapses known inconsistent source values to their
// canonical display form.
var complexRenames = map[string]string{
	"Mountain Thunder Lodge": "Mountain Thunder",
}

// ParseMailingAddress splits a pipe- or <br>-delimited mailing address.
// The first segment is line 1; with exactly one remaining segment that
// segment is the "city, state zip" tail, and with more the last is the tail
// and the middle joins into line 2. Malformed input degrades to empty fields.
func ParseMailingAddress(raw string) MailingAddress {
	if raw == "" {
		return MailingAddress{}
	}

	decoded := html.UnescapeString(raw)
	var segments []string
	for _, segment := range addressSplitRe.Split(decoded, -1) {
		if segment = strings.TrimSpace(segment); segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return MailingAddress{}
	}

	addr := MailingAddress{Line1: segments[0]}

	var cityState string
	switch {
	case len(segments) == 2:
		cityState = segments[1]
	case len(segments) >= 3:
		addr.Line2 = strings.Join(segments[1:len(segments)-1], " ")
		cityState = segments[len(segments)-1]
	}
	if cityState == "" {
		return addr
	}

	if city, rest, ok := strings.Cut(cityState, ","); ok {
		addr.City = titleCase(strings.TrimSpace(city))
		if rest = strings.TrimSpace(rest); rest != "" {
			tokens := strings.Fields(rest)
			addr.State = strings.ToUpper(tokens[0])
			addr.Postcode = strings.TrimSpace(strings.Join(tokens[1:], " "))
		}
	} else {
		addr.City = titleCase(cityState)
	}
	return addr
}

// NormalizeComplexName derives the display complex (building/subdivision)
// label for a feature. SubdivisionName wins, title-cased with platting
// suffixes stripped and manual renames applied; otherwise the situs address
// is used with the leading house number dropped and consumption stopping at
// UNIT/BLDG/BUILDING. An unparseable situs is returned unmodified.
func NormalizeComplexName(attrs Attributes) string {
	subdivision := strings.TrimSpace(titleCase(stringAttr(attrs, "SubdivisionName")))
	if subdivision != "" {
		for _, suffix := range complexSuffixes {
			if strings.HasSuffix(subdivision, suffix) {
				subdivision = strings.TrimSpace(strings.TrimSuffix(subdivision, suffix))
			}
		}
		if renamed, ok := complexRenames[subdivision]; ok {
			return renamed
		}
		return subdivision
	}

	situs := stringAttr(attrs, "SitusAddress")
	if situs == "" {
		return ""
	}

	parts := strings.Fields(situs)
	if len(parts) > 0 && digitsRe.MatchString(parts[0]) {
		parts = parts[1:]
	}

	var trimmed []string
	for _, part := range parts {
		switch strings.ToUpper(part) {
		case "UNIT", "BLDG", "BUILDING":
			return complexFromParts(trimmed, situs)
		}
		trimmed = append(trimmed, part)
	}
	return complexFromParts(trimmed, situs)
}

func complexFromParts(parts []string, situs string) string {
	if len(parts) == 0 {
		return situs
	}
	return titleCase(strings.Join(parts, " "))
}

// ExtractUnit finds the unit identifier for a feature: a "UNIT <token>"
// pattern in BriefPropertyDescription then SitusAddress, falling back to
// "BLDG <token>" over the same fields. Empty when neither matches.
func ExtractUnit(attrs Attributes) string {
	fields := []string{
		stringAttr(attrs, "BriefPropertyDescription"),
		stringAttr(attrs, "SitusAddress"),
	}
	for _, re := range []*regexp.Regexp{unitRe, bldgRe} {
		for _, text := range fields {
			if text == "" {
				continue
			}
			if match := re.FindStringSubmatch(text); match != nil {
				return match[1]
			}
		}
	}
	return ""
}

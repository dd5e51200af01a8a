package domain

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// brSplitRe splits HTML fragments on <br> markers in any of their forms.
	brSplitRe = regexp.MustCompile(`(?i)<br\s*/?>`)

	// tagRe strips any remaining HTML tags from an owner-name segment.
	tagRe = regexp.MustCompile(`<[^>]+>`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// businessKeywords flag an owner-name segment as a business entity. Matched
// case-insensitively as substrings of the upper-cased name; the leading
// space avoids firing inside surnames ("Mcintrust" is not a trust).
var businessKeywords = []string{
	" LLC",
	" L.L.C",
	" LLP",
	" L.L.P",
	" INC",
	" CO ",
	" COMPANY",
	" CORPORATION",
	" CORP",
	" LP",
	" L.P",
	" LLLP",
	" PLLC",
	" PC",
	" TRUST",
	" TR ",
	" FOUNDATION",
	" ASSOCIATES",
	" HOLDINGS",
	" ENTERPRISE",
	" ENTERPRISES",
	" PROPERTIES",
	" PROPERTY",
	" GROUP",
	" INVEST",
	" PARTNERSHIP",
	" PARTNERS",
	" LIVING TRUST",
	" REVOCABLE",
	" FAMILY",
	" MANAGEMENT",
	" FUND",
	" ESTATE",
	" LLC.",
	" LLC,",
}

// suffixCanonical maps upper-cased generational suffix tokens to their
// display form. Roman numerals keep their casing.
var suffixCanonical = map[string]string{
	"JR":  "Jr",
	"SR":  "Sr",
	"II":  "II",
	"III": "III",
	"IV":  "IV",
	"V":   "V",
}

// titleCase renders each word in title case ("JOHN SMITH" → "John Smith").
// Safe on empty input.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return cases.Title(language.AmericanEnglish).String(s)
}

// ExtractOwnerNames pulls the co-owner name segments out of a feature's
// OwnerNamesPublicHTML fragment: decode entities, split on <br> markers,
// strip remaining tags, and drop blanks. Returns nil when the field is
// missing or yields nothing.
func ExtractOwnerNames(attrs Attributes) []string {
	raw := stringAttr(attrs, "OwnerNamesPublicHTML")
	if raw == "" {
		return nil
	}

	decoded := html.UnescapeString(raw)
	var names []string
	for _, part := range brSplitRe.Split(decoded, -1) {
		part = tagRe.ReplaceAllString(part, "")
		part = strings.TrimSpace(spaceRe.ReplaceAllString(part, " "))
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

// OwnerNameSegments resolves the owner-name slots for a feature: the HTML
// co-owner list when present, otherwise OwnerFullName, otherwise a single
// empty placeholder so every feature keeps at least one owner downstream.
func OwnerNameSegments(attrs Attributes) []string {
	if names := ExtractOwnerNames(attrs); len(names) > 0 {
		return names
	}
	if fallback := stringAttr(attrs, "OwnerFullName"); fallback != "" {
		return []string{fallback}
	}
	return []string{""}
}

// SplitOwnerName decomposes one owner-name segment into structured parts.
// Segments matching a business keyword are returned verbatim as Company with
// all personal fields empty.
func SplitOwnerName(rawName string) OwnerPart {
	clean := strings.Trim(strings.TrimSpace(rawName), ",")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return OwnerPart{}
	}

	clean = spaceRe.ReplaceAllString(clean, " ")
	upper := strings.ToUpper(clean)
	for _, keyword := range businessKeywords {
		if strings.Contains(upper, keyword) {
			return OwnerPart{Company: clean}
		}
	}

	tokens := strings.Fields(strings.ReplaceAll(clean, ".", ""))
	if len(tokens) == 0 {
		return OwnerPart{}
	}

	var suffix string
	if canonical, ok := suffixCanonical[strings.ToUpper(tokens[len(tokens)-1])]; ok {
		suffix = canonical
		tokens = tokens[:len(tokens)-1]
	}

	if len(tokens) == 0 {
		return OwnerPart{Suffix: suffix}
	}
	if len(tokens) == 1 {
		return OwnerPart{Last: titleCase(tokens[0]), Suffix: suffix}
	}

	firstMiddle := tokens[:len(tokens)-1]
	last := titleCase(tokens[len(tokens)-1])

	// "JOHN & JANE SMITH": the whole first-middle span is one joint first name.
	joint := false
	for _, token := range firstMiddle {
		if u := strings.ToUpper(token); u == "&" || u == "AND" {
			joint = true
			break
		}
	}
	if joint {
		titled := make([]string, len(firstMiddle))
		for i, token := range firstMiddle {
			titled[i] = titleCase(token)
		}
		return OwnerPart{First: strings.Join(titled, " "), Last: last, Suffix: suffix}
	}

	middleTokens := make([]string, 0, len(firstMiddle)-1)
	for _, token := range firstMiddle[1:] {
		middleTokens = append(middleTokens, titleCase(token))
	}
	return OwnerPart{
		First:  titleCase(firstMiddle[0]),
		Middle: strings.Join(middleTokens, " "),
		Last:   last,
		Suffix: suffix,
	}
}

// AggregateOwnerName renders an OwnerPart for display. A company name wins
// verbatim; otherwise title + first + middle + last join with the suffix
// glued to the final token.
func AggregateOwnerName(p OwnerPart) string {
	if company := strings.TrimSpace(p.Company); company != "" {
		return company
	}

	var parts []string
	for _, piece := range []string{p.Title, p.First, p.Middle, p.Last} {
		if piece = strings.TrimSpace(piece); piece != "" {
			parts = append(parts, piece)
		}
	}
	if suffix := strings.TrimSpace(p.Suffix); suffix != "" {
		if len(parts) > 0 {
			parts[len(parts)-1] += " " + suffix
		} else {
			parts = append(parts, suffix)
		}
	}
	return strings.Join(parts, " ")
}

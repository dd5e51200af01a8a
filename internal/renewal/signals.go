package renewal

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// SignalType classifies where in the record a renewal signal came from.
type SignalType string

const (
	SignalPermit     SignalType = "permit"
	SignalTransfer   SignalType = "transfer"
	SignalAssessment SignalType = "assessment"
	SignalUpdate     SignalType = "update"
	SignalGeneric    SignalType = "generic"
)

// Signal is one date-like value harvested from a raw record.
type Signal struct {
	Type     SignalType
	Path     string // dotted field path within the record
	Date     time.Time
	RawValue any
}

const (
	// maxWalkDepth bounds the recursive record walk; fields nested deeper
	// are silently skipped. A deliberate resource bound, not a failure.
	maxWalkDepth = 4

	// maxArrayEntries caps how many elements of an array are inspected.
	maxArrayEntries = 25
)

var (
	// dateKeyRe gates which field paths are worth attempting to parse.
	dateKeyRe = regexp.MustCompile(`(?i)(date|year|permit|licen[cs]|registr|renew|expir|issue|sale|sold|deed|transfer|convey|assess|apprais|valuat|tax|updat|modif)`)

	// Value-shape heuristics: a string that already looks like a date is
	// parsed even when its key name is unremarkable.
	slashDateRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}`)
	monthDayRe  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}\b`)
	bareYearRe  = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// signalTypePatterns classify a field path into a signal type. Ordered;
// first match wins.
var signalTypePatterns = []struct {
	re  *regexp.Regexp
	typ SignalType
}{
	{regexp.MustCompile(`(?i)(permit|licen[cs]|registr|renew|expir|issue)`), SignalPermit},
	{regexp.MustCompile(`(?i)(sale|sold|deed|transfer|convey|purchas)`), SignalTransfer},
	{regexp.MustCompile(`(?i)(assess|apprais|valuat|tax)`), SignalAssessment},
	{regexp.MustCompile(`(?i)(updat|modif|edit|chang)`), SignalUpdate},
}

// CollectSignals walks a raw attribute record and returns every date-like
// value as a classified signal, deduplicated by (type, path, timestamp) and
// sorted ascending by date. The walk is bounded to depth 4 and 25 array
// elements; deeper or longer structures are truncated silently.
func CollectSignals(record map[string]any) []Signal {
	if len(record) == 0 {
		return nil
	}

	collector := signalCollector{seen: make(map[string]struct{})}
	collector.walkObject(record, "", 0)

	sort.SliceStable(collector.signals, func(i, j int) bool {
		a, b := collector.signals[i], collector.signals[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Type < b.Type
	})
	return collector.signals
}

type signalCollector struct {
	signals []Signal
	seen    map[string]struct{}
}

func (c *signalCollector) walkObject(obj map[string]any, prefix string, depth int) {
	if depth >= maxWalkDepth {
		return
	}
	// Sorted keys keep output deterministic across runs.
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		c.walkValue(obj[key], joinPath(prefix, key), depth+1)
	}
}

func (c *signalCollector) walkValue(value any, path string, depth int) {
	if depth > maxWalkDepth {
		return
	}
	switch v := value.(type) {
	case map[string]any:
		c.walkObject(v, path, depth)
	case []any:
		for i, element := range v {
			if i >= maxArrayEntries {
				break
			}
			c.walkValue(element, fmt.Sprintf("%s.%d", path, i), depth)
		}
	default:
		c.collectLeaf(v, path)
	}
}

func (c *signalCollector) collectLeaf(value any, path string) {
	if !shouldAttempt(path, value) {
		return
	}
	date, ok := ParseDateValue(value)
	if !ok {
		return
	}

	typ := classifyPath(path)
	key := fmt.Sprintf("%s|%s|%d", typ, path, date.UnixMilli())
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.signals = append(c.signals, Signal{Type: typ, Path: path, Date: date, RawValue: value})
}

// shouldAttempt decides whether a leaf is worth date-parsing: either its
// field path names something date-related, or the value itself already
// looks like a date.
func shouldAttempt(path string, value any) bool {
	if dateKeyRe.MatchString(path) {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	return slashDateRe.MatchString(s) || monthDayRe.MatchString(s) || bareYearRe.MatchString(s)
}

func classifyPath(path string) SignalType {
	for _, pattern := range signalTypePatterns {
		if pattern.re.MatchString(path) {
			return pattern.typ
		}
	}
	return SignalGeneric
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

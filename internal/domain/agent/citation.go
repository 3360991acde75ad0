package agent

import (
	"fmt"
	"regexp"
	"strconv"
)

var citationRegex = regexp.MustCompile(`\[ref_id:([^\]]+)\]`)

// DisplayNames maps reference id to a display value taken from the
// reference's source data. References without that field are omitted.
func DisplayNames(refs []Reference, field string) map[string]string {
	names := make(map[string]string, len(refs))
	for _, ref := range refs {
		s, ok := ref.(SearchIndexReference)
		if !ok || s.SourceData == nil {
			continue
		}
		v, ok := s.SourceData[field]
		if !ok || v == nil {
			continue
		}
		name := displayValue(v)
		if name == "" {
			continue
		}
		names[s.ID] = name
	}
	return names
}

func displayValue(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// SubstituteCitations replaces every [ref_id:X] marker whose X is in names
// with "(name)". Unknown markers are left verbatim. Replacement is a single
// pass over the original text, so the result does not depend on map order.
func SubstituteCitations(text string, names map[string]string) string {
	return citationRegex.ReplaceAllStringFunc(text, func(marker string) string {
		id := citationRegex.FindStringSubmatch(marker)[1]
		name, ok := names[id]
		if !ok {
			return marker
		}
		// A marker inside a name would be substituted on a second pass.
		return "(" + citationRegex.ReplaceAllString(name, "") + ")"
	})
}

// CitedIDs returns the reference ids cited in text, in order of first appearance.
func CitedIDs(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range citationRegex.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tlareau/jobsift/internal/scrape"
)

// JSONLDSelector matches embedded structured-metadata blocks.
const JSONLDSelector = `script[type="application/ld+json"]`

const jobPostingType = "jobposting"

// Structured scans the page for structured-metadata blocks and returns the
// first qualifying job-posting fragment, or nil when none qualifies.
func Structured(ctx context.Context, p scrape.Prober) (*scrape.Fragment, error) {
	blocks, err := p.Blocks(ctx, JSONLDSelector)
	if err != nil {
		return nil, fmt.Errorf("read structured blocks: %w", err)
	}
	return ParseStructuredBlocks(blocks), nil
}

// ParseStructuredBlocks parses each block as JSON, skipping malformed ones,
// and selects the first whose declared type identifies a job posting. The
// posting may appear directly, inside a top-level array, or nested under a
// mainEntity wrapper.
func ParseStructuredBlocks(blocks []string) *scrape.Fragment {
	for _, raw := range blocks {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			continue
		}
		if node := findJobPosting(decoded); node != nil {
			frag := fragmentFromNode(node)
			return &frag
		}
	}
	return nil
}

func findJobPosting(v any) map[string]any {
	switch node := v.(type) {
	case map[string]any:
		if hasType(node, jobPostingType) {
			return node
		}
		if main, ok := node["mainEntity"]; ok {
			if found := findJobPosting(main); found != nil {
				return found
			}
		}
	case []any:
		for _, item := range node {
			if found := findJobPosting(item); found != nil {
				return found
			}
		}
	}
	return nil
}

// hasType checks the node's @type, which may be a single string or a list.
func hasType(node map[string]any, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func fragmentFromNode(node map[string]any) scrape.Fragment {
	return scrape.Fragment{
		Title:          stringField(node, "title"),
		Description:    stringField(node, "description"),
		PostedDate:     stringField(node, "datePosted"),
		ValidThrough:   stringField(node, "validThrough"),
		Company:        organizationName(node["hiringOrganization"]),
		Location:       locationString(node["jobLocation"]),
		EmploymentType: employmentTypeString(node["employmentType"]),
		ExternalID:     identifierValue(node["identifier"]),
	}
}

func stringField(node map[string]any, key string) string {
	s, _ := node[key].(string)
	return strings.TrimSpace(s)
}

// organizationName handles both a bare string and an Organization object.
func organizationName(v any) string {
	switch org := v.(type) {
	case string:
		return strings.TrimSpace(org)
	case map[string]any:
		return stringField(org, "name")
	}
	return ""
}

// locationString joins address locality, region, and country with commas,
// omitting absent parts. jobLocation may be a single Place or a list.
func locationString(v any) string {
	place, ok := v.(map[string]any)
	if !ok {
		if list, isList := v.([]any); isList {
			for _, item := range list {
				if s := locationString(item); s != "" {
					return s
				}
			}
		}
		return ""
	}
	address, ok := place["address"].(map[string]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
		if s := addressPart(address[key]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// addressPart tolerates addressCountry appearing as a Country object.
func addressPart(v any) string {
	switch p := v.(type) {
	case string:
		return strings.TrimSpace(p)
	case map[string]any:
		return stringField(p, "name")
	}
	return ""
}

// employmentTypeString accepts a single value or a list; lists are
// de-duplicated case-insensitively and joined with commas.
func employmentTypeString(v any) string {
	switch et := v.(type) {
	case string:
		return strings.TrimSpace(et)
	case []any:
		seen := make(map[string]struct{})
		var out []string
		for _, item := range et {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			key := strings.ToLower(s)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
		return strings.Join(out, ", ")
	}
	return ""
}

// identifierValue accepts a bare string or a PropertyValue object.
func identifierValue(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case map[string]any:
		return stringField(id, "value")
	}
	return ""
}

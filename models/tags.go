package models

import "strings"

// NormalizeTags trims, case-folds and de-duplicates a tag list, dropping
// empty values and commas. Order of first appearance is kept.
func NormalizeTags(in []string, upper bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(strings.ReplaceAll(t, ",", " "))
		if upper {
			t = strings.ToUpper(t)
		} else {
			t = strings.ToLower(t)
		}
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// emptyToNil turns "" into nil so optional columns are stored as NULL.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

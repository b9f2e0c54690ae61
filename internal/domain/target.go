package domain

import "strings"

// TargetKey maps a target domain to a filesystem-safe namespace so every
// target gets its own state record and scratch directory.
func TargetKey(target string) string {
	t := strings.ToLower(strings.TrimSpace(target))
	t = strings.TrimSuffix(t, ".")

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "_"
	}
	return out
}

package journal

import "strings"

// Slugify derives the URL identifier for an entry from its title: lowercase,
// runs of anything outside [a-z0-9] collapse to a single hyphen, edges trimmed.
// Applying it to its own output changes nothing.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))

	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return strings.Trim(slug, "-")
}

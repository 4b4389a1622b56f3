package utils

import (
	"strings"

	"github.com/gosimple/slug"
)

// CategorySlug derives the URL slug of a blog category, folding Vietnamese
// diacritics ("Sức khỏe tim mạch" -> "suc-khoe-tim-mach").
func CategorySlug(category string) string {
	return slug.Make(strings.TrimSpace(category))
}

// Package bulk applies one action to every selected item of a list and
// reports a single aggregate result.
package bulk

import (
	"fmt"
	"strings"
)

// Kind is a bulk action.
type Kind string

const (
	Delete     Kind = "delete"
	Activate   Kind = "activate"
	Deactivate Kind = "deactivate"
	Publish    Kind = "publish"
	Unpublish  Kind = "unpublish"
	Feature    Kind = "feature"
	Unfeature  Kind = "unfeature"
)

// SetFeatured returns Feature or Unfeature.
func SetFeatured(featured bool) Kind {
	if featured {
		return Feature
	}
	return Unfeature
}

var pastTense = map[Kind]string{
	Delete:     "deleted",
	Activate:   "activated",
	Deactivate: "deactivated",
	Publish:    "published",
	Unpublish:  "unpublished",
	Feature:    "featured",
	Unfeature:  "unfeatured",
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := pastTense[k]; !ok {
		return "", fmt.Errorf("unknown bulk action %q", s)
	}
	return k, nil
}

// Done is the past tense used in summaries: "deleted", "published".
func (k Kind) Done() string { return pastTense[k] }

// Title is the capitalized verb used in prompts.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

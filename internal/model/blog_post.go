package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lower-case publication state held in application state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// WireStatus is the canonical upper-case form the backend stores and
// transmits.  Conversion between the two happens only at the client edge.
type WireStatus string

const (
	WireDraft     WireStatus = "DRAFT"
	WirePublished WireStatus = "PUBLISHED"
)

// ParseStatus accepts either representation and returns the lower-case one.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StatusDraft):
		return StatusDraft, nil
	case string(StatusPublished):
		return StatusPublished, nil
	}
	return "", fmt.Errorf("unknown post status %q", s)
}

// Wire converts an application status to its wire form.  The zero value
// maps to DRAFT, the backend default.
func (s Status) Wire() WireStatus {
	if s == StatusPublished {
		return WirePublished
	}
	return WireDraft
}

// ParseWireStatus validates an upper-case status received over the wire.
func ParseWireStatus(s string) (WireStatus, error) {
	switch WireStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case WireDraft:
		return WireDraft, nil
	case WirePublished:
		return WirePublished, nil
	}
	return "", fmt.Errorf("unknown wire status %q", s)
}

// Status converts a wire status back to the application form.  Case is
// ignored; anything but PUBLISHED is a draft.
func (w WireStatus) Status() Status {
	if WireStatus(strings.ToUpper(strings.TrimSpace(string(w)))) == WirePublished {
		return StatusPublished
	}
	return StatusDraft
}

// BlogPost is a blog article as held by the dashboard.  Status is always
// the lower-case application form.
type BlogPost struct {
	ID           int64
	Title        string
	Content      string
	Excerpt      string
	Image        string
	Category     string
	CategorySlug string
	Status       Status
	Author       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Views        int
	IsFeatured   bool
	ReadTime     string
}

// Published reports whether the post is publicly visible.
func (p BlogPost) Published() bool { return p.Status == StatusPublished }

// BlogPostInput is the mutable subset used to create a post.  A zero
// Status means draft and a nil IsFeatured means false.
type BlogPostInput struct {
	Title        string `validate:"required,max=255"`
	Content      string `validate:"required"`
	Excerpt      string `validate:"max=500"`
	Image        string `validate:"max=500"`
	Category     string `validate:"required,max=100"`
	CategorySlug string `validate:"max=100"`
	Status       Status `validate:"omitempty,oneof=draft published"`
	Author       string `validate:"max=100"`
	ReadTime     string `validate:"max=50"`
	IsFeatured   *bool
}

// BlogPostUpdate is a partial update; nil fields are left unchanged.
type BlogPostUpdate struct {
	Title        *string `validate:"omitempty,min=1,max=255"`
	Content      *string `validate:"omitempty,min=1"`
	Excerpt      *string `validate:"omitempty,max=500"`
	Image        *string `validate:"omitempty,max=500"`
	Category     *string `validate:"omitempty,min=1,max=100"`
	CategorySlug *string `validate:"omitempty,max=100"`
	Status       *Status `validate:"omitempty,oneof=draft published"`
	Author       *string `validate:"omitempty,max=100"`
	ReadTime     *string `validate:"omitempty,max=50"`
	IsFeatured   *bool
}

// Category is a blog category with its number of published posts.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

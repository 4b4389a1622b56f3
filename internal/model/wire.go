package model

import "time"

// WirePost is the JSON shape of a blog post on the REST API.  Status is
// upper-case here and nowhere else.
type WirePost struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Excerpt      string     `json:"excerpt,omitempty"`
	Image        string     `json:"image,omitempty"`
	Category     string     `json:"category"`
	CategorySlug string     `json:"categorySlug"`
	Status       WireStatus `json:"status"`
	Author       string     `json:"author,omitempty"`
	ReadTime     string     `json:"readTime,omitempty"`
	Views        int        `json:"views"`
	IsFeatured   bool       `json:"isFeatured"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func ToWire(p BlogPost) WirePost {
	return WirePost{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		Excerpt:      p.Excerpt,
		Image:        p.Image,
		Category:     p.Category,
		CategorySlug: p.CategorySlug,
		Status:       p.Status.Wire(),
		Author:       p.Author,
		ReadTime:     p.ReadTime,
		Views:        p.Views,
		IsFeatured:   p.IsFeatured,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (w WirePost) Post() BlogPost {
	return BlogPost{
		ID:           w.ID,
		Title:        w.Title,
		Content:      w.Content,
		Excerpt:      w.Excerpt,
		Image:        w.Image,
		Category:     w.Category,
		CategorySlug: w.CategorySlug,
		Status:       w.Status.Status(),
		Author:       w.Author,
		ReadTime:     w.ReadTime,
		Views:        w.Views,
		IsFeatured:   w.IsFeatured,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

// WirePostInput is the request body of create and update.  It carries the
// mutable subset only; absent fields are left unchanged on update.
type WirePostInput struct {
	Title        *string     `json:"title,omitempty"`
	Content      *string     `json:"content,omitempty"`
	Excerpt      *string     `json:"excerpt,omitempty"`
	Image        *string     `json:"image,omitempty"`
	Category     *string     `json:"category,omitempty"`
	CategorySlug *string     `json:"categorySlug,omitempty"`
	Status       *WireStatus `json:"status,omitempty" validate:"omitempty,wirestatus"`
	Author       *string     `json:"author,omitempty"`
	ReadTime     *string     `json:"readTime,omitempty"`
	IsFeatured   *bool       `json:"isFeatured,omitempty"`
}

// WireCreate encodes a create payload.  Status is always sent, defaulting
// to DRAFT, and so is the featured flag, defaulting to false.
func WireCreate(in BlogPostInput) WirePostInput {
	status := in.Status.Wire()
	featured := in.IsFeatured != nil && *in.IsFeatured
	return WirePostInput{
		Title:        &in.Title,
		Content:      &in.Content,
		Excerpt:      optional(in.Excerpt),
		Image:        optional(in.Image),
		Category:     &in.Category,
		CategorySlug: optional(in.CategorySlug),
		Status:       &status,
		Author:       optional(in.Author),
		ReadTime:     optional(in.ReadTime),
		IsFeatured:   &featured,
	}
}

// WireUpdate encodes a partial update.
func WireUpdate(up BlogPostUpdate) WirePostInput {
	w := WirePostInput{
		Title:        up.Title,
		Content:      up.Content,
		Excerpt:      up.Excerpt,
		Image:        up.Image,
		Category:     up.Category,
		CategorySlug: up.CategorySlug,
		Author:       up.Author,
		ReadTime:     up.ReadTime,
		IsFeatured:   up.IsFeatured,
	}
	if up.Status != nil {
		s := up.Status.Wire()
		w.Status = &s
	}
	return w
}

// Create decodes a create payload.  Missing strings become empty.
func (w WirePostInput) Create() BlogPostInput {
	in := BlogPostInput{
		Title:        deref(w.Title),
		Content:      deref(w.Content),
		Excerpt:      deref(w.Excerpt),
		Image:        deref(w.Image),
		Category:     deref(w.Category),
		CategorySlug: deref(w.CategorySlug),
		Author:       deref(w.Author),
		ReadTime:     deref(w.ReadTime),
		IsFeatured:   w.IsFeatured,
	}
	if w.Status != nil {
		in.Status = w.Status.Status()
	}
	return in
}

// Update decodes a partial update.
func (w WirePostInput) Update() BlogPostUpdate {
	up := BlogPostUpdate{
		Title:        w.Title,
		Content:      w.Content,
		Excerpt:      w.Excerpt,
		Image:        w.Image,
		Category:     w.Category,
		CategorySlug: w.CategorySlug,
		Author:       w.Author,
		ReadTime:     w.ReadTime,
		IsFeatured:   w.IsFeatured,
	}
	if w.Status != nil {
		s := w.Status.Status()
		up.Status = &s
	}
	return up
}

// BulkFeatured is the body of PUT /api/blog/bulk/featured.
type BulkFeatured struct {
	IDs      []int64 `json:"ids"`
	Featured bool    `json:"featured"`
}

// BulkResult is returned by the blog bulk endpoints.  Affected counts the
// rows that matched; ids that do not exist are not counted.
type BulkResult struct {
	Requested int `json:"requested"`
	Affected  int `json:"affected"`
}

// CategoryList is the body of GET /api/blog/categories.
type CategoryList struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hospital-admin/internal/model"
	"github.com/iliyamo/hospital-admin/internal/utils"
)

// nowUTC is the clock of the in-memory stores.
var nowUTC = func() time.Time { return time.Now().UTC() }

// containsFold reports whether any field contains term, ignoring case.
// It is the in-memory counterpart of the LOWER(col) LIKE queries.
func containsFold(term string, fields ...string) bool {
	t := strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), t) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------- users

type memUser struct {
	u    model.User
	hash string
}

// MemoryUserStore is a UserStore held in process memory.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*memUser
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{rows: map[int64]*memUser{}}
}

// uniqueLocked checks username/email uniqueness ignoring the row self.
func (s *MemoryUserStore) uniqueLocked(self int64, username, email string) error {
	for id, r := range s.rows {
		if id == self {
			continue
		}
		if username != "" && r.u.Username == username {
			return ErrUsernameExists
		}
		if email != "" && r.u.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func (s *MemoryUserStore) Create(_ context.Context, in model.UserInput, cost int) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if err := s.uniqueLocked(0, username, email); err != nil {
		return model.User{}, err
	}
	role := normalizeRole(in.Role)
	s.nextID++
	now := nowUTC()
	u := model.User{
		ID:        s.nextID,
		Username:  username,
		Email:     email,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     strings.TrimSpace(in.Phone),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rows[u.ID] = &memUser{u: u, hash: hash}
	return u, nil
}

func (s *MemoryUserStore) List(_ context.Context, q UserQuery) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term := strings.TrimSpace(q.Term)
	out := []model.User{}
	for _, r := range s.rows {
		u := r.u
		if term != "" && !containsFold(term, u.Username, u.Email, u.FullName) {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Active != nil && u.IsActive != *q.Active {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return r.u, nil
}

func (s *MemoryUserStore) find(match func(model.User) bool) (*memUser, bool) {
	for _, r := range s.rows {
		if match(r.u) {
			return r, true
		}
	}
	return nil, false
}

func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username = strings.TrimSpace(username)
	if r, ok := s.find(func(u model.User) bool { return u.Username == username }); ok {
		return r.u, nil
	}
	return model.User{}, ErrNotFound
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = normalizeEmail(email)
	if r, ok := s.find(func(u model.User) bool { return u.Email == email }); ok {
		return r.u, nil
	}
	return model.User{}, ErrNotFound
}

func (s *MemoryUserStore) Credentials(_ context.Context, usernameOrEmail string) (model.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := strings.TrimSpace(usernameOrEmail)
	lower := strings.ToLower(key)
	if r, ok := s.find(func(u model.User) bool { return u.Username == key || u.Email == lower }); ok {
		return r.u, r.hash, nil
	}
	return model.User{}, "", ErrNotFound
}

func (s *MemoryUserStore) Update(_ context.Context, id int64, up model.UserUpdate, cost int) (model.User, error) {
	var hash string
	if up.Password != nil {
		h, err := utils.HashPassword(*up.Password, cost)
		if err != nil {
			return model.User{}, err
		}
		hash = h
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	u := r.u
	if up.Username != nil {
		u.Username = strings.TrimSpace(*up.Username)
	}
	if up.Email != nil {
		u.Email = normalizeEmail(*up.Email)
	}
	if err := s.uniqueLocked(id, u.Username, u.Email); err != nil {
		return model.User{}, err
	}
	if up.FullName != nil {
		u.FullName = strings.TrimSpace(*up.FullName)
	}
	if up.Phone != nil {
		u.Phone = strings.TrimSpace(*up.Phone)
	}
	if up.Role != nil {
		u.Role = normalizeRole(*up.Role)
	}
	if !up.Empty() {
		u.UpdatedAt = nowUTC()
	}
	r.u = u
	if hash != "" {
		r.hash = hash
	}
	return u, nil
}

func (s *MemoryUserStore) SetActive(_ context.Context, id int64, active bool) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	r.u.IsActive = active
	r.u.UpdatedAt = nowUTC()
	return r.u, nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *MemoryUserStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// ----------------------------------------------------------------- blog

// MemoryBlogStore is a BlogStore held in process memory.
type MemoryBlogStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]model.BlogPost
}

func NewMemoryBlogStore() *MemoryBlogStore {
	return &MemoryBlogStore{rows: map[int64]model.BlogPost{}}
}

func (s *MemoryBlogStore) Create(_ context.Context, in model.BlogPostInput) (model.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slug := strings.ToLower(strings.TrimSpace(in.CategorySlug))
	if slug == "" {
		slug = utils.CategorySlug(in.Category)
	}
	status := model.StatusDraft
	if in.Status == model.StatusPublished {
		status = model.StatusPublished
	}
	s.nextID++
	now := nowUTC()
	p := model.BlogPost{
		ID:           s.nextID,
		Title:        in.Title,
		Content:      in.Content,
		Excerpt:      strings.TrimSpace(in.Excerpt),
		Image:        strings.TrimSpace(in.Image),
		Category:     in.Category,
		CategorySlug: slug,
		Status:       status,
		Author:       strings.TrimSpace(in.Author),
		ReadTime:     strings.TrimSpace(in.ReadTime),
		IsFeatured:   in.IsFeatured != nil && *in.IsFeatured,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.rows[p.ID] = p
	return p, nil
}

func (s *MemoryBlogStore) List(_ context.Context, q BlogQuery) ([]model.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term := strings.TrimSpace(q.Term)
	out := []model.BlogPost{}
	for _, p := range s.rows {
		if term != "" && !containsFold(term, p.Title, p.Content, p.Excerpt, p.Author) {
			continue
		}
		if q.CategorySlug != "" && !strings.EqualFold(p.CategorySlug, q.CategorySlug) {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.Featured != nil && p.IsFeatured != *q.Featured {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryBlogStore) Get(_ context.Context, id int64) (model.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[id]
	if !ok {
		return model.BlogPost{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryBlogStore) mutate(id int64, fn func(*model.BlogPost)) (model.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return model.BlogPost{}, ErrNotFound
	}
	fn(&p)
	s.rows[id] = p
	return p, nil
}

func (s *MemoryBlogStore) Update(_ context.Context, id int64, up model.BlogPostUpdate) (model.BlogPost, error) {
	return s.mutate(id, func(p *model.BlogPost) {
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		set(&p.Title, up.Title)
		set(&p.Content, up.Content)
		set(&p.Excerpt, up.Excerpt)
		set(&p.Image, up.Image)
		set(&p.Author, up.Author)
		set(&p.ReadTime, up.ReadTime)
		if up.Category != nil {
			p.Category = *up.Category
			if up.CategorySlug == nil {
				p.CategorySlug = utils.CategorySlug(*up.Category)
			}
		}
		if up.CategorySlug != nil {
			p.CategorySlug = strings.ToLower(strings.TrimSpace(*up.CategorySlug))
		}
		if up.Status != nil {
			p.Status = up.Status.Wire().Status()
		}
		if up.IsFeatured != nil {
			p.IsFeatured = *up.IsFeatured
		}
		p.UpdatedAt = nowUTC()
	})
}

func (s *MemoryBlogStore) SetStatus(ctx context.Context, id int64, st model.Status) (model.BlogPost, error) {
	return s.Update(ctx, id, model.BlogPostUpdate{Status: &st})
}

func (s *MemoryBlogStore) SetFeatured(ctx context.Context, id int64, featured bool) (model.BlogPost, error) {
	return s.Update(ctx, id, model.BlogPostUpdate{IsFeatured: &featured})
}

func (s *MemoryBlogStore) IncrementViews(_ context.Context, id int64) (model.BlogPost, error) {
	return s.mutate(id, func(p *model.BlogPost) { p.Views++ })
}

func (s *MemoryBlogStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *MemoryBlogStore) Categories(context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := map[string]int{}
	out := []model.Category{}
	for _, p := range s.rows {
		if !p.Published() {
			continue
		}
		key := p.Category + "\x00" + p.CategorySlug
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, model.Category{Value: p.CategorySlug, Label: p.Category, Slug: p.CategorySlug})
		}
		out[i].Count++
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

func (s *MemoryBlogStore) DeleteMany(_ context.Context, ids []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := s.rows[id]; ok {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryBlogStore) eachLocked(ids []int64, fn func(*model.BlogPost)) int {
	n := 0
	for _, id := range ids {
		p, ok := s.rows[id]
		if !ok {
			continue
		}
		fn(&p)
		p.UpdatedAt = nowUTC()
		s.rows[id] = p
		n++
	}
	return n
}

func (s *MemoryBlogStore) SetStatusMany(_ context.Context, ids []int64, st model.Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st = st.Wire().Status()
	return s.eachLocked(ids, func(p *model.BlogPost) { p.Status = st }), nil
}

func (s *MemoryBlogStore) SetFeaturedMany(_ context.Context, ids []int64, featured bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eachLocked(ids, func(p *model.BlogPost) { p.IsFeatured = featured }), nil
}

// --------------------------------------------------------------- tokens

type memToken struct {
	userID  int64
	exp     time.Time
	revoked bool
}

// MemoryTokenStore is a TokenStore held in process memory.
type MemoryTokenStore struct {
	mu   sync.Mutex
	rows map[string]*memToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{rows: map[string]*memToken{}}
}

func (s *MemoryTokenStore) StoreRefresh(_ context.Context, userID int64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.rows[tokenHash]; dup {
		return ErrConflict
	}
	s.rows[tokenHash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (s *MemoryTokenStore) ValidateRefresh(_ context.Context, tokenHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[tokenHash]
	if !ok || t.revoked || nowUTC().After(t.exp) {
		return 0, ErrNotFound
	}
	return t.userID, nil
}

func (s *MemoryTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.rows[tokenHash]; ok {
		t.revoked = true
	}
	return nil
}

func (s *MemoryTokenStore) RevokeAllForUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

var (
	_ UserStore  = (*UserRepo)(nil)
	_ UserStore  = (*MemoryUserStore)(nil)
	_ BlogStore  = (*BlogRepo)(nil)
	_ BlogStore  = (*MemoryBlogStore)(nil)
	_ TokenStore = (*TokenRepo)(nil)
	_ TokenStore = (*MemoryTokenStore)(nil)
)

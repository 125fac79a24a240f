package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
)

// MemoryStore is an in-process Store used for development and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	citizens      map[string]bool
	categories    []model.Category
	conversations map[string]*model.Conversation
	turns         map[string][]model.Turn
	drafts        map[string]*model.Draft
	complaints    []model.Complaint

	locksMu sync.Mutex
	locks   map[string]*draftMutex
}

// draftMutex is dropped from the lock table once no caller holds or waits
// on it.
type draftMutex struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		citizens:      make(map[string]bool),
		conversations: make(map[string]*model.Conversation),
		turns:         make(map[string][]model.Turn),
		drafts:        make(map[string]*model.Draft),
		locks:         make(map[string]*draftMutex),
	}
}

// AddCitizen registers a citizen profile.
func (s *MemoryStore) AddCitizen(citizenID string) {
	s.mu.Lock()
	s.citizens[citizenID] = true
	s.mu.Unlock()
}

// AddCategory appends a category to the catalog.
func (s *MemoryStore) AddCategory(c model.Category) {
	s.mu.Lock()
	s.categories = append(s.categories, c)
	sort.Slice(s.categories, func(i, j int) bool { return s.categories[i].ID < s.categories[j].ID })
	s.mu.Unlock()
}

// DefaultCategories mirrors the catalog seeded by the initial migration.
var DefaultCategories = []string{"Alumbrado público", "Basura", "Vías y baches", "Agua potable", "Ruido"}

// SeedCategories adds DefaultCategories with ids starting at 1.
func (s *MemoryStore) SeedCategories() {
	for i, name := range DefaultCategories {
		s.AddCategory(model.Category{ID: int64(i + 1), Name: name, Active: true})
	}
}

// CitizenExists reports whether a citizen profile exists.
func (s *MemoryStore) CitizenExists(ctx context.Context, citizenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.citizens[citizenID], nil
}

// CreateSession stores a conversation, its draft and the greeting turn.
func (s *MemoryStore) CreateSession(ctx context.Context, conv *model.Conversation, draft *model.Draft, greeting *model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *conv
	d := *draft
	s.conversations[c.ID] = &c
	s.drafts[d.ID] = &d
	if greeting != nil {
		s.turns[c.ID] = append(s.turns[c.ID], *greeting)
	}
	return nil
}

// GetConversation returns a conversation owned by citizenID.
func (s *MemoryStore) GetConversation(ctx context.Context, id, citizenID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok || conv.CitizenID != citizenID {
		return nil, ErrNotFound
	}
	c := *conv
	return &c, nil
}

// AppendTurn appends a turn to its conversation log.
func (s *MemoryStore) AppendTurn(ctx context.Context, turn *model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[turn.ConversationID]; !ok {
		return ErrNotFound
	}
	s.turns[turn.ConversationID] = append(s.turns[turn.ConversationID], *turn)
	return nil
}

// RecentTurns returns the newest turns of a conversation, oldest first.
func (s *MemoryStore) RecentTurns(ctx context.Context, conversationID string, limit int) ([]model.Turn, error) {
	turns, _ := s.ListTurns(ctx, conversationID)
	if limit >= 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// ListTurns returns every turn of a conversation, oldest first.
func (s *MemoryStore) ListTurns(ctx context.Context, conversationID string) ([]model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.turns[conversationID]
	out := make([]model.Turn, len(log))
	copy(out, log)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetDraft returns a draft owned by citizenID.
func (s *MemoryStore) GetDraft(ctx context.Context, id, citizenID string) (*model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[id]
	if !ok || d.CitizenID != citizenID {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// DraftForConversation returns the draft linked to a conversation.
func (s *MemoryStore) DraftForConversation(ctx context.Context, conversationID, citizenID string) (*model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.drafts {
		if d.ConversationID != nil && *d.ConversationID == conversationID && d.CitizenID == citizenID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateDraft persists the fields and readiness of an existing draft.
func (s *MemoryStore) UpdateDraft(ctx context.Context, d *model.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.drafts[d.ID]
	if !ok || cur.CitizenID != d.CitizenID {
		return ErrNotFound
	}
	cur.Fields = d.Fields
	cur.ReadyToSubmit = d.ReadyToSubmit
	cur.UpdatedAt = d.UpdatedAt
	return nil
}

// WithDraftLock serialises callers on the same draft id. Staged writes are
// applied together once fn succeeds.
func (s *MemoryStore) WithDraftLock(ctx context.Context, id, citizenID string, fn func(ctx context.Context, d *model.Draft, tx DraftTx) error) error {
	s.lockDraft(id)
	defer s.unlockDraft(id)

	d, err := s.GetDraft(ctx, id, citizenID)
	if err != nil {
		return err
	}

	tx := &memoryTx{}
	if err := fn(ctx, d, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.complaints = append(s.complaints, tx.complaints...)
	for _, l := range tx.links {
		if conv, ok := s.conversations[l.conversationID]; ok {
			complaintID := l.complaintID
			conv.ComplaintID = &complaintID
			conv.UpdatedAt = l.at
		}
	}
	for _, draftID := range tx.deletes {
		delete(s.drafts, draftID)
	}
	return nil
}

func (s *MemoryStore) lockDraft(id string) {
	s.locksMu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &draftMutex{}
		s.locks[id] = m
	}
	m.refs++
	s.locksMu.Unlock()

	m.mu.Lock()
}

func (s *MemoryStore) unlockDraft(id string) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	m := s.locks[id]
	m.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(s.locks, id)
	}
}

type memoryLink struct {
	conversationID string
	complaintID    string
	at             time.Time
}

type memoryTx struct {
	complaints []model.Complaint
	links      []memoryLink
	deletes    []string
}

func (tx *memoryTx) CreateComplaint(ctx context.Context, c *model.Complaint) error {
	tx.complaints = append(tx.complaints, *c)
	return nil
}

func (tx *memoryTx) LinkConversation(ctx context.Context, conversationID, complaintID string, at time.Time) error {
	tx.links = append(tx.links, memoryLink{conversationID: conversationID, complaintID: complaintID, at: at})
	return nil
}

func (tx *memoryTx) DeleteDraft(ctx context.Context, draftID string) error {
	tx.deletes = append(tx.deletes, draftID)
	return nil
}

// ActiveCategories returns active categories sorted by name.
func (s *MemoryStore) ActiveCategories(ctx context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Category
	for _, c := range s.categories {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MatchCategories matches active category names against term in both directions.
func (s *MemoryStore) MatchCategories(ctx context.Context, term string) ([]model.Category, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Category
	for _, c := range s.categories {
		if !c.Active {
			continue
		}
		name := strings.ToLower(c.Name)
		if strings.Contains(name, term) || strings.Contains(term, name) {
			out = append(out, c)
		}
	}
	return out, nil
}

// CreateComplaint stores a complaint outside the chat flow.
func (s *MemoryStore) CreateComplaint(ctx context.Context, c *model.Complaint) error {
	s.mu.Lock()
	s.complaints = append(s.complaints, *c)
	s.mu.Unlock()
	return nil
}

// ListComplaints returns a citizen's complaints, newest first.
func (s *MemoryStore) ListComplaints(ctx context.Context, citizenID string, limit int) ([]model.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Complaint
	for i := len(s.complaints) - 1; i >= 0; i-- {
		if s.complaints[i].CitizenID == citizenID {
			out = append(out, s.complaints[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SearchComplaints filters complaints for the map, newest first.
func (s *MemoryStore) SearchComplaints(ctx context.Context, f ComplaintFilter) ([]ComplaintRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[int64]string, len(s.categories))
	for _, c := range s.categories {
		names[c.ID] = c.Name
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []ComplaintRow
	for i := len(s.complaints) - 1; i >= 0; i-- {
		c := s.complaints[i]
		if f.CitizenID != "" && c.CitizenID != f.CitizenID {
			continue
		}
		if f.CategoryID != nil && c.CategoryID != *f.CategoryID {
			continue
		}
		if f.Since != nil && c.CreatedAt.Before(*f.Since) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Description), search) &&
			(c.Reference == nil || !strings.Contains(strings.ToLower(*c.Reference), search)) {
			continue
		}
		if b := f.Box; b != nil {
			if c.Latitude < b.MinLat || c.Latitude > b.MaxLat || c.Longitude < b.MinLng || c.Longitude > b.MaxLng {
				continue
			}
		}
		out = append(out, ComplaintRow{Complaint: c, CategoryName: names[c.CategoryID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() {}

// ComplaintCount returns the number of stored complaints.
func (s *MemoryStore) ComplaintCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.complaints)
}

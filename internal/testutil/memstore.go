package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/contactsapi/contactsapi/internal/model"
	"github.com/contactsapi/contactsapi/internal/repository"
)

// MemoryStore is an in-memory user and contact store with the same
// ownership and error semantics as the Postgres repository.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	contacts map[string]*model.Contact

	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*model.User),
		contacts: make(map[string]*model.Contact),
	}
}

// CreateUser stores a copy of user.
func (m *MemoryStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// GetUserByID returns a copy of the user with id.
func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail returns a copy of the user with email.
func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u := m.userByEmail(email)
	if u == nil {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateRefreshToken sets or clears the stored refresh token.
func (m *MemoryStore) UpdateRefreshToken(ctx context.Context, userID string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if token == nil {
		u.RefreshToken = nil
		return nil
	}
	t := *token
	u.RefreshToken = &t
	return nil
}

// ConfirmEmail marks the user with email as confirmed.
func (m *MemoryStore) ConfirmEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u := m.userByEmail(email)
	if u == nil {
		return repository.ErrUserNotFound
	}
	u.Confirmed = true
	return nil
}

// UpdateAvatar sets the avatar URL of the user with email.
func (m *MemoryStore) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u := m.userByEmail(email)
	if u == nil {
		return nil, repository.ErrUserNotFound
	}
	u.Avatar = &url
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) userByEmail(email string) *model.User {
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// ListContacts returns a page of the owner's contacts ordered by ID.
func (m *MemoryStore) ListContacts(ctx context.Context, ownerID string, skip, limit int) ([]*model.Contact, error) {
	all, err := m.filter(ownerID, func(*model.Contact) bool { return true })
	if err != nil {
		return nil, err
	}
	if skip >= len(all) {
		return []*model.Contact{}, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// GetContact returns the owner's contact with id.
func (m *MemoryStore) GetContact(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

// CreateContact stores a copy of c.
func (m *MemoryStore) CreateContact(ctx context.Context, c *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

// UpdateContact replaces the mutable fields of the owner's contact.
func (m *MemoryStore) UpdateContact(ctx context.Context, ownerID, id string, f model.ContactFields) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrContactNotFound
	}
	c.Apply(f)
	cp := *c
	return &cp, nil
}

// DeleteContact removes the owner's contact and returns it.
func (m *MemoryStore) DeleteContact(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrContactNotFound
	}
	delete(m.contacts, id)
	return c, nil
}

// SearchContacts applies every present filter as a case-insensitive substring match.
func (m *MemoryStore) SearchContacts(ctx context.Context, ownerID string, s model.ContactSearch) ([]*model.Contact, error) {
	return m.filter(ownerID, func(c *model.Contact) bool {
		return matches(c.FirstName, s.FirstName) &&
			matches(c.SecondName, s.SecondName) &&
			matches(c.Email, s.Email)
	})
}

// ContactsWithBirthdayOn returns the owner's contacts born on any of days.
func (m *MemoryStore) ContactsWithBirthdayOn(ctx context.Context, ownerID string, days []model.MonthDay) ([]*model.Contact, error) {
	set := make(map[model.MonthDay]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return m.filter(ownerID, func(c *model.Contact) bool {
		_, ok := set[model.MonthDayOf(c.Birthdate)]
		return ok
	})
}

func (m *MemoryStore) filter(ownerID string, keep func(*model.Contact) bool) ([]*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*model.Contact, 0)
	for _, c := range m.contacts {
		if c.OwnerID == ownerID && keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(value string, filter *string) bool {
	if filter == nil {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(*filter))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contactsapi/contactsapi/internal/metrics"
	"github.com/contactsapi/contactsapi/internal/model"
	"github.com/contactsapi/contactsapi/internal/repository"
)

// Pagination bounds for List.
const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// ContactService handles contact business logic. Every operation is scoped to an owner.
type ContactService struct {
	store   ContactStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewContactService creates a new ContactService.
func NewContactService(store ContactStore, recorder metrics.Recorder) *ContactService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ContactService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
}

// List returns up to limit of the owner's contacts after skipping skip, ordered by ID.
// A zero limit yields an empty page.
func (s *ContactService) List(ctx context.Context, ownerID string, skip, limit int) ([]*model.Contact, error) {
	if skip < 0 || limit < 0 || limit > MaxListLimit {
		return nil, ErrInvalidPagination
	}
	contacts, err := s.store.ListContacts(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// Get returns one of the owner's contacts.
func (s *ContactService) Get(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	contact, err := s.store.GetContact(ctx, ownerID, id)
	if err != nil {
		return nil, translateContactErr(err, "get")
	}
	return contact, nil
}

// Create stores a new contact for the owner.
func (s *ContactService) Create(ctx context.Context, ownerID string, fields model.ContactFields) (*model.Contact, error) {
	contact := &model.Contact{
		ID:        generateID(),
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
	}
	contact.Apply(fields)

	if err := s.store.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.metrics.IncContactCreated()
	return contact, nil
}

// Update replaces every mutable field of the owner's contact.
func (s *ContactService) Update(ctx context.Context, ownerID, id string, fields model.ContactFields) (*model.Contact, error) {
	contact, err := s.store.UpdateContact(ctx, ownerID, id, fields)
	if err != nil {
		return nil, translateContactErr(err, "update")
	}

	s.metrics.IncContactUpdated()
	return contact, nil
}

// Delete removes the owner's contact and returns it.
func (s *ContactService) Delete(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	contact, err := s.store.DeleteContact(ctx, ownerID, id)
	if err != nil {
		return nil, translateContactErr(err, "delete")
	}

	s.metrics.IncContactDeleted()
	return contact, nil
}

// Search returns the owner's contacts matching every present filter.
// With no filters it returns all of them.
func (s *ContactService) Search(ctx context.Context, ownerID string, filter model.ContactSearch) ([]*model.Contact, error) {
	contacts, err := s.store.SearchContacts(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return contacts, nil
}

// UpcomingBirthdays returns the owner's contacts with a birthday from today
// through the next BirthdayWindowDays days, soonest first.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, ownerID string) ([]*model.Contact, error) {
	window := UpcomingWindow(s.now())

	contacts, err := s.store.ContactsWithBirthdayOn(ctx, ownerID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query birthdays: %w", err)
	}
	if contacts == nil {
		contacts = []*model.Contact{}
	}

	sortByWindow(contacts, window)
	return contacts, nil
}

func translateContactErr(err error, op string) error {
	if errors.Is(err, repository.ErrContactNotFound) {
		return ErrContactNotFound
	}
	return fmt.Errorf("failed to %s contact: %w", op, err)
}

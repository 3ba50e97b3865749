package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/contactsapi/contactsapi/internal/model"
)

// ErrContactNotFound is returned when no contact with the ID exists for the owner.
var ErrContactNotFound = errors.New("contact not found")

const contactColumns = `id, user_id, first_name, second_name, email, phone, birthdate, additional_data, created_at`

// ListContacts returns a page of the owner's contacts ordered by ID.
func (r *Repository) ListContacts(ctx context.Context, ownerID string, skip, limit int) ([]*model.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY id ASC
		OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return collectContacts(rows)
}

// GetContact returns the owner's contact with the given ID.
func (r *Repository) GetContact(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`

	contact, err := scanContact(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// CreateContact inserts a new contact.
func (r *Repository) CreateContact(ctx context.Context, c *model.Contact) error {
	query := `
		INSERT INTO contacts (id, user_id, first_name, second_name, email, phone, birthdate, additional_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.FirstName,
		c.SecondName,
		c.Email,
		c.Phone,
		c.Birthdate,
		c.AdditionalData,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// UpdateContact replaces every mutable field of the owner's contact.
func (r *Repository) UpdateContact(ctx context.Context, ownerID, id string, f model.ContactFields) (*model.Contact, error) {
	query := `
		UPDATE contacts
		SET first_name = $3, second_name = $4, email = $5, phone = $6, birthdate = $7, additional_data = $8
		WHERE id = $1 AND user_id = $2
		RETURNING ` + contactColumns

	contact, err := scanContact(r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		f.FirstName,
		f.SecondName,
		f.Email,
		f.Phone,
		f.Birthdate,
		f.AdditionalData,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

// DeleteContact removes the owner's contact and returns it as it was.
func (r *Repository) DeleteContact(ctx context.Context, ownerID, id string) (*model.Contact, error) {
	query := `DELETE FROM contacts WHERE id = $1 AND user_id = $2 RETURNING ` + contactColumns

	contact, err := scanContact(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}
	return contact, nil
}

// SearchContacts returns the owner's contacts matching every present filter
// as a case-insensitive substring.
func (r *Repository) SearchContacts(ctx context.Context, ownerID string, s model.ContactSearch) ([]*model.Contact, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1`)
	args := []any{ownerID}

	addFilter := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, likePattern(*value))
		fmt.Fprintf(&b, ` AND %s ILIKE $%d ESCAPE '\'`, column, len(args))
	}
	addFilter("first_name", s.FirstName)
	addFilter("second_name", s.SecondName)
	addFilter("email", s.Email)

	b.WriteString(` ORDER BY id ASC`)

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return collectContacts(rows)
}

// ContactsWithBirthdayOn returns the owner's contacts whose birthdate falls on
// any of the given month/day pairs, year ignored.
func (r *Repository) ContactsWithBirthdayOn(ctx context.Context, ownerID string, days []model.MonthDay) ([]*model.Contact, error) {
	if len(days) == 0 {
		return nil, nil
	}

	months := make([]int32, len(days))
	dates := make([]int32, len(days))
	for i, d := range days {
		months[i] = int32(d.Month)
		dates[i] = int32(d.Day)
	}

	query := `
		SELECT ` + prefixed("c", contactColumns) + `
		FROM contacts c
		JOIN unnest($2::int[], $3::int[]) AS w(m, d)
			ON EXTRACT(MONTH FROM c.birthdate) = w.m AND EXTRACT(DAY FROM c.birthdate) = w.d
		WHERE c.user_id = $1
		ORDER BY c.id ASC`

	rows, err := r.pool.Query(ctx, query, ownerID, months, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to query birthdays: %w", err)
	}
	return collectContacts(rows)
}

// likePattern wraps v in % after escaping LIKE metacharacters.
func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(v) + "%"
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

func collectContacts(rows pgx.Rows) ([]*model.Contact, error) {
	defer rows.Close()

	contacts := make([]*model.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.FirstName,
		&c.SecondName,
		&c.Email,
		&c.Phone,
		&c.Birthdate,
		&c.AdditionalData,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

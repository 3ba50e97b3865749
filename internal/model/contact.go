package model

import "time"

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// Contact is an address-book entry owned by exactly one user.
// OwnerID is set on creation and never changes.
type Contact struct {
	ID             string
	OwnerID        string
	FirstName      string
	SecondName     string
	Email          string
	Phone          string
	Birthdate      time.Time
	AdditionalData *string
	CreatedAt      time.Time
}

// ContactFields are the mutable fields of a contact.
// Create and update both take the full set.
type ContactFields struct {
	FirstName      string
	SecondName     string
	Email          string
	Phone          string
	Birthdate      time.Time
	AdditionalData *string
}

// Apply replaces every mutable field of c with f.
func (c *Contact) Apply(f ContactFields) {
	c.FirstName = f.FirstName
	c.SecondName = f.SecondName
	c.Email = f.Email
	c.Phone = f.Phone
	c.Birthdate = f.Birthdate
	c.AdditionalData = f.AdditionalData
}

// Fields returns the mutable fields of c.
func (c *Contact) Fields() ContactFields {
	return ContactFields{
		FirstName:      c.FirstName,
		SecondName:     c.SecondName,
		Email:          c.Email,
		Phone:          c.Phone,
		Birthdate:      c.Birthdate,
		AdditionalData: c.AdditionalData,
	}
}

// ContactSearch holds optional search filters. A nil filter is not applied.
type ContactSearch struct {
	FirstName  *string
	SecondName *string
	Email      *string
}

// MonthDay is a calendar month and day with the year ignored.
type MonthDay struct {
	Month time.Month
	Day   int
}

// MonthDayOf returns the month and day of t.
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

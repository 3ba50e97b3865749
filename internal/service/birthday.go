package service

import (
	"sort"
	"time"

	"github.com/contactsapi/contactsapi/internal/model"
)

// BirthdayWindowDays is how many days after today the upcoming-birthday window covers.
const BirthdayWindowDays = 7

// UpcomingWindow returns the month/day pairs from today through
// today+BirthdayWindowDays inclusive, in calendar order.
func UpcomingWindow(today time.Time) []model.MonthDay {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	days := make([]model.MonthDay, 0, BirthdayWindowDays+1)
	for i := 0; i <= BirthdayWindowDays; i++ {
		days = append(days, model.MonthDayOf(start.AddDate(0, 0, i)))
	}
	return days
}

// sortByWindow orders contacts by how soon their birthday comes within window.
// Ties keep ID order.
func sortByWindow(contacts []*model.Contact, window []model.MonthDay) {
	pos := make(map[model.MonthDay]int, len(window))
	for i, d := range window {
		pos[d] = i
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		pi, pj := pos[model.MonthDayOf(contacts[i].Birthdate)], pos[model.MonthDayOf(contacts[j].Birthdate)]
		if pi != pj {
			return pi < pj
		}
		return contacts[i].ID < contacts[j].ID
	})
}

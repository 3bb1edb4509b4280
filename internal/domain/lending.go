package domain

import (
	"time"
)

// BookLending represents a single loan of a book copy to a user.
// ReturnedAt is NULL while the loan is open. DateExtended marks that the
// single permitted extension has been used.
type BookLending struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	BookID       string     `json:"book_id"`
	DateOfReturn time.Time  `json:"date_of_return"`
	DateExtended bool       `json:"date_extended"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Open reports whether the loan has not been returned yet.
func (l *BookLending) Open() bool {
	return l.ReturnedAt == nil
}

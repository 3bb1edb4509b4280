package domain

// Analytics summarizes library activity in a single snapshot.
type Analytics struct {
	TotalBookLendings   int `json:"total_book_lendings"`
	TotalActiveUsers    int `json:"total_active_users"`
	TotalAvailableBooks int `json:"total_available_books"`
}

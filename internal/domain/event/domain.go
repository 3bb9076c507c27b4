package event

// Event is a calendar entry. Date is a plain YYYY-MM-DD day with no zone: the
// digest job decides which day is "tomorrow" in its own timezone.
type Event struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Date  string `json:"event_date"`
}

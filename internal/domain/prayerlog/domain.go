package prayerlog

type Entry struct {
	PrayerID  string `json:"prayer_id"`
	Date      string `json:"log_date"`
	Completed bool   `json:"completed"`
}

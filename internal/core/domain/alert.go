package domain

import "time"

// Alert is a mix-deviation notification sent to one or more channels.
type Alert struct {
	ID              string   `json:"id"`
	StoreID         StoreID  `json:"store_id"`
	Date            string   `json:"date"`
	Subject         string   `json:"subject"`
	Body            string   `json:"body"`
	Report          *MixReport
	Recommendations []string `json:"recommendations"`
}

// AlertRecord is the persisted trace of a dispatched alert.
type AlertRecord struct {
	ID         string    `json:"id"`
	StoreID    StoreID   `json:"store_id"`
	Date       string    `json:"date"`
	Categories []string  `json:"categories"`
	Message    string    `json:"message"`
	Channels   []string  `json:"channels"`
	SentAt     time.Time `json:"sent_at"`
}

package models

import "time"

// Message is a persisted direct message. Either Text or the file fields are
// set, never both.
type Message struct {
	ID       int64     `json:"id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Text     string    `json:"text,omitempty"`
	FileName string    `json:"file_name,omitempty"`
	FileURL  string    `json:"file_url,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

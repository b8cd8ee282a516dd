package domain

import "time"

// Lead sources reported to the collector.
const (
	SourceContactPage = "usuario-page"
	SourceExitPopup   = "exit-popup"
)

// Contact is the participant data captured by the contact page.
type Contact struct {
	Name     string `json:"name"`
	Whatsapp string `json:"whatsapp"`
}

// Lead is the payload posted to the external collector when contact info is captured.
type Lead struct {
	Name      string    `json:"name"`
	Whatsapp  string    `json:"whatsapp"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

package model

// DirectionSync marks roster entries pushed by the synchronizer, as opposed to
// contacts the backend learned from inbound traffic.
const DirectionSync = "sync"

// ContactRecord is one roster entry in the shape the backend ingests.
type ContactRecord struct {
	Number    string `json:"number"`
	Direction string `json:"direction"`
}

// PaymentReminder is one outstanding balance returned by the backend.
type PaymentReminder struct {
	ClientPhone      string `json:"client_phone"`
	ClientName       string `json:"client_name"`
	BalanceRemaining string `json:"balance_remaining"`
	TourTitle        string `json:"tour_title"`
}

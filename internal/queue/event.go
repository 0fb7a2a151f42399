// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// EmailQueueName is the durable queue reservation emails travel through.
const EmailQueueName = "reservation.emails"

// EmailJob is published whenever the service wants to send a
// transactional email. It carries the fully rendered message so the
// consumer never needs to query the primary database.
type EmailJob struct {
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	ReservationID uint64 `json:"reservation_id,omitempty"`
	EnqueuedAt    string `json:"enqueued_at"`
}

package model

import "time"

// PushSubscription is one browser/device push endpoint registered by a
// signed-in user.
type PushSubscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh"`
	AuthKey   string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

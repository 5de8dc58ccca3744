package models

import "time"

// PrivacyPolicy is a named block of policy text shown during registration.
type PrivacyPolicy struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

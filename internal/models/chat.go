// internal/models/chat.go
package models

import "time"

// ChatEntry is one line of a room transcript. System notices use the
// sender name "system".
type ChatEntry struct {
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

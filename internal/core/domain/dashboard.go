package domain

import "time"

// DashboardRecord is one entry from the remote catalog. Records are a
// read-only snapshot fetched per turn and discarded once the response
// is rendered; they are never cached across turns.
type DashboardRecord struct {
	UID       string    `json:"uid"`
	Title     string    `json:"title"`
	Folder    string    `json:"folder,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// Package catalog defines the catalog entry model and its moderation
// lifecycle.
package catalog

import "time"

// Status is the moderation state of a catalog entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known moderation states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// App is one submitted application. AverageRating and ReviewCount are derived
// from the review set on every read and are never stored.
type App struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Name             string    `json:"name"`
	Version          string    `json:"version"`
	Category         string    `json:"category"`
	Size             string    `json:"size"`
	IconURL          string    `json:"icon_url"`
	APKURL           string    `json:"apk_url"`
	ShortDescription string    `json:"short_description"`
	FullDescription  string    `json:"full_description"`
	Screenshots      []string  `json:"screenshots"`
	Status           Status    `json:"status"`
	AverageRating    float64   `json:"average_rating"`
	ReviewCount      int64     `json:"review_count"`
}

// Update carries a partial edit. Nil fields are left untouched. Immutable and
// derived fields have no representation here on purpose.
type Update struct {
	Name             *string   `json:"name,omitempty"`
	Version          *string   `json:"version,omitempty"`
	Category         *string   `json:"category,omitempty"`
	Size             *string   `json:"size,omitempty"`
	IconURL          *string   `json:"icon_url,omitempty"`
	APKURL           *string   `json:"apk_url,omitempty"`
	ShortDescription *string   `json:"short_description,omitempty"`
	FullDescription  *string   `json:"full_description,omitempty"`
	Screenshots      *[]string `json:"screenshots,omitempty"`
}

// Apply copies the set fields of u onto app.
func (u Update) Apply(app *App) {
	if u.Name != nil {
		app.Name = *u.Name
	}
	if u.Version != nil {
		app.Version = *u.Version
	}
	if u.Category != nil {
		app.Category = *u.Category
	}
	if u.Size != nil {
		app.Size = *u.Size
	}
	if u.IconURL != nil {
		app.IconURL = *u.IconURL
	}
	if u.APKURL != nil {
		app.APKURL = *u.APKURL
	}
	if u.ShortDescription != nil {
		app.ShortDescription = *u.ShortDescription
	}
	if u.FullDescription != nil {
		app.FullDescription = *u.FullDescription
	}
	if u.Screenshots != nil {
		app.Screenshots = append([]string(nil), (*u.Screenshots)...)
	}
}

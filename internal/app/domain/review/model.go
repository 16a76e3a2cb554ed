// Package review defines user reviews of catalog entries.
package review

import "time"

// UnknownReviewer is shown when the reviewer's profile cannot be joined.
const UnknownReviewer = "Mtumiaji asiyejulikana"

// Review is one user's rating of one app. At most one review exists per
// (user, app) pair; resubmitting replaces the earlier one.
type Review struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	AppID     string    `json:"app_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	// UserEmail is joined from the reviewer's profile on read.
	UserEmail string `json:"user_email,omitempty"`
}

// AppSummary is the slice of a catalog entry attached to a user's review.
type AppSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

// UserReview is a review annotated with the reviewed app, as returned when
// listing a single user's reviews.
type UserReview struct {
	Review
	App AppSummary `json:"app"`
}

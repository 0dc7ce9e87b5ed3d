package models

import "time"

// Subscription is a configured Xtream Codes source with its credentials and
// the directories its movies and series are written to.
type Subscription struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	XtreamURL string    `json:"xtream_url"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	MoviesDir string    `json:"movies_dir"`
	SeriesDir string    `json:"series_dir"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionInput is the payload accepted when creating a subscription.
// IsActive is a pointer so an omitted flag defaults to true.
type SubscriptionInput struct {
	Name      string `json:"name"`
	XtreamURL string `json:"xtream_url"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	MoviesDir string `json:"movies_dir"`
	SeriesDir string `json:"series_dir"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

// SubscriptionPatch carries a partial update. Nil fields are left untouched.
type SubscriptionPatch struct {
	Name      *string `json:"name,omitempty"`
	XtreamURL *string `json:"xtream_url,omitempty"`
	Username  *string `json:"username,omitempty"`
	Password  *string `json:"password,omitempty"`
	MoviesDir *string `json:"movies_dir,omitempty"`
	SeriesDir *string `json:"series_dir,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p SubscriptionPatch) IsEmpty() bool {
	return p.Name == nil && p.XtreamURL == nil && p.Username == nil && p.Password == nil &&
		p.MoviesDir == nil && p.SeriesDir == nil && p.IsActive == nil
}

// OutputDir returns the directory files of the given content type go to.
func (s *Subscription) OutputDir(ct ContentType) string {
	if ct == Series {
		return s.SeriesDir
	}
	return s.MoviesDir
}

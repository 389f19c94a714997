package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// Media is one catalog entry (movie, series, book, ...).
type Media struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Type        string         `json:"type"`
	ReleaseDate string         `json:"release_date"`
	PlatformIDs map[string]any `json:"platform_ids"`
	Metadata    map[string]any `json:"metadata"`
	ParentID    string         `json:"parent_id"`
	CreatedAt   time.Time      `json:"created_at"`
}

// UserMedia links a catalog entry to the account's library.
type UserMedia struct {
	Media        Media  `json:"media"`
	Status       string `json:"status"`
	Platform     string `json:"platform"`
	ConsumedAt   string `json:"consumed_at"`
	ImportedFrom string `json:"imported_from"`
}

// MediaList is one page of the account's library.
type MediaList struct {
	Items []UserMedia `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// ListMediaOptions filters and paginates ListMedia. Zero values mean
// backend defaults (all types, page 1, 20 items).
type ListMediaOptions struct {
	Type  string // "movie" or "tv_series"
	Page  int
	Limit int
}

// ListMedia returns one page of the account's media library.
func (c *Client) ListMedia(ctx context.Context, opts ListMediaOptions) (MediaList, error) {
	query := url.Values{}
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var list MediaList
	err := c.get(ctx, "/api/user/media", query, &list)
	return list, err
}

// DeleteMedia removes one entry from the account's library.
func (c *Client) DeleteMedia(ctx context.Context, mediaID string) error {
	return c.del(ctx, "/api/user/media/"+mediaID)
}

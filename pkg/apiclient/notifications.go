package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// Notification is one in-app notification, e.g. a sequel or new-season
// alert for a library entry.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	MediaID   string         `json:"media_id"`
	Read      bool           `json:"read"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at"`
}

// NotificationList is one page of the account's notifications.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
}

// ListNotificationsOptions filters and paginates ListNotifications. Zero
// values mean backend defaults (all notifications, page 1, 20 items).
type ListNotificationsOptions struct {
	UnreadOnly bool
	Page       int
	PageSize   int
}

// ListNotifications returns one page of the account's notifications.
func (c *Client) ListNotifications(ctx context.Context, opts ListNotificationsOptions) (NotificationList, error) {
	query := url.Values{}
	if opts.UnreadOnly {
		query.Set("unread_only", "true")
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}

	var list NotificationList
	err := c.get(ctx, "/api/notifications", query, &list)
	return list, err
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var body struct {
		UnreadCount int `json:"unread_count"`
	}
	err := c.get(ctx, "/api/notifications/unread", nil, &body)
	return body.UnreadCount, err
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.put(ctx, "/api/notifications/"+id+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification as read and returns how
// many were affected.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var body struct {
		MarkedRead int `json:"marked_read"`
	}
	err := c.put(ctx, "/api/notifications/mark-all-read", nil, &body)
	return body.MarkedRead, err
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.del(ctx, "/api/notifications/"+id)
}

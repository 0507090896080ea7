package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
)

// ============================================================
// ContactStore and SettingStore
// ============================================================

const (
	tableContactMessages = "contact_messages"
	tableSiteSettings    = "site_settings"

	contactSelect = "*,profiles(full_name)"
)

type contactRow struct {
	domain.ContactMessage
	Profiles *nameJoin `json:"profiles"`
}

func contactsFrom(rows []contactRow) []domain.ContactMessage {
	out := make([]domain.ContactMessage, 0, len(rows))
	for _, r := range rows {
		m := r.ContactMessage
		m.FullName = r.Profiles.name()
		out = append(out, m)
	}
	return out
}

func (c *Client) CreateMessage(ctx context.Context, m *domain.ContactMessage) (*domain.ContactMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateMessage")
	defer span.End()

	record := map[string]any{
		"user_id": m.UserID,
		"type":    m.Type,
		"subject": m.Subject,
		"message": m.Message,
	}
	var out domain.ContactMessage
	if err := c.insertRow(ctx, tableContactMessages, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMessages")
	defer span.End()

	var rows []contactRow
	q := url.Values{"select": {contactSelect}, "order": {"created_at.desc"}}
	if err := c.selectRows(ctx, tableContactMessages, q, &rows); err != nil {
		return nil, err
	}
	return contactsFrom(rows), nil
}

func (c *Client) ListMessagesByUser(ctx context.Context, userID string) ([]domain.ContactMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMessagesByUser")
	defer span.End()

	var rows []contactRow
	q := url.Values{"select": {contactSelect}, "user_id": {eq(userID)}, "order": {"created_at.desc"}}
	if err := c.selectRows(ctx, tableContactMessages, q, &rows); err != nil {
		return nil, err
	}
	return contactsFrom(rows), nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteMessage")
	defer span.End()

	return c.deleteRows(ctx, tableContactMessages, url.Values{"id": {eq(id)}})
}

// GetSetting returns (nil, nil) when the key was never set.
func (c *Client) GetSetting(ctx context.Context, key string) (*domain.SiteSetting, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSetting")
	defer span.End()

	var rows []domain.SiteSetting
	if err := c.selectRows(ctx, tableSiteSettings, url.Values{"key": {eq(key)}, "limit": {"1"}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpsertSetting inserts or replaces the value stored under key.
func (c *Client) UpsertSetting(ctx context.Context, key, value string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertSetting")
	defer span.End()

	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   restPath(tableSiteSettings),
		query:  url.Values{"on_conflict": {"key"}},
		body:   map[string]any{"key": key, "value": value},
		prefer: "resolution=merge-duplicates,return=minimal",
	})
	return wrapErr(tableSiteSettings, err)
}

package supabase

import (
	"context"
	"net/url"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ProfileStore
// ============================================================

const tableProfiles = "profiles"

// GetProfile returns (nil, nil) when the profile row does not exist yet.
func (c *Client) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id))

	var rows []domain.Profile
	q := url.Values{"id": {eq(id)}, "limit": {"1"}}
	if err := c.selectRows(ctx, tableProfiles, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProfile")
	defer span.End()

	dependents := p.Dependents
	if dependents == nil {
		dependents = []domain.Dependent{}
	}
	record := map[string]any{
		"id":         p.ID,
		"full_name":  p.FullName,
		"email":      p.Email,
		"role":       p.Role,
		"approved":   p.Approved,
		"cpf":        p.CPF,
		"phone":      p.Phone,
		"address":    p.Address,
		"dependents": dependents,
	}
	if p.BirthDate != "" {
		record["birth_date"] = p.BirthDate
	}

	var out domain.Profile
	if err := c.insertRow(ctx, tableProfiles, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id))

	var out domain.Profile
	if err := c.updateRows(ctx, tableProfiles, url.Values{"id": {eq(id)}}, updates, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProfiles lists profiles by name; an empty role lists everyone.
func (c *Client) ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProfiles")
	defer span.End()

	q := url.Values{"order": {"full_name.asc"}}
	if role != "" {
		q.Set("role", eq(string(role)))
	}
	rows := []domain.Profile{}
	if err := c.selectRows(ctx, tableProfiles, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProfile")
	defer span.End()

	return c.deleteRows(ctx, tableProfiles, url.Values{"id": {eq(id)}})
}

package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// IdentityProvider over GoTrue (/auth/v1)
// ============================================================

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// authResponse covers both answers of /signup: a session when e-mail
// confirmation is off, the bare user otherwise.
type authResponse struct {
	AccessToken string    `json:"access_token"`
	User        *authUser `json:"user"`
	authUser
}

func (r authResponse) identity() (*domain.Identity, error) {
	u := r.User
	if u == nil {
		u = &r.authUser
	}
	if u.ID == "" {
		return nil, fmt.Errorf("auth response without user id")
	}
	return &domain.Identity{ID: u.ID, Email: u.Email, ProviderToken: r.AccessToken}, nil
}

// SignUp registers an identity; metadata is stored as the user's data.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	body, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   map[string]any{"email": email, "password": password, "data": metadata},
		bearer: c.apiKey,
	})
	if err != nil {
		return nil, authErr(err, func(msg string) error {
			return &domain.ErrValidation{Field: "email", Message: msg}
		})
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode signup: %w", err)
	}
	return resp.identity()
}

// SignIn exchanges e-mail and password for a GoTrue session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignIn")
	defer span.End()

	body, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]any{"email": email, "password": password},
		bearer: c.apiKey,
	})
	if err != nil {
		return nil, authErr(err, func(msg string) error {
			return &domain.ErrUnauthorized{Message: msg}
		})
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	id, err := resp.identity()
	if err == nil {
		span.SetAttributes(attribute.String("user.id", id.ID))
	}
	return id, err
}

// SignOut revokes the GoTrue session behind providerToken.
func (c *Client) SignOut(ctx context.Context, providerToken string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SignOut")
	defer span.End()

	if providerToken == "" {
		return nil
	}
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: providerToken,
	})
	return wrapErr("auth", err)
}

// GetIdentity returns the user behind providerToken.
func (c *Client) GetIdentity(ctx context.Context, providerToken string) (*domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetIdentity")
	defer span.End()

	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: providerToken,
	})
	if err != nil {
		return nil, authErr(err, func(msg string) error {
			return &domain.ErrUnauthorized{Message: msg}
		})
	}
	var u authUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &domain.Identity{ID: u.ID, Email: u.Email, ProviderToken: providerToken}, nil
}

// authErr turns 4xx answers into the domain error built by rejected, keeping
// GoTrue's message verbatim. Other failures are backend errors.
func authErr(err error, rejected func(msg string) error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return rejected(apiErr.Message)
	}
	return wrapErr("auth", err)
}

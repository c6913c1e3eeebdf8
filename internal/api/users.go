package api

import (
	"context"
	"fmt"

	"github.com/nhle/threat-console/internal/model"
)

// NewUser is the body of an admin account creation.
type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UserUpdate carries the admin-editable account fields. Nil fields are
// left unchanged.
type UserUpdate struct {
	Role      *string `json:"role,omitempty"`
	IsBlocked *bool   `json:"is_blocked,omitempty"`
}

// User fetches an account with its profile.
func (c *Client) User(ctx context.Context, id int64) (model.User, error) {
	var out model.User
	err := c.get(ctx, fmt.Sprintf("/api/users/%d", id), nil, &out)
	return out, err
}

// AdminUsers lists every account.
func (c *Client) AdminUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.get(ctx, "/api/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAdminUser creates an account on behalf of an administrator.
func (c *Client) CreateAdminUser(ctx context.Context, u NewUser) (model.User, error) {
	var out model.User
	err := c.post(ctx, "/api/admin/users", u, &out)
	return out, err
}

// UpdateAdminUser changes an account's role or blocked flag.
func (c *Client) UpdateAdminUser(ctx context.Context, id int64, u UserUpdate) (model.User, error) {
	var out model.User
	err := c.patch(ctx, fmt.Sprintf("/api/admin/users/%d", id), u, &out)
	return out, err
}

// DeleteAdminUser removes an account.
func (c *Client) DeleteAdminUser(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/api/admin/users/%d", id))
}

package api

import (
	"context"
	"fmt"

	"github.com/nhle/threat-console/internal/model"
)

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// Login authenticates with email and password and returns the user record.
// Wrong credentials surface as ErrUnauthorized, blocked accounts as
// ErrForbidden.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	var resp loginResponse
	err := c.post(ctx, "/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return model.User{}, err
	}
	if resp.User == nil {
		return model.User{}, fmt.Errorf("login response has no user")
	}
	return *resp.User, nil
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.post(ctx, "/register", req, nil)
}

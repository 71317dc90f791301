package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/authkeeper/internal/client/auth"
	pkgapi "github.com/iudanet/authkeeper/pkg/api"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	authData, err := c.authService.Current(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'authkeeper login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	remaining := time.Until(authData.ExpiresAt)

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", authData.Username)
	c.io.Printf("Role:     %s\n", authData.Role)
	c.io.Printf("Access token expires: %s\n", authData.ExpiresAt.Format(time.RFC3339))

	if remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("Access token has expired; it will be refreshed on the next request.")
	}

	return nil
}

func (c *Cli) runWhoami(ctx context.Context) error {
	var user *pkgapi.User
	err := c.authService.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = c.apiClient.Me(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			return fmt.Errorf("not authenticated. Please run 'authkeeper login' first")
		}
		return err
	}

	c.io.Printf("ID:       %s\n", user.ID)
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Printf("Role:     %s\n", user.Role)
	c.io.Printf("Active:   %t\n", user.IsActive)
	c.io.Printf("Created:  %s\n", user.CreatedAt.Format(time.RFC3339))
	if user.LastLogin != nil {
		c.io.Printf("Last login: %s\n", user.LastLogin.Format(time.RFC3339))
	}

	return nil
}

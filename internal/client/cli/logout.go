package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/authkeeper/internal/client/auth"
)

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.authService.Logout(ctx); err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			c.io.Println("No saved session, nothing to do.")
			return nil
		}
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("The session has been revoked and local data deleted.")

	return nil
}

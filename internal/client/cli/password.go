package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/authkeeper/internal/validation"
)

func (c *Cli) runChangePassword(ctx context.Context) error {
	c.io.Println("=== Change Password ===")
	c.io.Println()

	oldPassword, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	newPassword, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	// Валидируем локально до похода на сервер
	if err := validation.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("invalid new password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Repeat new password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if confirm != newPassword {
		return fmt.Errorf("passwords do not match")
	}

	err = c.authService.Do(ctx, func(ctx context.Context) error {
		return c.apiClient.ChangePassword(ctx, oldPassword, newPassword)
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Password changed.")

	return nil
}

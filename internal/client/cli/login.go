package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	// Запрашиваем username
	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	// Пароль из env/файла/флага или интерактивно
	password, err := c.getPassword()
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	authData, err := c.authService.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", authData.Username)
	c.io.Printf("Role:     %s\n", authData.Role)
	c.io.Printf("Access token expires at: %s\n", authData.ExpiresAt.Format("2006-01-02 15:04:05"))
	c.io.Println()
	c.io.Println("Your session has been saved locally.")

	return nil
}

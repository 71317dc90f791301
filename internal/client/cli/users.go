package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/iudanet/authkeeper/internal/validation"
	pkgapi "github.com/iudanet/authkeeper/pkg/api"
)

func (c *Cli) runUserList(ctx context.Context) error {
	var users []pkgapi.User
	err := c.authService.Do(ctx, func(ctx context.Context) error {
		var err error
		users, err = c.apiClient.ListUsers(ctx)
		return err
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tACTIVE\tCREATED\tLAST LOGIN")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			u.ID,
			u.Username,
			u.Role,
			u.IsActive,
			u.CreatedAt.Format("2006-01-02 15:04"),
			formatOptionalTime(u.LastLogin, "never"),
		)
	}
	return w.Flush()
}

func (c *Cli) runUserCreate(ctx context.Context) error {
	c.io.Println("=== Create User ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}

	role, err := c.io.ReadInput("Role (user/admin, default user): ")
	if err != nil {
		return fmt.Errorf("failed to read role: %w", err)
	}
	if role == "" {
		role = "user"
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	var user *pkgapi.User
	err = c.authService.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = c.apiClient.CreateUser(ctx, pkgapi.CreateUserRequest{
			Username: username,
			Password: password,
			Role:     role,
		})
		return err
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ User created!")
	c.printUser(user)
	return nil
}

func (c *Cli) runUserGet(ctx context.Context, userID string) error {
	var user *pkgapi.User
	err := c.authService.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = c.apiClient.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return err
	}

	c.printUser(user)
	return nil
}

// runUserUpdate запрашивает новые значения; пустой ввод оставляет поле как есть
func (c *Cli) runUserUpdate(ctx context.Context, userID string) error {
	c.io.Println("=== Update User ===")
	c.io.Println("Leave a field empty to keep the current value.")
	c.io.Println()

	var req pkgapi.UpdateUserRequest

	username, err := c.io.ReadInput("New username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if username != "" {
		if err := validation.ValidateUsername(username); err != nil {
			return fmt.Errorf("invalid username: %w", err)
		}
		req.Username = &username
	}

	role, err := c.io.ReadInput("New role (user/admin): ")
	if err != nil {
		return fmt.Errorf("failed to read role: %w", err)
	}
	if role != "" {
		req.Role = &role
	}

	active, err := c.io.ReadInput("Active (true/false): ")
	if err != nil {
		return fmt.Errorf("failed to read active flag: %w", err)
	}
	switch active {
	case "":
	case "true":
		v := true
		req.IsActive = &v
	case "false":
		v := false
		req.IsActive = &v
	default:
		return fmt.Errorf("active must be true or false, got %q", active)
	}

	if req.Username == nil && req.Role == nil && req.IsActive == nil {
		c.io.Println("Nothing to update.")
		return nil
	}

	var user *pkgapi.User
	err = c.authService.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = c.apiClient.UpdateUser(ctx, userID, req)
		return err
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ User updated!")
	c.printUser(user)
	return nil
}

func (c *Cli) runUserDelete(ctx context.Context, userID string) error {
	ok, err := c.io.Confirm(fmt.Sprintf("Delete user %s? All their sessions and API tokens will be revoked.", userID))
	if err != nil {
		return err
	}
	if !ok {
		c.io.Println("Aborted.")
		return nil
	}

	err = c.authService.Do(ctx, func(ctx context.Context) error {
		return c.apiClient.DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	c.io.Println("✓ User deleted.")
	return nil
}

func (c *Cli) runUserResetPassword(ctx context.Context, userID string) error {
	c.io.Println("=== Reset Password ===")
	c.io.Println()

	password, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	err = c.authService.Do(ctx, func(ctx context.Context) error {
		return c.apiClient.ResetPassword(ctx, userID, password)
	})
	if err != nil {
		return err
	}

	c.io.Println("✓ Password reset.")
	return nil
}

func (c *Cli) printUser(user *pkgapi.User) {
	c.io.Printf("ID:       %s\n", user.ID)
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Printf("Role:     %s\n", user.Role)
	c.io.Printf("Active:   %t\n", user.IsActive)
	c.io.Printf("Created:  %s\n", user.CreatedAt.Format(time.RFC3339))
	if user.LastLogin != nil {
		c.io.Printf("Last login: %s\n", user.LastLogin.Format(time.RFC3339))
	}
}

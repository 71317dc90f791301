package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	pkgapi "github.com/iudanet/authkeeper/pkg/api"
)

func (c *Cli) runTokenList(ctx context.Context) error {
	var tokens []pkgapi.APIToken
	err := c.authService.Do(ctx, func(ctx context.Context) error {
		var err error
		tokens, err = c.apiClient.ListAPITokens(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		c.io.Println("No API tokens.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tLAST USED\tEXPIRES\tREVOKED")
	for _, t := range tokens {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			t.ID,
			t.Name,
			t.CreatedAt.Format("2006-01-02 15:04"),
			formatOptionalTime(t.LastUsedAt, "never"),
			formatOptionalTime(t.ExpiresAt, "-"),
			t.Revoked,
		)
	}
	return w.Flush()
}

func (c *Cli) runTokenCreate(ctx context.Context) error {
	c.io.Println("=== Create API Token ===")
	c.io.Println()

	name, err := c.io.ReadInput("Token name: ")
	if err != nil {
		return fmt.Errorf("failed to read token name: %w", err)
	}
	if name == "" {
		return fmt.Errorf("token name cannot be empty")
	}

	ttlInput, err := c.io.ReadInput("Lifetime (e.g. 720h, empty = never expires): ")
	if err != nil {
		return fmt.Errorf("failed to read lifetime: %w", err)
	}

	req := pkgapi.CreateAPITokenRequest{Name: name}
	if ttlInput != "" {
		ttl, err := time.ParseDuration(ttlInput)
		if err != nil {
			return fmt.Errorf("invalid lifetime %q: %w", ttlInput, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("lifetime must be positive")
		}
		expiresAt := time.Now().Add(ttl)
		req.ExpiresAt = &expiresAt
	}

	var resp *pkgapi.CreateAPITokenResponse
	err = c.authService.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.apiClient.CreateAPIToken(ctx, req)
		return err
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Token created!")
	c.io.Printf("ID:    %s\n", resp.APIToken.ID)
	c.io.Printf("Name:  %s\n", resp.APIToken.Name)
	if resp.APIToken.ExpiresAt != nil {
		c.io.Printf("Expires: %s\n", resp.APIToken.ExpiresAt.Format(time.RFC3339))
	}
	c.io.Println()
	c.io.Printf("Token: %s\n", resp.Token)
	c.io.Println()
	c.io.Println("Save this value now. It will not be shown again.")

	return nil
}

func (c *Cli) runTokenRevoke(ctx context.Context, tokenID string) error {
	ok, err := c.io.Confirm(fmt.Sprintf("Revoke token %s?", tokenID))
	if err != nil {
		return err
	}
	if !ok {
		c.io.Println("Aborted.")
		return nil
	}

	err = c.authService.Do(ctx, func(ctx context.Context) error {
		return c.apiClient.RevokeAPIToken(ctx, tokenID)
	})
	if err != nil {
		return err
	}

	c.io.Println("✓ Token revoked.")
	return nil
}

func formatOptionalTime(t *time.Time, placeholder string) string {
	if t == nil {
		return placeholder
	}
	return t.Format("2006-01-02 15:04")
}

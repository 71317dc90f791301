package cli

import (
	"context"
	"fmt"
)

// Run выполняет команду с аргументами после имени команды
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "passwd":
		return c.runChangePassword(ctx)
	case "token":
		return c.runToken(ctx, args)
	case "user":
		return c.runUser(ctx, args)
	default:
		PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (c *Cli) runToken(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: authkeeper token <list|create|revoke>")
	}
	switch args[0] {
	case "list":
		return c.runTokenList(ctx)
	case "create":
		return c.runTokenCreate(ctx)
	case "revoke":
		if len(args) < 2 {
			return fmt.Errorf("usage: authkeeper token revoke <id>")
		}
		return c.runTokenRevoke(ctx, args[1])
	default:
		return fmt.Errorf("unknown token subcommand: %s", args[0])
	}
}

func (c *Cli) runUser(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: authkeeper user <list|create|get|update|delete|reset-password>")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return c.runUserList(ctx)
	case "create":
		return c.runUserCreate(ctx)
	case "get", "update", "delete", "reset-password":
		if len(rest) < 1 {
			return fmt.Errorf("usage: authkeeper user %s <id>", sub)
		}
		switch sub {
		case "get":
			return c.runUserGet(ctx, rest[0])
		case "update":
			return c.runUserUpdate(ctx, rest[0])
		case "delete":
			return c.runUserDelete(ctx, rest[0])
		default:
			return c.runUserResetPassword(ctx, rest[0])
		}
	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account management commands",
	}

	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountGetCmd())
	cmd.AddCommand(newAccountLevelCmd())
	cmd.AddCommand(newAccountVerifyCmd())
	cmd.AddCommand(newGameAccountCmd())

	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var email, pass, tag, level string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"email":      email,
				"password":   pass,
				"battle_tag": tag,
			}
			if level != "" {
				req["user_level"] = level
			}
			var result Account

			if err := client.Post("/api/v1/accounts", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&tag, "tag", "", "Battle tag, e.g. Hero#1234 (required)")
	cmd.Flags().StringVar(&level, "level", "", "User level: user, gm, admin, owner")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}

func newAccountGetCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Look up an account by id or battle tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			switch {
			case len(args) == 1:
				path = "/api/v1/accounts/" + args[0]
			case tag != "":
				path = "/api/v1/accounts?tag=" + url.QueryEscape(tag)
			default:
				return fmt.Errorf("an account id argument or --tag is required")
			}

			var result Account
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Battle tag to look up")

	return cmd
}

func newAccountLevelCmd() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "level <id>",
		Short: "Change an account's privilege level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"user_level": level}
			var result Account

			if err := client.Patch("/api/v1/accounts/"+args[0]+"/level", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "User level: user, gm, admin, owner (required)")
	_ = cmd.MarkFlagRequired("level")

	return cmd
}

func newAccountVerifyCmd() *cobra.Command {
	var pass string

	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Check a password against an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"password": pass}
			var result VerifyResult

			if err := client.Post("/api/v1/accounts/"+args[0]+"/verify-password", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&pass, "pass", "", "Password to check (required)")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newGameAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gameaccount",
		Short: "Game account management commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <account-id>",
		Short: "Create a game account under an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameAccount
			if err := client.Post("/api/v1/accounts/"+args[0]+"/gameaccounts", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <account-id>",
		Short: "List the game accounts of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []GameAccount
			if err := client.Get("/api/v1/accounts/"+args[0]+"/gameaccounts", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a game account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/gameaccounts/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Game account deleted")
			return nil
		},
	})

	return cmd
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/biblioteca-app/sessionguard"
	"github.com/biblioteca-app/sessionguard/core"
	"github.com/biblioteca-app/sessionguard/validator"
)

var errLoginRequired = errors.New("login required")

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context, _ []string) error {
			result, err := a.client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", username)
			fmt.Fprintf(a.out, "Roles: %s\n", formatRoles(result.Roles))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req sessionguard.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context, _ []string) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			if req.Roles == nil {
				req.Roles = []string{}
			}
			result, err := a.client.Register(ctx, req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintf(a.out, "Registered %s (id %d)\n", result.Username, result.ID)
			fmt.Fprintf(a.out, "Roles: %s\n", formatRoles(result.Roles))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringSliceVar(&req.Roles, "role", nil, "role to request, repeatable")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context, _ []string) error {
			if err := a.client.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		}),
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context, _ []string) error {
			token := a.session.Read(ctx)

			if err := a.validator.Check(token); err != nil {
				if errors.Is(err, validator.ErrTokenMissing) {
					fmt.Fprintln(a.out, "Not logged in")
					return nil
				}
				fmt.Fprintf(a.out, "Session unusable: %v\n", err)
				return nil
			}

			claims, err := a.validator.Inspect(token)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Logged in as %s\n", claims.Subject)
			fmt.Fprintf(a.out, "Roles: %s\n", formatRoles(a.session.Roles(ctx)))
			fmt.Fprintf(a.out, "Expires: %s\n", claims.ExpiresAt.UTC().Format(time.RFC3339))
			return nil
		}),
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Navigate to a page and print where the guard lands",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(ctx context.Context, args []string) error {
			loc, err := a.router.Push(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s)\n", loc.FullPath, loc.Policy)
			return nil
		}),
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get PATH",
		Short: "Fetch an API resource and print its data",
		Long: `Fetch an API resource relative to BIBLIOTECA_API_URL and print the
"data" field of the response. The page for PATH is opened first, so a
missing or expired session stops at the login page without calling the API.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runE(func(ctx context.Context, args []string) error {
			loc, err := a.router.Push(ctx, args[0])
			if err != nil {
				return err
			}
			if loc.Name == core.DefaultLoginRoute {
				return fmt.Errorf("%w: continue at %s", errLoginRequired, loc.FullPath)
			}

			var data json.RawMessage
			if err := a.client.Get(ctx, args[0], &data); err != nil {
				if errors.Is(err, sessionguard.ErrUnauthorized) {
					return fmt.Errorf("%w: session rejected, continue at %s: %w", errLoginRequired, a.router.Current().FullPath, err)
				}
				return err
			}

			return writeJSON(a.out, data)
		}),
	}
}

func formatRoles(roles []string) string {
	if len(roles) == 0 {
		return "(none)"
	}
	return strings.Join(roles, ", ")
}

func writeJSON(w io.Writer, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

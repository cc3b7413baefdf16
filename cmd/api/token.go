package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/support-tickets/internal/auth"
	"github.com/spec-kit/support-tickets/internal/config"
	"github.com/spec-kit/support-tickets/internal/domain"
)

// newTokenCmd issues HS256 tokens for local development against a shared secret.
func newTokenCmd() *cobra.Command {
	var (
		subject  string
		roles    []string
		tenantID string
		email    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tokens, err := auth.NewTokenManager(cfg.Auth)
			if err != nil {
				return err
			}
			actor := domain.Actor{SubjectID: subject}
			for _, r := range roles {
				actor.Roles = append(actor.Roles, domain.Role(r))
			}
			if tenantID != "" {
				actor.TenantID = &tenantID
			}
			if email != "" {
				actor.Email = &email
			}
			token, expiresAt, err := tokens.GenerateToken(actor)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "dev-user", "subject (user id)")
	cmd.Flags().StringSliceVar(&roles, "role", []string{string(domain.RoleCustomerUser)}, "role names")
	cmd.Flags().StringVar(&tenantID, "customer-id", "", "customer_id claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/service"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

var (
	bootstrapName  string
	bootstrapEmail string
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create the first administrator and print its API key",
	Long: `bootstrap-admin creates the first admin using ADMIN_BOOTSTRAP_KEY. It fails once any
admin exists. The API key is printed once and cannot be recovered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if cfg.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN is required; the in-memory store does not outlive this command")
		}

		rt, err := newRuntime(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		req := dto.CreateUserRequest{FullName: bootstrapName, Email: bootstrapEmail}
		req.Normalize()
		if err := req.Validate(); err != nil {
			return fmt.Errorf("%w: %v", err, apperrors.ToDomainError(err).Details)
		}

		created, err := rt.users.Bootstrap(cmd.Context(), cfg.Auth.AdminBootstrapKey, service.CreateUserInput{
			FullName: req.FullName,
			Email:    req.Email,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "admin %d <%s>\napi key: %s\n", created.User.ID, created.User.Email, created.APIKey)
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapName, "name", "", "full name of the admin")
	bootstrapCmd.Flags().StringVar(&bootstrapEmail, "email", "", "email of the admin")
	_ = bootstrapCmd.MarkFlagRequired("name")
	_ = bootstrapCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(bootstrapCmd)
}

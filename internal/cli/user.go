package cli

import (
	"github.com/go-playground/validator"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
	"github.com/magabrotheeeer/subscription-billing/internal/permission"
	userservice "github.com/magabrotheeeer/subscription-billing/internal/services/users"
	"github.com/magabrotheeeer/subscription-billing/internal/storage"
)

func newUserCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Operator account tools",
	}
	cmd.AddCommand(newBootstrapCommand(load))
	return cmd
}

func newBootstrapCommand(load configLoader) *cobra.Command {
	var req models.NewUser

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first super_admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = models.RoleSuperAdmin
			if err := validator.New().Struct(req); err != nil {
				return err
			}
			cfg, log, err := load()
			if err != nil {
				return err
			}
			db, err := storage.New(cfg.StorageConnectionString)
			if err != nil {
				return err
			}
			defer db.Close()

			gate, err := permission.New()
			if err != nil {
				return err
			}
			svc := userservice.NewUserService(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), gate, log)
			user, err := svc.Bootstrap(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"id":       user.ID,
				"username": user.Username,
				"role":     user.Role,
			})
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "Login name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Contact email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Initial password, at least 8 characters")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quiz-gateway/internal/auth"
	"quiz-gateway/internal/config"
	"quiz-gateway/internal/domain"
)

// NewTokenCmd mints a signed bearer token for manual testing. The server
// never issues tokens itself; identities normally come from the platform's
// identity provider sharing the same signing secret.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		role string
		name string
		id   string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth secret not configured")
			}

			if id == "" {
				id = uuid.NewString()
			}
			identity := domain.Identity{ID: id, Name: name, Role: role}
			token, err := auth.Mint(cfg.Auth.Secret, identity, ttl)
			if err != nil {
				return err
			}

			fmt.Printf("%s token for %s (%s):\n%s\n", role, name, id, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", domain.RoleUser, "role claim (user or admin)")
	cmd.Flags().StringVar(&name, "name", "Test User", "display name claim")
	cmd.Flags().StringVar(&id, "id", "", "subject id (random uuid when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

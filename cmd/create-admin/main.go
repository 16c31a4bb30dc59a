package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"civic_trust/internal/config"
	"civic_trust/internal/models"
	"civic_trust/internal/persistence"
	"civic_trust/internal/services"
	"civic_trust/internal/store"
)

var (
	name     string
	email    string
	password string
	level    string
	area     string
	zone     string
)

var rootCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an L1/L2/L3 administrator account in the configured storage",
	Long: `create-admin registers an administrator directly in storage. Admin
accounts cannot be created through the public signup endpoint.`,
	RunE: runCreateAdmin,
}

func init() {
	rootCmd.Flags().StringVar(&name, "name", "", "Display name of the admin")
	rootCmd.Flags().StringVar(&email, "email", "", "Login email")
	rootCmd.Flags().StringVar(&password, "password", "", "Initial password")
	rootCmd.Flags().StringVar(&level, "level", string(models.AdminLevelCity), "Admin level: L1 (ward), L2 (zone) or L3 (city)")
	rootCmd.Flags().StringVar(&area, "area", "", "Assigned ward/area, required for L1")
	rootCmd.Flags().StringVar(&zone, "zone", "", "Assigned zone, required for L2")
	for _, f := range []string{"name", "email", "password"} {
		_ = rootCmd.MarkFlagRequired(f)
	}
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	gateway, err := persistence.Open(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer gateway.Close()

	ctx := context.Background()
	svc := services.NewCivicService(store.New(), gateway, services.Options{
		Retries:       cfg.PersistRetries,
		RetryInterval: cfg.PersistRetryInterval,
	})
	if err := svc.Restore(ctx); err != nil {
		return err
	}

	admin, err := svc.CreateAdmin(ctx, services.AdminInput{
		Name:     name,
		Email:    email,
		Password: password,
		Level:    models.AdminLevel(level),
		Area:     area,
		Zone:     zone,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Admin created: id=%s email=%s level=%s\n", admin.ID, admin.Email, admin.AdminLevel)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("create-admin failed")
		os.Exit(1)
	}
}

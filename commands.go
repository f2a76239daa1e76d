package main

import (
	"errors"
	"fmt"

	"catalog/internal/apperrors"
	"catalog/internal/config"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()
		rt.logger.Info("migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample categories and products",
	Long: `Load sample categories and products. Categories are matched by slug and products
whose slug already exists are skipped, so seeding can be repeated.`,
	RunE: runSeed,
}

var (
	adminUsername string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "admin", "Administrator username")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Administrator email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Administrator password (min 6 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

type seedProduct struct {
	category    string
	name        string
	slug        string
	description string
	price       string
	quantity    int
	featured    bool
}

var seedCategories = []struct{ name, slug string }{
	{"Electronics", "electronics"},
	{"Accessories", "accessories"},
}

var seedProducts = []seedProduct{
	{"electronics", "Laptop", "laptop", "High performance laptop", "1200.00", 10, true},
	{"electronics", "Smart Phone", "smart-phone", "Unlocked phone with a 6.1 inch display", "699.00", 25, true},
	{"accessories", "Mechanical Keyboard", "mechanical-keyboard", "Mechanical keyboard with brown switches", "75.00", 25, false},
	{"accessories", "Wireless Mouse", "wireless-mouse", "Ergonomic wireless mouse", "25.00", 50, false},
	{"accessories", "Phone Case", "phone-case", "Shock absorbing phone case", "19.99", 3, false},
}

func runSeed(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	if rt.cfg.DatabaseDriver == config.DriverMemory {
		return errors.New("seed needs a persistent DATABASE_DRIVER")
	}
	ctx := commandContext(cmd)

	categories := repositories.NewGORMCategoryRepository(rt.db)
	categoryIDs := make(map[string]string, len(seedCategories))
	for _, c := range seedCategories {
		category, err := categories.FirstOrCreate(ctx, c.name, c.slug)
		if err != nil {
			return err
		}
		categoryIDs[c.slug] = category.ID
	}

	productService := services.NewProductService(rt.productRepository(), rt.logger)
	for _, p := range seedProducts {
		quantity := p.quantity
		req := &models.ProductCreateRequest{
			Name:        p.name,
			Slug:        p.slug,
			Description: &p.description,
			CategoryID:  categoryIDs[p.category],
			Price:       decimal.RequireFromString(p.price),
			Quantity:    &quantity,
			Status:      models.StatusActive,
			IsFeatured:  p.featured,
		}
		if _, err := productService.Create(ctx, req, nil); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				rt.logger.Info("product already seeded", zap.String("slug", p.slug))
				continue
			}
			return err
		}
	}
	rt.logger.Info("seed complete", zap.Int("categories", len(seedCategories)), zap.Int("products", len(seedProducts)))
	return nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	if len(adminPassword) < 6 {
		return apperrors.Validation("password must be at least 6 characters", nil)
	}

	authService := services.NewAuthService(repositories.NewGORMUserRepository(rt.db), rt.cfg.JWTSecret, rt.cfg.JWTTTL, rt.logger)
	user := models.User{Username: adminUsername, Email: adminEmail, Password: adminPassword}
	if err := authService.RegisterUser(commandContext(cmd), &user, models.RoleAdmin); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (%s)\n", user.Username, user.ID)
	return nil
}

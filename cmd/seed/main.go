package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/unimart-backend/internal/config"
	"github.com/shinyyama/unimart-backend/internal/db"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/repository"
	"github.com/shinyyama/unimart-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type seedProduct struct {
	Seller    model.Identity
	Title     string
	Price     string
	Condition string
}

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("seed failed")
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DBDriver == config.DriverMemory {
		return fmt.Errorf("seeding needs a sql DB_DRIVER, got %q", cfg.DBDriver)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	repo := repository.NewProductRepository(gdb)
	canSeed, err := shouldSeed(ctx, repo)
	if err != nil {
		return err
	}
	if !canSeed {
		logrus.Info("products already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	svc := service.NewProductService(repo)
	products := buildSeedProducts()
	for idx, sp := range products {
		_, err := svc.Create(ctx, sp.Seller, service.ProductInput{
			Title:       sp.Title,
			Description: fmt.Sprintf("%s in %s condition. Pick-up on %s campus.", sp.Title, sp.Condition, sp.Seller.Campus),
			Price:       decimal.RequireFromString(sp.Price),
			Images:      []string{picsumURL(sp.Title, idx+1)},
			Condition:   sp.Condition,
		})
		if err != nil {
			return fmt.Errorf("create %q: %w", sp.Title, err)
		}
	}

	logrus.WithField("count", len(products)).Info("seeded products")
	return nil
}

func buildSeedProducts() []seedProduct {
	sellers := []model.Identity{
		{Username: "maya", Campus: "North", Verified: true},
		{Username: "kenji", Campus: "South", Verified: true},
		{Username: "lena", Campus: "North", Verified: true},
	}
	catalog := []struct {
		Title     string
		Price     string
		Condition string
	}{
		{"Intro to Algorithms (3rd ed.)", "35.00", "good"},
		{"Graphing calculator", "48.50", "like new"},
		{"Desk lamp", "12.00", "good"},
		{"Mini fridge", "60.00", "fair"},
		{"Road bike helmet", "20.00", "like new"},
		{"Lab coat (M)", "15.00", "good"},
		{"Noise cancelling headphones", "85.00", "good"},
		{"Dorm rug 120x180", "18.00", "fair"},
		{"Organic chemistry model kit", "22.00", "new"},
	}
	out := make([]seedProduct, 0, len(catalog))
	for i, c := range catalog {
		out = append(out, seedProduct{
			Seller:    sellers[i%len(sellers)],
			Title:     c.Title,
			Price:     c.Price,
			Condition: c.Condition,
		})
	}
	return out
}

func shouldSeed(ctx context.Context, repo repository.ProductRepository) (bool, error) {
	_, total, err := repo.List(ctx, 1, 0, "")
	if err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func picsumURL(title string, idx int) string {
	slug := strings.ToLower(strings.Join(strings.Fields(title), "-"))
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", slug, idx)
}

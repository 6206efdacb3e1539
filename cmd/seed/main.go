package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/config"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
	pg "line-fortune-subscription/internal/infra/db/postgres"
	"line-fortune-subscription/internal/usecase"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	packageRepo := pg.NewPackageRepo(pool)
	recipientRepo := pg.NewRecipientRepo(pool)
	adminRepo := pg.NewAdminRepo(pool)

	// Packages offered on the payment page.
	now := time.Now()
	packages := []*model.Package{
		{Name: "basic", DisplayName: "Basic", DurationDays: 30, Price: decimal.NewFromInt(99), Active: true, CreatedAt: now},
		{Name: "premium", DisplayName: "Premium", DurationDays: 90, Price: decimal.NewFromInt(249), Active: true, CreatedAt: now},
	}
	for _, p := range packages {
		if err := packageRepo.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("seed package %q: %v", p.Name, err)
		}
		fmt.Printf("seeded package: %s (days=%d, price=฿%s)\n", p.Name, p.DurationDays, p.Price.StringFixed(0))
	}

	// Receiving PromptPay account.
	rcp := &model.PromptPayRecipient{
		PhoneNumber: envOr("SEED_PROMPTPAY_PHONE", "0812345678"),
		FullName:    envOr("SEED_PROMPTPAY_NAME", "บริษัท ฟอร์จูน จำกัด"),
		Active:      true,
		CreatedAt:   now,
	}
	if err := recipientRepo.Save(ctx, repository.NoTX, rcp); err != nil {
		log.Fatalf("seed recipient: %v", err)
	}
	fmt.Printf("seeded recipient: %s (%s)\n", rcp.FullName, rcp.PhoneNumber)

	// First back-office account.
	username := envOr("SEED_ADMIN_USER", "admin")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is required")
	}
	adminUC := usecase.NewAdminUseCase(adminRepo, zerolog.Nop())
	if _, err := adminUC.AddAdmin(ctx, username, password, envOr("SEED_ADMIN_EMAIL", "")); err != nil {
		log.Fatalf("seed admin %q: %v", username, err)
	}
	fmt.Printf("seeded admin: %s\n", username)

	fmt.Println("Seeding complete.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

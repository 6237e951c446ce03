package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/OpenQuester/OpenQuester-sub005/internal/config"
	"github.com/OpenQuester/OpenQuester-sub005/internal/db"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/repository"
	"github.com/OpenQuester/OpenQuester-sub005/internal/service"
)

// Creates a user, prints a token for it and optionally seeds a small package
// to play with.
func main() {
	name := flag.String("name", "testuser", "username")
	seed := flag.Bool("seed", false, "also create a demo package")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel})
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	u := &domain.User{Username: *name}
	if err := users.Create(ctx, u); err != nil {
		logger.Fatal("create user failed", "error", err)
	}
	logger.Info("user created", "id", u.ID, "username", u.Username)

	token, err := service.NewTokens(cfg.JWTSecret, cfg.JWTTTL).Generate(u.ID)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Printf("user_id=%d\ntoken=%s\n", u.ID, token)

	if !*seed {
		return
	}
	pkg := demoPackage()
	if err := repository.NewPackageRepository(pool).Create(ctx, &pkg, u.ID); err != nil {
		logger.Fatal("create package failed", "error", err)
	}
	fmt.Printf("package_id=%d\n", pkg.ID)
}

func demoPackage() domain.Package {
	q := func(ord int, price int64, typ domain.QuestionType, text, answer string) domain.PackageQuestion {
		return domain.PackageQuestion{Order: ord, Price: price, Type: typ, Text: text, Answer: answer}
	}
	return domain.Package{
		Title: "Demo",
		Rounds: []domain.PackageRound{
			{Order: 0, Name: "Warm up", Type: domain.RoundTypeSimple, Themes: []domain.PackageTheme{
				{Order: 0, Name: "Geography", Questions: []domain.PackageQuestion{
					q(0, 100, domain.QuestionTypeSimple, "Longest river in Africa?", "Nile"),
					q(1, 200, domain.QuestionTypeStake, "Highest mountain in Europe?", "Elbrus"),
					q(2, 300, domain.QuestionTypeSecret, "Capital of Australia?", "Canberra"),
				}},
				{Order: 1, Name: "Music", Questions: []domain.PackageQuestion{
					q(0, 100, domain.QuestionTypeSimple, "Composer of the Four Seasons?", "Vivaldi"),
					q(1, 200, domain.QuestionTypeNoRisk, "Instrument with 88 keys?", "Piano"),
				}},
			}},
			{Order: 1, Name: "Final", Type: domain.RoundTypeFinal, Themes: []domain.PackageTheme{
				{Order: 0, Name: "Space", Questions: []domain.PackageQuestion{q(0, 0, domain.QuestionTypeSimple, "First person in space?", "Gagarin")}},
				{Order: 1, Name: "Chemistry", Questions: []domain.PackageQuestion{q(0, 0, domain.QuestionTypeSimple, "Symbol of iron?", "Fe")}},
			}},
		},
	}
}

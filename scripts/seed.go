package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Fixtures lists users and the items each of them lends out.
type Fixtures struct {
	Users []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	Name  string        `yaml:"name"`
	Email string        `yaml:"email"`
	Items []FixtureItem `yaml:"items"`
}

type FixtureItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   *bool  `yaml:"available"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		fixturesPath = flag.String("fixtures", "configs/fixtures.yaml", "path to fixtures.yaml")
		dbPath       = flag.String("db", "./data/shareit.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*fixturesPath)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures Fixtures
	if err = yaml.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("parse fixtures: %w", err)
	}
	if len(fixtures.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(config.DatabaseConfig{Driver: "sqlite3", Path: *dbPath}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, events.NewEventBus(), &logger)
	createdUsers, createdItems, err := seed(ctx, users, items, fixtures)
	if err != nil {
		return err
	}

	fmt.Printf("done: users=%d items=%d\n", createdUsers, createdItems)
	return nil
}

// seed creates missing users and then their items. Users already present
// (matched by email) are reused and their items are not duplicated.
func seed(ctx context.Context, users domain.UserService, items domain.ItemService, fixtures Fixtures) (int, int, error) {
	existing, err := users.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list users: %w", err)
	}
	byEmail := make(map[string]int64, len(existing))
	for _, u := range existing {
		byEmail[strings.ToLower(u.Email)] = u.ID
	}

	createdUsers, createdItems := 0, 0
	for _, fu := range fixtures.Users {
		if _, ok := byEmail[strings.ToLower(fu.Email)]; ok {
			continue
		}
		user, err := users.Create(ctx, models.UserDto{Name: fu.Name, Email: fu.Email})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			return createdUsers, createdItems, fmt.Errorf("create user %s: %w", fu.Email, err)
		}
		createdUsers++

		for _, fi := range fu.Items {
			available := true
			item, err := items.Create(ctx, user.ID, models.ItemDto{
				Name:        fi.Name,
				Description: fi.Description,
				Available:   &available,
			})
			if err != nil {
				return createdUsers, createdItems, fmt.Errorf("create item %s: %w", fi.Name, err)
			}
			createdItems++

			// New items always start available.
			if fi.Available != nil && !*fi.Available {
				if _, err := items.Update(ctx, user.ID, item.ID, models.ItemUpdateDto{Available: fi.Available}); err != nil {
					return createdUsers, createdItems, fmt.Errorf("withdraw item %s: %w", fi.Name, err)
				}
			}
		}
	}
	return createdUsers, createdItems, nil
}

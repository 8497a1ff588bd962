// Command migrate applies the SQL migrations in order and optionally seeds an
// admin account from ADMIN_USERNAME / ADMIN_PASSWORD.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"

	"smart-inventory/internal/config"
	"smart-inventory/internal/core"
	"smart-inventory/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Fatalf("read %s: %v", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			log.Fatalf("apply %s: %v", name, err)
		}
		log.Printf("applied %s", name)
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username != "" && password != "" {
		users := core.NewUserService(pool)
		if _, err := users.Create(ctx, cfg.DefaultTenantID, username, password, "admin"); err != nil {
			if derr, ok := core.AsDomain(err); ok && derr.Code == core.ErrDuplicateName {
				log.Printf("admin user %q already exists", username)
			} else {
				log.Fatalf("seed admin: %v", err)
			}
		} else {
			log.Printf("seeded admin user %q", username)
		}
	}
}

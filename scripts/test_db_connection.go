//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"

	"coffee-on/internal/config"

	"github.com/jackc/pgx/v5"
)

// Checks the database settings from the environment (and .env) and lists the
// tables the API expects.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	err = conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", dbName)

	rows, err := conn.Query(ctx, `
		SELECT t.name, to_regclass(t.name) IS NOT NULL
		FROM unnest(ARRAY['usuarios', 'produtos', 'pedidos', 'pedido_produto', 'admin_logs']) AS t(name)`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Println("\nTables:")
	for rows.Next() {
		var (
			name   string
			exists bool
		)
		if err := rows.Scan(&name, &exists); err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
		status := "ok"
		if !exists {
			status = "missing (start the API with DB_AUTO_MIGRATE=true)"
		}
		fmt.Printf("  - %-15s %s\n", name, status)
	}
}

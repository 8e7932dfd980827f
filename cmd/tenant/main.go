// Package main provides CLI for tenant management.
// Usage: tenant create --name "Toko Maju" [--prefix TM] [--role OWNER]
//        tenant token --id <tenant-id> [--user owner] [--role OWNER]
//        tenant migrate
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/auth"
	"stockledger/internal/infrastructure/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		createTenant(ctx)
	case "token":
		issueToken(ctx)
	case "migrate":
		migrate(ctx)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`stockledger tenant CLI

Usage:
  tenant <command> [options]

Commands:
  create    Create a tenant and print an access token for it
  token     Print an access token for an existing tenant
  migrate   Apply the database schema
  help      Show this help

Environment Variables:
  DATABASE_URL   PostgreSQL connection string (required)
  JWT_SECRET     Secret the server validates tokens with (required for tokens)

Examples:
  tenant create --name "Toko Maju" --prefix TM
  tenant token --id <tenant-uuid> --user kasir --role STAFF
  tenant migrate`)
}

// flags parses "--key value" pairs after the command name.
func flags() map[string]string {
	out := make(map[string]string)
	for i := 2; i < len(os.Args); i++ {
		if !strings.HasPrefix(os.Args[i], "--") {
			continue
		}
		key := strings.TrimPrefix(os.Args[i], "--")
		if i+1 < len(os.Args) {
			out[key] = os.Args[i+1]
			i++
		}
	}
	return out
}

func fail(format string, args ...any) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}

func openStore(ctx context.Context) (*postgres.Pool, *postgres.Store) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fail("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		fail("connecting to database: %v", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		fail("applying schema: %v", err)
	}

	store, err := postgres.NewStore(postgres.NewTxManager(pool))
	if err != nil {
		pool.Close()
		fail("%v", err)
	}
	return pool, store
}

func createTenant(ctx context.Context) {
	args := flags()
	in := tenant.CreateInput{Name: args["name"], InvoicePrefix: args["prefix"]}
	if err := in.Validate(); err != nil {
		fmt.Println("Usage: tenant create --name <name> [--prefix <invoice prefix>]")
		fail("%v", err)
	}

	pool, store := openStore(ctx)
	defer pool.Close()

	t := tenant.New(in)
	fmt.Printf("Creating tenant '%s'...\n", t.Name)
	if err := store.CreateTenant(ctx, t); err != nil {
		fail("creating tenant: %v", err)
	}

	fmt.Println("Tenant created:")
	fmt.Printf("  ID:             %s\n", t.ID)
	fmt.Printf("  Invoice prefix: %s\n", t.InvoicePrefix)
	printToken(t.ID, valueOr(args["user"], "owner"), valueOr(args["role"], string(security.RoleOwner)))
}

func issueToken(ctx context.Context) {
	args := flags()
	tenantID, err := id.Parse(args["id"])
	if err != nil {
		fmt.Println("Usage: tenant token --id <tenant-id> [--user <name>] [--role OWNER|ADMIN|STAFF]")
		fail("invalid tenant id %q", args["id"])
	}

	pool, store := openStore(ctx)
	defer pool.Close()

	profile, err := store.Tenant(tenantID).Profile(ctx)
	if err != nil {
		fail("loading tenant: %v", err)
	}
	if !profile.IsActive() {
		fail("tenant %s is %s", profile.ID, profile.Status)
	}
	printToken(profile.ID, valueOr(args["user"], "owner"), valueOr(args["role"], string(security.RoleOwner)))
}

func migrate(ctx context.Context) {
	pool, _ := openStore(ctx)
	pool.Close()
	fmt.Println("Schema is up to date")
}

func printToken(tenantID id.ID, username, role string) {
	role = strings.ToUpper(role)
	if _, ok := security.ParseRole(role); !ok {
		fail("unknown role %q", role)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("  (set JWT_SECRET to also print an access token)")
		return
	}

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(secret))
	token, expiresAt, err := jwtService.GenerateAccessToken(id.New().String(), tenantID.String(), username, role)
	if err != nil {
		fail("signing token: %v", err)
	}
	fmt.Printf("  Access token (%s, %s, expires %s):\n%s\n", username, role, expiresAt.Format("2006-01-02 15:04"), token)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Package main walks the anonymous-add → login → reconcile flow against a
// real storefront API.
//
// Configuration comes from the environment (a .env file is honored):
//
//	API_BASE_URL   — storefront API origin (required)
//	REDIS_ADDR     — client-state Redis; empty starts an embedded miniredis
//	DEMO_EMAIL     — login email (required)
//	DEMO_PASSWORD  — login password (required)
//	DEMO_PRODUCT   — product to buffer before login (default "abc123")
//
// Run:
//
//	go run ./cmd/shopsession-demo
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	shopsession "github.com/arhamlabs/shopsession"
	"github.com/arhamlabs/shopsession/backend"
)

func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("API_BASE_URL")
	email := os.Getenv("DEMO_EMAIL")
	password := os.Getenv("DEMO_PASSWORD")
	if baseURL == "" || email == "" || password == "" {
		log.Fatal("API_BASE_URL, DEMO_EMAIL, and DEMO_PASSWORD must be set")
	}

	product := os.Getenv("DEMO_PRODUCT")
	if product == "" {
		product = "abc123"
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatalf("failed to start embedded redis: %v", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		log.Printf("using embedded redis at %s", addr)
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	engine, err := shopsession.New().
		WithRedis(client).
		WithBackend(backend.New(baseURL, 10*time.Second)).
		WithAuditSink(shopsession.NewJSONWriterSink(os.Stderr)).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()

	if err := engine.AddPendingItem(ctx, product, 1); err != nil {
		log.Fatalf("buffer add: %v", err)
	}
	log.Printf("buffered %s x1 while anonymous (buffer now %d entries)",
		product, len(engine.PendingItems(ctx)))

	result, err := engine.Login(ctx, email, password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	log.Printf("logged in as %s (%s), redirect → %s",
		result.Session.Account.Email, result.Session.Account.Role, result.Destination)

	if cart := result.Session.Cart; cart != nil {
		out, _ := json.MarshalIndent(cart, "", "  ")
		fmt.Printf("server cart after reconciliation:\n%s\n", out)
	}
	log.Printf("pending buffer after reconciliation: %d entries", len(engine.PendingItems(ctx)))

	if err := engine.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}
	log.Print("logged out")
}

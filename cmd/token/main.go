// Command token mints a bearer token for local testing of the gateway.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/auth"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
)

func main() {
	tgid := flag.Int64("tgid", 0, "Telegram user id")
	role := flag.String("role", "", "Role: user or manager")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	// Fall back to environment variables
	if *tgid == 0 {
		if v := os.Getenv("TOKEN_TGID"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				log.Fatalf("Invalid TOKEN_TGID: %v", err)
			}
			*tgid = id
		}
	}
	if *role == "" {
		*role = os.Getenv("TOKEN_ROLE")
	}

	// Fall back to defaults
	if *role == "" {
		*role = enum.UserRoleUser
	}
	if *tgid <= 0 {
		log.Fatal("tgid is required (-tgid or TOKEN_TGID)")
	}
	if *role != enum.UserRoleUser && *role != enum.UserRoleManager {
		log.Fatalf("Unknown role %q", *role)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-in-production"
		log.Println("WARNING: Using the default JWT secret. Never do this outside local development!")
	}

	token, err := auth.GenerateToken(secret, *tgid, *role, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}

package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/your-org/storefront-api/internal/pkg/auth"
)

// Prints a bcrypt hash suitable for seeding a users row.
func main() {
	cost := flag.Int("cost", 12, "bcrypt cost")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run scripts/generate_password.go [-cost 12] <password>")
	}
	password := flag.Arg(0)

	passwords := auth.NewPasswordManager(*cost)
	hash, err := passwords.HashPassword(password)
	if err != nil {
		log.Fatal("Error generating hash: ", err)
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		log.Fatal("Hash verification failed: ", err)
	}

	fmt.Printf("Hash: %s\n", hash)
}

// cmd/devtoken/main.go
package main

import (
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/auth"
)

// devtoken mints an access token signed with the configured JWT secret, for
// calling the API from curl during local development.
func main() {
	userID := flag.Uint("user", 1, "user id")
	email := flag.String("email", "admin@example.com", "user email")
	admin := flag.Bool("admin", false, "issue an admin token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if cfg.IsProduction() {
		logrus.Fatal("Refusing to mint tokens in production")
	}

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(*userID, *email, *admin)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to generate token")
	}
	fmt.Println(token)
}

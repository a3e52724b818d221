// Command issue_token prints a bearer token for calling the import API locally.
package main

import (
	"flag"
	"fmt"
	"log"
	"site-inventory/internal/config"
	"site-inventory/internal/models"
	"site-inventory/internal/utils"
	"strings"
)

func main() {
	userID := flag.Int("user-id", 1, "actor user id")
	username := flag.String("username", "ops", "actor username")
	role := flag.String("role", "admin", "actor role")
	permissions := flag.String("permissions", "sites.import", "comma separated permissions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	actor := models.Actor{
		UserID:   *userID,
		Username: *username,
		Role:     *role,
	}
	for _, p := range strings.Split(*permissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			actor.Permissions = append(actor.Permissions, p)
		}
	}

	token, err := utils.GenerateAccessToken(actor, cfg.JWTSecret, cfg.JWTAccessExpire)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

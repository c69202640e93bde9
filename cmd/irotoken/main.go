// Command irotoken mints a bearer token for an investor relations officer,
// signed with the server's configured key.
package main

import (
	"flag"
	"fmt"
	"os"

	jwttoken "irdesk/internal/jwt_token"
	"irdesk/internal/platform/config"
)

func main() {
	configFile := flag.String("config", "", "optional config file")
	reviewer := flag.String("reviewer", "", "reviewer id recorded on audited decisions")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to auth.token_ttl")
	flag.Parse()

	if *reviewer == "" {
		fmt.Fprintln(os.Stderr, "irotoken: -reviewer is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "irotoken: %v\n", err)
		os.Exit(1)
	}
	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	token, err := svc.GenerateReviewerToken(*reviewer, lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "irotoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

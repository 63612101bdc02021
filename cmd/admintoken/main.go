// Command admintoken mints a bearer token for the wishlist admin API using
// the service's JWT_SECRET and JWT_TOKEN_EXPIRY.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/utafrali/wishlist/internal/auth"
	"github.com/utafrali/wishlist/internal/config"
	pkgconfig "github.com/utafrali/wishlist/pkg/config"
)

func main() {
	subject := flag.String("subject", "", "token subject, e.g. the operator's email (required)")
	role := flag.String("role", auth.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to JWT_TOKEN_EXPIRY")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "missing -subject")
		flag.Usage()
		os.Exit(2)
	}

	if err := pkgconfig.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	expiry := cfg.JWTTokenExpiry
	if *ttl > 0 {
		expiry = *ttl
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, expiry).GenerateToken(*subject, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Now().Add(expiry).UTC().Format(time.RFC3339))
}

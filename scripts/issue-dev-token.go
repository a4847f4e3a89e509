package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/userprov/userprov/internal/claims"
	"github.com/userprov/userprov/internal/metrics"
	"github.com/userprov/userprov/internal/repository"
	"github.com/userprov/userprov/internal/service"
)

type output struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Groups    []string  `json:"groups"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
}

type tokenRequest struct {
	Subject string
	Email   string
	Name    string
	Issuer  string
	Groups  []string
	Roles   []string
	TTL     time.Duration
}

func main() {
	var (
		secret      = flag.String("secret", os.Getenv("JWT_HMAC_SECRET"), "HS256 signing secret (JWT_HMAC_SECRET)")
		issuer      = flag.String("issuer", os.Getenv("JWT_ISSUER"), "Token issuer (JWT_ISSUER)")
		subject     = flag.String("sub", "", "Subject UUID; random when empty")
		email       = flag.String("email", "dev@userprov.local", "Email claim")
		name        = flag.String("name", "", "Name claim")
		groupsInput = flag.String("groups", "", "Comma-separated groups claim (e.g. admin,dev)")
		rolesInput  = flag.String("roles", "", "Comma-separated roles claim")
		ttl         = flag.Duration("ttl", time.Hour, "Token lifetime")
		provision   = flag.Bool("provision", false, "Also create the local user row (needs DATABASE_URL)")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_HMAC_SECRET is required")
		os.Exit(1)
	}

	if *subject == "" {
		*subject = uuid.NewString()
	}

	req := tokenRequest{
		Subject: *subject,
		Email:   *email,
		Name:    *name,
		Issuer:  *issuer,
		Groups:  splitList(*groupsInput),
		Roles:   splitList(*rolesInput),
		TTL:     *ttl,
	}

	now := time.Now().UTC()
	token, err := issueToken([]byte(*secret), req, now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if *provision {
		if err := provisionUser(*databaseURL, req); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	out := output{
		Subject:   req.Subject,
		Email:     req.Email,
		Groups:    req.Groups,
		Roles:     req.Roles,
		ExpiresAt: now.Add(req.TTL),
		Token:     token,
	}

	if err := writeOutput(os.Stdout, *format, out); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// issueToken signs an HS256 token the API accepts in hmac auth mode.
func issueToken(secret []byte, req tokenRequest, now time.Time) (string, error) {
	if _, err := uuid.Parse(req.Subject); err != nil {
		return "", fmt.Errorf("sub must be a UUID: %w", err)
	}
	if req.TTL <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", req.TTL)
	}

	mc := jwt.MapClaims{
		claims.ClaimSubject: req.Subject,
		"iat":               now.Unix(),
		"exp":               now.Add(req.TTL).Unix(),
		claims.ClaimGroups:  req.Groups,
		claims.ClaimRoles:   req.Roles,
	}
	if req.Issuer != "" {
		mc["iss"] = req.Issuer
	}
	if req.Email != "" {
		mc[claims.ClaimEmail] = req.Email
	}
	if req.Name != "" {
		mc[claims.ClaimName] = req.Name
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// provisionUser runs the same get-or-create path the API runs on first request.
func provisionUser(databaseURL string, req tokenRequest) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required with -provision")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, databaseURL, repository.PoolConfig{MaxConns: 1, MinConns: 0})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := service.NewProvisioningService(repo, logger, metrics.NewNoop())

	set := claims.New(claims.Claim{Type: claims.ClaimSubject, Value: req.Subject})
	if svc.GetOrProvision(ctx, set) == nil {
		return fmt.Errorf("provision user %s failed", req.Subject)
	}
	return nil
}

func writeOutput(w io.Writer, format string, out output) error {
	switch strings.ToLower(format) {
	case "plain":
		_, err := fmt.Fprintln(w, out.Token)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return fmt.Errorf("invalid format; use plain or json")
	}
}

func splitList(input string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(input, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

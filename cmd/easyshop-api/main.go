// ABOUTME: Entry point for the easyshop-api server
// ABOUTME: Provides serve, token, and health subcommands

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/easyshop/easyshop-api/internal/api"
	"github.com/easyshop/easyshop-api/internal/auth"
	"github.com/easyshop/easyshop-api/internal/config"
	"github.com/easyshop/easyshop-api/internal/content"
	"github.com/easyshop/easyshop-api/internal/llm"
	"github.com/easyshop/easyshop-api/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
                           _
  ___  __ _ ___ _   _ ___| |__   ___  _ __
 / _ \/ _' / __| | | / __| '_ \ / _ \| '_ \
|  __/ (_| \__ \ |_| \__ \ | | | (_) | |_) |
 \___|\__,_|___/\__, |___/_| |_|\___/| .__/
                |___/                |_|
`

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: easyshop-api <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                  Start the API server")
	fmt.Fprintln(w, "  token --sub USER_ID    Mint a development bearer token")
	fmt.Fprintln(w, "  health                 Check server health")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "token":
		err = runToken(os.Args[2:], os.Stdout)
	case "health":
		err = runHealth(ctx, os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, then the config file named by path or EASYSHOP_CONFIG.
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}
	if path == "" {
		path = os.Getenv("EASYSHOP_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to a YAML or TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if path != "" {
		green.Print("    ▶ ")
		fmt.Printf("Config:    %s\n", path)
	}
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", store.BackendFor(cfg.Database.URL))
	green.Print("    ▶ ")
	fmt.Printf("Models:    %s\n", strings.Join(modelNames(buildPolicy(cfg.LLM)), " → "))
	if cfg.UsesDevLLMKey() {
		yellow.Print("    ! ")
		fmt.Println("Using the development LLM key")
	}
	fmt.Println()

	if cfg.UsesDevLLMKey() {
		logger.Warn("EMERGENT_LLM_KEY not set, using development key")
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Identity.JWTSecret), cfg.Identity.Audience)
	if err != nil {
		st.Close()
		return fmt.Errorf("creating token verifier: %w", err)
	}

	client := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout)
	generator := content.NewGenerator(llm.NewFallback(client, buildPolicy(cfg.LLM)))

	srv, err := api.New(api.Options{
		Addr:      cfg.Server.HTTPAddr,
		AppName:   cfg.App.Name,
		Store:     st,
		Verifier:  verifier,
		Generator: generator,
		Logger:    logger,
	})
	if err != nil {
		st.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("starting easyshop-api",
		"http_addr", cfg.Server.HTTPAddr,
		"database", string(store.BackendFor(cfg.Database.URL)),
		"debug", cfg.App.Debug,
	)

	return srv.Run(ctx)
}

// buildPolicy orders the configured models primary first, skipping unnamed ones.
func buildPolicy(cfg config.LLMConfig) llm.Policy {
	var p llm.Policy
	for _, m := range []config.ModelConfig{cfg.Primary, cfg.Fallback} {
		if m.Name == "" {
			continue
		}
		p.Candidates = append(p.Candidates, llm.Model{Provider: m.Provider, Name: m.Name})
	}
	return p
}

func modelNames(p llm.Policy) []string {
	names := make([]string, 0, len(p.Candidates))
	for _, m := range p.Candidates {
		names = append(names, m.String())
	}
	return names
}

// runToken mints an HS256 token signed with the configured identity secret.
func runToken(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to a YAML or TOML config file")
	sub := fs.String("sub", "", "user id to put in the subject claim")
	email := fs.String("email", "", "email claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*sub) == "" {
		return fmt.Errorf("--sub flag is required")
	}
	if *ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Identity.JWTSecret), cfg.Identity.Audience)
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}
	tok, err := verifier.Generate(*sub, *email, *ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Fprintln(out, tok)
	return nil
}

func runHealth(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("health", pflag.ContinueOnError)
	addr := fs.String("addr", "", "server address (defaults to the configured http_addr)")
	ready := fs.Bool("ready", false, "check /health/ready instead of /health")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := *addr
	if target == "" {
		target = os.Getenv("HTTP_ADDR")
	}
	if target == "" {
		target = config.Default().Server.HTTPAddr
	}
	target = strings.Replace(target, "0.0.0.0", "127.0.0.1", 1)
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}

	path := "/health"
	if *ready {
		path = "/health/ready"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Fprintln(out, "healthy")
	return nil
}

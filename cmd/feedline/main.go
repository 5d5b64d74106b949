package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/feedline-io/feedline/internal/auth"
	"github.com/feedline-io/feedline/internal/client"
	"github.com/feedline-io/feedline/internal/config"
	httpapp "github.com/feedline-io/feedline/internal/http"
	"github.com/feedline-io/feedline/internal/rate"
	"github.com/feedline-io/feedline/internal/store/sqlite"
)

// Filled in by the linker, e.g.
// go build -ldflags "-X main.version=v0.3.0 -X main.commit=$(git rev-parse --short HEAD)".
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Printf("feedline %s (%s, built %s)\n", version, commit, buildTime)
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "register":
		cmdRegister(args)
	case "login":
		cmdLogin(args)
	case "post":
		cmdPost(args)
	case "comment":
		cmdComment(args)
	case "like":
		cmdLike(args)
	case "unlike":
		cmdUnlike(args)
	case "delete", "rm":
		cmdDelete(args)
	case "read", "list":
		cmdRead(args)
	case "status", "whoami":
		cmdStatus(args)
	case "use", "switch":
		cmdUse(args)
	case "accounts":
		cmdAccounts(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`feedline - A social feed of posts, comments, and likes

Usage: feedline <command> [options]

Quick Start:
  feedline register --email me@example.com --username me
  feedline post --title "Hello" --text "My first post"

Client Commands:
  register            Create an account and authenticate
  login               Re-authenticate (when token expires)
  post                Publish a new post
  comment             Comment on a post
  like                Like a post or comment
  unlike              Remove your like from a post or comment
  delete              Delete your own post
  read                Browse posts, or view one post with comments
  status              Show current account and token
  accounts            List saved accounts
  use <name>          Switch to a different account

Server:
  server              Start the Feedline server (default if no command)

Examples:
  feedline register --email me@example.com --username me
  feedline post --title "Interesting read" --text "Some thoughts..."
  feedline comment --post <id> --text "Nice one!"
  feedline like --post <id>
  feedline read --take 10
  feedline read --post <id>                        # View post with comments

Environment Variables (server):
  FEEDLINE_ADDR                Listen address (default: :8080)
  FEEDLINE_DB                  Database path (default: feedline.db)
  FEEDLINE_JWT_SECRET          Secret for signing access tokens
  FEEDLINE_TOKEN_TTL           Token lifetime (default: 1h)
  FEEDLINE_RL_POST_PER_MIN     Post creations per user per minute
  FEEDLINE_RL_COMMENT_PER_MIN  Comment creations per user per minute
  FEEDLINE_RL_LIKE_PER_MIN     Like/unlike calls per user per minute`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Load()
	cfg.Version = version
	cfg.Commit = commit
	cfg.BuildTime = buildTime

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open db")
	}
	defer store.Close()

	limiter := rate.NewMemory()
	authSvc := auth.NewService(store, []byte(cfg.JWTSecret), cfg.TokenTTL)

	server := httpapp.NewServer(store, authSvc, limiter, cfg, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("version", version).Msg("feedline listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Email address (required)")
	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "Password (prompted from FEEDLINE_PASSWORD if empty)")
	url := fs.String("url", "http://localhost:8080", "Feedline server URL")
	fs.Parse(args)

	if *email == "" || *username == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --username are required")
		os.Exit(1)
	}

	pw := *password
	if pw == "" {
		pw = os.Getenv("FEEDLINE_PASSWORD")
	}
	if pw == "" {
		fmt.Fprintln(os.Stderr, "Error: provide --password or set FEEDLINE_PASSWORD")
		os.Exit(1)
	}

	c := client.New(strings.TrimSuffix(*url, "/"))
	user, err := c.Register(*email, *username, pw)
	if errors.Is(err, client.ErrAlreadyRegistered) {
		fmt.Fprintf(os.Stderr, "Error: %q is already registered, use 'feedline login'\n", *email)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := CLIConfig{
		BaseURL:  strings.TrimSuffix(*url, "/"),
		Username: user.Username,
		Email:    user.Email,
		Token:    c.Token,
	}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Registered '%s' (%s)\n", user.Username, user.ID)
	fmt.Printf("  Config: %s\n", accountConfigPath(user.Username))
	fmt.Println("\nReady to post! Example:")
	fmt.Println("  feedline post --title \"Hello Feedline\" --text \"My first post\"")
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	password := fs.String("password", "", "Password (FEEDLINE_PASSWORD if empty)")
	fs.Parse(args)

	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\nRun 'feedline register' first\n", err)
		os.Exit(1)
	}

	pw := *password
	if pw == "" {
		pw = os.Getenv("FEEDLINE_PASSWORD")
	}
	if pw == "" {
		fmt.Fprintln(os.Stderr, "Error: provide --password or set FEEDLINE_PASSWORD")
		os.Exit(1)
	}

	c := client.New(cfg.BaseURL)
	if err := c.Login(cfg.Email, pw); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg.Token = c.Token
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Logged in as '%s'\n", cfg.Username)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	title := fs.String("title", "", "Post title (required, 1-180 chars)")
	text := fs.String("text", "", "Post body")
	fs.Parse(args)

	if *title == "" {
		fmt.Fprintln(os.Stderr, "Error: --title is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	post, err := c.CreatePost(*title, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Posted: %s\n", post.Title)
	fmt.Printf("  ID: %s\n", post.ID)
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	text := fs.String("text", "", "Comment text (required)")
	fs.Parse(args)

	if *postID == "" || *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --post and --text are required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	comment, err := c.CreateComment(*postID, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Commented on post %s\n", *postID)
	fmt.Printf("  ID: %s\n", comment.ID)
}

func cmdLike(args []string) {
	postID, commentID := parseTargetFlags("like", args)

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if postID != "" {
		post, err := c.LikePost(postID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Liked post %s (%d likes)\n", post.ID, post.LikesCount)
		return
	}

	comment, err := c.LikeComment(commentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Liked comment %s (%d likes)\n", comment.ID, comment.LikesCount)
}

func cmdUnlike(args []string) {
	postID, commentID := parseTargetFlags("unlike", args)

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if postID != "" {
		post, err := c.UnlikePost(postID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Unliked post %s (%d likes)\n", post.ID, post.LikesCount)
		return
	}

	comment, err := c.UnlikeComment(commentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Unliked comment %s (%d likes)\n", comment.ID, comment.LikesCount)
}

func parseTargetFlags(name string, args []string) (postID, commentID string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	post := fs.String("post", "", "Post ID")
	comment := fs.String("comment", "", "Comment ID")
	fs.Parse(args)

	if (*post == "" && *comment == "") || (*post != "" && *comment != "") {
		fmt.Fprintln(os.Stderr, "Error: provide exactly one of --post or --comment")
		os.Exit(1)
	}
	return *post, *comment
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID to delete")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		fmt.Fprintln(os.Stderr, "Usage: feedline delete --post <id>")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := c.DeletePost(*postID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Deleted post %s\n", *postID)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	skip := fs.Int("skip", 0, "Posts to skip")
	take := fs.Int("take", 10, "Number of posts")
	postID := fs.String("post", "", "Get a specific post with comments")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := client.New(baseURL)

	if *postID != "" {
		post, err := c.GetPost(*postID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", post.Title)
		author := "unknown"
		if post.Author != nil {
			author = post.Author.Username
		}
		fmt.Printf("  Likes: %d | Author: %s\n", post.LikesCount, author)
		if post.Description != "" {
			fmt.Printf("\n  %s\n", post.Description)
		}

		comments, total, err := c.GetPostComments(post.ID, 0, 50)
		if err == nil && total > 0 {
			fmt.Printf("\n  --- Comments (%d) ---\n", total)
			for _, comment := range comments {
				who := comment.AuthorID
				if comment.Author != nil {
					who = comment.Author.Username
				}
				fmt.Printf("  [%s] %s: %s\n", comment.ID, who, comment.Text)
			}
		}
		return
	}

	posts, total, err := c.ListPosts(*skip, *take)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n📣 Feedline (%d posts)\n\n", total)
	for i, p := range posts {
		author := p.AuthorID
		if p.Author != nil {
			author = p.Author.Username
		}
		fmt.Printf("%d. %s\n", *skip+i+1, p.Title)
		fmt.Printf("   %d likes | by %s | %s\n\n", p.LikesCount, author, p.ID)
	}
}

func cmdStatus(args []string) {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Println("Status: Not registered")
		fmt.Println("\nRun: feedline register --email <email> --username <name>")
		return
	}

	fmt.Printf("Account: %s <%s>\n", cfg.Username, cfg.Email)
	fmt.Printf("Server:  %s\n", cfg.BaseURL)

	if cfg.Token == "" {
		fmt.Println("Token:   Not authenticated")
		fmt.Println("\nRun: feedline login")
	} else {
		fmt.Println("Token:   Present (tokens expire after 1h; run 'feedline login' if rejected)")
	}
}

func cmdUse(args []string) {
	if len(args) == 0 {
		current := getCurrentAccount()
		if current == "" {
			fmt.Println("No account selected")
		} else {
			fmt.Printf("Current account: %s\n", current)
		}
		fmt.Println("\nUsage: feedline use <username>")
		fmt.Println("Run 'feedline accounts' to see saved accounts")
		return
	}

	name := args[0]
	configPath := accountConfigPath(name)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: account '%s' not found\n", name)
		fmt.Fprintln(os.Stderr, "Run 'feedline accounts' to see saved accounts")
		os.Exit(1)
	}

	if err := setCurrentAccount(name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Switched to '%s'\n", name)
}

func cmdAccounts(args []string) {
	accounts, err := listAccounts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(accounts) == 0 {
		fmt.Println("No accounts saved")
		fmt.Println("\nRun: feedline register --email <email> --username <name>")
		return
	}

	current := getCurrentAccount()
	fmt.Println("Saved accounts:")
	for _, name := range accounts {
		if name == current {
			fmt.Printf("  * %s (current)\n", name)
		} else {
			fmt.Printf("    %s\n", name)
		}
	}
	fmt.Println("\nSwitch with: feedline use <username>")
}

// ============================================================================
// HELPERS
// ============================================================================

func feedlineDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".feedline")
}

func currentAccountPath() string {
	return filepath.Join(feedlineDir(), "current")
}

func accountConfigPath(name string) string {
	return filepath.Join(feedlineDir(), "accounts", name, "config.json")
}

func getCurrentAccount() string {
	data, err := os.ReadFile(currentAccountPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func setCurrentAccount(name string) error {
	if err := os.MkdirAll(feedlineDir(), 0700); err != nil {
		return err
	}
	return os.WriteFile(currentAccountPath(), []byte(name), 0600)
}

func listAccounts() ([]string, error) {
	accountsDir := filepath.Join(feedlineDir(), "accounts")
	entries, err := os.ReadDir(accountsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var accounts []string
	for _, e := range entries {
		if e.IsDir() {
			if _, err := os.Stat(filepath.Join(accountsDir, e.Name(), "config.json")); err == nil {
				accounts = append(accounts, e.Name())
			}
		}
	}
	return accounts, nil
}

func loadCLIConfig() (CLIConfig, error) {
	current := getCurrentAccount()
	if current == "" {
		return CLIConfig{}, errors.New("no account selected - run 'feedline register' or 'feedline use <name>'")
	}
	data, err := os.ReadFile(accountConfigPath(current))
	if err != nil {
		return CLIConfig{}, errors.New("not registered")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	path := accountConfigPath(cfg.Username)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	return setCurrentAccount(cfg.Username)
}

func loadAuthenticatedClient() (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, errors.New("not authenticated - run 'feedline login'")
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	return c, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/posts"
	"inkwell/internal/users"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "user":
		userCmd(os.Args[2:])
	case "posts":
		postsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println(`iwctl - inkwell admin CLI

Usage:
  iwctl user create <username> [-display "<name>"] [-role reader|author|admin] [-config config.yaml] [-db postgres://...]
  iwctl posts seed -file seed.yaml [-config config.yaml] [-db postgres://...]

Examples:
  iwctl user create alice
  iwctl user create bob -display "Bob Builder" -role author -config ./config.yaml
  iwctl posts seed -file ./seed.yaml`)
}

func userCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "create":
		userCreate(args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func userCreate(args []string) {
	fs := flag.NewFlagSet("user create", flag.ExitOnError)
	var (
		cfgPath     = fs.String("config", "config.yaml", "path to config file")
		dbOverride  = fs.String("db", "", "override database connection URL")
		displayName = fs.String("display", "", "display name (default: username)")
		role        = fs.String("role", users.RoleReader, "role: reader|author|admin")
	)
	_ = fs.Parse(reorderArgs(args))

	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Println("missing <username>")
		fmt.Println()
		usage()
		os.Exit(2)
	}
	username := strings.TrimSpace(rest[0])
	if username == "" {
		fmt.Println("username cannot be empty")
		os.Exit(2)
	}
	if *displayName == "" {
		*displayName = username
	}
	if !users.ValidRole(*role) {
		fmt.Println("invalid role; must be one of: reader|author|admin")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	auth.Configure(cfg.Security.JWTSecret, cfg.Security.SessionTTLHours)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	pool := connect(ctx, cfg, *dbOverride)
	defer pool.Close()

	pw := promptPassword("Password: ")
	pw2 := promptPassword("Confirm password: ")
	if pw != pw2 {
		fmt.Println("passwords do not match")
		os.Exit(1)
	}
	if len(pw) < 8 {
		fmt.Println("password too short (min 8 chars)")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	repo := users.NewRepository(pool)
	id, err := repo.Create(ctx, username, *displayName, hash, *role)
	if errors.Is(err, users.ErrUsernameTaken) {
		log.Fatalf("create user: username %q already exists", username)
	}
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("ok: user created\n  id: %s\n  username: %s\n  role: %s\n", id, username, *role)
}

func postsCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "seed":
		postsSeed(args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

// seedFile is the YAML layout consumed by `iwctl posts seed`.
type seedFile struct {
	Posts []seedPost `yaml:"posts"`
}

type seedPost struct {
	Title         string   `yaml:"title"`
	Body          string   `yaml:"body"`
	Tags          []string `yaml:"tags"`
	AllowComments bool     `yaml:"allow_comments"`
	Pinned        bool     `yaml:"pinned"`
	Author        string   `yaml:"author"`
}

func postsSeed(args []string) {
	fs := flag.NewFlagSet("posts seed", flag.ExitOnError)
	var (
		cfgPath    = fs.String("config", "config.yaml", "path to config file")
		dbOverride = fs.String("db", "", "override database connection URL")
		file       = fs.String("file", "seed.yaml", "path to seed file")
	)
	_ = fs.Parse(reorderArgs(args))

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("seed file: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("seed file: %v", err)
	}
	if len(seed.Posts) == 0 {
		log.Fatalf("seed file %s has no posts", *file)
	}
	for i, p := range seed.Posts {
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Body) == "" {
			log.Fatalf("seed post %d: title and body are required", i+1)
		}
		if strings.TrimSpace(p.Author) == "" {
			log.Fatalf("seed post %d (%q): author is required", i+1, p.Title)
		}
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	pool := connect(ctx, cfg, *dbOverride)
	defer pool.Close()

	n, err := insertSeedPosts(ctx, pool, seed.Posts)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("ok: seeded %d post(s)\n", n)
}

// insertSeedPosts writes all posts in one transaction so a partial seed
// never reaches the database.
func insertSeedPosts(ctx context.Context, pool *pgxpool.Pool, list []seedPost) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	authorIDs := make(map[string]string)
	for _, p := range list {
		if _, ok := authorIDs[p.Author]; ok {
			continue
		}
		var id string
		err := tx.QueryRow(ctx, `select id from users where username = $1`, p.Author).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("author %q not found; create the user first", p.Author)
		}
		if err != nil {
			return 0, err
		}
		authorIDs[p.Author] = id
	}

	for _, p := range list {
		_, err := tx.Exec(ctx, `
			insert into posts (author_id, slug, title, body, tags, allow_comments, pinned)
			values ($1, $2, $3, $4, $5, $6, $7)
		`, authorIDs[p.Author], posts.Slugify(p.Title), p.Title, p.Body, p.Tags, p.AllowComments, p.Pinned)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return 0, fmt.Errorf("post %q: slug already exists", p.Title)
			}
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(list), nil
}

func connect(ctx context.Context, cfg *config.Config, override string) *pgxpool.Pool {
	appURL := strings.TrimSpace(override)
	if appURL == "" {
		var err error
		appURL, err = cfg.Database.AppURL()
		if err != nil {
			log.Fatalf("db url: %v", err)
		}
	}
	pool, err := db.NewPool(ctx, appURL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return pool
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	return strings.TrimSpace(string(b))
}

func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg != "-" && arg != "--" && arg[0] == '-' {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"socialmedia/internal/app"
	"socialmedia/internal/auth"
	"socialmedia/internal/config"
	"socialmedia/internal/store"

	"golang.org/x/term"
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
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println(`smctl - social media admin CLI

Usage:
  smctl user create <username> [-email addr] [-admin] [-config config.yaml] [-db dsn]
  smctl user promote <username>                    [-config config.yaml] [-db dsn]
  smctl user demote <username>                     [-config config.yaml] [-db dsn]
  smctl user list                                  [-config config.yaml] [-db dsn]

-db overrides the sqlite file path or the postgres connection URL.

Examples:
  smctl user create alice -email alice@example.com
  smctl user create bob -admin -config ./config.yaml
  smctl user promote alice
  smctl user list -db ./social_media.db`)
}

func userCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "create":
		userCreate(args[1:])
	case "promote":
		userSetAdmin(args[1:], true)
	case "demote":
		userSetAdmin(args[1:], false)
	case "list":
		userList(args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

type commonFlags struct {
	cfgPath    *string
	dbOverride *string
}

func newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, commonFlags{
		cfgPath:    fs.String("config", "config.yaml", "path to config file"),
		dbOverride: fs.String("db", "", "override database path or connection URL"),
	}
}

// openStore loads config and opens the store. A missing config file is
// tolerated so the CLI works against the default sqlite database.
func openStore(ctx context.Context, cf commonFlags) store.Store {
	cfg, err := config.Load(*cf.cfgPath)
	if err != nil {
		if cfg == nil || !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("config: %v", err)
		}
	}
	auth.SetSecret(cfg.Security.JWTSecret)

	st, err := app.OpenStore(ctx, cfg, *cf.dbOverride, false)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return st
}

func userCreate(args []string) {
	fs, cf := newFlagSet("user create")
	var (
		email = fs.String("email", "", "email address (default: <username>@localhost)")
		admin = fs.Bool("admin", false, "grant admin rights")
	)
	_ = fs.Parse(reorderArgs(fs, args))

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
	if *email == "" {
		*email = username + "@localhost"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	st := openStore(ctx, cf)
	defer st.Close()

	pw := promptPassword("Password: ")
	pw2 := promptPassword("Confirm password: ")
	if pw != pw2 {
		fmt.Println("passwords do not match")
		os.Exit(1)
	}
	if len(pw) < 6 {
		fmt.Println("password too short (min 6 chars)")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	u, err := st.CreateUser(ctx, store.NewUser{
		Username:     username,
		Email:        *email,
		PasswordHash: hash,
		IsAdmin:      *admin,
	})
	if errors.Is(err, store.ErrDuplicate) {
		log.Fatalf("create user: username %q or email %q already exists", username, *email)
	}
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("ok: user created\n  id: %d\n  username: %s\n  email: %s\n  admin: %t\n", u.ID, u.Username, u.Email, u.IsAdmin)
}

func userSetAdmin(args []string, admin bool) {
	name := "user demote"
	if admin {
		name = "user promote"
	}
	fs, cf := newFlagSet(name)
	_ = fs.Parse(reorderArgs(fs, args))

	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Printf("usage: smctl %s <username> [-config config.yaml]\n", name)
		os.Exit(2)
	}
	username := strings.TrimSpace(rest[0])

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	st := openStore(ctx, cf)
	defer st.Close()

	err := st.SetAdmin(ctx, username, admin)
	if errors.Is(err, store.ErrNotFound) {
		log.Fatalf("%s: user %q not found", name, username)
	}
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	fmt.Printf("ok: %s admin=%t\n", username, admin)
}

func userList(args []string) {
	fs, cf := newFlagSet("user list")
	_ = fs.Parse(reorderArgs(fs, args))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	st := openStore(ctx, cf)
	defer st.Close()

	users, err := st.ListUsers(ctx)
	if err != nil {
		log.Fatalf("list users: %v", err)
	}
	if err := printUsers(os.Stdout, users); err != nil {
		log.Fatalf("list users: %v", err)
	}
}

func printUsers(w io.Writer, users []store.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tADMIN\tJOINED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Email, u.IsAdmin, u.CreatedAt.UTC().Format("2006-01-02"))
	}
	return tw.Flush()
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

// reorderArgs moves flags ahead of positional arguments so that
// "create alice -admin" parses like "create -admin alice".
// Boolean flags registered on fs never consume the following argument.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	var flags []string
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg != "-" && arg != "--" && arg[0] == '-' {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && !isBoolFlag(fs, arg) && i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

func isBoolFlag(fs *flag.FlagSet, arg string) bool {
	f := fs.Lookup(strings.TrimLeft(arg, "-"))
	if f == nil {
		return false
	}
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

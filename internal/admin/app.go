package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/memberservice/internal/flagx"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"golang.org/x/term"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type UserCreator interface {
	Create(ctx context.Context, u *models.User, password string) (*models.User, error)
}

// MigrateFunc applies pending schema migrations.
type MigrateFunc func(ctx context.Context) error

type App struct {
	out     io.Writer
	migrate MigrateFunc
	users   UserCreator
}

func NewApp(out io.Writer, migrate MigrateFunc, users UserCreator) *App {
	return &App{out: out, migrate: migrate, users: users}
}

// Run executes the command named by args[0] with the remaining arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUnknownCommand
	}

	switch args[0] {
	case "migrate":
		return a.runMigrate(ctx)
	case "create-user":
		return a.runCreateUser(ctx, args[1:])
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Commands:")
	fmt.Fprintln(a.out, "  migrate       apply pending database migrations")
	fmt.Fprintln(a.out, "  create-user   create a user with a given role")
}

func (a *App) runMigrate(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(a.out, "Migrations applied")
	return nil
}

type createUserArgs struct {
	username   string
	email      string
	name       string
	screenname string
	role       string
	membership string
}

var createUserFlags = []string{"-username", "-email", "-name", "-screenname", "-role", "-membership"}

func parseCreateUser(args []string) (*createUserArgs, error) {
	c := &createUserArgs{}

	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.username, "username", "", "login name")
	fs.StringVar(&c.email, "email", "", "email address")
	fs.StringVar(&c.name, "name", "", "full name")
	fs.StringVar(&c.screenname, "screenname", "", "display name, defaults to username")
	fs.StringVar(&c.role, "role", string(models.RoleUser), "role")
	fs.StringVar(&c.membership, "membership", models.MembershipNonMember, "membership")

	if err := fs.Parse(flagx.FilterArgs(args, createUserFlags)); err != nil {
		return nil, err
	}

	var missing []string
	if c.username == "" {
		missing = append(missing, "username")
	}
	if c.email == "" {
		missing = append(missing, "email")
	}
	if c.name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	if !models.Role(c.role).Valid() {
		return nil, fmt.Errorf("invalid role %q", c.role)
	}
	if c.screenname == "" {
		c.screenname = c.username
	}
	return c, nil
}

// promptPassword reads the password twice and requires both reads to match.
func (a *App) promptPassword() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}

	fmt.Fprint(a.out, "Repeat password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}

	if len(first) == 0 {
		return "", errors.New("empty password")
	}
	if string(first) != string(second) {
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}

func (a *App) runCreateUser(ctx context.Context, args []string) error {
	c, err := parseCreateUser(args)
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}

	password, err := a.promptPassword()
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}

	u, err := a.users.Create(ctx, &models.User{
		Username:   c.username,
		Email:      c.email,
		Name:       c.name,
		Screenname: c.screenname,
		Role:       models.Role(c.role),
		Membership: c.membership,
	}, password)
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}

	fmt.Fprintf(a.out, "Created user %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
	return nil
}

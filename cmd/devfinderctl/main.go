package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashisharjun12/devfinder-final/internal/authz"
	"github.com/Ashisharjun12/devfinder-final/internal/config"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
	"github.com/Ashisharjun12/devfinder-final/internal/repo"
	"github.com/Ashisharjun12/devfinder-final/internal/security"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "devfinderctl",
	Short: "DevFinder operations",
	PersistentPreRun: func(*cobra.Command, []string) {
		cfg = config.Load()
	},
	SilenceUsage: true,
}

func connect(ctx context.Context) (*repo.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close(context.Background())
		if err := store.EnsureIndexes(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "indexes ok")
		return nil
	},
}

type seedProject struct {
	owner string
	in    project.CreateInput
}

var seedUsers = []struct{ email, name string }{
	{"ada@example.com", "Ada"},
	{"linus@example.com", "Linus"},
	{"grace@example.com", "Grace"},
}

var seedProjects = []seedProject{
	{"ada@example.com", project.CreateInput{
		Title:          "Open source analytics",
		Description:    "Privacy friendly page analytics with a small Go backend.",
		RequiredSkills: []string{"Go", "React", "PostgreSQL"},
		GithubURL:      "https://github.com/example/analytics",
	}},
	{"linus@example.com", project.CreateInput{
		Title:          "Hackathon team finder",
		Description:    "Match students into hackathon teams by skills.",
		RequiredSkills: []string{"Next.js", "MongoDB"},
		Stage:          "IN_PROGRESS",
	}},
	{"grace@example.com", project.CreateInput{
		Title:          "Compiler playground",
		Description:    "Browser playground for a toy language.",
		RequiredSkills: []string{"Rust", "WebAssembly"},
	}},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create sample users and projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		store, err := connect(ctx)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		enf, err := authz.NewEnforcer()
		if err != nil {
			return err
		}
		svc := project.NewService(store, store, enf)

		ids := map[string]project.Principal{}
		for _, u := range seedUsers {
			usr, err := store.UpsertOAuthUser(ctx, u.email, u.name, "")
			if err != nil {
				return err
			}
			ids[u.email] = project.Principal{UID: usr.ID, Email: usr.Email}
		}
		for _, sp := range seedProjects {
			p, err := svc.Create(ctx, ids[sp.owner], sp.in)
			if err != nil {
				return fmt.Errorf("seed %q: %w", sp.in.Title, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", p.ID.Hex(), p.Title)
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a session token for a user, creating the user if needed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		store, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		u, err := store.UpsertOAuthUser(cmd.Context(), email, name, "")
		if err != nil {
			return err
		}
		tok, err := security.MakeSession(cfg.JWTSecret, u.ID.Hex(), u.Email, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("email", "", "user email")
	tokenCmd.Flags().String("name", "", "display name for a new user")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(indexesCmd, seedCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"artsync/internal/app"
	"artsync/internal/artsync"
	"artsync/internal/config"
	"artsync/internal/encryption"
	"artsync/internal/httpserver"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Sync", "SetEndpoint").
func newApp(operation string) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// scopeFromFlags builds the scope selected by --scope on behalf of --as.
func scopeFromFlags(cmd *cobra.Command) (artsync.Scope, error) {
	raw, _ := cmd.Flags().GetString("scope")
	principal, _ := cmd.Flags().GetString("as")
	return artsync.ParseScope(raw, principal)
}

var rootCmd = &cobra.Command{
	Use:          "artsync",
	Short:        "Publish a content library to a git repository",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Next: artsync keys init && artsync db migrate")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		apiURL := cfg.Provider.APIURL
		if apiURL == "" {
			apiURL = "(default)"
		}
		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:         %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:          %s\n", cfg.LogDir)
		fmt.Printf("Database:         %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Encryption:       %s %s\n", cfg.Encryption.Type, cfg.Encryption.IdentityPath)
		fmt.Printf("Provider:         %s %s\n", cfg.Provider.Type, apiURL)
		fmt.Printf("Blob Concurrency: %d\n", cfg.Sync.BlobConcurrency)
		fmt.Printf("Skip Unchanged:   %t\n", cfg.Sync.SkipUnchanged)
		fmt.Printf("Server:           %s (principal header %s)\n", cfg.Server.Addr, cfg.Server.PrincipalHeader)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the token encryption key",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key used to seal access tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sealer, err := encryption.NewSealerFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if err := sealer.Setup(); err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		fmt.Printf("Key written to %s. Back it up: stored tokens cannot be read without it.\n", cfg.Encryption.IdentityPath)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := app.Migrate(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Database at schema version %d\n", st.Version)
		return nil
	},
}

// profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profiles",
}

var profileAddCmd = &cobra.Command{
	Use:   "add USER_ID [DISPLAY_NAME]",
	Short: "Create a user profile",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddProfile")
		if err != nil {
			return err
		}
		defer a.Close()

		name := args[0]
		if len(args) > 1 {
			name = args[1]
		}
		if err := a.AddProfile(cmd.Context(), args[0], name); err != nil {
			return err
		}
		fmt.Printf("Created profile %s\n", args[0])
		return nil
	},
}

// team command
var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage teams",
}

var teamAddCmd = &cobra.Command{
	Use:   "add TEAM_ID NAME",
	Short: "Create a team with you as its admin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		principal, _ := cmd.Flags().GetString("as")
		if principal == "" {
			return errors.New("no principal: pass --as or set ARTSYNC_USER")
		}

		a, err := newApp("AddTeam")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddTeam(cmd.Context(), args[0], args[1], principal); err != nil {
			return err
		}
		fmt.Printf("Created team %s with admin %s\n", args[0], principal)
		return nil
	},
}

var teamAddMemberCmd = &cobra.Command{
	Use:   "add-member TEAM_ID USER_ID",
	Short: "Add a user to a team you administer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		principal, _ := cmd.Flags().GetString("as")
		role, _ := cmd.Flags().GetString("role")
		scope, err := artsync.ParseScope("team:"+args[0], principal)
		if err != nil {
			return err
		}

		a, err := newApp("AddTeamMember")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddTeamMember(cmd.Context(), scope, args[1], role); err != nil {
			return err
		}
		fmt.Printf("Added %s to %s as %s\n", args[1], args[0], role)
		return nil
	},
}

// endpoint command
var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Manage the repository a scope syncs to",
}

var endpointSetCmd = &cobra.Command{
	Use:   "set OWNER/NAME",
	Short: "Set the sync repository, branch and folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}
		branch, _ := cmd.Flags().GetString("branch")
		folder, _ := cmd.Flags().GetString("folder")
		keepToken, _ := cmd.Flags().GetBool("keep-token")

		var token artsync.Secret
		if !keepToken {
			token, err = readToken()
			if err != nil {
				return err
			}
		}

		a, err := newApp("SetEndpoint")
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.SetEndpoint(cmd.Context(), scope, artsync.EndpointInput{
			Token:      token,
			Repository: args[0],
			Branch:     branch,
			Folder:     folder,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Sync target for %s set to %s\n", scope, args[0])
		return nil
	},
}

// readToken prompts for the access token without echo. Non-terminal input
// is read as a single line so the token can be piped in.
func readToken() (artsync.Secret, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("reading token from stdin: %w", err)
		}
		return artsync.Secret(strings.TrimSpace(line)), nil
	}

	fmt.Fprint(os.Stderr, "Access token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("no token entered (use --keep-token to keep the stored one)")
	}
	return artsync.Secret(token), nil
}

var endpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the sync target",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newApp("ShowEndpoint")
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.ShowEndpoint(cmd.Context(), scope)
		if err != nil {
			return err
		}

		repo, folder, token, synced := v.Repository, v.Folder, "not set", "never"
		if repo == "" {
			repo = "(not set)"
		}
		if folder == "" {
			folder = "(root)"
		}
		if v.TokenSet {
			token = "set"
		}
		if !v.LastSyncedAt.IsZero() {
			synced = v.LastSyncedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Printf("Scope:       %s\n", v.Scope)
		fmt.Printf("Repository:  %s\n", repo)
		fmt.Printf("Branch:      %s\n", v.Branch)
		fmt.Printf("Folder:      %s\n", folder)
		fmt.Printf("Token:       %s\n", token)
		fmt.Printf("Last synced: %s\n", synced)
		return nil
	},
}

var endpointTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the sync target is reachable and writable",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newApp("TestConnection")
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.TestConnection(cmd.Context(), scope)
		if err != nil {
			return err
		}
		fmt.Printf("Connected to %s (default branch %s)\n", info.FullName, info.DefaultBranch)
		return nil
	},
}

// records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage library records",
}

var recordsImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import prompts, skills and workflows from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()

		a, err := newApp("ImportRecords")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ImportRecords(cmd.Context(), scope, f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d record(s) for %s\n", n, scope)
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publish the scope's records as one commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Sync(cmd.Context(), scope)
		if err != nil {
			return fmt.Errorf("sync failed (%s): %w", app.ErrorKind(err), err)
		}

		switch {
		case res.NoOp:
			fmt.Println("No artefacts to sync.")
		case res.Unchanged:
			fmt.Printf("Repository already up to date at %s\n", shortHash(res.CommitHash))
		default:
			fmt.Printf("Synced %d file(s) in commit %s\n", res.FilesUpdated, shortHash(res.CommitHash))
		}
		return nil
	},
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No sync runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.Finished() {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			detail := r.Message
			if r.Status == artsync.RunStatusSuccess && r.CommitHash != "" {
				detail = fmt.Sprintf("%d file(s) %s", r.FilesUpdated, shortHash(r.CommitHash))
			}
			fmt.Printf("#%d  %-28s  %s  %-8s  %-8s  %s\n",
				r.ID,
				r.Scope,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
				detail,
			)
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sync trigger over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.NewApp(cfg, "Serve")
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		addr := cfg.Server.Addr
		if flag, _ := cmd.Flags().GetString("addr"); flag != "" {
			addr = flag
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := httpserver.NewServer(addr, cfg.Server.PrincipalHeader, a, a.Logger())
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().String("as", defaultPrincipal(), "User ID to act as")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	profileCmd.AddCommand(profileAddCmd)

	teamCmd.AddCommand(teamAddCmd)
	teamCmd.AddCommand(teamAddMemberCmd)
	teamAddMemberCmd.Flags().String("role", artsync.RoleMember, "Role of the new member (admin or member)")

	// commands that act on a scope
	for _, c := range []*cobra.Command{endpointSetCmd, endpointShowCmd, endpointTestCmd, recordsImportCmd, syncCmd} {
		c.Flags().StringP("scope", "s", "personal", `Scope: "personal" or "team:<id>"`)
	}
	endpointCmd.AddCommand(endpointSetCmd)
	endpointCmd.AddCommand(endpointShowCmd)
	endpointCmd.AddCommand(endpointTestCmd)
	endpointSetCmd.Flags().StringP("branch", "b", "", "Branch to publish to (default main)")
	endpointSetCmd.Flags().StringP("folder", "f", "", "Folder inside the repository (default root)")
	endpointSetCmd.Flags().Bool("keep-token", false, "Keep the stored access token")

	recordsCmd.AddCommand(recordsImportCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(endpointCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func defaultPrincipal() string {
	defaults, err := app.GetDefaults()
	if err != nil {
		return ""
	}
	return defaults["principal"]
}

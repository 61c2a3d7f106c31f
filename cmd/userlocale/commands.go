package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pitabwire/util"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"gocloud.dev/secrets/localsecrets"

	"github.com/pitabwire/userlocale"
	"github.com/pitabwire/userlocale/config"
	"github.com/pitabwire/userlocale/locale"
	"github.com/pitabwire/userlocale/localization"
	"github.com/pitabwire/userlocale/version"
)

const (
	appDirName      = "userlocale"
	storeFileName   = "preferences.db"
	keeperKeyFile   = "keeper.key"
	configFileName  = "config.yaml"
	privateDirMode  = 0o700
	privateFileMode = 0o600
)

type app struct {
	configPath string
	storeURI   string
	language   string
	asJSON     bool
	watchPaths []string
	generateID bool
}

var builtinLanguages = []string{"en", "fr", "sw"}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "userlocale",
		Short:         "Inspect and edit the locale preferences of the current user",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file (default <user config dir>/userlocale/config.yaml)")
	root.PersistentFlags().StringVar(&a.storeURI, "store", "", "preferences store URI, overrides PREFERENCES_STORE_URI")
	root.PersistentFlags().StringVar(&a.language, "lang", "", "language for command output, defaults to the effective language")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current preferences",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, _ []string) error {
			return a.printSnapshot(ctx, cmd.OutOrStdout(), r)
		}),
	}
	show.Flags().BoolVar(&a.asJSON, "json", false, "print JSON")

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Detect language and country from the system again",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, _ []string) error {
			r.Refresh(ctx)
			return a.printSnapshot(ctx, cmd.OutOrStdout(), r)
		}),
	}

	setLanguage := &cobra.Command{
		Use:   "set-language [code]",
		Short: "Override the detected language, or remove the override when no code is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, args []string) error {
			r.SetCustomLanguage(ctx, normaliseCode(args))
			return a.printSnapshot(ctx, cmd.OutOrStdout(), r)
		}),
	}

	setCountry := &cobra.Command{
		Use:   "set-country [code]",
		Short: "Override the detected country, or remove the override when no code is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, args []string) error {
			r.SetCustomCountry(ctx, normaliseCode(args))
			return a.printSnapshot(ctx, cmd.OutOrStdout(), r)
		}),
	}

	setUserID := &cobra.Command{
		Use:   "set-user-id [id]",
		Short: "Store the user identifier, or delete it when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, args []string) error {
			userID := ""
			switch {
			case len(args) > 0:
				userID = strings.TrimSpace(args[0])
			case a.generateID:
				userID = xid.New().String()
			}
			r.SetUserID(ctx, userID)

			if a.generateID && userID != "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), userID)
				return err
			}
			return nil
		}),
	}
	setUserID.Flags().BoolVar(&a.generateID, "generate", false, "generate a new identifier when none is given")

	userID := &cobra.Command{
		Use:   "user-id",
		Short: "Print the stored user identifier",
		Args:  cobra.NoArgs,
		RunE: a.run(func(_ context.Context, cmd *cobra.Command, r *userlocale.Resolver, _ []string) error {
			id, err := r.UserID()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the user identifier and the custom language and country",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, _ []string) error {
			r.Clear(ctx)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.translate(ctx, r, "PreferencesCleared", nil))
			return err
		}),
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the preferences whenever the system locale changes",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, _ []string) error {
			paths := a.watchPaths
			if len(paths) == 0 {
				paths = locale.NewSystem().WatchPaths()
			}
			return a.watch(ctx, cmd.OutOrStdout(), r, paths)
		}),
	}

	watch.Flags().StringSliceVar(&a.watchPaths, "path", nil, "file to watch, repeatable (default: the system locale and time zone files)")

	root.AddCommand(show, refresh, setLanguage, setCountry, setUserID, userID, clearCmd, watch)
	return root
}

type action func(ctx context.Context, cmd *cobra.Command, r *userlocale.Resolver, args []string) error

// run opens a resolver for the duration of one command.
func (a *app) run(fn action) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}

		ctx, r, err := userlocale.NewResolverFromConfig(cmd.Context(), cfg,
			userlocale.WithLogger(util.WithLogOutput(cmd.ErrOrStderr())))
		if err != nil {
			return err
		}

		runErr := fn(ctx, cmd, r, args)
		closeErr := r.Close(ctx)
		return errors.Join(runErr, closeErr)
	}
}

func (a *app) loadConfig() (*config.ConfigurationDefault, error) {
	dir, err := appDir()
	if err != nil {
		return nil, err
	}

	configPath := a.configPath
	if configPath == "" {
		configPath = filepath.Join(dir, configFileName)
	}

	cfg, err := config.Load[config.ConfigurationDefault](configPath)
	if err != nil {
		return nil, err
	}

	if a.storeURI != "" {
		cfg.PreferencesStoreURI = a.storeURI
	}

	if cfg.PreferencesStoreURI == "" {
		if err = os.MkdirAll(dir, privateDirMode); err != nil {
			return nil, err
		}
		cfg.PreferencesStoreURI = "sqlite://" + filepath.Join(dir, storeFileName)
	}

	if cfg.IsSecretKeeperEphemeral() {
		keeperURL, keyErr := localKeeperURL(dir)
		if keyErr != nil {
			return nil, keyErr
		}
		cfg.SecretKeeperURL = keeperURL
	}

	if cfg.TranslationsPath == "" && slices.Equal(cfg.TranslationsLanguages, []string{"en"}) {
		cfg.TranslationsLanguages = builtinLanguages
	}

	// The watch command drives its own event loop.
	cfg.LocaleWatchEnabled = false
	return &cfg, nil
}

// localKeeperURL returns a keeper URL for a key kept next to the store, creating
// the key on first use so the sealed identifier survives between runs.
func localKeeperURL(dir string) (string, error) {
	path := filepath.Join(dir, keeperKeyFile)

	data, err := os.ReadFile(path)
	if err == nil {
		return "base64key://" + strings.TrimSpace(string(data)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	key, err := localsecrets.NewRandomKey()
	if err != nil {
		return "", err
	}
	encoded := base64.URLEncoding.EncodeToString(key[:])

	if err = os.MkdirAll(dir, privateDirMode); err != nil {
		return "", err
	}
	if err = os.WriteFile(path, []byte(encoded), privateFileMode); err != nil {
		return "", err
	}
	return "base64key://" + encoded, nil
}

func appDir() (string, error) {
	if dir := os.Getenv("USERLOCALE_HOME"); dir != "" {
		return dir, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

type snapshotView struct {
	UserID            string    `json:"userId,omitempty"`
	Language          string    `json:"language"`
	Country           string    `json:"country"`
	CustomLanguage    string    `json:"customLanguage,omitempty"`
	CustomCountry     string    `json:"customCountry,omitempty"`
	EffectiveLanguage string    `json:"effectiveLanguage"`
	EffectiveCountry  string    `json:"effectiveCountry"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

func (a *app) printSnapshot(ctx context.Context, out io.Writer, r *userlocale.Resolver) error {
	snap := r.Snapshot()

	if a.asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshotView{
			UserID:            snap.UserID,
			Language:          snap.Language,
			Country:           snap.Country,
			CustomLanguage:    snap.CustomLanguage,
			CustomCountry:     snap.CustomCountry,
			EffectiveLanguage: snap.EffectiveLanguage(),
			EffectiveCountry:  snap.EffectiveCountry(),
			LastUpdated:       snap.LastUpdated,
		})
	}

	translate := func(messageID string) string {
		return a.translate(ctx, r, messageID, nil)
	}

	orNotSet := func(v string) string {
		if v == "" {
			return translate("NotSet")
		}
		return v
	}

	rows := [][2]string{
		{translate("UserID"), orNotSet(snap.UserID)},
		{translate("Language"), snap.EffectiveLanguage()},
		{translate("Country"), snap.EffectiveCountry()},
		{translate("CustomLanguage"), orNotSet(snap.CustomLanguage)},
		{translate("CustomCountry"), orNotSet(snap.CustomCountry)},
		{translate("LastUpdated"), snap.LastUpdated.Format(time.RFC3339)},
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(out, "%-24s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}

// translate renders messageID in the --lang language when one is given, and in
// the user's effective language otherwise.
func (a *app) translate(ctx context.Context, r *userlocale.Resolver, messageID string, variables map[string]any) string {
	if a.language != "" {
		if manager := r.Localization(); manager != nil {
			return localization.Render(ctx, manager, a.language, messageID, variables)
		}
	}
	return r.Translate(ctx, messageID, variables)
}

func (a *app) watch(ctx context.Context, out io.Writer, r *userlocale.Resolver, paths []string) error {
	events, err := locale.NewFileWatcher(paths...).Watch(ctx)
	if err != nil {
		return fmt.Errorf("could not watch the system locale: %w", err)
	}

	_, err = fmt.Fprintln(out, a.translate(ctx, r, "WatchingLocale", map[string]any{"Count": len(paths)}))
	if err != nil {
		return err
	}

	for range events {
		r.OnLocaleChanged(ctx)

		_, err = fmt.Fprintln(out, a.translate(ctx, r, "LocaleChanged", map[string]any{
			"Language": r.EffectiveLanguage(),
			"Country":  r.EffectiveCountry(),
		}))
		if err != nil {
			return err
		}
	}
	return nil
}

func normaliseCode(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(args[0]))
}

// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/repomake/pkg/repomake/auth"
	"github.com/telekom/repomake/pkg/repomake/config"
	"github.com/telekom/repomake/pkg/repomake/github"
	"github.com/telekom/repomake/pkg/repomake/prompt"
	"github.com/telekom/repomake/pkg/repomake/store"
	"github.com/telekom/repomake/pkg/system"
	"github.com/telekom/repomake/pkg/version"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	// ErrorWriter receives log output.
	ErrorWriter io.Writer
	Input       io.Reader
	OpenBrowser auth.BrowserOpener
	// WorkingDir provides the default repository name.
	WorkingDir string
}

type runtimeState struct {
	configPath           string
	cfg                  *config.Config
	tokenStorageOverride string
	nonInteractive       bool
	verbose              bool
	writer               io.Writer
	errWriter            io.Writer
	input                io.Reader
	openBrowser          auth.BrowserOpener
	workingDir           string
	log                  *zap.SugaredLogger
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
		ErrorWriter:  os.Stderr,
		Input:        os.Stdin,
		OpenBrowser:  auth.OpenBrowser,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath:  cfg.ConfigPath,
		writer:      cfg.OutputWriter,
		errWriter:   cfg.ErrorWriter,
		input:       cfg.Input,
		openBrowser: cfg.OpenBrowser,
		workingDir:  cfg.WorkingDir,
	}
	opts := &createOptions{}

	root := &cobra.Command{
		Use:   "repomake",
		Short: "Create a GitHub repository from the command line",
		Long: `repomake creates a GitHub repository for the current directory.

It authorizes with GitHub through the browser, or reuses a token saved by an
earlier run, and optionally saves new tokens for next time.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.errWriter == nil {
				rt.errWriter = os.Stderr
			}
			if rt.input == nil {
				rt.input = os.Stdin
			}
			if rt.openBrowser == nil {
				rt.openBrowser = auth.OpenBrowser
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.tokenStorageOverride == "" {
				rt.tokenStorageOverride = os.Getenv("REPOMAKE_TOKEN_STORAGE")
			}
			if !rt.nonInteractive {
				rt.nonInteractive = envBool("REPOMAKE_NON_INTERACTIVE")
			}
			if !rt.verbose {
				rt.verbose = envBool("REPOMAKE_VERBOSE")
			}
			if opts.token == "" {
				opts.token = os.Getenv("REPOMAKE_TOKEN")
			}
			if !opts.noBrowser {
				opts.noBrowser = envBool("REPOMAKE_NO_BROWSER")
			}
			rt.log = system.NewCLILogger(rt.verbose, rt.errWriter).Sugar().
				With(system.InvocationFields(uuid.NewString(), cmd.CommandPath())...)

			// Skip config loading for commands that don't need it
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			// group commands only print help
			if cmd.Parent() != nil && cmd.HasSubCommands() {
				return nil
			}
			return rt.EnsureConfigLoaded()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.descriptionSet = cmd.Flags().Changed("description")
			return runCreate(cmd, opts)
		},
	}

	root.Flags().StringVarP(&opts.token, "token", "t", "", "GitHub access token with repo and user scopes to use instead of a saved one")
	root.Flags().StringVarP(&opts.name, "name", "n", "", "Name of the repository to create")
	root.Flags().StringVar(&opts.description, "description", "", "Description of the repository")
	root.Flags().BoolVar(&opts.private, "private", false, "Create a private repository")
	root.Flags().BoolVarP(&opts.deleteTokens, "delete", "d", false, "Delete all saved tokens and exit")
	root.Flags().BoolVarP(&opts.quick, "quick", "q", false, "Create the repository without questions using the last used saved token")
	root.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVar(&rt.tokenStorageOverride, "token-storage", "", "Token storage backend: file or keychain")
	root.PersistentFlags().BoolVar(&rt.nonInteractive, "non-interactive", false, "Fail instead of prompting")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging with correlation IDs")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewTokensCommand(),
		NewConfigCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

// runGroup prints help for a command that only groups subcommands. Unknown
// subcommands are rejected by cobra.NoArgs before it runs.
func runGroup(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

func envBool(key string) bool {
	return strings.EqualFold(os.Getenv(key), "true")
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Log() *zap.SugaredLogger {
	if rt.log != nil {
		return rt.log
	}
	return zap.NewNop().Sugar()
}

// EnsureConfigLoaded reads the config file. A missing file means defaults.
func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.LoadOrDefault(rt.configPathValue())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", rt.configPathValue(), err)
	}
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}

func (rt *runtimeState) TokenStorage() string {
	if rt.tokenStorageOverride != "" {
		return rt.tokenStorageOverride
	}
	if rt.cfg != nil && rt.cfg.TokenStorage != "" {
		return rt.cfg.TokenStorage
	}
	return store.StorageFile
}

func (rt *runtimeState) openStore() (store.Store, error) {
	if err := rt.EnsureConfigLoaded(); err != nil {
		return nil, err
	}
	dir := rt.cfg.ResolveTokenDir(rt.configPathValue())
	rt.Log().Debugw("Opening token store", "storage", rt.TokenStorage(), "dir", dir)
	return store.New(store.Options{Storage: rt.TokenStorage(), Dir: dir, Log: rt.Log()})
}

func (rt *runtimeState) prompter(interactive bool) *prompt.Prompter {
	return prompt.New(rt.input, rt.Writer(), prompt.NonInteractive(!interactive))
}

func (rt *runtimeState) httpClient() (*http.Client, error) {
	return auth.NewHTTPClient(rt.cfg.CAFile, rt.cfg.InsecureSkipTLSVerify)
}

func (rt *runtimeState) githubClient(httpClient *http.Client) (*github.Client, error) {
	return github.New(
		github.WithAPIURL(rt.cfg.APIURL),
		github.WithHTTPClient(httpClient),
		github.WithUserAgent(version.UserAgent()),
		github.WithLogger(rt.Log()),
	)
}

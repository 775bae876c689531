package cmd

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/thiagokokada/gitui-go/internal/buildinfo"
	"github.com/thiagokokada/gitui-go/internal/config"
	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/logging"
	"github.com/thiagokokada/gitui-go/internal/tui"
)

func init() {
	// Query the terminal background before bubbletea owns stdin, otherwise
	// the OSC 11 reply can leak into the input loop.
	_ = lipgloss.HasDarkBackground()
}

func Run() error {
	return newRoot().cmd.Execute()
}

type root struct {
	cmd *cobra.Command
	v   *viper.Viper

	cfgFile     string
	noWatch     bool
	noSyntax    bool
	showVersion bool
}

// flagKeys maps config keys to the flags overriding them.
var flagKeys = map[string]string{
	"workers":       "workers",
	"log_page_size": "limit",
	"backend":       "backend",
	"theme":         "mode",
	"log_file":      "log-file",
	"verbose":       "verbose",
}

func newRoot() *root {
	r := &root{v: viper.New()}
	r.cmd = &cobra.Command{
		Use:           "gitui-go [flags] [path]",
		Short:         "A terminal UI for git",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          r.run,
	}
	d := config.Defaults()
	flags := r.cmd.Flags()
	flags.StringVarP(&r.cfgFile, "config", "c", "", "config file (default: "+config.DefaultPath()+")")
	flags.Int("workers", d.Workers, "number of background workers for repository reads")
	flags.Int("limit", d.LogPageSize, "number of commits to load per page")
	flags.String("backend", d.Backend, "git backend: cli or native")
	flags.String("mode", d.Theme, "color mode: auto, light, or dark")
	flags.String("log-file", "", "write logs to this file (default: "+config.DefaultLogFile()+")")
	flags.Bool("verbose", false, "enable verbose logging")
	flags.BoolVar(&r.noWatch, "nowatch", false, "disable automatic reload when repository changes")
	flags.BoolVar(&r.noSyntax, "nosyntax", false, "disable syntax highlighting in the diff viewer")
	flags.BoolVar(&r.showVersion, "version", false, "print version information and exit")
	if err := bindFlags(r.v, flags, flagKeys); err != nil {
		// a flagKeys entry without a matching flag
		panic(err)
	}
	return r
}

// bindFlags lets each flag in keys override its config key in v.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("bind %s: no flag --%s", key, name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// config resolves the configuration from defaults, file, environment and
// the parsed flags.
func (r *root) config() (config.Config, error) {
	cfg, err := config.Load(r.v, r.cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if r.noWatch {
		cfg.AutoReload = false
	}
	if r.noSyntax {
		cfg.SyntaxHighlight = false
	}
	return cfg, nil
}

func (r *root) run(cmd *cobra.Command, args []string) error {
	if r.showVersion {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.VersionWithTags())
		return nil
	}
	cfg, err := r.config()
	if err != nil {
		return err
	}
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	logFile, err := logging.Setup(cfg.LogFile, cfg.Verbose)
	if err != nil {
		return err
	}
	defer logFile.Close()

	adapter, err := git.Open(repoPath, cfg.Backend)
	if err != nil {
		return err
	}
	gitVersion, _ := git.GitVersion()
	slog.Info("starting",
		slog.String("version", buildinfo.VersionWithTags()),
		slog.String("repo", adapter.RepoPath()),
		slog.String("backend", cfg.Backend),
		slog.String("git", gitVersion),
	)

	opts, err := tui.OptionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	model := tui.New(adapter, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

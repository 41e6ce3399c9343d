package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flowblade/flowcut/config"
	"github.com/flowblade/flowcut/session"
	"github.com/flowblade/flowcut/version"
)

var opts struct {
	mlt      string
	snapshot string
	prefs    string
	verbose  bool
	width    int
}

var rootCmd = &cobra.Command{
	Use:   "flowcut",
	Short: "Run timeline edit scripts",
	Long: `flowcut runs YAML edit scripts against a fresh sequence and shows the
resulting timeline. The pipeline graph can be written as MLT XML and the
model as a YAML snapshot.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run SCRIPT",
	Short: "Run an edit script",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Print the effective preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPreferences()
		if err != nil {
			return err
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(p)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Long())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug messages.")
	rootCmd.PersistentFlags().StringVar(&opts.prefs, "prefs", "", "Directory of the preference files. Defaults to the user config directory.")
	runCmd.Flags().StringVar(&opts.mlt, "mlt", "", "Write the pipeline graph as MLT XML to this file.")
	runCmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Write the final sequence as YAML to this file.")
	runCmd.Flags().IntVarP(&opts.width, "width", "w", 80, "Width of the timeline in columns.")
	rootCmd.AddCommand(runCmd, prefsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadPreferences() (config.Preferences, error) {
	dir := opts.prefs
	if dir == "" {
		var err error
		if dir, err = config.Dir(); err != nil {
			return config.Default().Normalize(), nil
		}
	}
	return config.Load(dir)
}

func runScript(cmd *cobra.Command, args []string) error {
	log := logger()
	prefs, err := loadPreferences()
	if err != nil {
		log.Warn("using default preferences", "err", err)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	sc, err := session.ReadScript(f)
	f.Close()
	if err != nil {
		return err
	}
	s, err := session.New(session.Options{Name: sc.Name, Preferences: prefs, Logger: log})
	if err != nil {
		return err
	}
	defer s.Close()
	results, runErr := s.Run(sc)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderResults(results))
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTimeline(s.Sequence(), opts.width))
	if runErr != nil {
		return runErr
	}
	if opts.mlt != "" {
		if err := writeFile(opts.mlt, s.WriteMLT); err != nil {
			return fmt.Errorf("could not write MLT: %w", err)
		}
	}
	if opts.snapshot != "" {
		err := writeFile(opts.snapshot, func(w io.Writer) error {
			enc := yaml.NewEncoder(w)
			defer enc.Close()
			return enc.Encode(s.Sequence().Snapshot())
		})
		if err != nil {
			return fmt.Errorf("could not write snapshot: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

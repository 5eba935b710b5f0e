package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mager/species/audition"
	"github.com/mager/species/logger"
	"github.com/mager/species/score"
	"github.com/mager/species/species"
	"github.com/mager/species/theory"
	"github.com/mager/species/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	logLevel string
	signum   int
	mode     string
	cfAbove  bool

	log *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "species",
		Short: "Check first and second species counterpoint exercises",
		Long: `species checks two voice counterpoint exercises against the rules of
first and second species and prints every violation as "At #<n>: <message>".

Scores are read from JSON, YAML, MusicXML or MIDI files. MIDI files carry no
key, so pass --signum and --mode for them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(opts.logLevel)
			if err != nil {
				return err
			}
			opts.log = log
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().IntVar(&opts.signum, "signum", 0, "key signature for MIDI input: sharps positive, flats negative")
	root.PersistentFlags().StringVar(&opts.mode, "mode", "major", "mode for MIDI input")
	root.PersistentFlags().BoolVar(&opts.cfAbove, "cf-above", false, "the upper MIDI voice is the cantus firmus")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newExportMIDICmd(opts),
		newPlayCmd(opts),
		newRulesCmd(),
	)
	return root
}

func (o *rootOptions) readScore(path string) (*score.Score, error) {
	format, err := score.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	var decodeOpts score.DecodeOptions
	if format == score.FormatMIDI {
		key, err := theory.NewKeyNamed(o.signum, o.mode)
		if err != nil {
			return nil, err
		}
		decodeOpts = score.DecodeOptions{Key: &key, CantusFirmusAbove: o.cfAbove}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return score.Decode(f, format, decodeOpts)
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		speciesNum   int
		settingsPath string
		asJSON       bool
		details      bool
		expectPath   string
	)
	cmd := &cobra.Command{
		Use:   "analyze [score...]",
		Short: "Analyze one or more scores",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := species.DefaultSettings(speciesNum)
			if err != nil {
				return err
			}
			if settingsPath != "" {
				f, err := os.Open(settingsPath)
				if err != nil {
					return err
				}
				settings, err = species.LoadSettings(f, settings)
				f.Close()
				if err != nil {
					return err
				}
			}
			var expected []string
			if expectPath != "" {
				b, err := os.ReadFile(expectPath)
				if err != nil {
					return err
				}
				expected = util.ParseResultSet(string(b))
			}

			out := cmd.OutOrStdout()
			mismatched := 0
			for _, path := range args {
				sc, err := root.readScore(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				a := species.New(sc, speciesNum, species.WithSettings(settings), species.WithLogger(root.log))
				results, err := analyzeScore(a)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				root.log.Infow("Analyzed score", "path", path, "findings", len(results))

				switch {
				case asJSON:
					enc := json.NewEncoder(out)
					if err := enc.Encode(map[string]any{"path": path, "species": speciesNum, "results": results}); err != nil {
						return err
					}
				case len(args) > 1:
					fmt.Fprintf(out, "%s: %s\n", path, util.FormatResultSet(results))
				default:
					fmt.Fprintln(out, util.FormatResultSet(results))
				}

				if details {
					findings, _ := a.Findings()
					for _, f := range findings {
						fmt.Fprintf(out, "  %s: %s\n", f, a.State().Describe(f.Index))
					}
				}
				if expectPath != "" {
					missing, unexpected := util.Diff(results, expected)
					for _, m := range missing {
						fmt.Fprintf(out, "  missing:    %s\n", m)
					}
					for _, u := range unexpected {
						fmt.Fprintf(out, "  unexpected: %s\n", u)
					}
					if len(missing)+len(unexpected) > 0 {
						mismatched++
					}
				}
			}
			if mismatched > 0 {
				return fmt.Errorf("%d of %d scores differ from %s", mismatched, len(args), expectPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&speciesNum, "species", "s", 1, "species to check (1 or 2)")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "YAML file overriding the rule settings")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON lines")
	cmd.Flags().StringVar(&expectPath, "expect", "", "compare results against a result set file")
	cmd.Flags().BoolVar(&details, "details", false, "describe the sounding interval at each finding")
	return cmd
}

func analyzeScore(a *species.Analysis) ([]string, error) {
	if err := a.Setup(); err != nil {
		return nil, err
	}
	if err := a.Run(); err != nil {
		return nil, err
	}
	return a.Report()
}

func newExportMIDICmd(root *rootOptions) *cobra.Command {
	var bpm float64
	cmd := &cobra.Command{
		Use:   "export-midi <score> <out.mid>",
		Short: "Write a score as a standard MIDI file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := root.readScore(args[0])
			if err != nil {
				return err
			}
			if err := score.WriteMIDI(args[1], sc, bpm); err != nil {
				return err
			}
			root.log.Infow("Exported MIDI", "from", args[0], "to", args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().Float64Var(&bpm, "bpm", 60, "tempo in quarter notes per minute")
	return cmd
}

func newPlayCmd(root *rootOptions) *cobra.Command {
	var (
		port int
		bpm  int
		list bool
	)
	cmd := &cobra.Command{
		Use:   "play <score>",
		Short: "Play a score on a MIDI output port",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := audition.Ports()
				if err != nil {
					return err
				}
				for i, n := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, n)
				}
				return nil
			}
			sc, err := root.readScore(args[0])
			if err != nil {
				return err
			}
			out, err := audition.OpenPort(port)
			if err != nil {
				return err
			}
			defer out.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			root.log.Infow("Playing", "path", args[0], "port", out.Name, "bpm", bpm)
			return audition.NewPlayer(out, bpm).Play(ctx, sc)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "MIDI output port index")
	cmd.Flags().IntVar(&bpm, "bpm", 60, "tempo in quarter notes per minute")
	cmd.Flags().BoolVar(&list, "list", false, "list output ports and exit")
	return cmd
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rules in the order they run",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := 0
			catalog := species.Catalog()
			for _, r := range catalog {
				w = max(w, len(r.Name))
			}
			for _, r := range catalog {
				fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s\n", w, r.Name, strings.TrimSpace(r.Description))
			}
		},
	}
}

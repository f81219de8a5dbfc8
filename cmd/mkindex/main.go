// Command mkindex turns tab-separated n-gram counts into the binary word and
// n-gram tables the corrector maps at startup.
//
// Input lines look like "the future would<TAB>3162". Tuples longer than three
// words are ignored and a line without a tab-separated count is an error.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/spf13/cobra"

	"ngramcorrector/internal/corrector"
	"ngramcorrector/internal/lexicon"
	"ngramcorrector/internal/ngramindex"
	"ngramcorrector/internal/phonetic"
	"ngramcorrector/pkg/options"
)

type paths struct {
	words  string
	ngrams string
}

func (p *paths) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.words, "words", "word.bin", "word table path")
	cmd.Flags().StringVar(&p.ngrams, "ngrams", "ngram3.bin", "n-gram table path")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mkindex",
		Short:        "Build and inspect n-gram frequency indexes",
		SilenceUsage: true,
	}
	root.AddCommand(newBuildCmd(), newQueryCmd(), newCorrectCmd(), newSuggestCmd())
	return root
}

func newBuildCmd() *cobra.Command {
	var p paths
	cmd := &cobra.Command{
		Use:   "build [counts.tsv...]",
		Short: "Build an index from count files, or stdin when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := ngramindex.NewBuilder()
			if len(args) == 0 {
				if _, err := b.Load(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("stdin: %w", err)
				}
			}
			for _, name := range args {
				if err := loadFile(b, name); err != nil {
					return err
				}
			}
			if err := b.Write(p.words, p.ngrams); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d n-grams to %s and %s\n", b.Len(), p.words, p.ngrams)
			return nil
		},
	}
	p.register(cmd)
	return cmd
}

func loadFile(b *ngramindex.Builder, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := b.Load(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func newQueryCmd() *cobra.Command {
	var (
		p    paths
		like bool
	)
	cmd := &cobra.Command{
		Use:   "query word [word [word]]",
		Short: "Print the frequency of a word tuple",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := ngramindex.Open(p.words, p.ngrams)
			if err != nil {
				return err
			}
			defer ix.Close()

			words := make([]string, len(args))
			for i, a := range args {
				words[i] = strings.ToLower(a)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t%d\n", strings.Join(words, " "), ix.Freq(words...))
			if !like {
				return nil
			}
			table := newTable(out)
			table.AddHeader("N-gram", "Count")
			for _, nc := range ix.NgramLike(words) {
				table.AddLine(strings.Join(nc.Words, " "), nc.Count)
			}
			table.Print()
			return nil
		},
	}
	p.register(cmd)
	cmd.Flags().BoolVar(&like, "like", false, "also list n-grams differing in one position")
	return cmd
}

func newTable(w io.Writer) *tabby.Tabby {
	return tabby.NewCustom(tabwriter.NewWriter(w, 0, 0, 2, ' ', 0))
}

// engine holds the flags shared by commands that run the corrector.
type engine struct {
	paths
	configPath string
	verbose    bool
}

func (e *engine) register(cmd *cobra.Command) {
	e.paths.register(cmd)
	cmd.Flags().StringVar(&e.configPath, "config", "", "YAML corrector options")
	cmd.Flags().BoolVarP(&e.verbose, "verbose", "v", false, "log every decision")
}

// open maps the index and builds a corrector over it. The returned close
// function releases the mapping.
func (e *engine) open(cmd *cobra.Command) (*corrector.Corrector, func() error, error) {
	level := slog.LevelWarn
	if e.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	opts := []options.Options{options.WithLogger(logger)}
	if e.configPath != "" {
		o, err := options.LoadFile(e.configPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, o)
	}

	ix, err := ngramindex.Open(e.words, e.ngrams)
	if err != nil {
		return nil, nil, err
	}
	lex, err := lexicon.New(ix.Vocabulary())
	if err != nil {
		ix.Close()
		return nil, nil, err
	}
	phon, err := phonetic.New(ix.Vocabulary())
	if err != nil {
		ix.Close()
		return nil, nil, err
	}
	c, err := corrector.New(ix, lex, phon, nil, opts...)
	if err != nil {
		ix.Close()
		return nil, nil, err
	}
	return c, ix.Close, nil
}

func newCorrectCmd() *cobra.Command {
	var e engine
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Correct text read from stdin against an index",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeIndex, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeIndex()

			text, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := c.Correct(cmd.Context(), string(text))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Corrected)
			if len(res.Applied) == 0 {
				return nil
			}
			// the change log goes to stderr so stdout stays the corrected text
			table := newTable(cmd.ErrOrStderr())
			table.AddHeader("Iteration", "Phase", "Line", "Offset", "Original", "Replacement")
			for _, a := range res.Applied {
				table.AddLine(a.Iteration, a.Phase, a.Line+1, a.Offset, a.Original, a.Replacement)
			}
			table.Print()
			return nil
		},
	}
	e.register(cmd)
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var e engine
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "List ranked suggestions for text read from stdin without applying them",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeIndex, err := e.open(cmd)
			if err != nil {
				return err
			}
			defer closeIndex()

			text, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			sugs, err := c.Suggest(cmd.Context(), string(text))
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout())
			table.AddHeader("Rank", "Phase", "Original", "Replacement", "Phonetic", "Support", "Frequency", "Distance")
			for i, s := range sugs {
				table.AddLine(i+1, s.Phase, s.Original, strings.Join(s.Replacement, " "),
					s.Score.Phonetic, s.Score.Support, s.Score.Frequency, s.Score.Distance)
			}
			table.Print()
			return nil
		},
	}
	e.register(cmd)
	return cmd
}

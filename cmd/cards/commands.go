package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/japaniel/cards/pkg/api"
	"github.com/japaniel/cards/pkg/db"
	"github.com/japaniel/cards/pkg/dictionary"
	"github.com/japaniel/cards/pkg/harvest"
	"github.com/japaniel/cards/pkg/ingest"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			version, err := db.MigrationVersion(cmd.Context(), conn, store.Queries().Dialect())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database is at version %d\n", version)
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add LANG:text[:sex]...",
		Short: "Save words, updating the ones that already exist",
		Long:  "Save words, updating the ones that already exist.\n\n" + wordSpecHelp,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := parseWordSpecs(args)
			if err != nil {
				return err
			}
			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			for _, nw := range words {
				w, err := store.Save(cmd.Context(), nw)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\n", w.ID, formatWord(w))
			}
			return nil
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Insert a YAML list of new words in one statement",
		Long: `Insert every word of a YAML file of the form

  words:
    - {text: exam, language: EN}
    - {text: Prüfung, language: DE, sex: F}

The batch is all or nothing: if any word already exists nothing is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := ingest.LoadWordList(args[0])
			if err != nil {
				return err
			}
			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			saved, err := store.SaveAll(cmd.Context(), words)
			if errors.Is(err, db.ErrConstraintViolation) {
				return fmt.Errorf("nothing saved, the batch repeats an existing word: %w", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d words\n", len(saved))
			return nil
		},
	}
}

func newTranslateCmd(a *app) *cobra.Command {
	var from string
	var to []string
	cmd := &cobra.Command{
		Use:   "translate --from LANG:text[:sex] --to LANG:text[:sex]...",
		Short: "Link a word with its translations in both directions",
		Long:  "Link a word with its translations in both directions.\n\n" + wordSpecHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			origin, err := parseWordSpec(from)
			if err != nil {
				return err
			}
			targets, err := parseWordSpecs(to)
			if err != nil {
				return err
			}
			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			res, err := store.AddTranslations(cmd.Context(), origin, targets)
			if err != nil {
				return err
			}
			names := make([]string, len(res.To))
			for i, w := range res.To {
				names[i] = formatWord(w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <-> %s (%d edges)\n",
				formatWord(res.From), strings.Join(names, ", "), len(res.Translations))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "word to translate, LANG:text[:sex]")
	cmd.Flags().StringSliceVar(&to, "to", nil, "translations, LANG:text[:sex] (repeatable)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup TEXT",
		Short: "Show every word spelled TEXT with its translations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			words, err := store.FindAllByText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(words) == 0 {
				fmt.Fprintln(out, "(0 words)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Language", "Sex", "Text", "Translations"})
			for _, w := range words {
				linked, err := store.FindByWord(cmd.Context(), w)
				if err != nil {
					return err
				}
				names := make([]string, len(linked))
				for i, tw := range linked {
					names[i] = formatWord(tw.ToWord())
				}
				sex := ""
				if w.Sex != nil {
					sex = *w.Sex
				}
				t.AppendRow(table.Row{w.ID, w.Language, sex, w.Text, strings.Join(names, ", ")})
			}
			t.Render()
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a YAML glossary of words and their translations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := ingest.LoadGlossary(args[0])
			if err != nil {
				return err
			}
			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			stats, err := a.newIngester(store).Import(cmd.Context(), g.Entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries (%d words, %d translation edges)\n",
				stats.Entries, stats.Words, stats.Translations)
			return nil
		},
	}
	addIngestFlags(cmd)
	return cmd
}

func newImportDictCmd(a *app) *cobra.Command {
	var download bool
	cmd := &cobra.Command{
		Use:   "import-dict",
		Short: "Import JMdict headwords with their English glosses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.Dictionary.Path
			if download {
				d := &dictionary.Downloader{Logger: a.logger}
				if err := d.Ensure(cmd.Context(), path); err != nil {
					return err
				}
			}
			entries, err := dictionary.LoadJMdictSimplified(path)
			if err != nil {
				return fmt.Errorf("load dictionary: %w", err)
			}
			a.logger.Info("dictionary loaded", slog.Int("entries", len(entries)))

			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			stats, err := a.newIngester(store).Import(cmd.Context(), dictionary.ToEntries(entries))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d headwords (%d words, %d translation edges)\n",
				stats.Entries, stats.Words, stats.Translations)
			return nil
		},
	}
	cmd.Flags().String("dict-path", "", "JMdict-simplified JSON file")
	cmd.Flags().BoolVar(&download, "download", false, "download the latest release when the file is missing")
	addIngestFlags(cmd)
	return cmd
}

func newHarvestCmd(a *app) *cobra.Command {
	var language string
	var withDict bool
	cmd := &cobra.Command{
		Use:   "harvest URL",
		Short: "Store the vocabulary of a Japanese web article",
		Long: `Fetch a web page, extract the article, tokenize it and store the
dictionary form of every content word.

With --dict, harvested words found in the JMdict file are also linked to
their English glosses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if language == "" {
				language = ingest.DefaultHarvestLanguage
			}
			article, err := harvest.FetchArticle(ctx, nil, args[0])
			if err != nil {
				return err
			}
			a.logger.Info("article fetched",
				slog.String("title", article.Title),
				slog.Int("chars", len(article.Text)))

			analyzer, err := harvest.NewAnalyzer()
			if err != nil {
				return err
			}
			sentences := analyzer.AnalyzeDocument(article.Text)

			conn, store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			ig := a.newIngester(store)
			n, err := ig.Harvest(ctx, language, sentences)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Harvested %d words from %d sentences of %q\n", n, len(sentences), article.Title)

			if !withDict {
				return nil
			}
			entries, err := dictionary.LoadJMdictSimplified(a.cfg.Dictionary.Path)
			if err != nil {
				return fmt.Errorf("load dictionary: %w", err)
			}
			glossed := glossaryFor(dictionary.NewIndex(entries), language, sentences)
			stats, err := ig.Import(ctx, glossed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %d words to English glosses\n", stats.Entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", ingest.DefaultHarvestLanguage, "language tag of harvested words")
	cmd.Flags().BoolVar(&withDict, "dict", false, "link harvested words to their JMdict glosses")
	cmd.Flags().String("dict-path", "", "JMdict-simplified JSON file")
	addIngestFlags(cmd)
	return cmd
}

// glossaryFor looks up every harvested headword in ix. The surface reading
// narrows the match only when the token is already in dictionary form.
func glossaryFor(ix *dictionary.Index, language string, sentences []harvest.Sentence) []ingest.Entry {
	seen := make(map[string]bool)
	var out []ingest.Entry
	for _, s := range sentences {
		for _, t := range s.Tokens {
			if !ingest.KeepToken(t) {
				continue
			}
			hw := t.Headword()
			if seen[hw] {
				continue
			}
			seen[hw] = true
			reading := ""
			if t.Surface == hw {
				reading = t.Reading
			}
			e, ok := ix.EntryFor(hw, reading)
			if !ok {
				continue
			}
			e.Word.Language = language
			out = append(out, e)
		}
	}
	return out
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			return api.Serve(cmd.Context(), a.cfg.HTTP.Addr, api.NewRouter(store, a.logger), a.logger)
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	return cmd
}

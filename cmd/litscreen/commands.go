package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/litscreen/classify"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/embedding"
	"github.com/poiesic/litscreen/refine"
	"github.com/poiesic/litscreen/search"
	"github.com/urfave/cli/v2"
)

func (cmds *commands) add(c *cli.Context) error {
	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	docs, err := ws.Documents().AddDocuments(c.Context, &core.DocumentRecord{
		Title:               c.String("title"),
		Abstract:            c.String("abstract"),
		Theme:               c.String("theme"),
		Source:              c.String("source"),
		PaperType:           c.String("type"),
		CountryOrganisation: c.String("country"),
		URL:                 c.String("url"),
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "%s %d (%s)\n", successf("added"), docs[0].Id, docs[0].EmbeddingStatus)
	return nil
}

func (cmds *commands) status(c *cli.Context) error {
	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	docs, err := ws.Documents().ListDocuments(c.Context)
	if err != nil {
		return err
	}
	counts := map[core.EmbeddingStatus]int{}
	for _, doc := range docs {
		counts[doc.EmbeddingStatus]++
	}

	fmt.Fprintf(c.App.Writer, "Documents: %d\n", len(docs))
	for _, status := range []core.EmbeddingStatus{core.EmbeddingPending, core.EmbeddingCompleted, core.EmbeddingFailed} {
		fmt.Fprintf(c.App.Writer, "  %-10s %d\n", status, counts[status])
	}
	return nil
}

func (cmds *commands) refine(c *cli.Context) error {
	topic := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(topic) == "" {
		return errors.New("a topic is required")
	}

	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	var opts []refine.Option
	if name := c.String("template"); name != "" {
		template, err := refine.ParseTemplate(name)
		if err != nil {
			return err
		}
		opts = append(opts, refine.WithTemplate(template))
	}
	if c.Bool("examples") {
		examples, err := ws.Examples(c.Context)
		if err != nil {
			return err
		}
		opts = append(opts, refine.WithExamples(examples...))
	}

	refiner, err := ws.NewRefiner(opts...)
	if err != nil {
		return err
	}
	spinner := newSpinner(c.App.ErrWriter, "Refining topic")
	result, err := refiner.Refine(c.Context, topic)
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("refinement failed: %w", err)
	}

	printRefinement(c.App.Writer, result)
	return nil
}

func (cmds *commands) search(c *cli.Context) error {
	topic := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(topic) == "" {
		return errors.New("a topic is required")
	}
	mode, err := search.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	var opts []search.Option
	if c.IsSet("limit") {
		opts = append(opts, search.WithLimit(c.Int("limit")))
	}
	searcher, err := ws.NewSearcher(opts...)
	if err != nil {
		return err
	}

	var outcome *search.Outcome
	monitor := search.NewTimingMonitor()
	if c.Bool("raw") {
		outcome, err = searcher.SearchQuery(c.Context, topic, mode)
	} else {
		outcome, err = searcher.SearchWithMonitor(c.Context, topic, mode, monitor)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if outcome.Refinement != nil {
		printRefinement(c.App.Writer, outcome.Refinement)
	}
	printResults(c.App.Writer, outcome, mode)
	if c.Bool("timing") && !c.Bool("raw") {
		printTimings(c.App.Writer, monitor)
	}
	return nil
}

func (cmds *commands) embed(c *cli.Context) error {
	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	cfg := ws.Config().EmbeddingConfig()
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if cfg.Workers < 1 {
		return errors.New("workers must be greater than 0")
	}

	var bar *progressBar
	lifecycle := ws.NewLifecycle(
		embedding.WithConfig(cfg),
		embedding.WithObserver(func(done, total int) {
			if bar == nil {
				bar = newProgressBar(c.App.ErrWriter, total, "Embedding abstracts")
			}
			bar.Set(done)
		}),
	)

	stats, err := lifecycle.ProcessPending(c.Context)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	if stats.Total() == 0 {
		fmt.Fprintln(c.App.Writer, "No pending documents")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%s %d embedded, %d failed\n", successf("done"), stats.Processed, stats.Failed)
	return nil
}

func (cmds *commands) reset(c *cli.Context) error {
	ids := make([]core.ID, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid document id %q", arg)
		}
		ids = append(ids, core.ID(id))
	}
	selectors := 0
	for _, set := range []bool{len(ids) > 0, c.Bool("failed"), c.Bool("all")} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		return errors.New("give document ids, --failed or --all")
	}

	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	lifecycle := ws.NewLifecycle()
	var n int
	switch {
	case c.Bool("failed"):
		n, err = lifecycle.ResetFailed(c.Context)
	case c.Bool("all"):
		n, err = lifecycle.ResetAll(c.Context)
	default:
		n, err = lifecycle.Reset(c.Context, ids...)
	}
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Reset %d documents to pending\n", n)
	return nil
}

func (cmds *commands) classify(c *cli.Context) error {
	mode := core.ClassificationMode(strings.ToLower(c.String("mode")))
	if err := core.ValidateMode(mode); err != nil {
		return err
	}

	files := c.Args().Slice()
	if dir := c.String("dir"); dir != "" {
		found, err := textFiles(dir)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return errors.New("no input files: give FILE arguments or --dir")
	}

	inputs := make([]classify.Input, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		inputs = append(inputs, classify.Input{File: filepath.Base(file), Text: string(data)})
	}

	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	bar := newProgressBar(c.App.ErrWriter, len(inputs), fmt.Sprintf("Classifying (%s)", mode))
	records, err := ws.Classify(c.Context, inputs, mode, func(done, total int, record *core.ClassificationRecord) {
		bar.Set(done)
	})
	bar.Finish()

	for _, record := range records {
		printClassification(c.App.Writer, record)
	}
	if err != nil {
		return fmt.Errorf("classification stopped after %d of %d documents: %w", len(records), len(inputs), err)
	}
	return nil
}

func (cmds *commands) patterns(c *cli.Context) error {
	ws, err := cmds.openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	spinner := newSpinner(c.App.ErrWriter, "Mining patterns")
	set, err := ws.MinePatterns(c.Context)
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("pattern mining failed: %w", err)
	}

	printPatterns(c.App.Writer, set)
	return nil
}

// textFiles lists the .txt and .md files directly inside dir, sorted by name.
func textFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

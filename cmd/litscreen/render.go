package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/search"
	"github.com/schollz/progressbar/v3"
)

var (
	successf = color.New(color.FgGreen, color.Bold).SprintFunc()
	headingf = color.New(color.FgCyan, color.Bold).SprintFunc()
	includef = color.New(color.FgGreen).SprintFunc()
	excludef = color.New(color.FgRed).SprintFunc()
	dimf     = color.New(color.Faint).SprintFunc()
)

type progressBar = progressbar.ProgressBar

func newProgressBar(w io.Writer, total int, description string) *progressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func newSpinner(w io.Writer, description string) *progressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)
}

func printRefinement(w io.Writer, r *core.RefinementResult) {
	fmt.Fprintln(w, headingf("Refined query:"), r.RefinedQuery)
	if len(r.KeyConcepts) > 0 {
		fmt.Fprintln(w, headingf("Key concepts:"), strings.Join(r.KeyConcepts, ", "))
	}
	if r.Reason != "" {
		fmt.Fprintln(w, headingf("Reason:"), r.Reason)
	}
	fmt.Fprintln(w)
}

func printResults(w io.Writer, outcome *search.Outcome, mode search.Mode) {
	if len(outcome.Results) == 0 {
		fmt.Fprintln(w, "No matching documents")
		return
	}
	fmt.Fprintf(w, "%s %d of %d matches\n", headingf("Results:"), len(outcome.Results), outcome.Count)
	for i, result := range outcome.Results {
		doc := result.Document
		score := fmt.Sprintf("%.0f", result.Score)
		if mode == search.Semantic {
			score = fmt.Sprintf("%.4f", result.Score)
		}
		fmt.Fprintf(w, "%3d. [%s] %s\n", i+1, score, doc.Title)

		var meta []string
		for _, field := range []string{doc.Theme, doc.PaperType, doc.Source, doc.CountryOrganisation} {
			if field != "" {
				meta = append(meta, field)
			}
		}
		if len(meta) > 0 {
			fmt.Fprintf(w, "     %s\n", dimf(strings.Join(meta, " | ")))
		}
		if doc.URL != "" {
			fmt.Fprintf(w, "     %s\n", dimf(doc.URL))
		}
	}
}

func printTimings(w io.Writer, monitor *search.TimingMonitor) {
	fmt.Fprintln(w)
	for _, phase := range monitor.Phases() {
		fmt.Fprintf(w, "  %-8s %v\n", phase.Phase, phase.Duration)
	}
	fmt.Fprintf(w, "  %-8s %v\n", "total", monitor.Total())
}

func printClassification(w io.Writer, record *core.ClassificationRecord) {
	label := record.Result.Classification
	switch {
	case strings.HasPrefix(strings.ToUpper(label), "INCLUDE"):
		label = includef(label)
	case strings.HasPrefix(strings.ToUpper(label), "EXCLUDE"), strings.HasPrefix(label, "ERROR"):
		label = excludef(label)
	}
	summarized := ""
	if record.Summarized {
		summarized = dimf(" (summarized)")
	}
	fmt.Fprintf(w, "%s: %s%s\n", record.File, label, summarized)
	if record.Result.Reason != "" {
		fmt.Fprintf(w, "  %s\n", record.Result.Reason)
	}
	if len(record.Result.Keywords) > 0 {
		fmt.Fprintf(w, "  %s\n", dimf(strings.Join(record.Result.Keywords, ", ")))
	}
}

func printPatterns(w io.Writer, set *core.PatternSet) {
	if set.Failure != nil {
		fmt.Fprintln(w, excludef("Pattern extraction failed:"), set.Failure.Error)
		if set.Failure.RawResponse != "" {
			fmt.Fprintln(w, dimf(set.Failure.RawResponse))
		}
		return
	}
	if len(set.ExclusionPatterns) == 0 && len(set.InclusionPatterns) == 0 {
		fmt.Fprintln(w, "No patterns found")
		return
	}
	printPatternList(w, "Exclusion patterns:", set.ExclusionPatterns)
	printPatternList(w, "Inclusion patterns:", set.InclusionPatterns)
}

func printPatternList(w io.Writer, heading string, patterns []core.Pattern) {
	fmt.Fprintln(w, headingf(heading))
	for _, p := range patterns {
		fmt.Fprintf(w, "  - %s\n", p.Name)
		if len(p.Keywords) > 0 {
			fmt.Fprintf(w, "    keywords: %s\n", strings.Join(p.Keywords, ", "))
		}
		if p.Evidence != "" {
			fmt.Fprintf(w, "    evidence: %s\n", p.Evidence)
		}
	}
}

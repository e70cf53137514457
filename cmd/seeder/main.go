package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"slices"

	"github.com/poiesic/litscreen"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/embedding"
	"github.com/poiesic/litscreen/storage"
)

var corpus = []*core.DocumentRecord{
	{
		Title:               "Prostate Cancer Screening Guidelines 2020",
		Theme:               "Screening",
		Source:              "PubMed",
		PaperType:           "Guideline",
		CountryOrganisation: "Cancer Council Australia",
		Abstract:            "National guideline on PSA testing for asymptomatic men, covering shared decision making, testing intervals and age thresholds.",
		URL:                 "https://example.org/guidelines/psa-2020",
		Level1Consensus:     "Include",
		Level2Consensus:     "Include",
	},
	{
		Title:               "A decision aid for men considering PSA testing",
		Theme:               "Decision aids",
		Source:              "Embase",
		PaperType:           "Randomised controlled trial",
		CountryOrganisation: "United Kingdom",
		Abstract:            "Randomised evaluation of an online decision aid that helps men weigh the benefits and harms of prostate cancer screening.",
		Level1Consensus:     "Include",
		Level2Consensus:     "Include",
	},
	{
		Title:               "Salvage radiotherapy after radical prostatectomy",
		Theme:               "Treatment",
		Source:              "PubMed",
		PaperType:           "Cohort study",
		CountryOrganisation: "Germany",
		Abstract:            "Retrospective cohort of men receiving salvage radiotherapy for biochemical recurrence after surgery.",
		Level1Consensus:     "Exclude",
		Level1Reason:        "Treatment/ management/ diagnosis",
	},
	{
		Title:               "MRI-targeted biopsy in biopsy-naive men",
		Theme:               "Diagnosis",
		Source:              "Cochrane",
		PaperType:           "Systematic review",
		CountryOrganisation: "Netherlands",
		Abstract:            "Systematic review of diagnostic accuracy of MRI-targeted versus systematic biopsy for clinically significant prostate cancer.",
		Level1Consensus:     "Include",
		Level2Consensus:     "Exclude",
		Level2Reason:        "Treatment/ management/ diagnosis",
	},
	{
		Title:               "Breast screening programme participation",
		Theme:               "Screening",
		Source:              "Scopus",
		PaperType:           "Cross-sectional study",
		CountryOrganisation: "Canada",
		Abstract:            "Survey of factors associated with participation in an organised mammography screening programme.",
		Level1Consensus:     "Exclude",
		Level1Reason:        "Not Prostate Cancer/ irrelevant/ not related to study objective",
	},
	{
		Title:               "Organised PSA screening programme in Sweden",
		Theme:               "Screening programmes",
		Source:              "PubMed",
		PaperType:           "Programme evaluation",
		CountryOrganisation: "Sweden",
		Abstract:            "Evaluation of regional organised prostate cancer testing programmes offering PSA followed by MRI to men aged 50 to 74.",
	},
	{
		Title:               "Student engagement in online learning during the pandemic",
		Theme:               "Online learning",
		Source:              "ERIC",
		PaperType:           "Mixed methods",
		CountryOrganisation: "United States",
		Abstract:            "Mixed methods study of behavioural and cognitive engagement among undergraduates in fully online courses.",
	},
	{
		Title:               "Synchronous versus asynchronous online teaching",
		Theme:               "Online learning",
		Source:              "ERIC",
		PaperType:           "Meta-analysis",
		CountryOrganisation: "Spain",
		Abstract:            "Meta-analysis comparing learning outcomes of synchronous and asynchronous online delivery in higher education.",
	},
	{
		Title:     "Health literacy and prostate cancer screening decisions",
		Theme:     "Decision making",
		Source:    "CINAHL",
		PaperType: "Qualitative study",
		Abstract:  "Interviews exploring how health literacy shapes men's understanding of PSA test results and screening choices.",
	},
	{
		Title:     "Quality of life after active surveillance",
		Theme:     "Quality of life",
		Source:    "PubMed",
		PaperType: "Cohort study",
		Abstract:  "Longitudinal quality of life outcomes for men with low-risk prostate cancer managed by active surveillance.",
	},
	{
		Title:     "Untitled conference poster",
		Theme:     "Screening",
		Source:    "Conference proceedings",
		PaperType: "Poster",
	},
}

var (
	dbPath    = flag.String("db", "./litscreen_db", "Path to BadgerDB database directory")
	batchSize = flag.Int("batch", 4, "Documents per AddDocuments call")
	embed     = flag.Bool("embed", false, "Embed the seeded documents afterwards")
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// addBatched reads documents from source and adds them in batches.
func addBatched(ctx context.Context, repo storage.DocumentRepository, source iter.Seq[*core.DocumentRecord], batchSize int) (int, error) {
	added := 0
	batch := make([]*core.DocumentRecord, 0, batchSize)

	flush := func() error {
		docs, err := repo.AddDocuments(ctx, batch...)
		if err != nil {
			return err
		}
		added += len(docs)
		batch = batch[:0]
		return nil
	}

	for doc := range source {
		batch = append(batch, doc)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return added, err
			}
		}
	}

	// Add any remaining documents
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return added, err
		}
	}

	return added, nil
}

func main() {
	flag.Parse()

	ws, err := litscreen.OpenWorkspace(*dbPath)
	if err != nil {
		panic(err)
	}
	defer ws.Close()

	ctx := context.Background()

	added, err := addBatched(ctx, ws.Documents(), slices.Values(corpus), max(*batchSize, 1))
	if err != nil {
		panic(err)
	}
	slog.Info("seeded corpus", "documents", added, "db", *dbPath)

	if *embed {
		stats, err := ws.NewLifecycle(embedding.WithProgress(os.Stderr)).ProcessPending(ctx)
		if err != nil {
			panic(err)
		}
		slog.Info("embedded corpus", "completed", stats.Processed, "failed", stats.Failed)
	}
}

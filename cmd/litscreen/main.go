// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/litscreen"
	"github.com/poiesic/litscreen/config"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// commands holds workspace options shared by every action.
type commands struct {
	options []litscreen.WorkspaceOption
}

func newApp(options ...litscreen.WorkspaceOption) *cli.App {
	cmds := &commands{options: options}
	return &cli.App{
		Name:  "litscreen",
		Usage: "LLM-assisted literature screening",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default: search standard locations)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a document to the corpus",
				Action:    cmds.add,
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Document title", Required: true},
					&cli.StringFlag{Name: "abstract", Usage: "Document abstract"},
					&cli.StringFlag{Name: "theme", Usage: "Theme label"},
					&cli.StringFlag{Name: "source", Usage: "Source database or publisher"},
					&cli.StringFlag{Name: "type", Usage: "Paper type"},
					&cli.StringFlag{Name: "country", Usage: "Country or organisation"},
					&cli.StringFlag{Name: "url", Usage: "Document URL"},
				},
			},
			{
				Name:   "status",
				Usage:  "Show corpus size and embedding status counts",
				Action: cmds.status,
			},
			{
				Name:      "refine",
				Usage:     "Turn a research topic into a search query",
				ArgsUsage: "TOPIC",
				Action:    cmds.refine,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Usage: "Prompt template (zero-shot, one-shot, few-shot)"},
					&cli.BoolFlag{Name: "examples", Usage: "Add labelled corpus documents as examples"},
				},
			},
			{
				Name:      "search",
				Usage:     "Refine a topic and rank the corpus",
				ArgsUsage: "TOPIC",
				Action:    cmds.search,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Ranking mode (lexical, semantic)",
						Value:   "lexical",
					},
					&cli.IntFlag{Name: "limit", Usage: "Maximum results (default from config)"},
					&cli.BoolFlag{Name: "raw", Usage: "Use the topic as the query without refinement"},
					&cli.BoolFlag{Name: "timing", Usage: "Print per-phase timings"},
				},
			},
			{
				Name:   "embed",
				Usage:  "Embed every pending document",
				Action: cmds.embed,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent embedding workers (default from config)"},
				},
			},
			{
				Name:      "reset",
				Usage:     "Return documents to pending so they are embedded again",
				ArgsUsage: "[ID...]",
				Action:    cmds.reset,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "failed", Usage: "Reset every failed document"},
					&cli.BoolFlag{Name: "all", Usage: "Reset every document"},
				},
			},
			{
				Name:      "classify",
				Usage:     "Classify plain text documents against the criteria",
				ArgsUsage: "[FILE...]",
				Action:    cmds.classify,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "mode",
						Aliases:  []string{"m"},
						Usage:    "Criteria to apply (exclusion, inclusion)",
						Required: true,
					},
					&cli.StringFlag{Name: "dir", Usage: "Classify every .txt and .md file in this directory"},
				},
			},
			{
				Name:   "patterns",
				Usage:  "Mine saved classifications for recurring patterns",
				Action: cmds.patterns,
			},
		},
	}
}

func (cmds *commands) openWorkspace(c *cli.Context) (*litscreen.Workspace, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	options := append([]litscreen.WorkspaceOption{
		litscreen.WithConfig(cfg),
		litscreen.WithLogger(slog.Default()),
	}, cmds.options...)

	ws, err := litscreen.OpenWorkspace(c.String("db"), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	return ws, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

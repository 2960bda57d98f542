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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "sitesearch",
		Usage:  "Semantic search over a crawled website",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file",
				Value:   "sitesearch.toml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chunk",
				Usage:  "Split crawled pages into overlapping sentence-aligned chunks",
				Action: chunkCommand,
				Flags:  chunkFlags(),
			},
			{
				Name:   "embed",
				Usage:  "Embed chunk files and build the search index",
				Action: embedCommand,
				Flags:  append(embedFlags(), embeddingServiceFlags()...),
			},
			{
				Name:   "build",
				Usage:  "Run chunk and embed in sequence",
				Action: buildCommand,
				Flags:  mergeFlags(chunkFlags(), embedFlags(), embeddingServiceFlags()),
			},
			{
				Name:      "search",
				Usage:     "Query the index",
				ArgsUsage: "<query text>",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					indexFlag(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
					},
					&cli.StringFlag{
						Name:  "metrics",
						Usage: "Write query metrics to this file in Prometheus text format",
					},
				}, embeddingServiceFlags()...),
			},
			{
				Name:   "inspect",
				Usage:  "Print the size, dimension and categories of the index",
				Action: inspectCommand,
				Flags:  []cli.Flag{indexFlag(), embeddingsFlag()},
			},
		},
	}
}

func chunkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "raw",
			Usage: "Directory of crawled .txt pages",
		},
		chunksFlag(),
		summaryFlag(),
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Maximum words per chunk",
		},
		&cli.IntFlag{
			Name:  "overlap",
			Usage: "Words of trailing context repeated at the start of the next chunk",
		},
	}
}

func embedFlags() []cli.Flag {
	return []cli.Flag{
		chunksFlag(),
		summaryFlag(),
		embeddingsFlag(),
		indexFlag(),
		&cli.StringFlag{
			Name:  "cache",
			Usage: "BadgerDB directory for cached embeddings",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of chunks sent to the embedding service per request",
		},
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Number of concurrent embedding requests",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Maximum attempts per embedding request",
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
		},
		&cli.BoolFlag{
			Name:  "no-aggregate",
			Usage: "Do not write all_embeddings.json",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Report embedding progress on stderr",
		},
	}
}

func embeddingServiceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding service API key",
			EnvVars: []string{"SITESEARCH_API_KEY"},
		},
	}
}

func chunksFlag() cli.Flag {
	return &cli.StringFlag{Name: "chunks", Usage: "Directory of chunk files"}
}

func summaryFlag() cli.Flag {
	return &cli.StringFlag{Name: "summary", Usage: "Path of the chunking summary"}
}

func embeddingsFlag() cli.Flag {
	return &cli.StringFlag{Name: "embeddings", Usage: "Output directory for embeddings"}
}

func indexFlag() cli.Flag {
	return &cli.StringFlag{Name: "index", Usage: "Index directory (default <embeddings>/faiss)"}
}

// mergeFlags concatenates flag sets, keeping the first flag of each name.
func mergeFlags(sets ...[]cli.Flag) []cli.Flag {
	seen := make(map[string]bool)
	var merged []cli.Flag
	for _, set := range sets {
		for _, f := range set {
			name := f.Names()[0]
			if seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, f)
		}
	}
	return merged
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

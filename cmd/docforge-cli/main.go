// Command docforge-cli processes files from the command line without
// running the server. Results are printed per file, followed by a
// partial-success summary. The exit code is non-zero when any file fails.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/athulyan/docforge-go/internal/core"
	"github.com/athulyan/docforge-go/internal/jobqueue"
	"github.com/athulyan/docforge-go/internal/models"
)

func main() {
	extractText := flag.Bool("extract-text", false, "run text extraction on every page")
	analyzeText := flag.Bool("analyze", false, "run document analysis on extracted text")
	thumbnails := flag.Bool("thumbnails", true, "generate thumbnails")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: docforge-cli [flags] <file>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	app, err := core.New(context.Background())
	if err != nil {
		log.Fatalf("Failed to set up application: %v", err)
	}
	defer app.Close()

	opts := models.ProcessingOptions{
		ExtractText:   *extractText,
		AnalyzeText:   *analyzeText,
		GenerateThumb: *thumbnails,
	}

	results := app.Queue().ProcessBatch(context.Background(), files, opts)

	failed := 0
	for i, res := range results {
		status := "ok"
		if !res.Success {
			status = "FAILED"
			failed++
		}
		fmt.Printf("%-6s %s", status, files[i])
		if res.Success && res.ProcessedImage != nil {
			fmt.Printf(" (%d page(s), %dx%d, %dms)",
				res.ProcessedImage.PageCount,
				res.ProcessedImage.Width, res.ProcessedImage.Height,
				res.Metrics.TotalMs)
		}
		if res.Message != "" {
			fmt.Printf(": %s", res.Message)
		}
		fmt.Println()
	}

	fmt.Println(jobqueue.BatchSummary(results))
	if failed > 0 {
		os.Exit(1)
	}
}

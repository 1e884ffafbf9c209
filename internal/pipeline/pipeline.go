// This file contains the main processing pipeline: format detection,
// decode, page splitting, canonical conversion, thumbnailing, cached text
// extraction and AI analysis, and artifact persistence. Collaborator
// failures (OCR, AI) are recorded on the result without failing the run;
// every other stage failure aborts the file.

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/athulyan/docforge-go/internal/analyze"
	"github.com/athulyan/docforge-go/internal/cache"
	"github.com/athulyan/docforge-go/internal/config"
	"github.com/athulyan/docforge-go/internal/models"
	"github.com/athulyan/docforge-go/internal/storage"
	"github.com/athulyan/docforge-go/internal/store"
	"github.com/athulyan/docforge-go/internal/textract"
	"github.com/athulyan/docforge-go/internal/util"
)

// Operation tags for cache keys. Identical content requested for different
// operations must never share an entry.
const (
	opTagOCR = "ocr"
	opTagAI  = "ai"
)

var (
	// ErrFileNotFound is returned when the input path does not exist.
	ErrFileNotFound = errors.New("file does not exist")
	// ErrUnsupportedFormat is returned for extensions outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Pipeline converts input files into their normalized artifacts.
type Pipeline struct {
	cfg       *config.Config
	registry  *Registry
	backend   storage.Backend
	cache     *cache.Cache
	extractor textract.Engine
	analyzer  analyze.Analyzer
	pub       Publisher
	st        *store.Store // optional audit store
}

// New wires a pipeline. extractor, analyzer, pub and st may each be nil when
// the corresponding stage is unused.
func New(cfg *config.Config, backend storage.Backend, c *cache.Cache,
	extractor textract.Engine, analyzer analyze.Analyzer, pub Publisher, st *store.Store) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		registry:  NewRegistry(),
		backend:   backend,
		cache:     c,
		extractor: extractor,
		analyzer:  analyzer,
		pub:       pub,
		st:        st,
	}
}

// SupportedExtensions exposes the accepted extension set.
func (p *Pipeline) SupportedExtensions() []string {
	return p.registry.SupportedExtensions()
}

// Process runs the full pipeline for one file. The returned result has
// Success=false with a stage-identifying message on failure; an error is
// returned alongside it for job bookkeeping.
func (p *Pipeline) Process(ctx context.Context, jobID, filePath string, opts models.ProcessingOptions) (*models.ProcessingResult, error) {
	started := time.Now()
	reporter := NewReporter(p.pub, jobID, filepath.Base(filePath))
	result := &models.ProcessingResult{}

	fail := func(stage string, err error) (*models.ProcessingResult, error) {
		result.Success = false
		result.Message = fmt.Sprintf("%s: %v", stage, err)
		result.Metrics.TotalMs = time.Since(started).Milliseconds()
		reporter.Failed(result.Message)
		return result, err
	}

	// 1. Validation: fail fast before any work is performed.
	handler, err := p.validate(filePath)
	if err != nil {
		return fail("validation", err)
	}
	reporter.Step(5, 0, "Validated input")

	// 2. Decode into pages.
	decodeStart := time.Now()
	doc, err := handler.Decode(filePath)
	if err != nil {
		return fail("decode", err)
	}
	result.Metrics.DecodeMs = time.Since(decodeStart).Milliseconds()
	reporter.SetTotalPages(doc.PageCount())
	reporter.Step(15, 0, fmt.Sprintf("Decoded %d page(s)", doc.PageCount()))

	if err := ctx.Err(); err != nil {
		return fail("cancelled", err)
	}

	// 3. Per page: canonical rendition, thumbnail, persistence, optional OCR.
	baseName := util.SanitizeFileName(strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)))
	artifactDir := filepath.ToSlash(filepath.Join("jobs", jobID))

	var (
		textParts   []string
		ocrFailures []string
		convertMs   int64
		thumbMs     int64
	)

	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return fail("cancelled", err)
		}

		convertStart := time.Now()
		canonical, err := encodeCanonical(page, 90)
		if err != nil {
			return fail("convert", err)
		}
		convertMs += time.Since(convertStart).Milliseconds()

		pagePath := fmt.Sprintf("%s/%s_page_%03d.jpg", artifactDir, baseName, i+1)
		if _, err := p.backend.Save(ctx, pagePath, canonical); err != nil {
			return fail("persist", err)
		}

		artifact := &models.ImageArtifact{
			FileName:       filepath.Base(filePath),
			OriginalFormat: doc.Format,
			Width:          page.Bounds().Dx(),
			Height:         page.Bounds().Dy(),
			FileSizeBytes:  int64(len(canonical)),
			ImagePath:      pagePath,
			PageCount:      doc.PageCount(),
			IsMultiPage:    doc.IsMultiPage(),
		}

		if opts.GenerateThumb {
			thumbStart := time.Now()
			thumb, err := GenerateThumbnail(page, ThumbnailOptions{
				Width:   uint(p.cfg.Thumbnail.Width),
				Height:  uint(p.cfg.Thumbnail.Height),
				Quality: p.cfg.Thumbnail.Quality,
			})
			if err != nil {
				return fail("thumbnail", err)
			}
			thumbMs += time.Since(thumbStart).Milliseconds()

			thumbPath := fmt.Sprintf("%s/%s_thumb_%03d.jpg", artifactDir, baseName, i+1)
			if _, err := p.backend.Save(ctx, thumbPath, thumb); err != nil {
				return fail("persist", err)
			}
			artifact.ThumbnailPath = thumbPath
		}

		if i == 0 {
			result.ProcessedImage = artifact
		}
		if doc.IsMultiPage() {
			result.SplitPages = append(result.SplitPages, artifact)
		}

		// Optional OCR, consulting the cache first. A page failing
		// extraction does not abort the run or the remaining pages.
		if opts.ExtractText && p.extractor != nil {
			text, err := p.extractText(ctx, canonical)
			if err != nil {
				if ctx.Err() != nil {
					return fail("cancelled", ctx.Err())
				}
				log.Printf("Text extraction failed for %s page %d: %v", filePath, i+1, err)
				ocrFailures = append(ocrFailures, fmt.Sprintf("page %d: %v", i+1, err))
			} else if text != "" {
				textParts = append(textParts, text)
			}
		}

		pct := 15 + 70*float64(i+1)/float64(doc.PageCount())
		reporter.Step(pct, i+1, fmt.Sprintf("Processed page %d/%d", i+1, doc.PageCount()))
	}

	result.Metrics.ConvertMs = convertMs
	result.Metrics.ThumbnailMs = thumbMs
	result.ExtractedText = strings.Join(textParts, "\n\n")

	// 4. AI analysis: only when requested and extraction produced text.
	// Failures are recorded, never fatal.
	var aiFailure string
	if opts.AnalyzeText && p.analyzer != nil && result.ExtractedText != "" {
		reporter.Step(90, doc.PageCount(), "Analyzing extracted text")
		analysis, err := p.analyzeText(ctx, result.ExtractedText)
		if err != nil {
			if ctx.Err() != nil {
				return fail("cancelled", ctx.Err())
			}
			log.Printf("AI analysis failed for %s: %v", filePath, err)
			aiFailure = err.Error()
		} else {
			result.AiAnalysis = analysis
		}
	}

	// 5. Assemble the final result and metrics.
	result.Success = true
	result.Message = p.summaryMessage(ocrFailures, aiFailure)
	result.Metrics.TotalMs = time.Since(started).Milliseconds()

	if p.st != nil {
		if err := p.st.SaveResult(jobID, result); err != nil {
			log.Printf("Failed to record processed document %s: %v", jobID, err)
		}
	}

	reporter.Completed("Processing complete")
	return result, nil
}

// validate checks existence and extension support before any work starts.
func (p *Pipeline) validate(filePath string) (FormatHandler, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, filePath)
	}
	handler, ok := p.registry.HandlerFor(filePath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filePath))
	}
	return handler, nil
}

// extractText runs OCR for one rendered page through the cache. The key is
// the digest of the canonical page bytes, so byte-identical content is
// extracted at most once per TTL window.
func (p *Pipeline) extractText(ctx context.Context, pageData []byte) (string, error) {
	ttl := time.Duration(p.cfg.Cache.OCRTTLMinutes) * time.Minute
	key := cache.Key(pageData, opTagOCR)
	v, err := p.cache.GetOrCreate(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return p.extractor.Extract(ctx, pageData)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// analyzeText runs the AI collaborator through the cache, keyed by the
// digest of the extracted text.
func (p *Pipeline) analyzeText(ctx context.Context, text string) (*models.AiAnalysis, error) {
	ttl := time.Duration(p.cfg.Cache.AITTLMinutes) * time.Minute
	sum := sha256.Sum256([]byte(text))
	key := cache.KeyForDigest(hex.EncodeToString(sum[:]), opTagAI)
	v, err := p.cache.GetOrCreate(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return p.analyzer.Analyze(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AiAnalysis), nil
}

func (p *Pipeline) summaryMessage(ocrFailures []string, aiFailure string) string {
	if len(ocrFailures) == 0 && aiFailure == "" {
		return "Processed successfully"
	}
	var parts []string
	parts = append(parts, "Processed with warnings")
	if len(ocrFailures) > 0 {
		parts = append(parts, fmt.Sprintf("text extraction failed on %s", strings.Join(ocrFailures, "; ")))
	}
	if aiFailure != "" {
		parts = append(parts, fmt.Sprintf("ai analysis failed: %s", aiFailure))
	}
	return strings.Join(parts, "; ")
}

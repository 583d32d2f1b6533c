package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/locale"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		outputDir  string
		logLevel   string
	)

	flag.StringVar(&configPath, "config", "", "Path to a config file (default: search ./config.toml, ./config, /etc/invoicer)")
	flag.StringVar(&outputDir, "out", "", "Directory for rendered PDFs (default: invoice.output_dir)")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if outputDir == "" {
		outputDir = cfg.Invoice.OutputDir
	}

	composer, err := printing.NewDocumentComposerFromConfig(cfg.Invoice)
	if err != nil {
		log.Fatal("Failed to initialize document composer", zap.Error(err))
	}
	svc := invoicing.NewInvoiceService(composer, log,
		invoicing.WithDefaultCurrency(valueobject.Currency(cfg.Invoice.DefaultCurrency)))

	failed := 0
	for _, file := range files {
		result, err := renderFile(context.Background(), svc, file, outputDir)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			continue
		}
		fmt.Printf("%s\t%s\n", result.Path, result.Total)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// renderResult describes one written PDF
type renderResult struct {
	Path  string
	Total string
}

// renderFile reads one invoice JSON document and writes its PDF into outputDir
// under the suggested filename
func renderFile(ctx context.Context, svc *invoicing.InvoiceService, path, outputDir string) (*renderResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice: %w", err)
	}

	var req invoicing.InvoiceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to parse invoice: %w", err)
	}

	rendered, err := svc.Render(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	target := filepath.Join(outputDir, rendered.Filename)
	if err := os.WriteFile(target, rendered.Content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	return &renderResult{
		Path:  target,
		Total: locale.FormatMoney(rendered.Totals.TotalAmount),
	}, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Invoicer offline renderer

Usage:
  render [flags] <invoice.json>...

Each file holds one invoice in the same JSON shape the HTTP API accepts.
The PDF is written as "<YYYYMMDD> <project> <payer> <number>.pdf" and the
path and formatted total are printed, tab separated, one line per invoice.

Flags:
  -config string        Path to a config file
  -out string           Output directory (default: invoice.output_dir)
  -log-level string     Log level: debug, info, warn, error (default: warn)`)
}

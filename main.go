package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/finparse/kb-statement-converter/internal/api"
	"github.com/finparse/kb-statement-converter/internal/config"
	"github.com/finparse/kb-statement-converter/internal/extractor"
	"github.com/finparse/kb-statement-converter/internal/merger"
	"github.com/finparse/kb-statement-converter/internal/parser"
	"github.com/finparse/kb-statement-converter/internal/writer"
)

const version = "1.0.0"

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	outputFlag := flag.String("output", cfg.OutputDir, "Output directory for the sliced CSV tables")
	serveFlag := flag.String("serve", "", "Run the HTTP API on this address instead of converting files (e.g. :8080)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `KB Statement PDF Converter

Converts Komerční banka account statement PDFs into two normalized CSV
tables: per-transaction rows and per-statement metadata. Statements split
across multiple files (name_part1.pdf, name_part2.pdf, ...) are merged
before parsing.

Usage:
  kb-statement-converter [flags] <input.pdf> [input2.pdf ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert one statement
  kb-statement-converter statement.pdf

  # Convert into a custom output directory
  kb-statement-converter --output=converted jan.pdf feb.pdf

  # Run the HTTP convert API
  kb-statement-converter --serve=:8080
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("kb-statement-converter v%s\n", version)
		os.Exit(0)
	}

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	if *serveFlag != "" {
		serve(*serveFlag, cfg, log)
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	inputs := flag.Args()
	for _, p := range inputs {
		if strings.ToLower(filepath.Ext(p)) != ".pdf" {
			fatalf(2, "expected .pdf file, got %q\n", p)
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			fatalf(2, "input file not found: %s\n", p)
		}
	}

	groups := merger.GroupSplitFiles(inputs)
	log.Info("input files discovered",
		zap.Int("files", len(inputs)),
		zap.Int("statements", len(groups)))

	src := extractor.New()
	out := &writer.SlicedWriter{OutDir: *outputFlag}

	for _, group := range groups {
		if err := processGroup(group, src, out, log); err != nil {
			if parser.IsParserError(err) {
				log.Error("statement parsing failed", zap.String("statement", group.Base), zap.Error(err))
				os.Exit(1)
			}
			log.Error("processing failed", zap.String("statement", group.Base), zap.Error(err))
			os.Exit(2)
		}
	}

	log.Info("parsing finished successfully")
}

func processGroup(group merger.Group, src *extractor.Engine, out *writer.SlicedWriter, log *zap.Logger) error {
	path, cleanup, err := merger.Merge(group)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(group.Paths) > 1 {
		log.Info("merged split statement",
			zap.String("statement", group.Base),
			zap.Int("parts", len(group.Paths)))
	}

	log.Info("parsing statement", zap.String("file", group.Base))

	rd, err := parser.NewStatementReader(src, path, log)
	if err != nil {
		return err
	}

	rowCount, err := out.WriteStatement(group.Base, rd)
	if err != nil {
		return err
	}

	debit, credit := rd.Totals()
	log.Info("statement converted",
		zap.String("file", group.Base),
		zap.Int("rows", rowCount),
		zap.Int("pages", rd.PagesProcessed()),
		zap.String("debit_total", debit.String()),
		zap.String("credit_total", credit.String()))
	return nil
}

func serve(addr string, cfg *config.Config, log *zap.Logger) {
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxUploadBytes,
	})
	api.New(extractor.New(), log).Register(app)

	log.Info("serving convert API", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	logCfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		logCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := logCfg.Build()
	if err != nil {
		fatalf(2, "failed to build logger: %v\n", err)
	}
	return log
}

func fatalf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

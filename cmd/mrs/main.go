package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/minhvu-dev/marketscribe/internal/api"
	"github.com/minhvu-dev/marketscribe/internal/common"
	"github.com/minhvu-dev/marketscribe/internal/framework"
	"github.com/minhvu-dev/marketscribe/internal/llm"
	"github.com/minhvu-dev/marketscribe/internal/report"
	"github.com/minhvu-dev/marketscribe/internal/research"
	"github.com/minhvu-dev/marketscribe/internal/store"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("mrs: .env file not loaded", "error", err)
	} else {
		logger.Info("mrs: environment loaded from .env")
	}

	input := flag.String("input", "", "path to the research framework workbook (.xlsx)")
	industry := flag.String("industry", "", "industry under research")
	market := flag.String("market", "Việt Nam", "target market")
	purpose := flag.String("purpose", "", "custom research purpose (overrides the workbook)")
	mode := flag.String("mode", "questions", "enrichment mode: questions or categories")
	testing := flag.Bool("test", false, "testing mode: cap the run at a handful of work units")
	output := flag.String("output", defaultOutputDir(), "directory for result documents")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the run catalog database (empty to disable)")
	exportDocx := flag.Bool("export-docx", false, "render a Word report next to the result document")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of running once")
	addr := flag.String("addr", ":8085", "listen address in serve mode")
	flag.Parse()

	cfg, err := research.LoadConfig()
	if err != nil {
		logger.Error("mrs: config load failed", "error", err)
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	var catalog *store.Catalog
	if strings.TrimSpace(*catalogPath) != "" {
		catalog, err = store.OpenCatalog(*catalogPath)
		if err != nil {
			logger.Error("mrs: catalog open failed", "error", err, "path", *catalogPath)
			fmt.Fprintln(os.Stderr, "catalog error:", err)
			os.Exit(1)
		}
		defer catalog.Close()
	}

	provider := llm.NewProvider()
	runner := research.NewRunner(provider, catalog, cfg)

	if *serve {
		server := api.NewServer(runner, catalog, *output)
		logger.Info("mrs: serving HTTP API", "addr", *addr)
		if err := http.ListenAndServe(*addr, server.Router()); err != nil {
			logger.Error("mrs: server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if strings.TrimSpace(*input) == "" || strings.TrimSpace(*industry) == "" {
		fmt.Fprintln(os.Stderr, "usage: mrs -input framework.xlsx -industry <name> [-market <name>] [-mode questions|categories]")
		os.Exit(2)
	}

	runMode := store.ModePerQuestion
	switch *mode {
	case "questions", string(store.ModePerQuestion):
	case "categories", string(store.ModePerCategory):
		runMode = store.ModePerCategory
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	grid, err := framework.LoadWorkbook(*input)
	if err != nil {
		logger.Error("mrs: workbook load failed", "error", err, "path", *input)
		fmt.Fprintln(os.Stderr, "workbook error:", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*output, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "output dir error:", err)
		os.Exit(1)
	}
	outputPath := filepath.Join(*output,
		fmt.Sprintf("research_%s_%d.json", sanitizeName(*industry), time.Now().Unix()))

	doc, err := runner.Run(context.Background(), research.Request{
		Grid:        grid,
		Industry:    *industry,
		Market:      *market,
		Purpose:     *purpose,
		Mode:        runMode,
		TestingMode: *testing,
		OutputPath:  outputPath,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "research error:", err)
		os.Exit(1)
	}

	fmt.Println("result document:", outputPath)
	if *exportDocx {
		docxPath := strings.TrimSuffix(outputPath, ".json") + ".docx"
		exporter := &report.Exporter{}
		if err := exporter.Export(doc, docxPath); err != nil {
			logger.Error("mrs: report export failed", "error", err)
			fmt.Fprintln(os.Stderr, "export error:", err)
			os.Exit(1)
		}
		fmt.Println("word report:", docxPath)
	}
}

func defaultOutputDir() string {
	if dir := strings.TrimSpace(os.Getenv("MRS_OUTPUT_DIR")); dir != "" {
		return dir
	}
	return "output"
}

func defaultCatalogPath() string {
	if path := strings.TrimSpace(os.Getenv("MRS_CATALOG_PATH")); path != "" {
		return path
	}
	return filepath.Join(defaultOutputDir(), "runs.db")
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/acordkit/acord-extract/internal/config"
	"github.com/acordkit/acord-extract/internal/extraction"
	"github.com/acordkit/acord-extract/internal/pdf"
	"github.com/acordkit/acord-extract/internal/registry"
)

var (
	registryPath    = flag.String("registry", "", "Path to a field registry YAML file (built-in registry if empty)")
	outputFormat    = flag.String("format", "json", "Output format: json, text")
	lineOverlap     = flag.Float64("lineoverlap", config.DefaultLineOverlap, "Vertical overlap fraction for line grouping (0,1]")
	confidenceFloor = flag.Float64("confidencefloor", config.DefaultConfidenceFloor, "Minimum candidate confidence [0,1)")
	maxFileSize     = flag.Int64("maxfilesize", config.DefaultMaxFileSize, "Maximum upload size in bytes")
	maxPages        = flag.Int("maxpages", config.DefaultMaxPageCount, "Maximum document page count")
	help            = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: PDF file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	pdfPath := flag.Arg(0)
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", pdfPath)
		os.Exit(1)
	}

	reg, err := loadRegistry(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading registry: %v\n", err)
		os.Exit(1)
	}

	service := extraction.NewService(extraction.Config{
		MaxFileSize:         *maxFileSize,
		MaxPageCount:        *maxPages,
		LineOverlapFraction: *lineOverlap,
		ConfidenceFloor:     *confidenceFloor,
	}, reg)

	upload, err := readUpload(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	identity, err := extraction.LocalVerifier{}.Verify(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving identity: %v\n", err)
		os.Exit(1)
	}

	doc, err := service.Extract(ctx, identity, upload)
	if err != nil {
		reportFailure(err)
		os.Exit(1)
	}

	if err := outputResults(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("ACORD Extract File - extract structured fields from a commercial insurance application PDF")
	fmt.Println()
	fmt.Println("The tool reconstructs label/value pairs from the PDF text layer and any filled")
	fmt.Println("interactive form fields, matches them against the field registry, and prints a")
	fmt.Println("JSON document with one entry per canonical field.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -registry         Field registry YAML path (built-in ACORD registry if empty)")
	fmt.Println("  -format           Output format: json (default), text")
	fmt.Println("  -lineoverlap      Vertical overlap fraction for line grouping")
	fmt.Println("  -confidencefloor  Minimum candidate confidence")
	fmt.Println("  -maxfilesize      Maximum upload size in bytes")
	fmt.Println("  -maxpages         Maximum document page count")
	fmt.Println("  -help             Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  acord-extract-file application.pdf")
	fmt.Println("  acord-extract-file -format text acord-125.pdf")
	fmt.Println("  acord-extract-file -registry fields.yaml -confidencefloor 0.5 application.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  acord-extract-file [OPTIONS] <pdf_file>")
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.Load(path)
}

func readUpload(path string) (extraction.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extraction.Upload{}, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return extraction.Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// reportFailure prints a document-level failure as its machine-readable
// payload so callers can script against the error kind.
func reportFailure(err error) {
	if docErr, ok := pdf.AsDocumentError(err); ok {
		encoder := json.NewEncoder(os.Stderr)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(docErr.Payload())
		return
	}
	fmt.Fprintf(os.Stderr, "Error extracting fields: %v\n", err)
}

func outputResults(doc extraction.ExtractedDocument) error {
	switch *outputFormat {
	case "json":
		return outputJSON(doc)
	case "text":
		return outputText(doc)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputJSON(doc extraction.ExtractedDocument) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func outputText(doc extraction.ExtractedDocument) error {
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result := doc[name]
		if !result.Found {
			fmt.Printf("%-18s (not found)\n", name)
			continue
		}
		if result.SourcePage != nil {
			fmt.Printf("%-18s %v  (page %d)\n", name, result.Value, *result.SourcePage)
		} else {
			fmt.Printf("%-18s %v  (form field)\n", name, result.Value)
		}
	}
	return nil
}

func init() {
	// Custom flag usage
	flag.Usage = func() {
		printHelp()
	}
}

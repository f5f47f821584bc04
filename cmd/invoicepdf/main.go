// invoicepdf converts password-protected HTML tax invoices to PDF files
// named after the issuing company and the invoice date.
//
// Usage:
//
//	invoicepdf convert [-config file] [-credential c] [-out dir] file.html...
//	invoicepdf fields file.html|file.pdf
//	invoicepdf serve [-config file]
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	invoicepdf "github.com/porticus-lab/invoice-pdf"
	"github.com/porticus-lab/invoice-pdf/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "fields":
		err = runFields(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`invoicepdf - password-protected HTML invoice to PDF converter

Usage:
  invoicepdf convert [options] <file.html>...
  invoicepdf fields <file.html|file.pdf>
  invoicepdf serve [options]

Commands:
  convert   Unlock, render and name each document, writing PDFs to a directory
  fields    Print the company name and date found in a document as JSON
  serve     Run the web upload service

Options:
  -config <file>      YAML configuration (default: invoicepdf.yaml when present)
  -credential <c>     Unlock credential (convert; default from config)
  -out <dir>          Output directory (convert; default: current directory)
  -zip <file>         Also write a zip with a manifest (convert)

Examples:
  invoicepdf convert -credential 1234567890 -out pdf/ invoices/*.html
  invoicepdf fields invoice.html
  PORT=8080 invoicepdf serve -config invoicepdf.yaml
`)
}

// loadConfig reads path, or the default file when it exists.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return config.Load(path)
}

func setupLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func newConverter(cfg *config.Config, logger *slog.Logger) (*invoicepdf.Converter, error) {
	opts := []invoicepdf.Option{
		invoicepdf.WithTimeout(cfg.Browser.Timeout),
		invoicepdf.WithHeadless(cfg.Browser.Headless),
		invoicepdf.WithLogger(logger),
	}
	if cfg.Browser.ChromePath != "" {
		opts = append(opts, invoicepdf.WithChromePath(cfg.Browser.ChromePath))
	}
	if cfg.Browser.NoSandbox {
		opts = append(opts, invoicepdf.WithNoSandbox())
	}
	if cfg.Browser.AutoDownload {
		opts = append(opts, invoicepdf.WithAutoDownload())
	}
	return invoicepdf.NewConverter(opts...)
}

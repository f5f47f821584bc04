package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/porticus-lab/invoice-pdf/batch"
	"github.com/porticus-lab/invoice-pdf/extract"
	"github.com/porticus-lab/invoice-pdf/internal/pdftext"
	"github.com/porticus-lab/invoice-pdf/naming"
)

type fieldsOutput struct {
	File     string         `json:"file"`
	Source   string         `json:"source"`
	Fields   extract.Result `json:"fields"`
	Filename string         `json:"filename"`
}

func runFields(args []string) error {
	fset := flag.NewFlagSet("fields", flag.ContinueOnError)
	configPath := fset.String("config", "", "YAML configuration file")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() == 0 {
		return fmt.Errorf("no input file specified")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	ex := extract.New(extract.Config{Logger: logger})
	return printFields(os.Stdout, ex, cfg.Synthesizer(), fset.Args())
}

func printFields(w io.Writer, ex *extract.Extractor, names naming.Synthesizer, paths []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for i, path := range paths {
		out, err := fieldsOf(ex, path)
		if err != nil {
			return err
		}
		out.Filename = names.Synthesize(out.Fields, i)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
	}
	return nil
}

func fieldsOf(ex *extract.Extractor, path string) (fieldsOutput, error) {
	out := fieldsOutput{File: path}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		data, err := os.ReadFile(path)
		if err != nil {
			return out, err
		}
		text, err := pdftext.Extract(data)
		if err != nil {
			return out, fmt.Errorf("reading %s: %w", path, err)
		}
		out.Source = extract.FlatText.String()
		out.Fields = ex.Extract(text, extract.FlatText)
		return out, nil
	}

	doc, err := batch.ReadFile(path)
	if err != nil {
		return out, err
	}
	text, err := doc.Text()
	if err != nil {
		return out, err
	}
	out.Source = extract.Markup.String()
	out.Fields = ex.Extract(text, extract.Markup)
	return out, nil
}

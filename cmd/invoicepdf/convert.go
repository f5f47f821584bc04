package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/porticus-lab/invoice-pdf/batch"
	"github.com/porticus-lab/invoice-pdf/extract"
)

func runConvert(args []string) error {
	fset := flag.NewFlagSet("convert", flag.ContinueOnError)
	configPath := fset.String("config", "", "YAML configuration file")
	credential := fset.String("credential", "", "unlock credential")
	outDir := fset.String("out", ".", "output directory")
	zipPath := fset.String("zip", "", "also write a zip archive with a manifest")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() == 0 {
		return fmt.Errorf("no input files specified")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)
	if *credential == "" {
		*credential = cfg.DefaultCredential
	}

	docs := make([]batch.Document, 0, fset.NArg())
	for _, path := range fset.Args() {
		doc, err := batch.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	conv, err := newConverter(cfg, logger)
	if err != nil {
		return err
	}
	defer conv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &batch.Runner{
		Open:      batch.TargetOpener(conv.OpenTarget, cfg.RenderOptions(logger)...),
		Names:     cfg.Synthesizer(),
		Extractor: extract.New(extract.Config{Logger: logger}),
		Logger:    logger,
	}
	res := runner.Run(ctx, docs, *credential, nil)

	if err := writeOutputs(res, *outDir); err != nil {
		return err
	}
	if *zipPath != "" {
		if err := writeZip(res, *zipPath); err != nil {
			return err
		}
	}

	for _, rec := range res.Failed() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", rec.Original, rec.Reason)
	}
	if n := len(res.Failed()); n > 0 {
		return fmt.Errorf("%d of %d documents failed", n, res.Len())
	}
	return nil
}

// writeOutputs writes each successful PDF into dir without overwriting
// another output of the same run.
func writeOutputs(res *batch.Result, dir string) error {
	ok := res.Succeeded()
	names := make([]string, len(ok))
	for i, rec := range ok {
		names[i] = rec.Filename
	}
	names = batch.UniqueNames(names)
	for i, rec := range ok {
		path := filepath.Join(dir, names[i])
		if err := rec.Output.WriteToFile(path, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println(path)
	}
	return nil
}

func writeZip(res *batch.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.WriteArchive(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

package batch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ManifestName is the name of the spreadsheet listing every record inside
// an archive.
const ManifestName = "manifest.xlsx"

// ErrNothingToArchive is returned by WriteArchive when no document
// succeeded.
var ErrNothingToArchive = errors.New("batch: no successful documents to archive")

// UniqueNames returns names with duplicates disambiguated by " (2)",
// " (3)", ... inserted before the extension. The first occurrence keeps
// its name.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	seen := make(map[string]int, len(names))
	for i, n := range names {
		seen[n]++
		if seen[n] == 1 {
			out[i] = n
			continue
		}
		ext := path.Ext(n)
		base := strings.TrimSuffix(n, ext)
		for k := seen[n]; ; k++ {
			candidate := base + " (" + strconv.Itoa(k) + ")" + ext
			if !taken[candidate] {
				taken[candidate] = true
				seen[n] = k
				out[i] = candidate
				break
			}
		}
	}
	return out
}

// WriteArchive writes a zip of every successful PDF under its synthesized
// name, plus a manifest spreadsheet covering all records.
func (r *Result) WriteArchive(w io.Writer) error {
	ok := r.Succeeded()
	if len(ok) == 0 {
		return ErrNothingToArchive
	}

	names := make([]string, len(ok))
	for i, rec := range ok {
		names[i] = rec.Filename
	}
	names = UniqueNames(names)

	zw := zip.NewWriter(w)
	for i, rec := range ok {
		f, err := zw.Create(names[i])
		if err != nil {
			return fmt.Errorf("batch: adding %s: %w", names[i], err)
		}
		if _, err := rec.Output.WriteTo(f); err != nil {
			return fmt.Errorf("batch: writing %s: %w", names[i], err)
		}
	}

	f, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("batch: adding manifest: %w", err)
	}
	if err := r.WriteManifest(f); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("batch: finishing archive: %w", err)
	}
	return nil
}

var manifestHeader = []string{"No.", "Original", "Status", "Filename", "Company", "Date", "Reason"}

// WriteManifest writes an xlsx sheet with one row per record.
func (r *Result) WriteManifest(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Documents"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("batch: manifest sheet: %w", err)
	}

	rows := [][]any{make([]any, len(manifestHeader))}
	for i, h := range manifestHeader {
		rows[0][i] = h
	}
	for _, rec := range r.Records {
		rows = append(rows, []any{
			rec.Index + 1,
			rec.Original,
			string(rec.Status),
			rec.Filename,
			rec.Fields.CompanyName,
			rec.Fields.EffectiveDate,
			rec.Reason,
		})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("batch: manifest: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("batch: manifest: %w", err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 6); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "G", 28); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("batch: writing manifest: %w", err)
	}
	return nil
}

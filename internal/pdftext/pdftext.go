// Package pdftext recovers reading-order plain text from PDF files such as
// Chrome print output. pdfcpu supplies the document model (pages, fonts,
// decoded streams); this package interprets the page content streams.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoText is returned by Extract when no page has any text.
var ErrNoText = errors.New("pdftext: no text content")

// Extract returns the text of all pages joined by newlines.
func Extract(data []byte) (string, error) {
	pages, err := Pages(data)
	if err != nil {
		return "", err
	}
	var nonEmpty []string
	for _, p := range pages {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return "", ErrNoText
	}
	return strings.Join(nonEmpty, "\n"), nil
}

// Pages returns the text of each page, in page order.
func Pages(data []byte) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdftext: reading pdf: %w", err)
	}

	pages := make([]string, 0, ctx.PageCount)
	for nr := 1; nr <= ctx.PageCount; nr++ {
		text, err := pageText(ctx, nr)
		if err != nil {
			return nil, fmt.Errorf("pdftext: page %d: %w", nr, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pageText(ctx *model.Context, nr int) (string, error) {
	pageDict, _, _, err := ctx.PageDict(nr, false)
	if err != nil {
		return "", err
	}
	resDict, err := inheritedResources(ctx, pageDict)
	if err != nil {
		return "", err
	}

	r, err := pdfcpu.ExtractPageContent(ctx, nr)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	in := newInterp(newResources(ctx, resDict))
	in.run(content)
	return in.text(), nil
}

// inheritedResources returns the page's /Resources, walking up the page
// tree when the page does not carry its own.
func inheritedResources(ctx *model.Context, d types.Dict) (types.Dict, error) {
	for depth := 0; d != nil && depth < 32; depth++ {
		if obj, found := d.Find("Resources"); found {
			return ctx.DereferenceDict(obj)
		}
		parent, found := d.Find("Parent")
		if !found {
			return nil, nil
		}
		var err error
		if d, err = ctx.DereferenceDict(parent); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func newResources(ctx *model.Context, res types.Dict) *resources {
	r := &resources{fonts: map[string]*font{}}
	if res == nil {
		return r
	}

	if obj, found := res.Find("Font"); found {
		if fonts, err := ctx.DereferenceDict(obj); err == nil {
			for key, fobj := range fonts {
				fd, err := ctx.DereferenceDict(fobj)
				if err != nil || fd == nil {
					continue
				}
				r.fonts[key] = loadFont(ctx, fd)
			}
		}
	}

	if obj, found := res.Find("XObject"); found {
		if xobjs, err := ctx.DereferenceDict(obj); err == nil && xobjs != nil {
			r.forms = func(n string) (*form, bool) {
				return loadForm(ctx, xobjs, n, r)
			}
		}
	}
	return r
}

func loadFont(ctx *model.Context, fd types.Dict) *font {
	f := newSimpleFont("WinAnsiEncoding")
	if st := fd.NameEntry("Subtype"); st != nil && *st == "Type0" {
		f.composite = true
	}

	if obj, found := fd.Find("Encoding"); found && !f.composite {
		enc, err := ctx.Dereference(obj)
		if err == nil {
			switch e := enc.(type) {
			case types.Name:
				f.applyEncoding(string(e))
			case types.Dict:
				if base := e.NameEntry("BaseEncoding"); base != nil {
					f.applyEncoding(*base)
				}
				if diffs := e.ArrayEntry("Differences"); diffs != nil {
					f.applyDifferences(differences(diffs))
				}
			}
		}
	}

	if obj, found := fd.Find("ToUnicode"); found {
		sd, _, err := ctx.DereferenceStreamDict(obj)
		if err == nil && sd != nil {
			if err := sd.Decode(); err == nil {
				f.toUnicode = parseCMap(sd.Content)
			}
		}
	}
	return f
}

func differences(arr types.Array) []any {
	out := make([]any, 0, len(arr))
	for _, o := range arr {
		switch v := o.(type) {
		case types.Integer:
			out = append(out, int(v))
		case types.Name:
			out = append(out, string(v))
		}
	}
	return out
}

func loadForm(ctx *model.Context, xobjs types.Dict, n string, parent *resources) (*form, bool) {
	obj, found := xobjs.Find(n)
	if !found {
		return nil, false
	}
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil || sd == nil {
		return nil, false
	}
	if st := sd.NameEntry("Subtype"); st == nil || *st != "Form" {
		return nil, false
	}
	if err := sd.Decode(); err != nil {
		return nil, false
	}

	f := &form{content: sd.Content, matrix: identity, res: parent}
	if m := sd.ArrayEntry("Matrix"); len(m) == 6 {
		for i, o := range m {
			switch v := o.(type) {
			case types.Integer:
				f.matrix[i] = float64(v)
			case types.Float:
				f.matrix[i] = float64(v)
			}
		}
	}
	if obj, found := sd.Find("Resources"); found {
		if res, err := ctx.DereferenceDict(obj); err == nil && res != nil {
			f.res = newResources(ctx, res)
		}
	}
	return f, true
}

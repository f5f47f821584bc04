// Package invoicepdf renders password-protected HTML tax invoices to PDF
// with headless Chrome (Chrome DevTools Protocol).
//
// A [Converter] owns the browser process. A [Session] is one exclusive
// tab and implements render.Target, so it plugs into the render
// orchestrator:
//
//	c, err := invoicepdf.NewConverter(invoicepdf.WithNoSandbox())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	s, err := c.NewSession(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	out, err := render.New(s).Render(ctx, markup, "1234567890")
//
// The rest of the pipeline lives in subpackages:
//
//   - extract: company name and effective date from markup or PDF text
//   - naming: "<prefix>_<company>_<date>.pdf" filenames
//   - batch: runs render, extract and naming over many documents and
//     bundles the results
//   - auth: Google sign-in limited to one domain
//
// Chrome or Chromium must be installed, or use [WithAutoDownload]:
//
//	c, err := invoicepdf.NewConverter(invoicepdf.WithAutoDownload())
package invoicepdf

// Package pdf renders parsed clinical summaries to paginated PDF.
//
// Blocks from clinpdf.Parse are laid out top to bottom on A4 (or any page
// size gofpdf knows) with a running header band and footer on every page,
// an optional metadata box on the first page, wrapped text, and tables whose
// column widths are planned to fit the content width. A block that fails to
// draw is logged and skipped; the rest of the document still renders.
//
// Example:
//
//	doc, err := pdf.Generate(clinpdf.Parse(summary), clinpdf.Metadata{
//		Filename: "visit-0412.wav",
//		Model:    "gpt-4o-mini",
//	}, pdf.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = os.WriteFile("summary.pdf", doc.Data, 0o644)
//
// Render does the same from an io.Reader and also picks up metadata from
// front matter. Colours come from a named Palette (see AvailableThemes);
// fonts default to the core Helvetica face, or TTF files via
// Config.RegularFont and Config.BoldFont.
package pdf

// Package clinpdf parses the markdown dialect produced by AI clinical
// summarizers into typed blocks.
//
// The grammar is deliberately small and line oriented: headings (# to ####),
// pipe tables, bullet and numbered list items, "Label: value" lines and
// plain paragraphs. Parse is total and deterministic; every non-blank line
// turns into exactly one block (tables consume a run of lines), so nothing
// the model wrote is silently dropped.
//
// Example:
//
//	blocks := clinpdf.Parse("## Summary\n- stable\n| A | B |\n|---|---|\n| 1 | 2 |\n")
//	for _, b := range blocks {
//		fmt.Println(b.Kind, b.Text)
//	}
//
// Rendering lives in the pdf subpackage.
package clinpdf

// Package pdfnorm prepares rendered ballot PDFs for print.
//
// Ballots from templates listed in export.grayscale_templates are piped
// through Ghostscript's pdfwrite device with a gray colour conversion
// strategy; every other template passes through untouched. Conversions run
// with bounded parallelism and results keep their input positions.
package pdfnorm

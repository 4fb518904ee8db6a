package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"github.com/sakif/user-reports/internal/apperror"
)

// documentDate is stamped into every PDF as its creation date. A fixed
// value keeps Render byte-for-byte reproducible.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// unicodeFont is embedded as a subset whenever a document holds text the
// core fonts cannot encode.
//
//go:embed fonts/DejaVuSansCondensed.ttf
var unicodeFont []byte

const unicodeFamily = "DejaVu"

const (
	titleFontSize = 20
	bodyFontSize  = 14
	titleHeight   = 10
	lineHeight    = 7
)

// Render lays out d as a paginated PDF and returns the complete document.
//
// Blocks appear in a fixed order: centered title, email, role, blank line,
// both totals, blank line, "Activities:" and one line per entry. Long
// listings and long titles wrap; nothing is dropped. Content streams are
// left uncompressed so the text can be found in the raw bytes.
//
// Text that fits Windows-1252 is set in core Helvetica. Anything else
// switches the whole document to an embedded DejaVu Sans subset, so names
// in Polish, Greek or Cyrillic keep their letters instead of degrading to
// dots. Characters the embedded face has no glyph for (CJK, for one) still
// carry their code points in the text layer but draw as blanks. Characters
// outside the Basic Multilingual Plane, emoji included, print as U+FFFD.
//
// On failure no bytes are returned, only an error matching apperror.ErrRender.
func Render(d *Description) (out []byte, err error) {
	if d == nil {
		return nil, apperror.RenderFailed(fmt.Errorf("nil description"))
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = apperror.RenderFailed(fmt.Errorf("panic: %v", r))
		}
	}()

	title := "User Report: " + d.Name
	body := []string{
		"Email: " + d.Email,
		"Role: " + string(d.Role),
		"",
		"Total Logins: " + strconv.Itoa(d.LoginCount),
		"Total PDF Downloads: " + strconv.Itoa(d.DownloadCount),
		"",
		"Activities:",
	}
	for _, e := range d.Activities {
		body = append(body, FormatEntry(e))
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentDate)
	pdf.SetTitle(basicPlane(title), true)
	pdf.SetCreator("user-reports", false)
	pdf.SetAutoPageBreak(true, 20)

	family, tr := "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if !fitsCodePage(tr, append(body, title)) {
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", unicodeFont)
		family, tr = unicodeFamily, basicPlane
	}

	pdf.AddPage()

	pdf.SetFont(family, "", titleFontSize)
	pdf.MultiCell(0, titleHeight, tr(title), "", "C", false)

	pdf.SetFont(family, "", bodyFontSize)
	for _, text := range body {
		if text == "" {
			pdf.Ln(lineHeight)
			continue
		}
		pdf.MultiCell(0, lineHeight, tr(text), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperror.RenderFailed(err)
	}
	return buf.Bytes(), nil
}

// fitsCodePage reports whether every rune of texts survives tr. The
// translator replaces runes it cannot map with '.'.
func fitsCodePage(tr func(string) string, texts []string) bool {
	for _, s := range texts {
		for _, r := range s {
			if r < 0x80 || r == '.' {
				continue
			}
			if tr(string(r)) == "." {
				return false
			}
		}
	}
	return true
}

// basicPlane replaces every rune above U+FFFF with U+FFFD. fpdf sizes its
// TrueType width table to the BMP and fails the document on anything past it.
func basicPlane(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return utf8.RuneError
		}
		return r
	}, s)
}

// FormatEntry returns the listing line for e: "{index}. {type} - {details}".
func FormatEntry(e Entry) string {
	return strconv.Itoa(e.Index) + ". " + string(e.Type) + " - " + e.Details
}

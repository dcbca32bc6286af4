// Package extractor turns exported message threads (PDF or plain text) into
// text the parser can read.
package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrNoReadableText is returned when no extraction method produced text that
// looks like money notifications.
var ErrNoReadableText = errors.New("no readable text")

// ErrUnsupportedInput is returned for files that are neither PDF nor text.
var ErrUnsupportedInput = errors.New("unsupported input")

// ReadFile returns the text of a .pdf or a plain text export.
func ReadFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return ExtractTextCombined(path)
	case ".txt", ".text", ".sms", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %q: %w", path, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q (use .txt or .pdf)", ErrUnsupportedInput, path)
	}
}

// ExtractText reads a PDF file and returns the text of each page. The
// structured library is tried first, then pdftotext and finally OCR when the
// poppler and tesseract tools are installed.
func ExtractText(filePath string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	if popplerPages, err := extractWithPdftotext(filePath); err == nil && isReadableText(popplerPages) {
		return popplerPages, nil
	}

	// Screenshots of a conversation saved as PDF have no text layer.
	if IsOCRAvailable() {
		if ocrPages, err := ExtractTextOCR(filePath); err == nil && isReadableText(ocrPages) {
			return ocrPages, nil
		}
	}

	if libErr != nil {
		return nil, fmt.Errorf("%w in %q: %v", ErrNoReadableText, filePath, libErr)
	}
	return nil, fmt.Errorf("%w in %q: the file may be image-based; copy the messages into a .txt file instead", ErrNoReadableText, filePath)
}

// ExtractTextCombined reads a PDF and returns all text combined into one
// string, one page per paragraph.
func ExtractTextCombined(filePath string) (string, error) {
	pages, err := ExtractText(filePath)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n\n"), nil
}

// isReadableText requires some length, mostly plain characters and at least
// one word every money notification carries.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 20 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

// textQuality returns the ratio of plain ASCII letters, digits, whitespace
// and common punctuation to all characters.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) ||
				unicode.IsSpace(r) || strings.ContainsRune(".,-/:;()'\"%&@#!?+=*", r)) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

var commonWords = []string{
	"ksh", "kes", "confirmed", "m-pesa", "mpesa", "airtel", "balance",
	"transfer", "account", "sent", "received", "paid", "debited", "credited",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// extractWithLibrary uses ledongthuc/pdf, row by row and then as plain text.
func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages = extractByRow(r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	if plain := extractByReaderPlainText(r); isReadableText([]string{plain}) {
		return []string{plain}, nil
	}
	return pages, nil
}

// extractByRow keeps one chat bubble line per row.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithPdftotext shells out to poppler's pdftotext, page by page.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := pageCount(filePath)
	if numPages == 0 {
		numPages = 1
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-f", n, "-l", n, filePath, "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// pageCount asks pdfinfo for the number of pages, returning 0 when unknown.
func pageCount(filePath string) int {
	out, err := exec.Command("pdfinfo", filePath).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
			if err == nil {
				return n
			}
		}
	}
	return 0
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

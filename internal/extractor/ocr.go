package extractor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// IsOCRAvailable reports whether pdftoppm and tesseract are on PATH.
func IsOCRAvailable() bool {
	_, err1 := exec.LookPath("pdftoppm")
	_, err2 := exec.LookPath("tesseract")
	return err1 == nil && err2 == nil
}

// ExtractTextOCR renders each PDF page to an image and runs Tesseract on it.
// Used for screenshots of message threads that carry no text layer.
func ExtractTextOCR(filePath string) ([]string, error) {
	if !IsOCRAvailable() {
		return nil, fmt.Errorf("OCR tools not available (install poppler-utils and tesseract-ocr)")
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", filePath, err)
	}

	tmpDir, err := os.MkdirTemp("", "sms-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	if out, err := exec.Command("pdftoppm", "-r", "300", "-png", filePath, prefix).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(out))
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}
	sort.Strings(images)

	var pages []string
	for _, img := range images {
		outBase := strings.TrimSuffix(img, ".png") + "-ocr"
		// PSM 6: a single uniform block of text, which suits a chat bubble.
		if err := exec.Command("tesseract", img, outBase, "-l", "eng", "--psm", "6").Run(); err != nil {
			continue
		}
		data, err := os.ReadFile(outBase + ".txt")
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("tesseract produced no text from %d page images", len(images))
	}
	return pages, nil
}

package extractor

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOCRAvailable(t *testing.T) {
	_, err1 := exec.LookPath("pdftoppm")
	_, err2 := exec.LookPath("tesseract")
	assert.Equal(t, err1 == nil && err2 == nil, IsOCRAvailable())
}

func TestExtractTextOCR_Errors(t *testing.T) {
	_, err := ExtractTextOCR("/tmp/nonexistent-sms-export-12345.pdf")
	assert.Error(t, err)
}

func TestPageCount_NonexistentFile(t *testing.T) {
	assert.Equal(t, 0, pageCount("/tmp/nonexistent-sms-export-12345.pdf"))
}

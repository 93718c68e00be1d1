package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", DetectContentType("a.bin", "image/png", nil))
	assert.Equal(t, "application/pdf", DetectContentType("spec.PDF", "", nil))
	assert.Equal(t, "application/json", DetectContentType("p.json", "application/octet-stream", nil))
	assert.Equal(t, "text/plain; charset=utf-8", DetectContentType("README", "", []byte("hello")))
	assert.Equal(t, "application/octet-stream", DetectContentType("blob", "", nil))
}

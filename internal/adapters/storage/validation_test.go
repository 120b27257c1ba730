package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType("application/pdf"))
	assert.NoError(t, ValidateContentType("Text/CSV; charset=utf-8"))
	assert.Error(t, ValidateContentType("application/x-msdownload"))
	assert.Error(t, ValidateContentType(""))
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(10, 10))
	assert.Error(t, ValidateFileSize(11, 10))
	assert.Error(t, ValidateFileSize(0, 10))
	assert.NoError(t, ValidateFileSize(1<<30, 0))
}

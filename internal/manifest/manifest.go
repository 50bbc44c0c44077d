// Package manifest reads the per-file metadata table that drives a batch.
//
// A manifest lists, for every file to upload, its name relative to the data
// directory, a description, a MIME type and tags. JSON, YAML and CSV are
// accepted; the format is picked from the file extension.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/dvcurate/internal/models"
)

// UnknownMimeType is assigned to records whose file type has no mapping.
const UnknownMimeType = "UNKNOWN"

var (
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	ErrMissingFileName   = errors.New("manifest row without file name")
)

// MimeTypeFor maps a curation file type to the MIME type sent to the
// repository.
func MimeTypeFor(fileType string) string {
	switch fileType {
	case "image":
		return "image/jpeg"
	case "alto":
		return "application/xml"
	case "txt":
		return "text/plain"
	case "csv":
		return "text/csv"
	default:
		return UnknownMimeType
	}
}

// Load reads the manifest at path.
func Load(path string) ([]models.FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var records []models.FileRecord
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		records, err = ParseJSON(data)
	case ".yaml", ".yml":
		records, err = ParseYAML(data)
	case ".csv":
		records, err = ParseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return records, nil
}

// normalize fills derived fields and rejects rows without a file name.
func normalize(records []models.FileRecord) ([]models.FileRecord, error) {
	for i := range records {
		r := &records[i]
		r.FileName = strings.TrimSpace(r.FileName)
		if r.FileName == "" {
			return nil, fmt.Errorf("%w (row %d)", ErrMissingFileName, i+1)
		}
		if r.MimeType == "" {
			r.MimeType = MimeTypeFor(r.FileType)
		}
	}
	return records, nil
}

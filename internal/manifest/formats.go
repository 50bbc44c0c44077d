package manifest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/dvcurate/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseJSON decodes a JSON array of records.
func ParseJSON(data []byte) ([]models.FileRecord, error) {
	var records []models.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return normalize(records)
}

// ParseYAML decodes either a top-level sequence of records or a mapping with
// a "files" key.
func ParseYAML(data []byte) ([]models.FileRecord, error) {
	var doc struct {
		Files []models.FileRecord `yaml:"files"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && doc.Files != nil {
		return normalize(doc.Files)
	}

	var records []models.FileRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return normalize(records)
}

// Column aliases accepted in a CSV header.
var csvColumns = map[string]string{
	"filename":     "fileName",
	"filename_osn": "fileName",
	"description":  "description",
	"mimetype":     "mimeType",
	"mime_type":    "mimeType",
	"filetype":     "fileType",
	"file_type":    "fileType",
	"tags":         "tags",
	"categories":   "tags",
}

// ParseCSV decodes a CSV table with a header row. The tags column holds
// either a JSON array or a ';'-separated list.
func ParseCSV(data []byte) ([]models.FileRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.FileRecord{}, nil
		}
		return nil, err
	}

	index := map[string]int{}
	for i, h := range header {
		if field, ok := csvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			index[field] = i
		}
	}
	if _, ok := index["fileName"]; !ok {
		return nil, fmt.Errorf("csv header has no file name column")
	}

	get := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := []models.FileRecord{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		tags, err := parseTags(get(row, "tags"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, models.FileRecord{
			FileName:    get(row, "fileName"),
			Description: get(row, "description"),
			MimeType:    get(row, "mimeType"),
			FileType:    get(row, "fileType"),
			Tags:        tags,
		})
	}
	return normalize(records)
}

func parseTags(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(s), &tags); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
		return tags, nil
	}

	var tags []string
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

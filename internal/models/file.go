package models

// FileRecord is one row of the curation manifest: a local file together with
// the metadata the repository should display for it.
type FileRecord struct {
	FileName    string   `json:"fileName" yaml:"fileName"`
	Description string   `json:"description" yaml:"description"`
	MimeType    string   `json:"mimeType" yaml:"mimeType"`
	FileType    string   `json:"fileType,omitempty" yaml:"fileType,omitempty"`
	Tags        []string `json:"tags" yaml:"tags"`
}

// FileDescriptor describes an object that was written to the store and
// digested, pending registration. Field names follow the repository's
// addFiles contract.
type FileDescriptor struct {
	StorageIdentifier string   `json:"storageIdentifier"`
	FileName          string   `json:"fileName"`
	MimeType          string   `json:"mimeType"`
	MD5Hash           string   `json:"md5Hash"`
	FileSize          int64    `json:"fileSize"`
	DirectoryLabel    string   `json:"directoryLabel,omitempty"`
	Description       string   `json:"description,omitempty"`
	Categories        []string `json:"categories,omitempty"`
}

// WithRecordMetadata returns a copy of d carrying the description and tags of
// rec. The receiver is left untouched.
func (d FileDescriptor) WithRecordMetadata(rec FileRecord) FileDescriptor {
	d.Description = rec.Description
	if len(rec.Tags) > 0 {
		d.Categories = append([]string(nil), rec.Tags...)
	}
	return d
}

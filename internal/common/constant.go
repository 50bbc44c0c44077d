package common

const (
	// TempTaggingHeader marks a directly uploaded object as unconfirmed until
	// the repository registers it.
	TempTaggingHeader = "x-amz-tagging"
	TempTaggingValue  = "dv-state=temp"

	// DefaultRetries is the negotiation budget per file.
	DefaultRetries = 10

	// HashChunkSize is the read size used when digesting a file.
	HashChunkSize = 8 * 1024
)

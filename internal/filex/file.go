// Package filex resolves local upload paths and computes the content digest
// the repository uses to verify a direct upload.
package filex

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/dvcurate/internal/common"
)

// ResolvePath joins directory and fileName. An empty directory means fileName
// is used as given.
func ResolvePath(directory, fileName string) string {
	if directory == "" {
		return fileName
	}
	return filepath.Join(directory, fileName)
}

// Size returns the size in bytes of the regular file at path.
func Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("stat %s: is a directory", path)
	}
	return fi.Size(), nil
}

// MD5File streams the file at path through MD5 in fixed-size chunks and
// returns the lowercase hex digest.
func MD5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, common.HashChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

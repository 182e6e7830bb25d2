package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// parts spill to disk.
const maxUploadMemory = 32 << 20

var errNoFile = errors.New("no file submitted")

// saveUpload copies the named multipart file into dir and returns the local
// path. The caller must remove the file on every exit path, typically with a
// deferred os.Remove.
func saveUpload(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", errNoFile
		}
		return "", fmt.Errorf("read multipart field %s: %w", field, err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return tmp.Name(), nil
}

// removeTemp deletes a temp upload if one was created. Missing files are fine.
func removeTemp(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

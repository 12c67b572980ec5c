package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxUploadBytes = 5 << 20

var ErrBadImageType = errors.New("unsupported image type")

// UploadStore saves multipart image uploads under a local directory that
// the router serves at /static/.
type UploadStore struct {
	Dir     string
	BaseURL string
}

func NewUploadStore(dir, baseURL string) *UploadStore {
	return &UploadStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Save reads the named multipart file field and writes it to disk under a
// random name, returning the public URL.
func (u *UploadStore) Save(r *http.Request, field string) (string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", fmt.Errorf("parsing multipart form: %w", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("reading file field %q: %w", field, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", ErrBadImageType
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(u.Dir, name))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	return u.BaseURL + "/static/" + name, nil
}

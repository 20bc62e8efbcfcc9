// Package uploads validates image uploads and stores them in a content store.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/alfredjeanlab/campus/internal/idgen"
	"github.com/alfredjeanlab/campus/internal/model"
)

// MaxSize is the largest accepted image, in bytes.
const MaxSize = 5 << 20

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("upload not found")

// allowedTypes maps accepted MIME types to the extension used when storing.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// allowedExts lists the filename extensions a client may upload.
var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store persists uploaded files under opaque names.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, name string) error
}

// Image is a validated upload ready to be saved.
type Image struct {
	Name        string // generated storage filename
	ContentType string
	Data        []byte
}

// Inspect reads an uploaded file and checks it against the size limit, the
// extension allow-list and its sniffed content type. Violations are reported
// as a *model.ValidationError on the "image" field.
func Inspect(filename string, r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	ve := &model.ValidationError{}
	switch {
	case len(data) == 0:
		ve.Add("image", "is empty")
	case len(data) > MaxSize:
		ve.Add("image", fmt.Sprintf("must be %d MiB or smaller", MaxSize>>20))
	case !allowedExts[strings.ToLower(filepath.Ext(filename))]:
		ve.Add("image", "must be a jpeg, png, gif or webp file")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	contentType, ext, ok := sniff(data)
	if !ok {
		ve.Add("image", "unsupported image format")
		return nil, ve
	}
	return &Image{
		Name:        idgen.Filename(ext),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Put saves img to s under img.Name.
func Put(ctx context.Context, s Store, img *Image) error {
	return s.Save(ctx, img.Name, img.ContentType, bytes.NewReader(img.Data))
}

func sniff(data []byte) (string, string, bool) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if ext, ok := allowedTypes[m.String()]; ok {
			return m.String(), ext, true
		}
	}
	return "", "", false
}

// ContentTypeFor guesses a content type from a stored filename.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for ct, e := range allowedTypes {
		if e == ext {
			return ct
		}
	}
	if ext == ".jpeg" {
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// ValidName reports whether name is a bare filename safe to use as a storage key.
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/uploads"
)

const (
	// maxFormBody bounds a write request: one image plus its text fields.
	maxFormBody = uploads.MaxSize + 1<<20
	// maxFormMemory is how much of a multipart body is held in memory
	// before spilling to temporary files.
	maxFormMemory = 8 << 20
)

// parseWriteForm parses a multipart/form-data or urlencoded request body.
func parseWriteForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

// writeFormError answers a request whose body could not be parsed.
func writeFormError(w http.ResponseWriter, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		ve := &model.ValidationError{}
		ve.Add("image", fmt.Sprintf("must be %d MiB or smaller", uploads.MaxSize>>20))
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": ve.Error(),
			"errors":  ve.Fields(),
		})
		return
	}
	writeError(w, http.StatusBadRequest, "invalid form body")
}

// formField returns the first value of a submitted form field and whether the
// field was present at all.
func formField(r *http.Request, key string) (string, bool) {
	vals, ok := r.PostForm[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// formImage inspects the "image" file of a parsed form. Problems with the
// file are added to ve. It returns nil when no valid image was submitted; a
// missing image is an error in ve only when required is set. The returned
// error is reserved for failures unrelated to the client's input.
func formImage(r *http.Request, ve *model.ValidationError, required bool) (*uploads.Image, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["image"]) == 0 {
		if required {
			ve.Add("image", "is required")
		}
		return nil, nil
	}
	hdr := r.MultipartForm.File["image"][0]
	f, err := hdr.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	img, err := uploads.Inspect(hdr.Filename, f)
	var ive *model.ValidationError
	if errors.As(err, &ive) {
		ve.Errors = append(ve.Errors, ive.Errors...)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

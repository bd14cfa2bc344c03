package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/taskflow-app/taskflow-api/internal/content"
)

// maxPayloadBytes bounds a JSON request body.
const maxPayloadBytes = 1 << 20 // 1 MiB

// maxMultipartMemory bounds the in-memory portion of a multipart request.
const maxMultipartMemory = 32 << 20 // 32 MiB

// payloadField is the multipart form field carrying the JSON payload.
const payloadField = "payload"

// filesField is the multipart form field carrying uploaded files, in the
// order the payload's temporary references consume them.
const filesField = "files"

// DecodeJSON decodes the request body into v, rejecting unknown fields
// and trailing data.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	if dec.More() {
		return errors.New("unexpected trailing data in request body")
	}
	return nil
}

// DecodePayload decodes a request that is either a plain JSON body or a
// multipart form with a JSON "payload" field plus "files" parts. The
// uploaded files come back in form order, which is the order the payload's
// temporary references are resolved in.
func DecodePayload(r *http.Request, v any) ([]content.UploadedFile, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	if mediaType != "multipart/form-data" {
		return nil, DecodeJSON(r, v)
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	payload := r.FormValue(payloadField)
	if payload == "" {
		return nil, errors.New("multipart request is missing the payload field")
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return nil, fmt.Errorf("failed to decode payload field: %w", err)
	}

	var files []content.UploadedFile
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File[filesField] {
			file, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open uploaded file %q: %w", header.Filename, err)
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read uploaded file %q: %w", header.Filename, err)
			}
			files = append(files, content.UploadedFile{
				Filename: header.Filename,
				Data:     data,
			})
		}
	}

	return files, nil
}

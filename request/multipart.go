package request

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
)

// WithMultipartFile replaces the body with a single-part multipart/form-data
// upload of data and sets Content-Type and Content-Length.
func WithMultipartFile(field, fileName, contentType string, data []byte) Option {
	return func(b *builder) error {
		if len(data) == 0 {
			return fmt.Errorf("request: empty multipart file %q", fileName)
		}
		if field == "" {
			field = "file"
		}
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("request: multipart: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return fmt.Errorf("request: multipart: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("request: multipart: %w", err)
		}
		b.d.body = buf.Bytes()
		b.d.headers.Set("Content-Type", w.FormDataContentType())
		b.d.headers.Set("Content-Length", strconv.Itoa(buf.Len()))
		return nil
	}
}

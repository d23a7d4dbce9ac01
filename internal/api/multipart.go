package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
)

// ImageField is the multipart field that carries a replacement image.
const ImageField = "profilePicture"

// Image is a local image attached to a profile or student update.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

type formField struct {
	name  string
	value string
}

// buildMultipart encodes text fields followed by an optional image.
func buildMultipart(fields []formField, image *Image) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if image != nil && len(image.Data) > 0 {
		contentType := image.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(image.Data)
		}
		filename := image.Filename
		if filename == "" {
			filename = "image"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ImageField, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}

func yearField(name string, year int) []formField {
	if year == 0 {
		return nil
	}
	return []formField{{name: name, value: strconv.Itoa(year)}}
}

// internal/httpclient/multipart.go
package httpclient

import (
	"bytes"
	"mime/multipart"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

// Form builds a multipart/form-data body. Scalar fields are written as
// strings, files as binary parts. Empty scalar values are omitted, matching
// the server's validation of optional fields.
type Form struct {
	fields []formField
	files  []formFile
}

func NewForm() *Form {
	return &Form{}
}

// AddField appends a scalar field. Empty values are dropped.
func (f *Form) AddField(name, value string) *Form {
	if value == "" {
		return f
	}
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFields appends every non-empty entry of the map.
func (f *Form) AddFields(fields map[string]string) *Form {
	for name, value := range fields {
		f.AddField(name, value)
	}
	return f
}

// AddFile appends a binary file part. Parts with no content are dropped.
func (f *Form) AddFile(field, filename string, content []byte) *Form {
	if len(content) == 0 {
		return f
	}
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// Encode renders the body and returns it with its content type.
func (f *Form) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range f.fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

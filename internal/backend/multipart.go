package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
)

// Form is an ordered multipart body. Scalar fields keep insertion order and
// Set replaces an existing key in place.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct {
	key   string
	value string
}

type formFile struct {
	key  string
	name string
	data []byte
}

func NewForm() *Form {
	return &Form{}
}

func (f *Form) Set(key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].value = value
			return
		}
	}
	f.fields = append(f.fields, formField{key: key, value: value})
}

// SetJSON stores v JSON-encoded under key.
func (f *Form) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	f.Set(key, string(raw))
	return nil
}

func (f *Form) AddFile(key, name string, data []byte) {
	f.files = append(f.files, formFile{key: key, name: name, data: data})
}

func (f *Form) Value(key string) (string, bool) {
	for _, fld := range f.fields {
		if fld.key == key {
			return fld.value, true
		}
	}
	return "", false
}

// File returns the file name attached under key.
func (f *Form) File(key string) (string, bool) {
	for _, file := range f.files {
		if file.key == key {
			return file.name, true
		}
	}
	return "", false
}

// Keys lists scalar keys followed by file keys.
func (f *Form) Keys() []string {
	keys := make([]string, 0, len(f.fields)+len(f.files))
	for _, fld := range f.fields {
		keys = append(keys, fld.key)
	}
	for _, file := range f.files {
		keys = append(keys, file.key)
	}
	return keys
}

func (f *Form) HasFiles() bool {
	return len(f.files) > 0
}

// Encode renders the body and returns it with its Content-Type.
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.key, fld.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", fld.key, err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.key, file.name)
		if err != nil {
			return nil, "", fmt.Errorf("create file %s: %w", file.key, err)
		}
		if _, err := part.Write(file.data); err != nil {
			return nil, "", fmt.Errorf("write file %s: %w", file.key, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

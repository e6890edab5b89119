package models

// FileAction tells the payload builder what to do with a file field.
type FileAction string

const (
	FileUnchanged FileAction = "unchanged"
	FileReplace   FileAction = "replace"
	FileRemove    FileAction = "remove"
)

// FileField is an explicit file update. The zero value leaves the stored file
// untouched.
type FileField struct {
	Action FileAction `json:"action,omitempty"`
	URL    string     `json:"url,omitempty"`
	Name   string     `json:"name,omitempty"`
	Data   []byte     `json:"-"`
}

func KeepFile(url string) FileField {
	return FileField{Action: FileUnchanged, URL: url}
}

func ReplaceFile(name string, data []byte) FileField {
	return FileField{Action: FileReplace, Name: name, Data: data}
}

func RemoveFile() FileField {
	return FileField{Action: FileRemove}
}

func (f FileField) IsReplace() bool {
	return f.Action == FileReplace
}

func (f FileField) IsRemove() bool {
	return f.Action == FileRemove
}

// Present reports whether a file exists after the update is applied.
func (f FileField) Present() bool {
	switch f.Action {
	case FileReplace:
		return len(f.Data) > 0
	case FileRemove:
		return false
	default:
		return f.URL != ""
	}
}

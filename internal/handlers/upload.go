package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"buildtrack/internal/models"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds a single uploaded file.
const maxUploadBytes = 25 << 20

// bindPayload decodes the "payload" field of a multipart request, or the
// whole body for a JSON request.
func bindPayload(c *gin.Context, v any) error {
	if c.ContentType() == gin.MIMEJSON {
		return c.ShouldBindJSON(v)
	}
	raw := c.PostForm("payload")
	if raw == "" {
		return errors.New("missing payload field")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// upload reads the file sent under key. ok is false when no file was sent.
func upload(c *gin.Context, key string) (models.FileField, bool, error) {
	fh, err := c.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return models.FileField{}, false, nil
	}
	if err != nil {
		return models.FileField{}, false, fmt.Errorf("read %s: %w", key, err)
	}
	if fh.Size > maxUploadBytes {
		return models.FileField{}, false, fmt.Errorf("%s exceeds %d MB", key, maxUploadBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return models.FileField{}, false, fmt.Errorf("open %s: %w", key, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.FileField{}, false, fmt.Errorf("read %s: %w", key, err)
	}
	return models.ReplaceFile(fh.Filename, data), true, nil
}

func attachSitePlanFiles(c *gin.Context, sp *models.SitePlan) error {
	if f, ok, err := upload(c, "application_file"); err != nil {
		return err
	} else if ok {
		sp.ApplicationFileChange = f
	}
	for i := range sp.Owners {
		f, ok, err := upload(c, fmt.Sprintf("owners[%d][id_attachment]", i))
		if err != nil {
			return err
		}
		if ok {
			sp.Owners[i].AttachmentChange = f
		}
	}
	return nil
}

func attachContractFiles(c *gin.Context, ct *models.Contract) error {
	for _, field := range models.LegacyFileFields {
		f, ok, err := upload(c, field)
		if err != nil {
			return err
		}
		if ok {
			if ct.Files == nil {
				ct.Files = map[string]models.FileField{}
			}
			ct.Files[field] = f
		}
	}
	for i := range ct.Attachments {
		f, ok, err := upload(c, fmt.Sprintf("attachments[%d][file]", i))
		if err != nil {
			return err
		}
		if ok {
			ct.Attachments[i].File = f
		}
	}
	return nil
}

func attachAwardingFiles(c *gin.Context, a *models.Awarding) error {
	f, ok, err := upload(c, "awarding_file")
	if err != nil {
		return err
	}
	if ok {
		a.AwardingFileChange = f
	}
	return nil
}

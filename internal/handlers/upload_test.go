package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"buildtrack/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartContext(t *testing.T, fields map[string]string, files map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, content := range files {
		fw, err := mw.CreateFormFile(k, k+".pdf")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", &body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	return c
}

func TestSitePlanMultipartBinding(t *testing.T) {
	c := multipartContext(t,
		map[string]string{"payload": `{"municipality":"Abu Dhabi","owners":[{"owner_name_ar":"أحمد"},{"owner_name_en":"Sara"}]}`},
		map[string]string{"owners[1][id_attachment]": "id-scan", "application_file": "app"},
	)

	var sp models.SitePlan
	require.NoError(t, bindPayload(c, &sp))
	require.NoError(t, attachSitePlanFiles(c, &sp))

	assert.Equal(t, "Abu Dhabi", sp.Municipality)
	require.Len(t, sp.Owners, 2)
	assert.False(t, sp.Owners[0].AttachmentChange.IsReplace())
	assert.True(t, sp.Owners[1].AttachmentChange.IsReplace())
	assert.Equal(t, []byte("id-scan"), sp.Owners[1].AttachmentChange.Data)
	assert.Equal(t, "application_file.pdf", sp.ApplicationFileChange.Name)
}

func TestContractMultipartBinding(t *testing.T) {
	c := multipartContext(t,
		map[string]string{"payload": `{"contract_classification":"private_funding","attachments":[{"type":"main_contract"}],"file_changes":{"contract_file":{"action":"remove"}}}`},
		map[string]string{"start_order_file": "order", "attachments[0][file]": "scan"},
	)

	var ct models.Contract
	require.NoError(t, bindPayload(c, &ct))
	require.NoError(t, attachContractFiles(c, &ct))

	assert.True(t, ct.Files["start_order_file"].IsReplace())
	assert.True(t, ct.Files["contract_file"].IsRemove())
	require.Len(t, ct.Attachments, 1)
	assert.Equal(t, []byte("scan"), ct.Attachments[0].File.Data)
}

func TestBindPayloadRequiresPayload(t *testing.T) {
	c := multipartContext(t, map[string]string{"other": "x"}, nil)

	var a models.Awarding
	assert.Error(t, bindPayload(c, &a))
}

func TestAwardingWithoutFile(t *testing.T) {
	c := multipartContext(t, map[string]string{"payload": `{"award_date":"2024-05-01"}`}, nil)

	var a models.Awarding
	require.NoError(t, bindPayload(c, &a))
	require.NoError(t, attachAwardingFiles(c, &a))
	assert.Equal(t, "2024-05-01", a.AwardDate)
	assert.Equal(t, models.FileField{}, a.AwardingFileChange)
}

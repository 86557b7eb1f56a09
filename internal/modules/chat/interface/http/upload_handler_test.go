package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"CareLink/internal/config"
	agentEntity "CareLink/internal/modules/agent/domain/entity"
	agentPersistence "CareLink/internal/modules/agent/infrastructure/persistence"
	chatEntity "CareLink/internal/modules/chat/domain/entity"
	chatPersistence "CareLink/internal/modules/chat/infrastructure/persistence"
	"CareLink/pkg/ws"
	"CareLink/pkg/xerr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type uploadFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&chatEntity.Conversation{},
		&chatEntity.Message{},
		&agentEntity.Agent{},
	))

	cfg := config.GetConfig()
	cfg.UploadConfig.Dir = t.TempDir()
	cfg.UploadConfig.PublicURL = "/uploads"

	h := NewUploadHandler(
		ws.NewHub(),
		chatPersistence.NewConversationRepository(db),
		chatPersistence.NewMessageRepository(db),
		agentPersistence.NewAgentRepository(db),
	)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/patient/upload/:chatId", h.PatientUpload)
	return &uploadFixture{db: db, router: r}
}

func multipartFile(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestPatientUploadStoresFileAndMessage(t *testing.T) {
	fx := newUploadFixture(t)
	chatID := "abcabcabcabcabcabcabcabc"
	require.NoError(t, fx.db.Create(&chatEntity.Conversation{
		Id:          chatID,
		Department:  "General",
		PatientName: "Ana",
		Status:      chatEntity.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}).Error)

	body, contentType := multipartFile(t, "file", "scan result.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/patient/upload/"+chatID, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Code int `json:"code"`
		Data struct {
			From string `json:"from"`
			Url  string `json:"url"`
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, xerr.OK, resp.Code)
	assert.Equal(t, chatEntity.SenderPatient, resp.Data.From)
	assert.Equal(t, "scan result.png", resp.Data.Name)

	var msg chatEntity.Message
	require.NoError(t, fx.db.First(&msg, "chat_id = ?", chatID).Error)
	assert.Equal(t, chatEntity.SenderPatient, msg.Sender)
	assert.Empty(t, msg.AgentName)

	// 文件名里的空格被清洗,落盘文件确实存在
	stored := filepath.Base(msg.FileUrl)
	assert.NotContains(t, stored, " ")
	_, err := os.Stat(filepath.Join(config.GetConfig().UploadConfig.Dir, stored))
	require.NoError(t, err)
}

func TestPatientUploadRejectsClosedChat(t *testing.T) {
	fx := newUploadFixture(t)
	chatID := "abcabcabcabcabcabcabcabc"
	require.NoError(t, fx.db.Create(&chatEntity.Conversation{
		Id:         chatID,
		Department: "General",
		Status:     chatEntity.StatusClosed,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}).Error)

	body, contentType := multipartFile(t, "file", "scan.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/patient/upload/"+chatID, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, xerr.BadRequest, resp.Code)

	var n int64
	require.NoError(t, fx.db.Model(&chatEntity.Message{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestPatientUploadUnknownChat(t *testing.T) {
	fx := newUploadFixture(t)

	body, contentType := multipartFile(t, "file", "scan.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/patient/upload/deadbeefdeadbeefdeadbeef", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	var resp struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, xerr.NotFound, resp.Code)
}

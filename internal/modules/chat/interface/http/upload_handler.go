package handler

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"CareLink/internal/config"
	agentRepository "CareLink/internal/modules/agent/domain/repository"
	chatRespond "CareLink/internal/modules/chat/application/dto/respond"
	chatEntity "CareLink/internal/modules/chat/domain/entity"
	chatRepository "CareLink/internal/modules/chat/domain/repository"
	"CareLink/pkg/back"
	"CareLink/pkg/ws"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	hub       *ws.Hub
	convRepo  chatRepository.ConversationRepository
	msgRepo   chatRepository.MessageRepository
	agentRepo agentRepository.AgentRepository
}

func NewUploadHandler(
	hub *ws.Hub,
	convRepo chatRepository.ConversationRepository,
	msgRepo chatRepository.MessageRepository,
	agentRepo agentRepository.AgentRepository,
) *UploadHandler {
	return &UploadHandler{
		hub:       hub,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		agentRepo: agentRepo,
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Upload 坐席向会话上传附件。落盘、落消息、推送三步，
// 仅当前受理坐席可传。
func (h *UploadHandler) Upload(c *gin.Context) {
	chatID := c.Param("chatId")
	agentID := c.GetInt64("id")
	if chatID == "" || agentID == 0 {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	conv, err := h.convRepo.GetByID(chatID)
	if err != nil || conv == nil {
		back.Error(c, xerr.NotFound, "Chat not found")
		return
	}
	if conv.Status != chatEntity.StatusActive || conv.AssignedAgentId == nil || *conv.AssignedAgentId != agentID {
		back.Error(c, xerr.Forbidden, "Not assigned")
		return
	}

	agentName := ""
	if agent, err := h.agentRepo.GetByID(agentID); err == nil && agent != nil {
		agentName = agent.Name
	}
	h.storeAndBroadcast(c, chatID, chatEntity.SenderAgent, agentName)
}

// PatientUpload 患者向自己的会话上传附件。患者匿名,凭不可猜测的会话 id 定位,
// 会话存在且未关闭即可传。
func (h *UploadHandler) PatientUpload(c *gin.Context) {
	chatID := c.Param("chatId")
	if chatID == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	conv, err := h.convRepo.GetByID(chatID)
	if err != nil || conv == nil {
		back.Error(c, xerr.NotFound, "Chat not found")
		return
	}
	if conv.Status == chatEntity.StatusClosed {
		back.Error(c, xerr.BadRequest, "Chat closed")
		return
	}

	h.storeAndBroadcast(c, chatID, chatEntity.SenderPatient, "")
}

// 落盘、落消息、推送,坐席和患者两条上传路径共用
func (h *UploadHandler) storeAndBroadcast(c *gin.Context, chatID, sender, agentName string) {
	file, err := c.FormFile("file")
	if err != nil {
		back.Error(c, xerr.BadRequest, "File required")
		return
	}

	cfg := config.GetConfig().UploadConfig
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		zlog.Error("upload dir create failed: " + err.Error())
		back.Error(c, xerr.InternalServerError, xerr.ErrServerError.Message)
		return
	}

	name := unsafeChars.ReplaceAllString(filepath.Base(file.Filename), "_")
	stored := strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + name
	if err := c.SaveUploadedFile(file, filepath.Join(cfg.Dir, stored)); err != nil {
		zlog.Error("upload save failed: " + err.Error())
		back.Error(c, xerr.InternalServerError, xerr.ErrServerError.Message)
		return
	}

	msg := &chatEntity.Message{
		ChatId:    chatID,
		Sender:    sender,
		FileUrl:   cfg.PublicURL + "/" + stored,
		FileName:  file.Filename,
		AgentName: agentName,
		CreatedAt: time.Now(),
	}
	if err := h.msgRepo.Create(msg); err != nil {
		zlog.Error("file message save failed: " + err.Error())
		back.Error(c, xerr.InternalServerError, xerr.ErrServerError.Message)
		return
	}

	item := chatRespond.MessageItemFrom(*msg)
	_ = h.hub.BroadcastEvent(ws.ChatGroup(chatID), "chat:file", item)
	back.Success(c, item)
}

package handler

import (
	"time"

	"CareLink/internal/modules/bot/application/service"
	chatService "CareLink/internal/modules/chat/application/service"
	chatEntity "CareLink/internal/modules/chat/domain/entity"
	"CareLink/pkg/back"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type BotHandler struct {
	svc       service.BotService
	knowledge service.KnowledgeService
}

func NewBotHandler(svc service.BotService, knowledge service.KnowledgeService) *BotHandler {
	return &BotHandler{svc: svc, knowledge: knowledge}
}

type botMessageRequest struct {
	Text        string `json:"text"`
	Department  string `json:"department"`
	PatientName string `json:"patientName"`
}

// Message 无状态问答入口：每次请求新建会话状态，不会触发澄清后转人工,
// 适合嵌在不保持连接的页面里试探机器人
func (h *BotHandler) Message(c *gin.Context) {
	var req botMessageRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	sctx := &service.SessionContext{}
	reply, err := h.svc.Process(sctx, req.Text, req.Department, req.PatientName)
	back.Result(c, reply, err)
}

type botEscalateRequest struct {
	Text        string `json:"text"`
	Department  string `json:"department"`
	PatientName string `json:"patientName"`
}

// Escalate 患者不经机器人对话直接要人工
func (h *BotHandler) Escalate(c *gin.Context) {
	var req botEscalateRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	sctx := &service.SessionContext{Department: req.Department}
	if req.Text != "" {
		sctx.Transcript = append(sctx.Transcript, chatService.TranscriptLine{
			From: chatEntity.SenderPatient,
			Text: req.Text,
			At:   time.Now(),
		})
	}
	reply, err := h.svc.RequestHuman(sctx, req.PatientName)
	back.Result(c, reply, err)
}

// Reload 重新加载知识库快照,管理端调用
func (h *BotHandler) Reload(c *gin.Context) {
	if err := h.knowledge.Reload(); err != nil {
		zlog.Error("knowledge reload failed: " + err.Error())
		back.Error(c, xerr.InternalServerError, xerr.ErrServerError.Message)
		return
	}
	back.Success(c, nil)
}

// TopFaqs 顶层常见问题,患者端首屏
func (h *BotHandler) TopFaqs(c *gin.Context) {
	back.Success(c, h.knowledge.TopLevel())
}

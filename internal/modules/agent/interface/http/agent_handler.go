package handler

import (
	"CareLink/internal/modules/agent/application/dto/request"
	"CareLink/internal/modules/agent/application/service"
	"CareLink/pkg/back"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	svc service.AgentService
}

func NewAgentHandler(svc service.AgentService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

func (h *AgentHandler) Register(c *gin.Context) {
	var req request.AgentRegisterRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Register(req)
	back.Result(c, data, err)
}

func (h *AgentHandler) Login(c *gin.Context) {
	var req request.AgentLoginRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Login(req, c.ClientIP())
	back.Result(c, data, err)
}

func (h *AgentHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	back.Result(c, nil, h.svc.VerifyEmail(token))
}

func (h *AgentHandler) AcceptInvite(c *gin.Context) {
	var req request.AcceptInviteRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.AcceptInvite(req)
	back.Result(c, data, err)
}

package handler

import (
	"CareLink/internal/modules/agent/application/dto/request"
	"CareLink/internal/modules/agent/application/service"
	"CareLink/pkg/back"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	svc service.AdminService
}

func NewAdminHandler(svc service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Register(c *gin.Context) {
	var req request.AdminRegisterRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	back.Result(c, nil, h.svc.Register(req))
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req request.AdminLoginRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Login(req)
	back.Result(c, data, err)
}

func (h *AdminHandler) Overview(c *gin.Context) {
	data, err := h.svc.Overview()
	back.Result(c, data, err)
}

func (h *AdminHandler) Approve(c *gin.Context) {
	var req request.ApproveAgentRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	back.Result(c, nil, h.svc.Approve(req))
}

func (h *AdminHandler) CreateInvitation(c *gin.Context) {
	var req request.CreateInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.CreateInvitation(c.GetInt64("id"), req)
	back.Result(c, data, err)
}

func (h *AdminHandler) Departments(c *gin.Context) {
	data, err := h.svc.Departments()
	back.Result(c, data, err)
}

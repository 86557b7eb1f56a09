package service

import (
	"strings"
	"time"

	"CareLink/internal/modules/agent/application/dto/request"
	"CareLink/internal/modules/agent/application/dto/respond"
	"CareLink/internal/modules/agent/domain/entity"
	"CareLink/internal/modules/agent/domain/repository"
	chatService "CareLink/internal/modules/chat/application/service"
	"CareLink/pkg/email"
	"CareLink/pkg/util"
	"CareLink/pkg/util/myjwt"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"

	"golang.org/x/crypto/bcrypt"
)

const invitationTTL = 7 * 24 * time.Hour

// AdminService 管理端：坐席审批、邀请、科室与总览
type AdminService interface {
	Register(req request.AdminRegisterRequest) error
	Login(req request.AdminLoginRequest) (*respond.AdminLoginRespond, error)
	Overview() (*respond.OverviewRespond, error)
	Approve(req request.ApproveAgentRequest) error
	CreateInvitation(adminID int64, req request.CreateInvitationRequest) (*respond.InvitationRespond, error)
	Departments() ([]respond.DepartmentRespond, error)
}

type adminServiceImpl struct {
	adminRepo repository.AdminUserRepository
	agentRepo repository.AgentRepository
	deptRepo  repository.DepartmentRepository
	invRepo   repository.InvitationRepository
	mailer    email.Sender
	broadcast chatService.BroadcastService
}

func NewAdminService(
	adminRepo repository.AdminUserRepository,
	agentRepo repository.AgentRepository,
	deptRepo repository.DepartmentRepository,
	invRepo repository.InvitationRepository,
	mailer email.Sender,
	broadcast chatService.BroadcastService,
) AdminService {
	return &adminServiceImpl{
		adminRepo: adminRepo,
		agentRepo: agentRepo,
		deptRepo:  deptRepo,
		invRepo:   invRepo,
		mailer:    mailer,
		broadcast: broadcast,
	}
}

func (s *adminServiceImpl) Register(req request.AdminRegisterRequest) error {
	if existing, err := s.adminRepo.GetByUsername(req.Username); err == nil && existing != nil {
		return xerr.New(xerr.Conflict, "Username already taken")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Error("password hash failed: " + err.Error())
		return xerr.ErrServerError
	}
	admin := &entity.AdminUser{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        req.Email,
		CreatedAt:    time.Now(),
	}
	if err := s.adminRepo.Create(admin); err != nil {
		zlog.Error("admin create failed: " + err.Error())
		return xerr.ErrServerError
	}
	return nil
}

func (s *adminServiceImpl) Login(req request.AdminLoginRequest) (*respond.AdminLoginRespond, error) {
	admin, err := s.adminRepo.GetByUsername(req.Username)
	if err != nil || admin == nil {
		return nil, xerr.New(xerr.Unauthorized, "Invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		return nil, xerr.New(xerr.Unauthorized, "Invalid username or password")
	}
	token, err := myjwt.GenerateToken(admin.Id, myjwt.RoleAdmin, "")
	if err != nil {
		zlog.Error("token generate failed: " + err.Error())
		return nil, xerr.ErrServerError
	}
	return &respond.AdminLoginRespond{Token: token, Username: admin.Username}, nil
}

func (s *adminServiceImpl) Overview() (*respond.OverviewRespond, error) {
	agents, err := s.agentRepo.ListAll()
	if err != nil {
		zlog.Error("agent list failed: " + err.Error())
		return nil, xerr.ErrServerError
	}
	out := &respond.OverviewRespond{Agents: make([]respond.AgentRespond, 0, len(agents))}
	for i := range agents {
		a := &agents[i]
		out.Agents = append(out.Agents, *agentRespondFrom(a))
		if !a.IsApproved {
			out.PendingApproval++
		}
		if a.Status == entity.StatusOnline || a.Status == entity.StatusBusy {
			out.OnlineCount++
		}
	}
	return out, nil
}

func (s *adminServiceImpl) Approve(req request.ApproveAgentRequest) error {
	agent, err := s.agentRepo.GetByID(req.AgentId)
	if err != nil || agent == nil {
		return xerr.New(xerr.NotFound, "Agent not found")
	}
	if err := s.agentRepo.SetApproved(req.AgentId, req.Approved); err != nil {
		zlog.Error("approve failed: " + err.Error())
		return xerr.ErrServerError
	}
	s.broadcast.AgentPresence()
	return nil
}

func (s *adminServiceImpl) CreateInvitation(adminID int64, req request.CreateInvitationRequest) (*respond.InvitationRespond, error) {
	deptOK := false
	names, err := s.deptRepo.ListNames()
	if err != nil {
		zlog.Error("department list failed: " + err.Error())
		return nil, xerr.ErrServerError
	}
	for _, n := range names {
		if strings.EqualFold(n, req.Department) {
			deptOK = true
			break
		}
	}
	if !deptOK {
		return nil, xerr.New(xerr.BadRequest, "Unknown department")
	}

	inv := &entity.AgentInvitation{
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Department:       req.Department,
		Token:            util.NewTokenHex(32),
		ExpiresAt:        time.Now().Add(invitationTTL),
		CreatedByAdminId: &adminID,
		CreatedAt:        time.Now(),
	}
	if err := s.invRepo.Create(inv); err != nil {
		zlog.Error("invitation create failed: " + err.Error())
		return nil, xerr.ErrServerError
	}

	body := "You have been invited to join the " + inv.Department + " support team.\n\n" +
		"Use this invitation code to create your account:\n\n" + inv.Token + "\n\n" +
		"The invitation expires in 7 days."
	if err := s.mailer.Send(inv.Email, "Support team invitation", body); err != nil {
		zlog.Error("invitation mail send failed: " + err.Error())
	}

	return &respond.InvitationRespond{
		Email:      inv.Email,
		Department: inv.Department,
		Token:      inv.Token,
		ExpiresAt:  inv.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *adminServiceImpl) Departments() ([]respond.DepartmentRespond, error) {
	depts, err := s.deptRepo.List()
	if err != nil {
		zlog.Error("department list failed: " + err.Error())
		return nil, xerr.ErrServerError
	}
	out := make([]respond.DepartmentRespond, 0, len(depts))
	for _, d := range depts {
		out = append(out, respond.DepartmentRespond{Id: d.Id, Name: d.Name})
	}
	return out, nil
}

package service

import (
	"strings"
	"time"

	"CareLink/internal/modules/agent/application/dto/request"
	"CareLink/internal/modules/agent/application/dto/respond"
	"CareLink/internal/modules/agent/domain/entity"
	"CareLink/internal/modules/agent/domain/repository"
	"CareLink/pkg/email"
	"CareLink/pkg/util"
	"CareLink/pkg/util/myjwt"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"

	"golang.org/x/crypto/bcrypt"
)

const verificationTokenTTL = 48 * time.Hour

// AgentService 坐席账号：自助注册（需验证+审批）、受邀注册（直接可用）、登录
type AgentService interface {
	Register(req request.AgentRegisterRequest) (*respond.AgentRespond, error)
	VerifyEmail(token string) error
	AcceptInvite(req request.AcceptInviteRequest) (*respond.LoginRespond, error)
	Login(req request.AgentLoginRequest, ip string) (*respond.LoginRespond, error)
}

type agentServiceImpl struct {
	agentRepo repository.AgentRepository
	deptRepo  repository.DepartmentRepository
	invRepo   repository.InvitationRepository
	tokenRepo repository.VerificationTokenRepository
	mailer    email.Sender
}

func NewAgentService(
	agentRepo repository.AgentRepository,
	deptRepo repository.DepartmentRepository,
	invRepo repository.InvitationRepository,
	tokenRepo repository.VerificationTokenRepository,
	mailer email.Sender,
) AgentService {
	return &agentServiceImpl{
		agentRepo: agentRepo,
		deptRepo:  deptRepo,
		invRepo:   invRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
	}
}

func agentRespondFrom(a *entity.Agent) *respond.AgentRespond {
	return &respond.AgentRespond{
		Id:         a.Id,
		Name:       a.Name,
		Email:      a.Email,
		Department: a.Department,
		Status:     a.Status,
		IsVerified: a.IsVerified,
		IsApproved: a.IsApproved,
	}
}

func (s *agentServiceImpl) Register(req request.AgentRegisterRequest) (*respond.AgentRespond, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))

	if !s.departmentExists(req.Department) {
		return nil, xerr.New(xerr.BadRequest, "Unknown department")
	}
	if existing, err := s.agentRepo.GetByEmail(addr); err == nil && existing != nil {
		return nil, xerr.New(xerr.Conflict, "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Error("password hash failed: " + err.Error())
		return nil, xerr.ErrServerError
	}

	agent := &entity.Agent{
		Name:         req.Name,
		Email:        addr,
		PasswordHash: string(hash),
		Department:   req.Department,
		Status:       entity.StatusOffline,
		CreatedAt:    time.Now(),
	}
	if err := s.agentRepo.Create(agent); err != nil {
		zlog.Error("agent create failed: " + err.Error())
		return nil, xerr.ErrServerError
	}

	s.sendVerification(agent)
	return agentRespondFrom(agent), nil
}

// 验证邮件尽力而为，失败不影响注册结果，可以事后重发
func (s *agentServiceImpl) sendVerification(agent *entity.Agent) {
	token := &entity.EmailVerificationToken{
		AgentId:   agent.Id,
		Token:     util.NewTokenHex(32),
		ExpiresAt: time.Now().Add(verificationTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.tokenRepo.Create(token); err != nil {
		zlog.Error("verification token create failed: " + err.Error())
		return
	}
	body := "Hello " + agent.Name + ",\n\n" +
		"Please verify your email with this code:\n\n" + token.Token + "\n\n" +
		"The code expires in 48 hours."
	if err := s.mailer.Send(agent.Email, "Verify your email", body); err != nil {
		zlog.Error("verification mail send failed: " + err.Error())
	}
}

func (s *agentServiceImpl) VerifyEmail(tokenStr string) error {
	token, err := s.tokenRepo.GetByToken(tokenStr)
	if err != nil || token == nil {
		return xerr.New(xerr.NotFound, "Invalid verification code")
	}
	if time.Now().After(token.ExpiresAt) {
		return xerr.New(xerr.BadRequest, "Verification code expired")
	}
	if err := s.agentRepo.SetVerified(token.AgentId); err != nil {
		zlog.Error("set verified failed: " + err.Error())
		return xerr.ErrServerError
	}
	if err := s.tokenRepo.Delete(token.Id); err != nil {
		zlog.Error("verification token delete failed: " + err.Error())
	}
	return nil
}

func (s *agentServiceImpl) AcceptInvite(req request.AcceptInviteRequest) (*respond.LoginRespond, error) {
	inv, err := s.invRepo.GetByToken(req.Token)
	if err != nil || inv == nil {
		return nil, xerr.New(xerr.NotFound, "Invalid invitation")
	}
	if inv.AcceptedAt.Valid {
		return nil, xerr.New(xerr.Conflict, "Invitation already used")
	}
	// 过期只在使用这一刻判,没有后台清理任务
	if time.Now().After(inv.ExpiresAt) {
		return nil, xerr.New(xerr.BadRequest, "Invitation expired")
	}
	if existing, err := s.agentRepo.GetByEmail(inv.Email); err == nil && existing != nil {
		return nil, xerr.New(xerr.Conflict, "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Error("password hash failed: " + err.Error())
		return nil, xerr.ErrServerError
	}

	// 受邀坐席由管理员背书,跳过验证和审批
	agent := &entity.Agent{
		Name:         req.Name,
		Email:        inv.Email,
		PasswordHash: string(hash),
		Department:   inv.Department,
		Status:       entity.StatusOffline,
		IsVerified:   true,
		IsApproved:   true,
		CreatedAt:    time.Now(),
	}
	if err := s.agentRepo.Create(agent); err != nil {
		zlog.Error("invited agent create failed: " + err.Error())
		return nil, xerr.ErrServerError
	}
	if err := s.invRepo.MarkAccepted(inv.Id); err != nil {
		zlog.Error("invitation mark accepted failed: " + err.Error())
	}

	token, err := myjwt.GenerateToken(agent.Id, myjwt.RoleAgent, agent.Department)
	if err != nil {
		zlog.Error("token generate failed: " + err.Error())
		return nil, xerr.ErrServerError
	}
	return &respond.LoginRespond{Token: token, Agent: *agentRespondFrom(agent)}, nil
}

func (s *agentServiceImpl) Login(req request.AgentLoginRequest, ip string) (*respond.LoginRespond, error) {
	agent, err := s.agentRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || agent == nil {
		return nil, xerr.New(xerr.Unauthorized, "Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(req.Password)) != nil {
		return nil, xerr.New(xerr.Unauthorized, "Invalid email or password")
	}
	if !agent.IsVerified {
		return nil, xerr.New(xerr.Forbidden, "Email not verified")
	}
	if !agent.IsApproved {
		return nil, xerr.New(xerr.Forbidden, "Account pending approval")
	}

	if err := s.agentRepo.UpdateLastLogin(agent.Id, ip); err != nil {
		zlog.Error("last login update failed: " + err.Error())
	}

	token, err := myjwt.GenerateToken(agent.Id, myjwt.RoleAgent, agent.Department)
	if err != nil {
		zlog.Error("token generate failed: " + err.Error())
		return nil, xerr.ErrServerError
	}
	return &respond.LoginRespond{Token: token, Agent: *agentRespondFrom(agent)}, nil
}

func (s *agentServiceImpl) departmentExists(name string) bool {
	names, err := s.deptRepo.ListNames()
	if err != nil {
		zlog.Error("department list failed: " + err.Error())
		return false
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

package repository

import (
	"CareLink/internal/modules/agent/domain/entity"
)

type AgentRepository interface {
	Create(agent *entity.Agent) error
	GetByID(id int64) (*entity.Agent, error)
	GetByEmail(email string) (*entity.Agent, error)
	ListAll() ([]entity.Agent, error)
	// UpdateStatus 更新在线状态并刷新 last_seen
	UpdateStatus(id int64, status string) error
	SetVerified(id int64) error
	SetApproved(id int64, approved bool) error
	UpdateLastLogin(id int64, ip string) error
}

type AdminUserRepository interface {
	Create(admin *entity.AdminUser) error
	GetByUsername(username string) (*entity.AdminUser, error)
}

type DepartmentRepository interface {
	List() ([]entity.Department, error)
	// ListNames 按 sort_order 返回科室名，作为合法科室集合
	ListNames() ([]string, error)
}

type InvitationRepository interface {
	Create(inv *entity.AgentInvitation) error
	GetByToken(token string) (*entity.AgentInvitation, error)
	MarkAccepted(id int64) error
}

type VerificationTokenRepository interface {
	Create(token *entity.EmailVerificationToken) error
	GetByToken(token string) (*entity.EmailVerificationToken, error)
	Delete(id int64) error
}

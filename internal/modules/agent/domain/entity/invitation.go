package entity

import (
	"database/sql"
	"time"
)

// AgentInvitation 坐席邀请。过期时间只在使用时校验，不做后台清理。
type AgentInvitation struct {
	Id               int64        `gorm:"column:id;primaryKey;comment:自增id"`
	Email            string       `gorm:"column:email;type:varchar(190);not null"`
	Department       string       `gorm:"column:department;type:varchar(100);not null"`
	Token            string       `gorm:"column:token;type:varchar(128);uniqueIndex;not null"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null"`
	AcceptedAt       sql.NullTime `gorm:"column:accepted_at"`
	CreatedByAdminId *int64       `gorm:"column:created_by_admin_id"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
}

func (AgentInvitation) TableName() string {
	return "agent_invitations"
}

// EmailVerificationToken 邮箱验证令牌，验证成功后删除
type EmailVerificationToken struct {
	Id        int64     `gorm:"column:id;primaryKey;comment:自增id"`
	AgentId   int64     `gorm:"column:agent_id;index;not null"`
	Token     string    `gorm:"column:token;type:varchar(128);uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}

package entity

import (
	"database/sql"
	"time"
)

// 坐席在线状态
const (
	StatusOnline  = "online"
	StatusBusy    = "busy"
	StatusOffline = "offline"
)

// Agent 人工坐席账号，注册后需邮箱验证 + 管理员审批才能登录
type Agent struct {
	Id           int64        `gorm:"column:id;primaryKey;comment:自增id"`
	Name         string       `gorm:"column:name;type:varchar(100);not null;comment:姓名"`
	Email        string       `gorm:"column:email;type:varchar(190);uniqueIndex;not null;comment:邮箱"`
	PasswordHash string       `gorm:"column:password_hash;type:varchar(255);not null"`
	Department   string       `gorm:"column:department;type:varchar(100);not null;comment:所属科室"`
	Status       string       `gorm:"column:status;type:varchar(20);default:offline;comment:online/busy/offline"`
	LastSeen     sql.NullTime `gorm:"column:last_seen"`
	IsVerified   bool         `gorm:"column:is_verified;default:false;comment:邮箱已验证"`
	IsApproved   bool         `gorm:"column:is_approved;default:false;comment:管理员已审批"`
	LastLoginAt  sql.NullTime `gorm:"column:last_login_at"`
	LastLoginIp  string       `gorm:"column:last_login_ip;type:varchar(64)"`
	CreatedAt    time.Time    `gorm:"column:created_at;not null"`
}

func (Agent) TableName() string {
	return "agents"
}

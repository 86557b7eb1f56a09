package entity

import (
	"time"
)

// 会话状态机：pending -> active -> closed；active 转科时回到 pending。
// closed 之后不再有任何迁移。
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusClosed  = "closed"
)

// Conversation 患者支持会话。约束：AssignedAgentId 非空 当且仅当 状态为 active。
// 记录只追加不删除，留作导出审计。
type Conversation struct {
	Id              string    `gorm:"column:id;primaryKey;type:char(24);comment:强随机24位hex"`
	Department      string    `gorm:"column:department;index;type:varchar(100);not null;comment:当前归属科室，转科时会变"`
	PatientName     string    `gorm:"column:patient_name;type:varchar(100);comment:患者昵称"`
	AssignedAgentId *int64    `gorm:"column:assigned_agent_id;index;comment:受理坐席id，pending时必须为空"`
	Status          string    `gorm:"column:status;index;type:varchar(16);not null;comment:pending/active/closed"`
	Topic           string    `gorm:"column:topic;type:varchar(255);comment:话题"`
	Intent          string    `gorm:"column:intent;type:varchar(64);comment:转人工意图"`
	Confidence      float64   `gorm:"column:confidence;comment:机器人匹配置信度"`
	Context         string    `gorm:"column:context;type:text;comment:升级时的机器人上下文(JSON)"`
	CreatedAt       time.Time `gorm:"column:created_at;index;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

package entity

import (
	"time"
)

// 消息发送方。机器人消息落库时带独立的 bot 标记，
// 界面展示名由 DTO 层统一映射，不和人工坐席混用。
const (
	SenderPatient = "patient"
	SenderAgent   = "agent"
	SenderBot     = "bot"
)

// BotDisplayName 机器人消息在患者/坐席界面上的统一署名
const BotDisplayName = "Assistant"

// Message 会话内消息，按 created_at 全序，历史回放以此为准
type Message struct {
	Id        int64     `gorm:"column:id;primaryKey;comment:自增id"`
	ChatId    string    `gorm:"column:chat_id;index;type:char(24);not null;comment:所属会话id"`
	Sender    string    `gorm:"column:sender;type:varchar(10);not null;comment:patient/agent/bot"`
	Text      string    `gorm:"column:text;type:text;comment:文本内容"`
	FileUrl   string    `gorm:"column:file_url;type:varchar(255);comment:附件url"`
	FileName  string    `gorm:"column:file_name;type:varchar(255);comment:附件原始文件名"`
	AgentName string    `gorm:"column:agent_name;type:varchar(100);comment:坐席展示名"`
	CreatedAt time.Time `gorm:"column:created_at;index;not null"`
}

func (Message) TableName() string {
	return "messages"
}

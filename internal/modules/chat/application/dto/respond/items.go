package respond

import (
	"time"

	chatEntity "CareLink/internal/modules/chat/domain/entity"
)

// PendingItem 科室待接入队列里的一项
type PendingItem struct {
	Id          string `json:"id"`
	PatientName string `json:"patientName"`
	CreatedAt   string `json:"createdAt"`
	Status      string `json:"status"`
}

func PendingItemFrom(c chatEntity.Conversation) PendingItem {
	return PendingItem{
		Id:          c.Id,
		PatientName: c.PatientName,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		Status:      c.Status,
	}
}

// MessageItem 会话消息推送/历史项。机器人消息在这里统一映射展示名，
// 存储层的 sender 标记保持 bot 不变。
type MessageItem struct {
	ChatId    string `json:"chatId"`
	From      string `json:"from"`
	Text      string `json:"text,omitempty"`
	Url       string `json:"url,omitempty"`
	Name      string `json:"name,omitempty"`
	AgentName string `json:"agentName,omitempty"`
	At        string `json:"at"`
}

func MessageItemFrom(m chatEntity.Message) MessageItem {
	agentName := m.AgentName
	if m.Sender == chatEntity.SenderBot && agentName == "" {
		agentName = chatEntity.BotDisplayName
	}
	return MessageItem{
		ChatId:    m.ChatId,
		From:      m.Sender,
		Text:      m.Text,
		Url:       m.FileUrl,
		Name:      m.FileName,
		AgentName: agentName,
		At:        m.CreatedAt.Format(time.RFC3339),
	}
}

// AgentItem 管理端坐席在线面板里的一行
type AgentItem struct {
	Id         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Status     string `json:"status"`
	LastSeen   string `json:"lastSeen,omitempty"`
	IsVerified bool   `json:"isVerified"`
	IsApproved bool   `json:"isApproved"`
}

// PresenceSnapshot 推给管理端的完整坐席名册与科室在线数
type PresenceSnapshot struct {
	Agents             []AgentItem    `json:"agents"`
	OnlineByDepartment map[string]int `json:"onlineByDepartment"`
}

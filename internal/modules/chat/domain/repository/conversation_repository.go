package repository

import (
	"CareLink/internal/modules/chat/domain/entity"
)

type ConversationRepository interface {
	Create(conv *entity.Conversation) error
	// CreateWithTranscript 在一个事务里落库会话和种子消息，任一失败则整体回滚
	CreateWithTranscript(conv *entity.Conversation, msgs []*entity.Message) error
	GetByID(id string) (*entity.Conversation, error)
	// ListPendingByDepartment 按创建时间升序返回科室待接入会话
	ListPendingByDepartment(department string) ([]entity.Conversation, error)
	// Accept 受理：pending 且未分配 且科室匹配时，原子地置为 active 并写入坐席id。
	// 返回是否真正抢到（条件更新影响行数为 0 即已被他人抢走）。
	Accept(chatID string, agentID int64, department string) (bool, error)
	// Forward 转科：仅当前受理坐席可转，原子地清空分配、回到 pending 并改科室
	Forward(chatID string, agentID int64, newDepartment string) (bool, error)
	// Close 关闭，closed 状态不再迁移
	Close(chatID string) (bool, error)
}

type MessageRepository interface {
	Create(message *entity.Message) error
	ListByChat(chatID string) ([]entity.Message, error)
}

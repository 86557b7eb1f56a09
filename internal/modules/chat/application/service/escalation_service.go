package service

import (
	"encoding/json"
	"time"

	chatEntity "CareLink/internal/modules/chat/domain/entity"
	chatRepository "CareLink/internal/modules/chat/domain/repository"
	"CareLink/pkg/util"
	"CareLink/pkg/xerr"
	"CareLink/pkg/zlog"
)

// TranscriptLine 升级前机器人阶段的对话记录，From 取 patient 或 bot
type TranscriptLine struct {
	From string    `json:"from"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// KnowledgeHit 升级时随上下文一并存档的知识库命中
type KnowledgeHit struct {
	Id       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type EscalateParams struct {
	Department  string
	PatientName string
	Topic       string
	Intent      string
	Confidence  float64
	Question    string
	Hit         *KnowledgeHit
	Transcript  []TranscriptLine
}

// EscalationService 创建待接入会话并让目标科室的坐席立刻看到。
// 队列推送相对调用方同步完成：升级返回时坐席端已收到新条目。
type EscalationService interface {
	Escalate(p EscalateParams) (string, error)
}

type escalationServiceImpl struct {
	convRepo  chatRepository.ConversationRepository
	broadcast BroadcastService
}

func NewEscalationService(
	convRepo chatRepository.ConversationRepository,
	broadcast BroadcastService,
) EscalationService {
	return &escalationServiceImpl{
		convRepo:  convRepo,
		broadcast: broadcast,
	}
}

func (s *escalationServiceImpl) Escalate(p EscalateParams) (string, error) {
	chatID := util.GenerateChatID()
	now := time.Now()

	patientName := p.PatientName
	if patientName == "" {
		patientName = "Guest"
	}

	contextPayload, err := json.Marshal(map[string]interface{}{
		"confidence": p.Confidence,
		"question":   p.Question,
		"kbHit":      p.Hit,
		"transcript": p.Transcript,
	})
	if err != nil {
		zlog.Error("escalation context marshal failed: " + err.Error())
		return "", xerr.ErrServerError
	}

	conv := &chatEntity.Conversation{
		Id:          chatID,
		Department:  p.Department,
		PatientName: patientName,
		Status:      chatEntity.StatusPending,
		Topic:       p.Topic,
		Intent:      p.Intent,
		Confidence:  p.Confidence,
		Context:     string(contextPayload),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// 机器人阶段的对话按原顺序回放进消息流，坐席接入后能看到完整上下文
	msgs := make([]*chatEntity.Message, 0, len(p.Transcript))
	for _, line := range p.Transcript {
		sender := chatEntity.SenderPatient
		agentName := ""
		if line.From == chatEntity.SenderBot {
			sender = chatEntity.SenderBot
			agentName = chatEntity.BotDisplayName
		}
		at := line.At
		if at.IsZero() {
			at = now
		}
		msgs = append(msgs, &chatEntity.Message{
			ChatId:    chatID,
			Sender:    sender,
			Text:      line.Text,
			AgentName: agentName,
			CreatedAt: at,
		})
	}

	// 会话和种子消息同一事务，不允许出现没有消息的半成品会话
	if err := s.convRepo.CreateWithTranscript(conv, msgs); err != nil {
		zlog.Error("escalation persist failed: " + err.Error())
		return "", xerr.New(xerr.InternalServerError, "Escalation failed. Please try again.")
	}

	s.broadcast.PendingList(p.Department)
	return chatID, nil
}

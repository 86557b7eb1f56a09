package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"CareLink/internal/config"
	agentRepository "CareLink/internal/modules/agent/domain/repository"
	botEntity "CareLink/internal/modules/bot/domain/entity"
	botRepository "CareLink/internal/modules/bot/domain/repository"
	"CareLink/internal/modules/bot/infrastructure/mq"
	chatService "CareLink/internal/modules/chat/application/service"
	chatEntity "CareLink/internal/modules/chat/domain/entity"
	"CareLink/pkg/zlog"
)

// 低于该置信度视为回答不了
const ConfidenceThreshold = 0.35

const (
	EmergencyDepartment = "Emergency"
	DefaultDepartment   = "General"
)

// 危急词，命中任一立即转急诊人工，不走后续任何判定
var criticalKeywords = []string{
	"ambulance", "emergency", "chest pain", "unconscious", "stroke",
	"bleeding", "suicide", "self harm", "accident", "breathing", "severe",
}

// 主动要人工的说法
var humanKeywords = []string{
	"human", "agent", "staff", "help from person", "talk to person", "talk to someone",
}

// 回复类型
const (
	ReplyAnswer    = "answer"    // 知识库命中
	ReplyClarify   = "clarify"   // 请患者换个说法
	ReplyPlain     = "reply"     // 路由规则固定回复
	ReplyEscalated = "escalated" // 已转人工
)

// SessionContext 单个患者连接的机器人会话状态，由持有连接的一方保存并串行访问
type SessionContext struct {
	Department    string
	ClarifiedOnce bool  // 已经请患者澄清过一次,再答不上来就转人工
	LastEntryId   int64 // 最近命中的知识库条目
	Escalated     bool
	Transcript    []chatService.TranscriptLine
}

func (c *SessionContext) Reset() {
	*c = SessionContext{}
}

func (c *SessionContext) record(from, text string) {
	c.Transcript = append(c.Transcript, chatService.TranscriptLine{
		From: from,
		Text: text,
		At:   time.Now(),
	})
}

type BotReply struct {
	Type            string       `json:"type"`
	Text            string       `json:"text,omitempty"`
	Suggestions     []Suggestion `json:"suggestions,omitempty"`
	Confidence      float64      `json:"confidence,omitempty"`
	ChatId          string       `json:"chatId,omitempty"`
	Department      string       `json:"department,omitempty"`
	OfferEscalation bool         `json:"offerEscalation,omitempty"`
}

// BotService 机器人应答策略。判定顺序固定：
// 危急词 > 主动要人工 > 路由规则 > 知识库 > 澄清一次后转人工。
type BotService interface {
	Process(sctx *SessionContext, text, preferredDepartment, patientName string) (*BotReply, error)
	// RequestHuman 患者在界面上直接点转人工
	RequestHuman(sctx *SessionContext, patientName string) (*BotReply, error)
}

type botServiceImpl struct {
	knowledge   KnowledgeService
	routing     RoutingService
	unanswered  botRepository.UnansweredQueryRepository
	departments agentRepository.DepartmentRepository
	escalation  chatService.EscalationService
	publisher   mq.Publisher // 可为 nil,未配置 kafka 时直接跳过
}

func NewBotService(
	knowledge KnowledgeService,
	routing RoutingService,
	unanswered botRepository.UnansweredQueryRepository,
	departments agentRepository.DepartmentRepository,
	escalation chatService.EscalationService,
	publisher mq.Publisher,
) BotService {
	return &botServiceImpl{
		knowledge:   knowledge,
		routing:     routing,
		unanswered:  unanswered,
		departments: departments,
		escalation:  escalation,
		publisher:   publisher,
	}
}

func (s *botServiceImpl) Process(sctx *SessionContext, text, preferredDepartment, patientName string) (*BotReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &BotReply{Type: ReplyClarify, Text: "Please type a message."}, nil
	}
	if sctx.Escalated {
		return &BotReply{Type: ReplyEscalated, Department: sctx.Department}, nil
	}

	sctx.record(chatEntity.SenderPatient, text)
	if sctx.Department == "" {
		sctx.Department = s.resolveDepartment(text, preferredDepartment)
	}

	lower := strings.ToLower(text)

	// 危急词直通急诊,不看科室
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			sctx.Department = EmergencyDepartment
			return s.escalate(sctx, patientName, "critical", text, 0, nil)
		}
	}

	for _, kw := range humanKeywords {
		if strings.Contains(lower, kw) {
			return s.escalate(sctx, patientName, "human_request", text, 0, nil)
		}
	}

	rule, err := s.routing.Evaluate(text, sctx.Department)
	if err != nil {
		zlog.Error("routing evaluate failed: " + err.Error())
	} else if rule != nil {
		if rule.ThenReply != "" {
			sctx.record(chatEntity.SenderBot, rule.ThenReply)
		}
		if rule.ThenAction == botEntity.ActionEscalate {
			return s.escalate(sctx, patientName, "routing_rule", text, 0, nil)
		}
		return &BotReply{Type: ReplyPlain, Text: rule.ThenReply}, nil
	}

	match, ok := s.knowledge.Match(text)
	if ok && match.Score >= ConfidenceThreshold {
		sctx.LastEntryId = match.Entry.Id
		sctx.record(chatEntity.SenderBot, match.Entry.Answer)
		return &BotReply{
			Type:            ReplyAnswer,
			Text:            match.Entry.Answer,
			Suggestions:     s.knowledge.Suggestions(match.Entry.Id),
			Confidence:      match.Score,
			OfferEscalation: true,
		}, nil
	}

	confidence := 0.0
	var hit *chatService.KnowledgeHit
	if ok {
		confidence = match.Score
		hit = &chatService.KnowledgeHit{
			Id:       match.Entry.Id,
			Question: match.Entry.Question,
			Answer:   match.Entry.Answer,
		}
	}

	if !sctx.ClarifiedOnce {
		sctx.ClarifiedOnce = true
		s.recordUnanswered(text, sctx.Department, confidence)
		reply := "I'm not sure I understood. Could you rephrase, or pick one of these topics?"
		sctx.record(chatEntity.SenderBot, reply)
		return &BotReply{
			Type:            ReplyClarify,
			Text:            reply,
			Suggestions:     s.knowledge.TopLevel(),
			Confidence:      confidence,
			OfferEscalation: true,
		}, nil
	}

	// 澄清过一次还是答不上来,转人工
	return s.escalate(sctx, patientName, "low_confidence", text, confidence, hit)
}

func (s *botServiceImpl) RequestHuman(sctx *SessionContext, patientName string) (*BotReply, error) {
	if sctx.Escalated {
		return &BotReply{Type: ReplyEscalated, Department: sctx.Department}, nil
	}
	if sctx.Department == "" {
		sctx.Department = DefaultDepartment
	}
	question := ""
	for i := len(sctx.Transcript) - 1; i >= 0; i-- {
		if sctx.Transcript[i].From == chatEntity.SenderPatient {
			question = sctx.Transcript[i].Text
			break
		}
	}
	return s.escalate(sctx, patientName, "human_request", question, 0, nil)
}

func (s *botServiceImpl) escalate(sctx *SessionContext, patientName, intent, question string, confidence float64, hit *chatService.KnowledgeHit) (*BotReply, error) {
	line := "Escalating to a human agent in " + sctx.Department + "."
	sctx.record(chatEntity.SenderBot, line)

	topic := question
	if r := []rune(topic); len(r) > 120 {
		// 按字符截断,不能把多字节字符切成半个
		topic = string(r[:120])
	}

	chatID, err := s.escalation.Escalate(chatService.EscalateParams{
		Department:  sctx.Department,
		PatientName: patientName,
		Topic:       topic,
		Intent:      intent,
		Confidence:  confidence,
		Question:    question,
		Hit:         hit,
		Transcript:  sctx.Transcript,
	})
	if err != nil {
		return nil, err
	}

	sctx.Escalated = true
	s.publishEvent("escalation", map[string]interface{}{
		"chatId":     chatID,
		"department": sctx.Department,
		"intent":     intent,
		"confidence": confidence,
	})
	return &BotReply{
		Type:       ReplyEscalated,
		Text:       line,
		ChatId:     chatID,
		Department: sctx.Department,
	}, nil
}

// 猜科室：先看患者指定的,再在消息里找科室名,都没有归到 General
func (s *botServiceImpl) resolveDepartment(text, preferred string) string {
	names, err := s.departments.ListNames()
	if err != nil {
		zlog.Error("department list failed: " + err.Error())
		return DefaultDepartment
	}
	for _, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(preferred)) {
			return n
		}
	}
	lower := strings.ToLower(text)
	for _, n := range names {
		if strings.Contains(lower, strings.ToLower(n)) {
			return n
		}
	}
	return DefaultDepartment
}

func (s *botServiceImpl) recordUnanswered(query, department string, confidence float64) {
	q := &botEntity.UnansweredQuery{
		Query:      query,
		Department: department,
		Confidence: confidence,
		CreatedAt:  time.Now(),
	}
	if err := s.unanswered.Create(q); err != nil {
		zlog.Error("unanswered query save failed: " + err.Error())
	}
	s.publishEvent("unanswered_query", map[string]interface{}{
		"query":      query,
		"department": department,
		"confidence": confidence,
	})
}

// 事件发布尽力而为,失败只记日志
func (s *botServiceImpl) publishEvent(kind string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	payload["kind"] = kind
	payload["at"] = time.Now().Format(time.RFC3339)
	value, err := json.Marshal(payload)
	if err != nil {
		zlog.Error("bot event marshal failed: " + err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = s.publisher.Publish(ctx, mq.Message{
		Topic: config.GetConfig().KafkaConfig.BotEventsTopic,
		Key:   kind,
		Value: value,
	})
	if err != nil {
		zlog.Error("bot event publish failed: " + err.Error())
	}
}

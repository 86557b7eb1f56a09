package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	agentEntity "CareLink/internal/modules/agent/domain/entity"
	botEntity "CareLink/internal/modules/bot/domain/entity"
	chatService "CareLink/internal/modules/chat/application/service"
	chatEntity "CareLink/internal/modules/chat/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEscalation struct {
	calls []chatService.EscalateParams
}

func (f *fakeEscalation) Escalate(p chatService.EscalateParams) (string, error) {
	f.calls = append(f.calls, p)
	return "chat-test-id", nil
}

type fakeDeptRepo struct {
	names []string
}

func (f *fakeDeptRepo) List() ([]agentEntity.Department, error) {
	out := make([]agentEntity.Department, 0, len(f.names))
	for i, n := range f.names {
		out = append(out, agentEntity.Department{Id: int64(i + 1), Name: n})
	}
	return out, nil
}

func (f *fakeDeptRepo) ListNames() ([]string, error) {
	return f.names, nil
}

type fakeUnansweredRepo struct {
	saved []botEntity.UnansweredQuery
}

func (f *fakeUnansweredRepo) Create(q *botEntity.UnansweredQuery) error {
	f.saved = append(f.saved, *q)
	return nil
}

type fakeRuleRepo struct {
	rules []botEntity.RoutingRule
}

func (f *fakeRuleRepo) ListActive(department string) ([]botEntity.RoutingRule, error) {
	return f.rules, nil
}

type botFixture struct {
	svc        BotService
	escalation *fakeEscalation
	unanswered *fakeUnansweredRepo
}

func newBotFixture(t *testing.T, entries []botEntity.KnowledgeEntry, rules []botEntity.RoutingRule) *botFixture {
	t.Helper()
	knowledge := newTestKnowledge(t, entries)
	routing := NewRoutingService(&fakeRuleRepo{rules: rules})
	esc := &fakeEscalation{}
	un := &fakeUnansweredRepo{}
	depts := &fakeDeptRepo{names: []string{"General", "Emergency", "Cardiology"}}
	svc := NewBotService(knowledge, routing, un, depts, esc, nil)
	return &botFixture{svc: svc, escalation: esc, unanswered: un}
}

func TestCriticalKeywordGoesStraightToEmergency(t *testing.T) {
	fx := newBotFixture(t, []botEntity.KnowledgeEntry{
		{Id: 1, Question: "chest pain causes", Answer: "See a doctor."},
	}, nil)

	sctx := &SessionContext{}
	reply, err := fx.svc.Process(sctx, "I have chest pain", "", "Alice")
	require.NoError(t, err)

	assert.Equal(t, ReplyEscalated, reply.Type)
	assert.Equal(t, EmergencyDepartment, reply.Department)
	assert.Equal(t, "chat-test-id", reply.ChatId)

	require.Len(t, fx.escalation.calls, 1)
	call := fx.escalation.calls[0]
	assert.Equal(t, "critical", call.Intent)
	assert.Equal(t, EmergencyDepartment, call.Department)
	assert.Equal(t, "Alice", call.PatientName)
	assert.True(t, sctx.Escalated)
}

func TestHumanRequestEscalates(t *testing.T) {
	fx := newBotFixture(t, nil, nil)

	sctx := &SessionContext{Department: "Cardiology"}
	reply, err := fx.svc.Process(sctx, "I want to talk to someone please", "", "")
	require.NoError(t, err)

	assert.Equal(t, ReplyEscalated, reply.Type)
	require.Len(t, fx.escalation.calls, 1)
	assert.Equal(t, "human_request", fx.escalation.calls[0].Intent)
	assert.Equal(t, "Cardiology", fx.escalation.calls[0].Department)
}

func TestEscalationTopicTruncatesOnRuneBoundary(t *testing.T) {
	fx := newBotFixture(t, nil, nil)

	long := "chest pain " + strings.Repeat("很疼", 100)
	sctx := &SessionContext{}
	_, err := fx.svc.Process(sctx, long, "", "")
	require.NoError(t, err)

	require.Len(t, fx.escalation.calls, 1)
	topic := fx.escalation.calls[0].Topic
	assert.True(t, utf8.ValidString(topic))
	assert.Equal(t, 120, utf8.RuneCountInString(topic))
	// 原文完整保留在 Question 里,截断只作用于话题
	assert.Equal(t, long, fx.escalation.calls[0].Question)
}

func TestAnswerAboveThresholdDoesNotEscalate(t *testing.T) {
	parent := int64(1)
	fx := newBotFixture(t, []botEntity.KnowledgeEntry{
		{Id: 1, Question: "what are the visiting hours", Answer: "Daily 9am to 8pm."},
		{Id: 2, Question: "visiting hours on weekends", Answer: "Weekends 10am to 6pm.", ParentId: &parent},
	}, nil)

	sctx := &SessionContext{}
	reply, err := fx.svc.Process(sctx, "what are the visiting hours", "", "")
	require.NoError(t, err)

	assert.Equal(t, ReplyAnswer, reply.Type)
	assert.Equal(t, "Daily 9am to 8pm.", reply.Text)
	assert.True(t, reply.OfferEscalation)
	require.Len(t, reply.Suggestions, 1)
	assert.Equal(t, int64(2), reply.Suggestions[0].Id)

	assert.Empty(t, fx.escalation.calls)
	assert.False(t, sctx.Escalated)
	assert.Equal(t, int64(1), sctx.LastEntryId)
}

func TestClarifyOnceThenEscalate(t *testing.T) {
	fx := newBotFixture(t, []botEntity.KnowledgeEntry{
		{Id: 1, Question: "parking information for visitors", Answer: "Garage on level B1."},
	}, nil)

	sctx := &SessionContext{}

	// 第一次答不上来:请患者换个说法,沉淀未答提问,不转人工
	reply, err := fx.svc.Process(sctx, "zzz qqq xxx unrelated gibberish", "", "Bob")
	require.NoError(t, err)
	assert.Equal(t, ReplyClarify, reply.Type)
	assert.True(t, sctx.ClarifiedOnce)
	assert.Empty(t, fx.escalation.calls)
	require.Len(t, fx.unanswered.saved, 1)
	assert.Equal(t, "zzz qqq xxx unrelated gibberish", fx.unanswered.saved[0].Query)

	// 第二次还是答不上来:转人工
	reply, err = fx.svc.Process(sctx, "still gibberish nothing matches", "", "Bob")
	require.NoError(t, err)
	assert.Equal(t, ReplyEscalated, reply.Type)
	require.Len(t, fx.escalation.calls, 1)
	assert.Equal(t, "low_confidence", fx.escalation.calls[0].Intent)

	// 升级时带上完整机器人阶段对话
	transcript := fx.escalation.calls[0].Transcript
	require.NotEmpty(t, transcript)
	assert.Equal(t, chatEntity.SenderPatient, transcript[0].From)
	assert.Equal(t, "zzz qqq xxx unrelated gibberish", transcript[0].Text)
}

func TestThresholdBoundary(t *testing.T) {
	// 20 词提问,知识条目重合 7 词得分恰好 0.35,等于阈值按命中处理
	fx := newBotFixture(t, []botEntity.KnowledgeEntry{
		{Id: 1, Question: "w1 w2 w3 w4 w5 w6 w7", Answer: "boundary answer"},
	}, nil)

	query := "w1 w2 w3 w4 w5 w6 w7 q8 q9 q10 q11 q12 q13 q14 q15 q16 q17 q18 q19 q20"
	reply, err := fx.svc.Process(&SessionContext{}, query, "", "")
	require.NoError(t, err)
	assert.Equal(t, ReplyAnswer, reply.Type)
	assert.Equal(t, 7.0/20.0, reply.Confidence)

	// 重合 6 词得分 0.3,低于阈值走澄清
	fx = newBotFixture(t, []botEntity.KnowledgeEntry{
		{Id: 1, Question: "w1 w2 w3 w4 w5 w6", Answer: "below boundary"},
	}, nil)
	reply, err = fx.svc.Process(&SessionContext{}, query, "", "")
	require.NoError(t, err)
	assert.Equal(t, ReplyClarify, reply.Type)
}

func TestRoutingRuleEscalate(t *testing.T) {
	fx := newBotFixture(t, nil, []botEntity.RoutingRule{
		{Id: 1, ContainsAny: []string{"prescription refill"}, ThenReply: "Connecting you to the pharmacy team.", ThenAction: botEntity.ActionEscalate, Active: true},
	})

	sctx := &SessionContext{Department: "General"}
	reply, err := fx.svc.Process(sctx, "I need a Prescription Refill", "", "")
	require.NoError(t, err)

	assert.Equal(t, ReplyEscalated, reply.Type)
	require.Len(t, fx.escalation.calls, 1)
	assert.Equal(t, "routing_rule", fx.escalation.calls[0].Intent)
}

func TestRoutingRuleReplyOnly(t *testing.T) {
	fx := newBotFixture(t, nil, []botEntity.RoutingRule{
		{Id: 1, ContainsAny: []string{"wifi"}, ThenReply: "Guest WiFi password is at the front desk.", Active: true},
	})

	sctx := &SessionContext{Department: "General"}
	reply, err := fx.svc.Process(sctx, "how do I get on the wifi", "", "")
	require.NoError(t, err)

	assert.Equal(t, ReplyPlain, reply.Type)
	assert.Equal(t, "Guest WiFi password is at the front desk.", reply.Text)
	assert.Empty(t, fx.escalation.calls)
}

func TestDepartmentInference(t *testing.T) {
	fx := newBotFixture(t, nil, nil)

	// 消息里带科室名,按科室名归属
	sctx := &SessionContext{}
	_, err := fx.svc.Process(sctx, "I need help from cardiology staff", "", "")
	require.NoError(t, err)
	require.Len(t, fx.escalation.calls, 1)
	assert.Equal(t, "Cardiology", fx.escalation.calls[0].Department)

	// 指定的科室优先
	sctx = &SessionContext{}
	_, err = fx.svc.Process(sctx, "talk to a human", "Emergency", "")
	require.NoError(t, err)
	require.Len(t, fx.escalation.calls, 2)
	assert.Equal(t, "Emergency", fx.escalation.calls[1].Department)
}

func TestEscalatedSessionStaysEscalated(t *testing.T) {
	fx := newBotFixture(t, nil, nil)

	sctx := &SessionContext{}
	_, err := fx.svc.Process(sctx, "talk to a human", "", "")
	require.NoError(t, err)
	require.Len(t, fx.escalation.calls, 1)

	reply, err := fx.svc.Process(sctx, "hello again", "", "")
	require.NoError(t, err)
	assert.Equal(t, ReplyEscalated, reply.Type)
	assert.Len(t, fx.escalation.calls, 1)
}

func TestRequestHumanUsesLastPatientLine(t *testing.T) {
	fx := newBotFixture(t, []botEntity.KnowledgeEntry{
		{Id: 1, Question: "what are the visiting hours", Answer: "Daily 9am to 8pm."},
	}, nil)

	sctx := &SessionContext{}
	_, err := fx.svc.Process(sctx, "what are the visiting hours", "", "Carol")
	require.NoError(t, err)

	reply, err := fx.svc.RequestHuman(sctx, "Carol")
	require.NoError(t, err)
	assert.Equal(t, ReplyEscalated, reply.Type)
	require.Len(t, fx.escalation.calls, 1)
	assert.Equal(t, "human_request", fx.escalation.calls[0].Intent)
	assert.Equal(t, "what are the visiting hours", fx.escalation.calls[0].Question)
}

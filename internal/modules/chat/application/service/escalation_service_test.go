package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	chatEntity "CareLink/internal/modules/chat/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConvRepo struct {
	conv    *chatEntity.Conversation
	msgs    []*chatEntity.Message
	failing bool
}

func (f *fakeConvRepo) Create(conv *chatEntity.Conversation) error { return nil }

func (f *fakeConvRepo) CreateWithTranscript(conv *chatEntity.Conversation, msgs []*chatEntity.Message) error {
	if f.failing {
		return errors.New("db down")
	}
	f.conv = conv
	f.msgs = msgs
	return nil
}

func (f *fakeConvRepo) GetByID(id string) (*chatEntity.Conversation, error) { return f.conv, nil }

func (f *fakeConvRepo) ListPendingByDepartment(department string) ([]chatEntity.Conversation, error) {
	return nil, nil
}

func (f *fakeConvRepo) Accept(chatID string, agentID int64, department string) (bool, error) {
	return false, nil
}

func (f *fakeConvRepo) Forward(chatID string, agentID int64, newDepartment string) (bool, error) {
	return false, nil
}

func (f *fakeConvRepo) Close(chatID string) (bool, error) { return false, nil }

type fakeBroadcast struct {
	pendingCalls []string
}

func (f *fakeBroadcast) AgentPresence() {}

func (f *fakeBroadcast) PendingList(department string) {
	f.pendingCalls = append(f.pendingCalls, department)
}

func TestEscalateSeedsConversationAndTranscript(t *testing.T) {
	repo := &fakeConvRepo{}
	bc := &fakeBroadcast{}
	svc := NewEscalationService(repo, bc)

	at := time.Now().Add(-time.Minute)
	chatID, err := svc.Escalate(EscalateParams{
		Department:  "Cardiology",
		PatientName: "Frank",
		Topic:       "chest discomfort",
		Intent:      "low_confidence",
		Confidence:  0.2,
		Question:    "my chest feels weird",
		Transcript: []TranscriptLine{
			{From: chatEntity.SenderPatient, Text: "my chest feels weird", At: at},
			{From: chatEntity.SenderBot, Text: "Escalating to a human agent in Cardiology.", At: at},
		},
	})
	require.NoError(t, err)
	assert.Len(t, chatID, 24)

	require.NotNil(t, repo.conv)
	assert.Equal(t, chatID, repo.conv.Id)
	assert.Equal(t, chatEntity.StatusPending, repo.conv.Status)
	assert.Equal(t, "Cardiology", repo.conv.Department)
	assert.Equal(t, "Frank", repo.conv.PatientName)
	assert.Equal(t, "low_confidence", repo.conv.Intent)
	assert.Nil(t, repo.conv.AssignedAgentId)

	// 上下文完整落库
	var ctxPayload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(repo.conv.Context), &ctxPayload))
	assert.Equal(t, "my chest feels weird", ctxPayload["question"])

	// 机器人台词落库为 bot,展示名固定
	require.Len(t, repo.msgs, 2)
	assert.Equal(t, chatEntity.SenderPatient, repo.msgs[0].Sender)
	assert.Equal(t, chatEntity.SenderBot, repo.msgs[1].Sender)
	assert.Equal(t, chatEntity.BotDisplayName, repo.msgs[1].AgentName)
	assert.Equal(t, chatID, repo.msgs[0].ChatId)

	// 队列推送同步完成且指向目标科室
	require.Len(t, bc.pendingCalls, 1)
	assert.Equal(t, "Cardiology", bc.pendingCalls[0])
}

func TestEscalateDefaultsPatientName(t *testing.T) {
	repo := &fakeConvRepo{}
	svc := NewEscalationService(repo, &fakeBroadcast{})

	_, err := svc.Escalate(EscalateParams{Department: "General"})
	require.NoError(t, err)
	assert.Equal(t, "Guest", repo.conv.PatientName)
}

func TestEscalatePersistFailureNoBroadcast(t *testing.T) {
	repo := &fakeConvRepo{failing: true}
	bc := &fakeBroadcast{}
	svc := NewEscalationService(repo, bc)

	_, err := svc.Escalate(EscalateParams{Department: "General"})
	require.Error(t, err)
	assert.Empty(t, bc.pendingCalls)
}

package service

import (
	"time"

	agentEntity "CareLink/internal/modules/agent/domain/entity"
	agentRepository "CareLink/internal/modules/agent/domain/repository"
	chatRespond "CareLink/internal/modules/chat/application/dto/respond"
	chatRepository "CareLink/internal/modules/chat/domain/repository"
	"CareLink/pkg/ws"
	"CareLink/pkg/zlog"
)

// BroadcastService 两路尽力而为的推送：
// 坐席在线名册推给管理员，科室待接入队列推给该科室的坐席连接。
// 查询之外不阻塞触发方，失败只记日志。
type BroadcastService interface {
	AgentPresence()
	PendingList(department string)
}

type broadcastServiceImpl struct {
	hub       *ws.Hub
	convRepo  chatRepository.ConversationRepository
	agentRepo agentRepository.AgentRepository
}

func NewBroadcastService(
	hub *ws.Hub,
	convRepo chatRepository.ConversationRepository,
	agentRepo agentRepository.AgentRepository,
) BroadcastService {
	return &broadcastServiceImpl{
		hub:       hub,
		convRepo:  convRepo,
		agentRepo: agentRepo,
	}
}

func (s *broadcastServiceImpl) AgentPresence() {
	agents, err := s.agentRepo.ListAll()
	if err != nil {
		zlog.Error("presence broadcast query failed: " + err.Error())
		return
	}

	items := make([]chatRespond.AgentItem, 0, len(agents))
	counts := make(map[string]int)
	for _, a := range agents {
		item := chatRespond.AgentItem{
			Id:         a.Id,
			Name:       a.Name,
			Email:      a.Email,
			Department: a.Department,
			Status:     a.Status,
			IsVerified: a.IsVerified,
			IsApproved: a.IsApproved,
		}
		if a.LastSeen.Valid {
			item.LastSeen = a.LastSeen.Time.Format(time.RFC3339)
		}
		items = append(items, item)
		if a.Status == agentEntity.StatusOnline || a.Status == agentEntity.StatusBusy {
			counts[a.Department]++
		}
	}

	_ = s.hub.BroadcastEvent(ws.AdminsGroup, "admin:agents", chatRespond.PresenceSnapshot{
		Agents:             items,
		OnlineByDepartment: counts,
	})
}

func (s *broadcastServiceImpl) PendingList(department string) {
	convs, err := s.convRepo.ListPendingByDepartment(department)
	if err != nil {
		zlog.Error("pending list query failed: " + err.Error())
		return
	}

	items := make([]chatRespond.PendingItem, 0, len(convs))
	for _, c := range convs {
		items = append(items, chatRespond.PendingItemFrom(c))
	}

	// 科室组暂时没有在线坐席时退回全体坐席组，避免推送被整体丢掉
	group := ws.DeptGroup(department)
	if s.hub.Count(group) == 0 {
		group = ws.AgentsGroup
	}
	_ = s.hub.BroadcastEvent(group, "agent:pending_list", map[string]interface{}{
		"department": department,
		"items":      items,
	})
}

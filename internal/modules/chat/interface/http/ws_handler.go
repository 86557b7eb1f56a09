package handler

import (
	"encoding/json"
	"net/http"
	"time"

	agentEntity "CareLink/internal/modules/agent/domain/entity"
	agentRepository "CareLink/internal/modules/agent/domain/repository"
	botService "CareLink/internal/modules/bot/application/service"
	chatRespond "CareLink/internal/modules/chat/application/dto/respond"
	chatService "CareLink/internal/modules/chat/application/service"
	chatEntity "CareLink/internal/modules/chat/domain/entity"
	chatRepository "CareLink/internal/modules/chat/domain/repository"
	"CareLink/pkg/util"
	"CareLink/pkg/util/myjwt"
	"CareLink/pkg/ws"
	"CareLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WsHandler struct {
	hub       *ws.Hub
	bot       botService.BotService
	broadcast chatService.BroadcastService
	convRepo  chatRepository.ConversationRepository
	msgRepo   chatRepository.MessageRepository
	agentRepo agentRepository.AgentRepository
	deptRepo  agentRepository.DepartmentRepository
}

func NewWsHandler(
	hub *ws.Hub,
	bot botService.BotService,
	broadcast chatService.BroadcastService,
	convRepo chatRepository.ConversationRepository,
	msgRepo chatRepository.MessageRepository,
	agentRepo agentRepository.AgentRepository,
	deptRepo agentRepository.DepartmentRepository,
) *WsHandler {
	return &WsHandler{
		hub:       hub,
		bot:       bot,
		broadcast: broadcast,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		agentRepo: agentRepo,
		deptRepo:  deptRepo,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 连接内会话状态。读循环单协程跑，不需要加锁。
type wsSession struct {
	client      *ws.Client
	role        string // patient / agent / admin
	agentID     int64
	agentName   string
	department  string
	patientName string
	chatID      string
	botCtx      *botService.SessionContext
}

// 浏览器原生 WebSocket 不能带自定义 Header，升级时不校验身份，
// 坐席和管理员用 agent:register / admin:register 事件补交 token
func (h *WsHandler) Connect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}

	sess := &wsSession{
		client: ws.NewClient(conn),
		botCtx: &botService.SessionContext{},
	}

	defer func() {
		h.hub.RemoveClient(sess.client)
		if sess.role == "agent" && sess.agentID != 0 {
			h.setAgentStatus(sess.agentID, agentEntity.StatusOffline)
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go sess.client.WritePump()

	for {
		var req struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.dispatch(sess, req.Event, req.Data)
	}
}

func (h *WsHandler) dispatch(sess *wsSession, event string, data json.RawMessage) {
	switch event {
	case "patient:new_conversation":
		h.onPatientNew(sess, data)
	case "patient:message", "patient:bot_message":
		h.onPatientMessage(sess, data)
	case "patient:set_department":
		h.onSetDepartment(sess, data)
	case "patient:file_uploaded":
		h.onPatientFile(sess, data)
	case "chat:history_request":
		h.onHistoryRequest(sess, data)
	case "agent:register":
		h.onAgentRegister(sess, data)
	case "agent:accept":
		h.onAgentAccept(sess, data)
	case "agent:message":
		h.onAgentMessage(sess, data)
	case "agent:file_uploaded":
		h.onAgentFile(sess, data)
	case "agent:forward":
		h.onAgentForward(sess, data)
	case "chat:close":
		h.onChatClose(sess, data)
	case "admin:register":
		h.onAdminRegister(sess, data)
	default:
		_ = sess.client.SendEvent("error", map[string]string{"message": "Unknown event: " + event})
	}
}

// 患者直接发起人工会话,不经过机器人:建 pending 会话并立刻推给科室队列
func (h *WsHandler) onPatientNew(sess *wsSession, data json.RawMessage) {
	var req struct {
		PatientName string `json:"patientName"`
		Department  string `json:"department"`
	}
	_ = json.Unmarshal(data, &req)

	if req.Department == "" || !h.departmentExists(req.Department) {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Department required/invalid"})
		return
	}

	patientName := req.PatientName
	if patientName == "" {
		patientName = "Guest"
	}

	now := time.Now()
	conv := &chatEntity.Conversation{
		Id:          util.GenerateChatID(),
		Department:  req.Department,
		PatientName: patientName,
		Status:      chatEntity.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.convRepo.Create(conv); err != nil {
		zlog.Error("conversation create failed: " + err.Error())
		_ = sess.client.SendEvent("error", map[string]string{"message": "Server error"})
		return
	}

	sess.role = "patient"
	sess.patientName = patientName
	sess.chatID = conv.Id
	sess.botCtx = &botService.SessionContext{Department: req.Department}
	h.hub.Join(ws.ChatGroup(conv.Id), sess.client)

	_ = sess.client.SendEvent("patient:created", map[string]interface{}{
		"chatId": conv.Id,
		"status": chatEntity.StatusPending,
	})
	h.broadcast.PendingList(req.Department)
}

func (h *WsHandler) departmentExists(name string) bool {
	names, err := h.deptRepo.ListNames()
	if err != nil {
		zlog.Error("department list failed: " + err.Error())
		return false
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (h *WsHandler) onPatientMessage(sess *wsSession, data json.RawMessage) {
	var req struct {
		Text       string `json:"text"`
		Department string `json:"department"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}

	// 已经转人工的会话里,患者消息直接落库并推给会话组
	if sess.chatID != "" {
		msg := &chatEntity.Message{
			ChatId:    sess.chatID,
			Sender:    chatEntity.SenderPatient,
			Text:      req.Text,
			CreatedAt: time.Now(),
		}
		if err := h.msgRepo.Create(msg); err != nil {
			zlog.Error("patient message save failed: " + err.Error())
			_ = sess.client.SendEvent("error", map[string]string{"message": "Message not delivered"})
			return
		}
		_ = h.hub.BroadcastEvent(ws.ChatGroup(sess.chatID), "chat:message", chatRespond.MessageItemFrom(*msg))
		return
	}

	reply, err := h.bot.Process(sess.botCtx, req.Text, req.Department, sess.patientName)
	if err != nil {
		_ = sess.client.SendEvent("error", map[string]string{"message": err.Error()})
		return
	}
	_ = sess.client.SendEvent("bot:reply", reply)

	// 转人工后进入会话组,等待 chat:assigned
	if reply.Type == botService.ReplyEscalated && reply.ChatId != "" {
		sess.chatID = reply.ChatId
		h.hub.Join(ws.ChatGroup(reply.ChatId), sess.client)
	}
}

// 患者端上传完成后的通知,消息落库并推给会话组
func (h *WsHandler) onPatientFile(sess *wsSession, data json.RawMessage) {
	var req struct {
		ChatId string `json:"chatId"`
		Url    string `json:"url"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Url == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}
	// 只允许发到本连接持有的会话
	if sess.chatID == "" || sess.chatID != req.ChatId {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Chat not found"})
		return
	}
	msg := &chatEntity.Message{
		ChatId:    req.ChatId,
		Sender:    chatEntity.SenderPatient,
		FileUrl:   req.Url,
		FileName:  req.Name,
		CreatedAt: time.Now(),
	}
	if err := h.msgRepo.Create(msg); err != nil {
		zlog.Error("file message save failed: " + err.Error())
		_ = sess.client.SendEvent("error", map[string]string{"message": "Message not delivered"})
		return
	}
	_ = h.hub.BroadcastEvent(ws.ChatGroup(req.ChatId), "chat:file", chatRespond.MessageItemFrom(*msg))
}

// 患者在转人工前改选科室
func (h *WsHandler) onSetDepartment(sess *wsSession, data json.RawMessage) {
	var req struct {
		Department string `json:"department"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Department == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}
	if sess.chatID != "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Chat already escalated"})
		return
	}
	sess.botCtx.Department = req.Department
}

func (h *WsHandler) onHistoryRequest(sess *wsSession, data json.RawMessage) {
	var req struct {
		ChatId string `json:"chatId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}
	msgs, err := h.msgRepo.ListByChat(req.ChatId)
	if err != nil {
		zlog.Error("history query failed: " + err.Error())
		_ = sess.client.SendEvent("error", map[string]string{"message": "History unavailable"})
		return
	}
	items := make([]chatRespond.MessageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, chatRespond.MessageItemFrom(m))
	}
	_ = sess.client.SendEvent("chat:history", map[string]interface{}{
		"chatId": req.ChatId,
		"items":  items,
	})
}

func (h *WsHandler) onAgentRegister(sess *wsSession, data json.RawMessage) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Token == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Token required"})
		return
	}
	claims, err := myjwt.ParseToken(req.Token)
	if err != nil || claims == nil || claims.Role != myjwt.RoleAgent {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Unauthorized"})
		return
	}
	agent, err := h.agentRepo.GetByID(claims.Id)
	if err != nil || agent == nil || !agent.IsApproved {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Unauthorized"})
		return
	}

	sess.role = "agent"
	sess.agentID = agent.Id
	sess.agentName = agent.Name
	sess.department = agent.Department

	h.hub.Join(ws.AgentsGroup, sess.client)
	h.hub.Join(ws.DeptGroup(agent.Department), sess.client)
	h.setAgentStatus(agent.Id, agentEntity.StatusOnline)

	_ = sess.client.SendEvent("agent:registered", map[string]interface{}{
		"id":         agent.Id,
		"name":       agent.Name,
		"department": agent.Department,
	})
	// 注册后立即补一份当前队列,不等下一次变更
	h.broadcast.PendingList(agent.Department)
}

func (h *WsHandler) onAgentAccept(sess *wsSession, data json.RawMessage) {
	if sess.role != "agent" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Register first"})
		return
	}
	var req struct {
		ChatId string `json:"chatId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}

	won, err := h.convRepo.Accept(req.ChatId, sess.agentID, sess.department)
	if err != nil {
		zlog.Error("accept failed: " + err.Error())
		_ = sess.client.SendEvent("agent:accept_failed", map[string]string{
			"chatId": req.ChatId,
			"reason": "Server error",
		})
		return
	}
	if !won {
		// 被别的坐席抢先,或会话已不在 pending
		_ = sess.client.SendEvent("agent:accept_failed", map[string]string{
			"chatId": req.ChatId,
			"reason": "Already taken",
		})
		return
	}

	sess.chatID = req.ChatId
	h.hub.Join(ws.ChatGroup(req.ChatId), sess.client)
	h.setAgentStatus(sess.agentID, agentEntity.StatusBusy)

	_ = h.hub.BroadcastEvent(ws.ChatGroup(req.ChatId), "chat:assigned", map[string]interface{}{
		"chatId":     req.ChatId,
		"agentId":    sess.agentID,
		"agentName":  sess.agentName,
		"department": sess.department,
	})
	h.broadcast.PendingList(sess.department)
}

func (h *WsHandler) onAgentMessage(sess *wsSession, data json.RawMessage) {
	var req struct {
		ChatId string `json:"chatId"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}
	if !h.checkAssigned(sess, req.ChatId) {
		return
	}
	msg := &chatEntity.Message{
		ChatId:    req.ChatId,
		Sender:    chatEntity.SenderAgent,
		Text:      req.Text,
		AgentName: sess.agentName,
		CreatedAt: time.Now(),
	}
	if err := h.msgRepo.Create(msg); err != nil {
		zlog.Error("agent message save failed: " + err.Error())
		_ = sess.client.SendEvent("error", map[string]string{"message": "Message not delivered"})
		return
	}
	_ = h.hub.BroadcastEvent(ws.ChatGroup(req.ChatId), "chat:message", chatRespond.MessageItemFrom(*msg))
}

func (h *WsHandler) onAgentFile(sess *wsSession, data json.RawMessage) {
	var req struct {
		ChatId string `json:"chatId"`
		Url    string `json:"url"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Url == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}
	if !h.checkAssigned(sess, req.ChatId) {
		return
	}
	msg := &chatEntity.Message{
		ChatId:    req.ChatId,
		Sender:    chatEntity.SenderAgent,
		FileUrl:   req.Url,
		FileName:  req.Name,
		AgentName: sess.agentName,
		CreatedAt: time.Now(),
	}
	if err := h.msgRepo.Create(msg); err != nil {
		zlog.Error("file message save failed: " + err.Error())
		_ = sess.client.SendEvent("error", map[string]string{"message": "Message not delivered"})
		return
	}
	_ = h.hub.BroadcastEvent(ws.ChatGroup(req.ChatId), "chat:file", chatRespond.MessageItemFrom(*msg))
}

func (h *WsHandler) onAgentForward(sess *wsSession, data json.RawMessage) {
	if sess.role != "agent" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Register first"})
		return
	}
	var req struct {
		ChatId     string `json:"chatId"`
		Department string `json:"department"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" || req.Department == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}

	conv, err := h.convRepo.GetByID(req.ChatId)
	if err != nil || conv == nil {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Chat not found"})
		return
	}
	oldDept := conv.Department

	ok, err := h.convRepo.Forward(req.ChatId, sess.agentID, req.Department)
	if err != nil {
		zlog.Error("forward failed: " + err.Error())
		_ = sess.client.SendEvent("agent:forward_failed", map[string]string{
			"chatId": req.ChatId,
			"reason": "Server error",
		})
		return
	}
	if !ok {
		_ = sess.client.SendEvent("agent:forward_failed", map[string]string{
			"chatId": req.ChatId,
			"reason": "Not assigned",
		})
		return
	}

	// 转科后坐席退出会话,患者留在组里等新科室接入
	h.hub.Leave(ws.ChatGroup(req.ChatId), sess.client)
	sess.chatID = ""
	h.setAgentStatus(sess.agentID, agentEntity.StatusOnline)

	_ = h.hub.BroadcastEvent(ws.ChatGroup(req.ChatId), "chat:forwarded", map[string]interface{}{
		"chatId":     req.ChatId,
		"department": req.Department,
	})
	h.broadcast.PendingList(req.Department)
	if oldDept != req.Department {
		h.broadcast.PendingList(oldDept)
	}
}

func (h *WsHandler) onChatClose(sess *wsSession, data json.RawMessage) {
	var req struct {
		ChatId string `json:"chatId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Invalid payload"})
		return
	}

	// 关闭前先读一次,拿到受理坐席和科室
	conv, err := h.convRepo.GetByID(req.ChatId)
	if err != nil || conv == nil {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Chat not found"})
		return
	}

	ok, err := h.convRepo.Close(req.ChatId)
	if err != nil {
		zlog.Error("close failed: " + err.Error())
		_ = sess.client.SendEvent("error", map[string]string{"message": "Server error"})
		return
	}
	if !ok {
		// 已经关了,静默
		return
	}

	_ = h.hub.BroadcastEvent(ws.ChatGroup(req.ChatId), "chat:closed", map[string]string{
		"chatId": req.ChatId,
	})

	// 不管会话由谁关闭,受理坐席都要回到 online,否则会一直卡在 busy
	if conv.AssignedAgentId != nil {
		h.setAgentStatus(*conv.AssignedAgentId, agentEntity.StatusOnline)
	}
	// 关闭 pending 会话时也要刷新队列,把条目从坐席端拿掉
	h.broadcast.PendingList(conv.Department)
	if sess.role == "agent" && sess.chatID == req.ChatId {
		h.hub.Leave(ws.ChatGroup(req.ChatId), sess.client)
		sess.chatID = ""
	}
}

func (h *WsHandler) onAdminRegister(sess *wsSession, data json.RawMessage) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Token == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Token required"})
		return
	}
	claims, err := myjwt.ParseToken(req.Token)
	if err != nil || claims == nil || claims.Role != myjwt.RoleAdmin {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Unauthorized"})
		return
	}

	sess.role = "admin"
	h.hub.Join(ws.AdminsGroup, sess.client)
	_ = sess.client.SendEvent("admin:registered", map[string]interface{}{
		"adminId": claims.Id,
	})
	h.broadcast.AgentPresence()
}

// 校验坐席确实持有该会话
func (h *WsHandler) checkAssigned(sess *wsSession, chatID string) bool {
	if sess.role != "agent" || chatID == "" {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Register first"})
		return false
	}
	conv, err := h.convRepo.GetByID(chatID)
	if err != nil || conv == nil {
		_ = sess.client.SendEvent("error", map[string]string{"message": "Chat not found"})
		return false
	}
	if conv.Status != chatEntity.StatusActive || conv.AssignedAgentId == nil || *conv.AssignedAgentId != sess.agentID {
		_ = sess.client.SendEvent("agent:accept_failed", map[string]string{
			"chatId": chatID,
			"reason": "Not assigned",
		})
		return false
	}
	return true
}

func (h *WsHandler) setAgentStatus(agentID int64, status string) {
	if err := h.agentRepo.UpdateStatus(agentID, status); err != nil {
		zlog.Error("agent status update failed: " + err.Error())
	}
	h.broadcast.AgentPresence()
}

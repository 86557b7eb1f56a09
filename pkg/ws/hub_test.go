package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case b := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(b, &ev))
		return ev
	default:
		t.Fatal("no event in send buffer")
		return Event{}
	}
}

func TestJoinLeaveCount(t *testing.T) {
	hub := NewHub()
	a := NewClient(nil)
	b := NewClient(nil)

	group := DeptGroup("Cardiology")
	assert.Equal(t, 0, hub.Count(group))

	hub.Join(group, a)
	hub.Join(group, b)
	assert.Equal(t, 2, hub.Count(group))

	// 重复进组不重复计数
	hub.Join(group, a)
	assert.Equal(t, 2, hub.Count(group))

	hub.Leave(group, a)
	assert.Equal(t, 1, hub.Count(group))
}

func TestBroadcastReachesGroupOnly(t *testing.T) {
	hub := NewHub()
	member := NewClient(nil)
	outsider := NewClient(nil)

	hub.Join(AgentsGroup, member)
	hub.Join(AdminsGroup, outsider)

	require.NoError(t, hub.BroadcastEvent(AgentsGroup, "agent:pending_list", map[string]int{"n": 1}))

	ev := recvEvent(t, member)
	assert.Equal(t, "agent:pending_list", ev.Event)

	select {
	case <-outsider.send:
		t.Fatal("outsider must not receive group broadcast")
	default:
	}
}

func TestRemoveClientLeavesAllGroups(t *testing.T) {
	hub := NewHub()
	c := NewClient(nil)

	hub.Join(AgentsGroup, c)
	hub.Join(DeptGroup("General"), c)
	hub.Join(ChatGroup("abc"), c)

	hub.RemoveClient(c)

	assert.Equal(t, 0, hub.Count(AgentsGroup))
	assert.Equal(t, 0, hub.Count(DeptGroup("General")))
	assert.Equal(t, 0, hub.Count(ChatGroup("abc")))

	assert.True(t, c.Closed())
}

func TestBroadcastDuringRemoveDoesNotPanic(t *testing.T) {
	hub := NewHub()
	c := NewClient(nil)
	hub.Join(AgentsGroup, c)

	// 广播和移除并发交错,已移除的连接只会被跳过
	done := make(chan struct{})
	go func() {
		defer close(done)
		payload := []byte(`{"event":"x"}`)
		for i := 0; i < 1000; i++ {
			hub.Broadcast(AgentsGroup, payload)
		}
	}()
	hub.RemoveClient(c)
	<-done

	assert.Equal(t, 0, hub.Count(AgentsGroup))
	require.NoError(t, c.SendEvent("x", nil))
}

func TestBroadcastDropsStalledClient(t *testing.T) {
	hub := NewHub()
	stalled := NewClient(nil)
	hub.Join(AgentsGroup, stalled)

	// 没人消费 send,填满缓冲后的下一次广播会把连接移除
	payload := []byte(`{"event":"x"}`)
	for i := 0; i < cap(stalled.send); i++ {
		hub.Broadcast(AgentsGroup, payload)
	}
	assert.Equal(t, 1, hub.Count(AgentsGroup))

	hub.Broadcast(AgentsGroup, payload)
	assert.Equal(t, 0, hub.Count(AgentsGroup))
}

func TestSendEventEnvelope(t *testing.T) {
	c := NewClient(nil)
	require.NoError(t, c.SendEvent("chat:closed", map[string]string{"chatId": "abc"}))

	ev := recvEvent(t, c)
	assert.Equal(t, "chat:closed", ev.Event)

	data, ok := ev.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", data["chatId"])
}

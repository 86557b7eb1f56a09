package mq

import (
	"context"
)

// Message 待发布的事件
type Message struct {
	Topic string
	Key   string
	Value []byte
}

type PublishResult struct {
	Partition int32
	Offset    int64
}

// Publisher 机器人事件发布端（未答复提问、转人工），尽力而为：
// 失败只记日志，绝不影响触发它的用户操作
type Publisher interface {
	Publish(ctx context.Context, msg Message) (PublishResult, error)
	Close() error
}

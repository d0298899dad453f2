package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"career-royale/internal/pkg/xerrors"

	"github.com/nats-io/nats.go"
)

var (
	ncMu sync.RWMutex
	nc   *nats.Conn
)

// Default subjects
const (
	SubjectBattleFinished  = "battle.finished"
	SubjectBattleCancelled = "battle.cancelled"
)

// Connect 连接 NATS，url 为空时返回 nil 连接（不启用事件发布）
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(10),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return conn, nil
}

// SetNatsConn 设置全局 NATS 连接（由 main 提供）
func SetNatsConn(conn *nats.Conn) {
	ncMu.Lock()
	defer ncMu.Unlock()
	nc = conn
}

// Connected 是否已设置可用的 NATS 连接
func Connected() bool {
	ncMu.RLock()
	defer ncMu.RUnlock()
	return nc != nil && nc.IsConnected()
}

// PublishEvent 以 JSON 发布领域事件
func PublishEvent(ctx context.Context, subject string, payload interface{}) error {
	ncMu.RLock()
	conn := nc
	ncMu.RUnlock()
	if conn == nil {
		return nil // 没有连接时静默降级
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event failed: %w", subject, err)
	}
	if err := conn.Publish(subject, data); err != nil {
		return xerrors.NewExternalServiceError("nats", err).
			WithMetadata("subject", subject)
	}
	return nil
}

// Drain 排空并关闭全局连接
func Drain() error {
	ncMu.Lock()
	conn := nc
	nc = nil
	ncMu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Drain()
}

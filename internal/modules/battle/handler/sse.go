package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"career-royale/internal/modules/battle/service"
)

// eventWriter 串行写入 SSE 帧，每帧写完立即 flush
type eventWriter struct {
	mu      sync.Mutex
	resp    *echo.Response
	started bool
}

func newEventWriter(resp *echo.Response) *eventWriter {
	return &eventWriter{resp: resp}
}

// begin 写入 SSE 响应头
func (w *eventWriter) begin() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true

	header := w.resp.Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.resp.WriteHeader(http.StatusOK)
	w.resp.Flush()
}

// event 写入一个命名事件，data 为完整的事件 JSON
func (w *eventWriter) event(ev service.BattleEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return w.write(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, data))
}

// ping 注释帧，客户端会忽略
func (w *eventWriter) ping() error {
	return w.write(": ping\n\n")
}

func (w *eventWriter) write(frame string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.resp.Write([]byte(frame)); err != nil {
		return err
	}
	w.resp.Flush()
	return nil
}

// errorEvent 执行失败时发送的终止事件，不暴露内部原因
func errorEvent() service.BattleEvent {
	return service.BattleEvent{
		Type: service.EventError,
		Data: service.EventData{Message: service.StreamErrorMessage},
	}
}

// serveStream 把事件流写到客户端，直到事件流结束或写入失败
// 一个 goroutine 负责转发事件，另一个在等待期间发送保活帧
func serveStream(ctx context.Context, w *eventWriter, stream *service.Stream, heartbeat time.Duration) error {
	w.begin()

	g, gctx := errgroup.WithContext(ctx)
	drained := make(chan struct{})

	g.Go(func() error {
		defer close(drained)
	drain:
		for {
			select {
			case ev, ok := <-stream.Events():
				if !ok {
					break drain
				}
				if err := w.event(ev); err != nil {
					return err
				}
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		// 客户端已断开时不再补发错误帧
		if stream.Err() != nil && ctx.Err() == nil {
			return w.event(errorEvent())
		}
		return nil
	})

	if heartbeat > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-drained:
					return nil
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := w.ping(); err != nil {
						return err
					}
				}
			}
		})
	}

	return g.Wait()
}

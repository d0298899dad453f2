package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"career-royale/internal/modules/battle/service"
	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/response"
)

// BattleHandler 面试战斗 HTTP 接口
type BattleHandler struct {
	battleService *service.BattleService
	respWriter    response.Writer
	heartbeat     time.Duration
	logger        log.Logger
}

// NewBattleHandler 构造函数，heartbeat<=0 时不发送保活帧
func NewBattleHandler(battleService *service.BattleService, respWriter response.Writer, heartbeat time.Duration, logger log.Logger) *BattleHandler {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BattleHandler{
		battleService: battleService,
		respWriter:    respWriter,
		heartbeat:     heartbeat,
		logger:        logger.With("component", "battle_handler"),
	}
}

// StartBattleRequest 创建战斗请求
type StartBattleRequest struct {
	Resume string `json:"resume" validate:"required,notblank"`
	JD     string `json:"jd" validate:"required,notblank"`
	Mode   string `json:"mode" validate:"required,oneof=easy hard"`
}

// StartBattleResponse 创建战斗响应
type StartBattleResponse struct {
	BattleID string       `json:"battleId"`
	Mode     service.Mode `json:"mode"`
	HP       service.HP   `json:"hp"`
}

// StartBattle 创建战斗
// POST /api/battle/start
func (h *BattleHandler) StartBattle(c echo.Context) error {
	var req StartBattleRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	battle, err := h.battleService.StartBattle(c.Request().Context(), req.Resume, req.JD, service.Mode(req.Mode))
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, StartBattleResponse{
		BattleID: battle.ID,
		Mode:     battle.Mode,
		HP:       battle.HP(),
	})
}

// GetBattle 查询战斗状态
// GET /api/battle/:id
func (h *BattleHandler) GetBattle(c echo.Context) error {
	snapshot, err := h.battleService.GetBattle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, snapshot)
}

// StreamBattle 执行战斗并以 SSE 推送事件
// GET /api/battle/:id/stream
func (h *BattleHandler) StreamBattle(c echo.Context) error {
	ctx := c.Request().Context()
	battleID := c.Param("id")

	stream, err := h.battleService.StreamBattle(ctx, battleID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	defer stream.Close()

	w := newEventWriter(c.Response())
	if err := serveStream(ctx, w, stream, h.heartbeat); err != nil {
		// 客户端断开导致写入失败，战斗已随 stream.Close 中止
		h.logger.DebugContext(ctx, "SSE 连接提前结束",
			log.String("battle_id", battleID),
			log.Any("error", err),
		)
	}
	return nil
}

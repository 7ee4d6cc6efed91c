package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/service"
	"sipat/backend/pkg/response"
)

// ValidacionHandler 合规告警模块 HTTP 处理器
type ValidacionHandler struct {
	validacionSvc service.ValidacionService
}

// NewValidacionHandler 创建 ValidacionHandler
func NewValidacionHandler(validacionSvc service.ValidacionService) *ValidacionHandler {
	return &ValidacionHandler{validacionSvc: validacionSvc}
}

// List 告警分页列表
// GET /api/v1/validaciones?conductor_id=xxx&estado=PENDIENTE&severidad=CRITICA
func (h *ValidacionHandler) List(c *gin.Context) {
	var req dto.ValidacionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	list, err := h.validacionSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleValidacionError(c, err)
		return
	}

	response.OKPage(c, list.Items, list.Total, req.GetPage(), req.GetPageSize())
}

// Feed 告警墙（控制台首页）
// GET /api/v1/validaciones/feed
func (h *ValidacionHandler) Feed(c *gin.Context) {
	feed, err := h.validacionSvc.Feed(c.Request.Context())
	if err != nil {
		h.handleValidacionError(c, err)
		return
	}

	response.OK(c, feed)
}

// Verificar 操作员确认告警
// POST /api/v1/validaciones/:id/verificar
func (h *ValidacionHandler) Verificar(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "告警ID不能为空")
		return
	}

	operadorID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	validacion, err := h.validacionSvc.Verificar(c.Request.Context(), id, operadorID)
	if err != nil {
		h.handleValidacionError(c, err)
		return
	}

	response.OK(c, validacion)
}

// Resolver 操作员关闭告警
// POST /api/v1/validaciones/:id/resolver
func (h *ValidacionHandler) Resolver(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "告警ID不能为空")
		return
	}

	operadorID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	validacion, err := h.validacionSvc.Resolver(c.Request.Context(), id, operadorID)
	if err != nil {
		h.handleValidacionError(c, err)
		return
	}

	response.OK(c, validacion)
}

func (h *ValidacionHandler) handleValidacionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidacionNotFound):
		response.NotFound(c, 13101, "告警不存在")
	case errors.Is(err, service.ErrValidacionYaResuelta):
		response.Conflict(c, 13102, "告警已处理，不可重复操作")
	case errors.Is(err, service.ErrValidacionNoPendiente):
		response.Conflict(c, 13103, "告警非待处理状态")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/validacion_handler.go

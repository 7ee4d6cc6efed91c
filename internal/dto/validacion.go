package dto

// ── 合规告警模块 DTO ──

// ValidacionListRequest 告警列表查询参数
type ValidacionListRequest struct {
	ConductorID string `form:"conductor_id" binding:"omitempty,uuid"`
	Estado      string `form:"estado"       binding:"omitempty,oneof=PENDIENTE VERIFICADO RESUELTO"`
	Severidad   string `form:"severidad"    binding:"omitempty,oneof=INFO ADVERTENCIA CRITICA"`
	PaginationRequest
}

// ResolverValidacionRequest 标记告警已处理请求
type ResolverValidacionRequest struct {
	Notas string `json:"notas" binding:"omitempty,max=500"`
}

// ── 响应 ──

// ValidacionResponse 告警响应
type ValidacionResponse struct {
	ID              string          `json:"id"`
	Tipo            string          `json:"tipo"`
	Severidad       string          `json:"severidad"`
	Conductor       *ConductorBrief `json:"conductor,omitempty"`
	Mensaje         string          `json:"mensaje"`
	Estado          string          `json:"estado"`
	FechaResolucion *string         `json:"fecha_resolucion,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

// ValidacionListResponse 告警分页列表响应
type ValidacionListResponse struct {
	Total int64                `json:"total"`
	Items []ValidacionResponse `json:"items"`
}

// ValidacionFeedResponse 告警墙响应（首页高频读，按严重度分组计数）
type ValidacionFeedResponse struct {
	Criticas     int                  `json:"criticas"`
	Advertencias int                  `json:"advertencias"`
	Infos        int                  `json:"infos"`
	Items        []ValidacionResponse `json:"items"`
}

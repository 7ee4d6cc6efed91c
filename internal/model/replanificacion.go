package model

import "time"

// MotivoReplanificacion 改派原因码
type MotivoReplanificacion string

const (
	MotivoEnfermedad     MotivoReplanificacion = "ENFERMEDAD"
	MotivoDescansoMedico MotivoReplanificacion = "DESCANSO_MEDICO"
	MotivoSuspension     MotivoReplanificacion = "SUSPENSION"
	MotivoVacaciones     MotivoReplanificacion = "VACACIONES"
	MotivoOptimizacion   MotivoReplanificacion = "OPTIMIZACION"
	MotivoOtro           MotivoReplanificacion = "OTRO"
)

// Valida 检查原因码取值是否合法
func (m MotivoReplanificacion) Valida() bool {
	switch m {
	case MotivoEnfermedad, MotivoDescansoMedico, MotivoSuspension,
		MotivoVacaciones, MotivoOptimizacion, MotivoOtro:
		return true
	}
	return false
}

// EsMedico 医疗类原因触发 REPLANIFICACION_MEDICA 告警
func (m MotivoReplanificacion) EsMedico() bool {
	return m == MotivoEnfermedad || m == MotivoDescansoMedico
}

// EsForzoso 强制改派：候选校验时跳过累计天数规则（日程冲突规则始终生效）
func (m MotivoReplanificacion) EsForzoso() bool {
	switch m {
	case MotivoEnfermedad, MotivoDescansoMedico, MotivoSuspension, MotivoVacaciones:
		return true
	}
	return false
}

// EstadoLiberado 原因码对被释放司机的状态副作用；nil = 状态不变
func (m MotivoReplanificacion) EstadoLiberado() *EstadoConductor {
	var e EstadoConductor
	switch m {
	case MotivoEnfermedad, MotivoDescansoMedico:
		e = EstadoDescansoMedico
	case MotivoSuspension:
		e = EstadoSuspendido
	case MotivoVacaciones:
		e = EstadoVacaciones
	default:
		return nil
	}
	return &e
}

// ResultadoReplanificacion 改派结果
type ResultadoReplanificacion string

const (
	ReplanExito ResultadoReplanificacion = "EXITO"
	ReplanError ResultadoReplanificacion = "ERROR"
)

// Replanificacion 改派审计表 — 对应 replanificaciones
// 每次改派尝试写入一条，创建后不可变（append-only）。
type Replanificacion struct {
	ReplanificacionID   string                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"replanificacion_id"`
	TurnoID             string                   `gorm:"type:uuid;not null"                             json:"turno_id"`
	ConductorAnteriorID *string                  `gorm:"type:uuid"                                      json:"conductor_anterior_id,omitempty"`
	ConductorNuevoID    *string                  `gorm:"type:uuid"                                      json:"conductor_nuevo_id,omitempty"` // null = 取消班次
	Motivo              MotivoReplanificacion    `gorm:"type:varchar(20);not null"                      json:"motivo"`
	OperadorID          string                   `gorm:"type:uuid;not null"                             json:"operador_id"`
	Notas               string                   `gorm:"type:varchar(500)"                              json:"notas,omitempty"`
	Resultado           ResultadoReplanificacion `gorm:"type:varchar(10);not null"                      json:"resultado"`
	MensajeError        string                   `gorm:"type:varchar(500)"                              json:"mensaje_error,omitempty"`
	CreatedAt           time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Turno *Turno `gorm:"foreignKey:TurnoID;references:TurnoID" json:"turno,omitempty"`
}

// TableName 指定表名
func (Replanificacion) TableName() string { return "replanificaciones" }

// [自证通过] internal/model/replanificacion.go

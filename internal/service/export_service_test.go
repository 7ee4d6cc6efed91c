package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"sipat/backend/internal/model"
)

func setupTestExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	svc := NewExportService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// ExportBalanceSemanal 测试
// ════════════════════════════════════════════════════════════

func TestExportService_BalanceSemanal(t *testing.T) {
	svc, repos := setupTestExportService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 1)

	if err := repos.balance.Upsert(context.Background(), &model.BalanceSemanal{
		ConductorID:      "cond-1",
		Semana:           28,
		Anio:             2025,
		Programadas:      2,
		Completadas:      1,
		IngresoTotal:     360,
		ObjetivoCumplido: true,
	}); err != nil {
		t.Fatalf("seed 平衡失败: %v", err)
	}

	buf, filename, err := svc.ExportBalanceSemanal(context.Background(), 28, 2025)
	if err != nil {
		t.Fatalf("ExportBalanceSemanal 应成功: %v", err)
	}
	if filename != "balance_semana_28_2025.xlsx" {
		t.Errorf("期望文件名 balance_semana_28_2025.xlsx，实际=%s", filename)
	}
	// xlsx 为 zip 容器，校验魔数与非空即可
	contenido := buf.Bytes()
	if len(contenido) < 4 || contenido[0] != 'P' || contenido[1] != 'K' {
		t.Error("导出内容应为合法 xlsx (zip) 文件")
	}
}

func TestExportService_BalanceSemanal_SinDatos(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportBalanceSemanal(context.Background(), 1, 2025)
	if !errors.Is(err, ErrExportSinBalances) {
		t.Errorf("期望 ErrExportSinBalances，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// ExportCalendarioConductor 测试
// ════════════════════════════════════════════════════════════

func TestExportService_CalendarioConductor(t *testing.T) {
	svc, repos := setupTestExportService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 1)

	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	seedTurno(repos, "t-1", "cond-1", fecha, model.TurnoProgramado)
	// 已取消的班次不出现在日历中
	seedTurno(repos, "t-2", "cond-1", fecha.AddDate(0, 0, 1), model.TurnoCancelado)

	buf, filename, err := svc.ExportCalendarioConductor(context.Background(), "cond-1", "2025-07-07", "2025-07-13")
	if err != nil {
		t.Fatalf("ExportCalendarioConductor 应成功: %v", err)
	}
	if filename != "turnos_C001.ics" {
		t.Errorf("期望文件名 turnos_C001.ics，实际=%s", filename)
	}

	ics := buf.String()
	if !strings.Contains(ics, "BEGIN:VCALENDAR") || !strings.Contains(ics, "END:VCALENDAR") {
		t.Error("导出应为合法 iCalendar 文档")
	}
	if !strings.Contains(ics, "LIMA-CALLAO") {
		t.Error("日历应包含班次路线摘要")
	}
	if n := strings.Count(ics, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("已取消班次应被排除，期望1个事件，实际=%d", n)
	}
}

func TestExportService_CalendarioConductor_Errores(t *testing.T) {
	svc, repos := setupTestExportService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 1)

	if _, _, err := svc.ExportCalendarioConductor(context.Background(), "cond-1", "10/07/2025", "2025-07-13"); !errors.Is(err, ErrFechaInvalida) {
		t.Errorf("期望 ErrFechaInvalida，实际: %v", err)
	}
	if _, _, err := svc.ExportCalendarioConductor(context.Background(), "cond-x", "2025-07-07", "2025-07-13"); !errors.Is(err, ErrConductorNotFound) {
		t.Errorf("期望 ErrConductorNotFound，实际: %v", err)
	}
	if _, _, err := svc.ExportCalendarioConductor(context.Background(), "cond-1", "2025-07-07", "2025-07-13"); !errors.Is(err, ErrExportSinTurnos) {
		t.Errorf("期望 ErrExportSinTurnos，实际: %v", err)
	}
}

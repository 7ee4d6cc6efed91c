package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestRutaCortaService() (RutaCortaService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()
	validacion := NewValidacionService(testReglas(), repoAgg, nil, logger)
	svc := NewRutaCortaService(testReglas(), repoAgg, validacion, logger)
	return svc, repos
}

func seedRutaCorta(repos *testRepos, id, conductorID string, fecha time.Time, estado model.EstadoRutaCorta) *model.RutaCorta {
	anio, semana := fecha.ISOWeek()
	rc := &model.RutaCorta{
		RutaCortaID:     id,
		ConductorID:     conductorID,
		Tramo:           "LIMA-CHOSICA",
		Fecha:           fecha,
		Semana:          semana,
		Anio:            anio,
		IngresoEstimado: 120,
		Estado:          estado,
	}
	repos.rutaCorta.rutas[id] = rc
	return rc
}

// ════════════════════════════════════════════════════════════
// PuedeAsignar 测试（资格门）
// ════════════════════════════════════════════════════════════

func TestRutaCortaService_PuedeAsignar_Disponible(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)

	resp, err := svc.PuedeAsignar(context.Background(), "cond-1", "2025-07-10")
	if err != nil {
		t.Fatalf("PuedeAsignar 应成功: %v", err)
	}
	if !resp.Puede {
		t.Errorf("期望 puede=true，拒绝原因=%v", resp.Razones)
	}
	if resp.EsConsecutiva {
		t.Error("无前日短途时 es_consecutiva 应为 false")
	}
}

func TestRutaCortaService_PuedeAsignar_NoDisponible(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDescansoMedico, 0)

	resp, err := svc.PuedeAsignar(context.Background(), "cond-1", "2025-07-10")
	if err != nil {
		t.Fatalf("PuedeAsignar 应成功: %v", err)
	}
	if resp.Puede {
		t.Error("非 DISPONIBLE 司机不应通过资格门")
	}
	if len(resp.Razones) != 1 || resp.Razones[0] != RazonConductorNoDisponible {
		t.Errorf("期望原因 CONDUCTOR_NO_DISPONIBLE，实际=%v", resp.Razones)
	}
}

func TestRutaCortaService_PuedeAsignar_DescansoObligatorio(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 6)

	resp, _ := svc.PuedeAsignar(context.Background(), "cond-1", "2025-07-10")
	if resp.Puede {
		t.Error("累计值勤达上限不应通过资格门")
	}
	if len(resp.Razones) != 1 || resp.Razones[0] != RazonDescansoObligatorio {
		t.Errorf("期望原因 DESCANSO_OBLIGATORIO，实际=%v", resp.Razones)
	}
}

func TestRutaCortaService_PuedeAsignar_ConflictoHorario(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	// 当日已有班次
	seedTurno(repos, "t-1", "cond-1", fecha, model.TurnoProgramado)
	resp, _ := svc.PuedeAsignar(context.Background(), "cond-1", "2025-07-10")
	if resp.Puede || len(resp.Razones) != 1 || resp.Razones[0] != RazonConflictoHorario {
		t.Errorf("当日有班次应拒绝 CONFLICTO_HORARIO，实际=%v", resp.Razones)
	}

	// 取消的班次不算冲突
	repos.turno.turnos["t-1"].Estado = model.TurnoCancelado
	resp, _ = svc.PuedeAsignar(context.Background(), "cond-1", "2025-07-10")
	if !resp.Puede {
		t.Errorf("已取消班次不应算冲突，拒绝原因=%v", resp.Razones)
	}
}

// 场景：前日有短途 → 允许但标记连续，并产生提示性告警
func TestRutaCortaService_Asignar_Consecutiva(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)
	seedRutaCorta(repos, "rc-prev", "cond-1", time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC), model.RutaCortaCompletada)

	resp, err := svc.PuedeAsignar(context.Background(), "cond-1", "2025-07-10")
	if err != nil {
		t.Fatalf("PuedeAsignar 应成功: %v", err)
	}
	if !resp.Puede {
		t.Fatalf("连续短途仅为提示，不应阻断，拒绝原因=%v", resp.Razones)
	}
	if !resp.EsConsecutiva {
		t.Error("前日有短途时 es_consecutiva 应为 true")
	}

	rc, err := svc.Asignar(context.Background(), &dto.AsignarRutaCortaRequest{
		ConductorID:     "cond-1",
		Tramo:           "LIMA-CHOSICA",
		Fecha:           "2025-07-10",
		IngresoEstimado: 150,
	}, "op-1")
	if err != nil {
		t.Fatalf("Asignar 应成功: %v", err)
	}
	if !rc.EsConsecutiva {
		t.Error("指派结果应标记 es_consecutiva=true")
	}
	if n := repos.validacion.contarPorTipo("cond-1", model.ValidacionRutasCortasConsec, model.ValidacionPendiente); n != 1 {
		t.Errorf("期望1条 RUTAS_CORTAS_CONSECUTIVAS，实际=%d", n)
	}
}

// ════════════════════════════════════════════════════════════
// Asignar 测试
// ════════════════════════════════════════════════════════════

func TestRutaCortaService_Asignar_RechazadaPorRegla(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 6)

	_, err := svc.Asignar(context.Background(), &dto.AsignarRutaCortaRequest{
		ConductorID: "cond-1",
		Tramo:       "LIMA-CHOSICA",
		Fecha:       "2025-07-10",
	}, "op-1")

	var rv *ReglaViolada
	if !errors.As(err, &rv) {
		t.Fatalf("期望 ReglaViolada，实际: %v", err)
	}
	if len(rv.Razones) != 1 || rv.Razones[0] != RazonDescansoObligatorio {
		t.Errorf("期望原因 DESCANSO_OBLIGATORIO，实际=%v", rv.Razones)
	}
	if len(repos.rutaCorta.rutas) != 0 {
		t.Error("被拒绝的指派不应写入任何记录")
	}
}

func TestRutaCortaService_Asignar_SemanaISOYUltimaRutaCorta(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 0)

	// 2026-01-01 落在 2025 年第53 ISO 周
	rc, err := svc.Asignar(context.Background(), &dto.AsignarRutaCortaRequest{
		ConductorID: "cond-1",
		Tramo:       "LIMA-CHOSICA",
		Fecha:       "2026-01-01",
	}, "op-1")
	if err != nil {
		t.Fatalf("Asignar 应成功: %v", err)
	}
	if rc.Anio != 2026 || rc.Semana != 1 {
		// time.ISOWeek: 2026-01-01 是周四，属 2026 第1周
		t.Errorf("期望 ISO 周 (1, 2026)，实际=(%d, %d)", rc.Semana, rc.Anio)
	}

	c, _ := repos.conductor.GetByID(context.Background(), "cond-1")
	if c.UltimaRutaCorta == nil || c.UltimaRutaCorta.Format(fechaLayout) != "2026-01-01" {
		t.Error("指派后应更新司机 ultima_ruta_corta")
	}
}

// ════════════════════════════════════════════════════════════
// 周平衡测试（不变量：objetivo_cumplido ⇔ 总数 ∈ [3,4]）
// ════════════════════════════════════════════════════════════

func TestRutaCortaService_Balance_ObjetivoCumplido(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 0)

	// 同一 ISO 周内逐日指派，检查每步的目标达成判定
	fechas := []string{"2025-07-07", "2025-07-08", "2025-07-09", "2025-07-10", "2025-07-11"}
	esperado := []bool{false, false, true, true, false} // 1,2,3,4,5 条

	for i, fecha := range fechas {
		if _, err := svc.Asignar(context.Background(), &dto.AsignarRutaCortaRequest{
			ConductorID:     "cond-1",
			Tramo:           "LIMA-CHOSICA",
			Fecha:           fecha,
			IngresoEstimado: 100,
		}, "op-1"); err != nil {
			t.Fatalf("第%d次 Asignar 应成功: %v", i+1, err)
		}

		balance, err := svc.GetBalance(context.Background(), "cond-1", 28, 2025)
		if err != nil {
			t.Fatalf("GetBalance 应成功: %v", err)
		}
		if balance.ObjetivoCumplido != esperado[i] {
			t.Errorf("第%d条后期望 objetivo_cumplido=%v，实际=%v", i+1, esperado[i], balance.ObjetivoCumplido)
		}
	}
}

func TestRutaCortaService_CambiarEstado_RecalculaBalance(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 0)

	for _, fecha := range []string{"2025-07-07", "2025-07-08", "2025-07-09"} {
		if _, err := svc.Asignar(context.Background(), &dto.AsignarRutaCortaRequest{
			ConductorID:     "cond-1",
			Tramo:           "LIMA-CHOSICA",
			Fecha:           fecha,
			IngresoEstimado: 100,
		}, "op-1"); err != nil {
			t.Fatalf("Asignar 应成功: %v", err)
		}
	}

	balance, _ := svc.GetBalance(context.Background(), "cond-1", 28, 2025)
	if !balance.ObjetivoCumplido || balance.Programadas != 3 {
		t.Fatalf("期望3条计划且目标达成，实际=%+v", balance)
	}

	// 取消一条：总数降到2，目标失守，收入同步扣减
	var id string
	for rcID := range repos.rutaCorta.rutas {
		id = rcID
		break
	}
	if _, err := svc.CambiarEstado(context.Background(), id, model.RutaCortaCancelada, "op-1"); err != nil {
		t.Fatalf("CambiarEstado 应成功: %v", err)
	}

	balance, _ = svc.GetBalance(context.Background(), "cond-1", 28, 2025)
	if balance.ObjetivoCumplido {
		t.Error("取消后总数=2，objetivo_cumplido 应为 false")
	}
	if balance.Programadas != 2 || balance.IngresoTotal != 200 {
		t.Errorf("期望 programadas=2 ingreso=200，实际=%d/%.0f", balance.Programadas, balance.IngresoTotal)
	}
}

func TestRutaCortaService_CambiarEstado_Transiciones(t *testing.T) {
	svc, repos := setupTestRutaCortaService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 0)
	seedRutaCorta(repos, "rc-1", "cond-1", time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), model.RutaCortaProgramada)

	// PROGRAMADA → COMPLETADA 不允许（须先 EN_CURSO）
	if _, err := svc.CambiarEstado(context.Background(), "rc-1", model.RutaCortaCompletada, "op-1"); !errors.Is(err, ErrTransicionRutaCorta) {
		t.Errorf("期望 ErrTransicionRutaCorta，实际: %v", err)
	}

	if _, err := svc.CambiarEstado(context.Background(), "rc-1", model.RutaCortaEnCurso, "op-1"); err != nil {
		t.Fatalf("PROGRAMADA→EN_CURSO 应成功: %v", err)
	}
	resp, err := svc.CambiarEstado(context.Background(), "rc-1", model.RutaCortaCompletada, "op-1")
	if err != nil {
		t.Fatalf("EN_CURSO→COMPLETADA 应成功: %v", err)
	}
	if resp.Estado != string(model.RutaCortaCompletada) {
		t.Errorf("期望 COMPLETADA，实际=%s", resp.Estado)
	}

	// 终态不可再变更
	if _, err := svc.CambiarEstado(context.Background(), "rc-1", model.RutaCortaCancelada, "op-1"); !errors.Is(err, ErrRutaCortaTerminal) {
		t.Errorf("期望 ErrRutaCortaTerminal，实际: %v", err)
	}
}

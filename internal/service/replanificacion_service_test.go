package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestReplanService() (ReplanificacionService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()
	validacion := NewValidacionService(testReglas(), repoAgg, nil, logger)
	svc := NewReplanificacionService(testReglas(), repoAgg, validacion, logger)
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// BuscarCandidatos / Puntuar 测试
// ════════════════════════════════════════════════════════════

// 场景：三位候选人按加权公式排序，效率95者居首
func TestReplanService_BuscarCandidatos_Orden(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	actual := seedConductor(repos, "cond-0", "C000", model.EstadoDisponible, 1)
	seedTurno(repos, "t-1", actual.ConductorID, fecha, model.TurnoProgramado)

	a := seedConductor(repos, "cond-a", "C00A", model.EstadoDisponible, 1)
	a.Eficiencia, a.Puntualidad = 95, 90
	a.ServiciosAutorizados = model.StringArray{"URBANO"}
	b := seedConductor(repos, "cond-b", "C00B", model.EstadoDisponible, 1)
	b.Eficiencia, b.Puntualidad = 80, 95
	b.ServiciosAutorizados = model.StringArray{"URBANO"}
	c := seedConductor(repos, "cond-c", "C00C", model.EstadoDisponible, 1)
	c.Eficiencia, c.Puntualidad = 90, 85
	c.ServiciosAutorizados = model.StringArray{"URBANO"}

	candidatos, err := svc.BuscarCandidatos(context.Background(), "t-1", 0)
	if err != nil {
		t.Fatalf("BuscarCandidatos 应成功: %v", err)
	}
	if len(candidatos) != 3 {
		t.Fatalf("期望3位候选人，实际=%d", len(candidatos))
	}
	if candidatos[0].Conductor.ID != "cond-a" {
		t.Errorf("效率95者应居首，实际首位=%s", candidatos[0].Conductor.ID)
	}
	// 0.40·0.95 + 0.30·0.90 + 0.20 + 0.10 = 0.95 → 95
	if math.Abs(candidatos[0].Puntaje-95) > 1e-9 {
		t.Errorf("期望首位评分95，实际=%.2f", candidatos[0].Puntaje)
	}
}

func TestReplanService_BuscarCandidatos_ExcluyeConflictos(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	actual := seedConductor(repos, "cond-0", "C000", model.EstadoDisponible, 1)
	seedTurno(repos, "t-1", actual.ConductorID, fecha, model.TurnoProgramado)

	// 当前承运人、同日有班次者、同日有短途者、非可用者都被排除
	ocupado := seedConductor(repos, "cond-b", "C00B", model.EstadoDisponible, 1)
	seedTurno(repos, "t-2", ocupado.ConductorID, fecha, model.TurnoProgramado)
	conRuta := seedConductor(repos, "cond-c", "C00C", model.EstadoDisponible, 1)
	seedRutaCorta(repos, "rc-1", conRuta.ConductorID, fecha, model.RutaCortaProgramada)
	seedConductor(repos, "cond-d", "C00D", model.EstadoVacaciones, 0)
	libre := seedConductor(repos, "cond-e", "C00E", model.EstadoDisponible, 1)

	candidatos, err := svc.BuscarCandidatos(context.Background(), "t-1", 0)
	if err != nil {
		t.Fatalf("BuscarCandidatos 应成功: %v", err)
	}
	if len(candidatos) != 1 || candidatos[0].Conductor.ID != libre.ConductorID {
		t.Errorf("期望仅 cond-e 入围，实际=%v", candidatos)
	}
}

func TestReplanService_Puntuar_SinAutorizacion(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	seedTurno(repos, "t-1", "", fecha, model.TurnoProgramado)
	repos.turno.turnos["t-1"].TipoRuta = "INTERPROVINCIAL"

	c := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 6)
	c.Eficiencia, c.Puntualidad = 100, 100
	c.ServiciosAutorizados = model.StringArray{"URBANO"}

	// 0.40 + 0.30 + 0（天数≥5）+ 0（类型不符）= 0.70 → 70
	p, err := svc.Puntuar(context.Background(), "cond-1", "t-1")
	if err != nil {
		t.Fatalf("Puntuar 应成功: %v", err)
	}
	if math.Abs(p-70) > 1e-9 {
		t.Errorf("期望评分70，实际=%.2f", p)
	}
}

// ════════════════════════════════════════════════════════════
// Reasignar 测试
// ════════════════════════════════════════════════════════════

func TestReplanService_Reasignar_Enfermedad(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	enfermo := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 4)
	nuevo := seedConductor(repos, "cond-2", "C002", model.EstadoDisponible, 5)
	seedTurno(repos, "t-1", enfermo.ConductorID, fecha, model.TurnoProgramado)

	resp, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID:          "t-1",
		ConductorNuevoID: nuevo.ConductorID,
		Motivo:           "ENFERMEDAD",
	}, "op-1")
	if err != nil {
		t.Fatalf("Reasignar 应成功: %v", err)
	}
	if resp.Resultado != string(model.ReplanExito) {
		t.Errorf("期望 EXITO，实际=%s", resp.Resultado)
	}

	// 班次换人
	turno := repos.turno.turnos["t-1"]
	if turno.ConductorID == nil || *turno.ConductorID != "cond-2" {
		t.Error("班次应换为 cond-2")
	}

	// 被释放司机：医疗原因 → DESCANSO_MEDICO 且天数归零
	liberado, _ := repos.conductor.GetByID(context.Background(), "cond-1")
	if liberado.Estado != model.EstadoDescansoMedico {
		t.Errorf("期望 DESCANSO_MEDICO，实际=%s", liberado.Estado)
	}
	if liberado.DiasAcumulados != 0 {
		t.Errorf("迁入休息状态天数应归零，实际=%d", liberado.DiasAcumulados)
	}

	// 告警：医疗改派 INFO + 接手者天数≥5 的 ADVERTENCIA
	if n := repos.validacion.contarPorTipo("cond-1", model.ValidacionReplanificacionMedica, model.ValidacionPendiente); n != 1 {
		t.Errorf("期望1条 REPLANIFICACION_MEDICA，实际=%d", n)
	}
	if n := repos.validacion.contarPorTipo("cond-2", model.ValidacionPostReplanificacion, model.ValidacionPendiente); n != 1 {
		t.Errorf("期望1条 POST_REPLANIFICACION，实际=%d", n)
	}
}

// 场景：候选人同日有班次冲突 → 拒绝、无变更、仍写失败审计
func TestReplanService_Reasignar_CandidatoConConflicto(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	actual := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)
	ocupado := seedConductor(repos, "cond-2", "C002", model.EstadoDisponible, 2)
	seedTurno(repos, "t-1", actual.ConductorID, fecha, model.TurnoProgramado)
	seedTurno(repos, "t-2", ocupado.ConductorID, fecha, model.TurnoProgramado)

	_, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID:          "t-1",
		ConductorNuevoID: "cond-2",
		Motivo:           "ENFERMEDAD",
	}, "op-1")
	if !errors.Is(err, ErrCandidatoNoDisponible) {
		t.Fatalf("期望 ErrCandidatoNoDisponible，实际: %v", err)
	}

	// 无业务变更
	if *repos.turno.turnos["t-1"].ConductorID != "cond-1" {
		t.Error("失败的改派不应改变班次")
	}
	c, _ := repos.conductor.GetByID(context.Background(), "cond-1")
	if c.Estado != model.EstadoDisponible {
		t.Error("失败的改派不应改变司机状态")
	}

	// 失败审计独立提交
	registros, _ := repos.replan.ListByTurno(context.Background(), "t-1")
	if len(registros) != 1 {
		t.Fatalf("期望1条失败审计，实际=%d", len(registros))
	}
	if registros[0].Resultado != model.ReplanError || registros[0].MensajeError == "" {
		t.Errorf("审计应为 ERROR 并带原因，实际=%+v", registros[0])
	}
}

func TestReplanService_Reasignar_TurnoInexistente(t *testing.T) {
	svc, repos := setupTestReplanService()
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)

	_, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID:          "t-missing",
		ConductorNuevoID: "cond-1",
		Motivo:           "ENFERMEDAD",
	}, "op-1")
	if !errors.Is(err, ErrTurnoNotFound) {
		t.Fatalf("期望 ErrTurnoNotFound，实际: %v", err)
	}

	// 对不存在班次的尝试同样留痕
	registros, _ := repos.replan.ListByTurno(context.Background(), "t-missing")
	if len(registros) != 1 {
		t.Fatalf("期望1条失败审计，实际=%d", len(registros))
	}
	if registros[0].Resultado != model.ReplanError || registros[0].MensajeError == "" {
		t.Errorf("审计应为 ERROR 并带原因，实际=%+v", registros[0])
	}
}

func TestReplanService_Reasignar_ForzosoSaltaDescanso(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	actual := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)
	cansado := seedConductor(repos, "cond-2", "C002", model.EstadoDisponible, 6)
	seedTurno(repos, "t-1", actual.ConductorID, fecha, model.TurnoProgramado)

	// 优化改派不可用累计天数达上限的司机
	_, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID:          "t-1",
		ConductorNuevoID: cansado.ConductorID,
		Motivo:           "OPTIMIZACION",
	}, "op-1")
	if !errors.Is(err, ErrCandidatoNoDisponible) {
		t.Fatalf("非强制原因应拒绝天数越界候选人，实际: %v", err)
	}

	// 病假改派为强制：跳过天数规则（冲突规则仍生效）
	resp, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID:          "t-1",
		ConductorNuevoID: cansado.ConductorID,
		Motivo:           "ENFERMEDAD",
	}, "op-1")
	if err != nil {
		t.Fatalf("强制改派应成功: %v", err)
	}
	if resp.Resultado != string(model.ReplanExito) {
		t.Errorf("期望 EXITO，实际=%s", resp.Resultado)
	}
}

func TestReplanService_Reasignar_CancelarTurno(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	actual := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)
	seedTurno(repos, "t-1", actual.ConductorID, fecha, model.TurnoProgramado)

	resp, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID: "t-1",
		Motivo:  "VACACIONES",
	}, "op-1")
	if err != nil {
		t.Fatalf("取消班次应成功: %v", err)
	}
	if resp.ConductorNuevo != nil {
		t.Error("取消不应有新司机")
	}

	turno := repos.turno.turnos["t-1"]
	if turno.Estado != model.TurnoCancelado || turno.ConductorID != nil {
		t.Errorf("期望 CANCELADO 且无司机，实际=%s/%v", turno.Estado, turno.ConductorID)
	}
	liberado, _ := repos.conductor.GetByID(context.Background(), "cond-1")
	if liberado.Estado != model.EstadoVacaciones {
		t.Errorf("VACACIONES 原因应释放司机到 VACACIONES，实际=%s", liberado.Estado)
	}
}

func TestReplanService_Reasignar_TurnoTerminal(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)
	seedTurno(repos, "t-1", "cond-1", fecha, model.TurnoCompletado)

	_, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID: "t-1",
		Motivo:  "OTRO",
	}, "op-1")
	if !errors.Is(err, ErrTurnoTerminal) {
		t.Errorf("期望 ErrTurnoTerminal，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// AutoReplanificar 测试
// ════════════════════════════════════════════════════════════

func seedPlantilla(repos *testRepos, id string, fechaServicio time.Time, horaInicio string) *model.Plantilla {
	p := &model.Plantilla{
		PlantillaID:   id,
		Nombre:        "Servicio " + id,
		FechaServicio: fechaServicio,
		HoraInicio:    horaInicio,
	}
	repos.plantilla.plantillas[id] = p
	return p
}

// 场景：服务日已开始且无强制标志 → 拒绝且无任何变更
func TestReplanService_AutoReplanificar_PlantillaEnCurso(t *testing.T) {
	svc, repos := setupTestReplanService()
	hoy := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	svc.(*replanificacionService).now = func() time.Time { return hoy }

	seedPlantilla(repos, "plan-1", time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), "06:30")
	actual := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 1)
	turno := seedTurno(repos, "t-1", actual.ConductorID, hoy, model.TurnoProgramado)
	plantillaID := "plan-1"
	turno.PlantillaID = &plantillaID

	_, err := svc.AutoReplanificar(context.Background(), &dto.AutoReplanificarRequest{PlantillaID: "plan-1"}, "op-1")
	if !errors.Is(err, ErrPlantillaEnCurso) {
		t.Fatalf("期望 ErrPlantillaEnCurso，实际: %v", err)
	}
	if *repos.turno.turnos["t-1"].ConductorID != "cond-1" {
		t.Error("被拒绝的自动改派不应产生变更")
	}

	// 强制标志绕过守卫
	if _, err := svc.AutoReplanificar(context.Background(), &dto.AutoReplanificarRequest{PlantillaID: "plan-1", Forzar: true}, "op-1"); err != nil {
		t.Errorf("Forzar=true 应放行，实际: %v", err)
	}
}

func TestReplanService_AutoReplanificar_MejoraEficiencia(t *testing.T) {
	svc, repos := setupTestReplanService()
	manana := time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC)
	svc.(*replanificacionService).now = func() time.Time {
		return time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	}

	seedPlantilla(repos, "plan-1", manana, "06:30")
	plantillaID := "plan-1"

	// 班次1：当前效率80，存在效率95的空闲候选 → 应换人
	bajo := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 1)
	bajo.Eficiencia = 80
	t1 := seedTurno(repos, "t-1", bajo.ConductorID, manana, model.TurnoProgramado)
	t1.PlantillaID = &plantillaID

	// 班次2（同日）：当前已是最高效率 → 不动，且其承运人对班次1构成冲突不入围
	alto := seedConductor(repos, "cond-2", "C002", model.EstadoDisponible, 1)
	alto.Eficiencia = 99
	t2 := seedTurno(repos, "t-2", alto.ConductorID, manana, model.TurnoProgramado)
	t2.PlantillaID = &plantillaID

	mejor := seedConductor(repos, "cond-3", "C003", model.EstadoDisponible, 1)
	mejor.Eficiencia = 95

	resp, err := svc.AutoReplanificar(context.Background(), &dto.AutoReplanificarRequest{PlantillaID: "plan-1"}, "op-1")
	if err != nil {
		t.Fatalf("AutoReplanificar 应成功: %v", err)
	}
	if resp.Evaluados != 2 {
		t.Errorf("期望评估2个班次，实际=%d", resp.Evaluados)
	}
	if len(resp.Cambios) != 1 {
		t.Fatalf("期望1次换人，实际=%d", len(resp.Cambios))
	}
	if *repos.turno.turnos["t-1"].ConductorID != "cond-3" {
		t.Error("t-1 应换为效率更高的 cond-3")
	}
	if *repos.turno.turnos["t-2"].ConductorID != "cond-2" {
		t.Error("t-2 当前已最优，不应换人")
	}
	// 提升 = (95-80)/2 个班次 = 7.5
	if resp.MejoraPct != 7.5 {
		t.Errorf("期望 mejora_pct=7.5，实际=%.2f", resp.MejoraPct)
	}
}

func TestReplanService_AutoReplanificar_MaxCambios(t *testing.T) {
	svc, repos := setupTestReplanService()
	manana := time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC)
	svc.(*replanificacionService).now = func() time.Time {
		return time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	}

	seedPlantilla(repos, "plan-1", manana, "06:30")
	plantillaID := "plan-1"

	// 两个低效班次 + 两个高效空闲候选，但预算只允许1次
	for i, id := range []string{"t-1", "t-2"} {
		c := seedConductor(repos, "cond-bajo-"+id, "CB"+id, model.EstadoDisponible, 1)
		c.Eficiencia = 70
		turno := seedTurno(repos, id, c.ConductorID, manana.AddDate(0, 0, i), model.TurnoProgramado)
		turno.PlantillaID = &plantillaID
	}
	for _, id := range []string{"cond-m1", "cond-m2"} {
		c := seedConductor(repos, id, "CM"+id, model.EstadoDisponible, 1)
		c.Eficiencia = 95
	}

	resp, err := svc.AutoReplanificar(context.Background(), &dto.AutoReplanificarRequest{PlantillaID: "plan-1", MaxCambios: 1}, "op-1")
	if err != nil {
		t.Fatalf("AutoReplanificar 应成功: %v", err)
	}
	if len(resp.Cambios) != 1 {
		t.Errorf("期望预算限制后仅1次换人，实际=%d", len(resp.Cambios))
	}
	if len(resp.Advertencias) == 0 {
		t.Error("达到预算上限应有部分结果提示")
	}
}

// ════════════════════════════════════════════════════════════
// Historial 测试
// ════════════════════════════════════════════════════════════

func TestReplanService_Historial(t *testing.T) {
	svc, repos := setupTestReplanService()
	fecha := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	actual := seedConductor(repos, "cond-1", "C001", model.EstadoDisponible, 2)
	nuevo := seedConductor(repos, "cond-2", "C002", model.EstadoDisponible, 2)
	turno := seedTurno(repos, "t-1", actual.ConductorID, fecha, model.TurnoProgramado)
	plantillaID := "plan-1"
	turno.PlantillaID = &plantillaID

	if _, err := svc.Reasignar(context.Background(), &dto.ReasignarRequest{
		TurnoID:          "t-1",
		ConductorNuevoID: nuevo.ConductorID,
		Motivo:           "OPTIMIZACION",
	}, "op-1"); err != nil {
		t.Fatalf("Reasignar 应成功: %v", err)
	}

	porTurno, err := svc.HistorialTurno(context.Background(), "t-1")
	if err != nil || len(porTurno) != 1 {
		t.Fatalf("期望1条班次历史，实际=%d err=%v", len(porTurno), err)
	}

	porPlantilla, err := svc.Historial(context.Background(), &dto.HistorialRequest{PlantillaID: "plan-1"})
	if err != nil || porPlantilla.Total != 1 {
		t.Fatalf("期望1条模板历史，实际=%d err=%v", porPlantilla.Total, err)
	}
}

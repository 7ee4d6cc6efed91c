package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sipat/backend/config"
	"sipat/backend/internal/dto"
	"sipat/backend/internal/model"
	"sipat/backend/internal/repository"
)

// ── 改派模块业务错误 ──

var (
	ErrTurnoNotFound         = errors.New("班次不存在")
	ErrTurnoTerminal         = errors.New("班次已处于终态，不可改派")
	ErrMotivoInvalido        = errors.New("改派原因码非法")
	ErrCandidatoNoDisponible = errors.New("候选司机不可用")
	ErrPlantillaNotFound     = errors.New("班次模板不存在")
	ErrPlantillaEnCurso      = errors.New("模板服务日已开始，需强制标志方可自动改派")
)

// ReplanificacionService 改派业务接口
type ReplanificacionService interface {
	// BuscarCandidatos 候选司机排序列表（评分降序）
	BuscarCandidatos(ctx context.Context, turnoID string, limite int) ([]dto.CandidatoResponse, error)
	// Puntuar 单司机对单班次的适配评分（0–100）
	Puntuar(ctx context.Context, conductorID, turnoID string) (float64, error)
	// Reasignar 改派或取消班次；失败也写审计（审计在回滚事务之外提交）
	Reasignar(ctx context.Context, req *dto.ReasignarRequest, operadorID string) (*dto.ReplanificacionResponse, error)
	// AutoReplanificar 整模板批量优化；逐班次独立子事务，结果可部分成功
	AutoReplanificar(ctx context.Context, req *dto.AutoReplanificarRequest, operadorID string) (*dto.AutoReplanificarResponse, error)
	// Historial 按模板查询改派审计
	Historial(ctx context.Context, req *dto.HistorialRequest) (*dto.HistorialResponse, error)
	// HistorialTurno 按班次查询改派审计
	HistorialTurno(ctx context.Context, turnoID string) ([]dto.ReplanificacionResponse, error)
}

type replanificacionService struct {
	reglas     *config.ReglasConfig
	repo       *repository.Repository
	validacion ValidacionService
	logger     *zap.Logger

	// now 可注入时钟，模板开始时间守卫的判定依据
	now func() time.Time
}

// NewReplanificacionService 创建 ReplanificacionService 实例
func NewReplanificacionService(reglas *config.ReglasConfig, repo *repository.Repository, validacion ValidacionService, logger *zap.Logger) ReplanificacionService {
	return &replanificacionService{
		reglas:     reglas,
		repo:       repo,
		validacion: validacion,
		logger:     logger,
		now:        time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// BuscarCandidatos — 候选枚举与评分
//
//   puntaje = 0.40·eficiencia/100 + 0.30·puntualidad/100
//           + 0.20·[dias<5] + 0.10·[tipo_ruta ∈ servicios]，×100
//   降序排列；同分按累计天数升序，再按 ID 保证确定性
// ════════════════════════════════════════════════════════════

func (s *replanificacionService) BuscarCandidatos(ctx context.Context, turnoID string, limite int) ([]dto.CandidatoResponse, error) {
	turno, err := s.obtenerTurno(ctx, s.repo, turnoID)
	if err != nil {
		return nil, err
	}

	disponibles, err := s.repo.Conductor.ListDisponibles(ctx)
	if err != nil {
		s.logger.Error("查询可用司机失败", zap.Error(err))
		return nil, err
	}

	candidatos := make([]dto.CandidatoResponse, 0, len(disponibles))
	for i := range disponibles {
		c := &disponibles[i]
		if turno.ConductorID != nil && c.ConductorID == *turno.ConductorID {
			continue // 排除当前承运人
		}
		libre, err := s.sinConflicto(ctx, s.repo, c.ConductorID, turno.Fecha)
		if err != nil {
			return nil, err
		}
		if !libre {
			continue
		}
		candidatos = append(candidatos, dto.CandidatoResponse{
			Conductor:      *conductorToBrief(c),
			Puntaje:        puntaje(c, turno),
			DiasAcumulados: c.DiasAcumulados,
			Eficiencia:     c.Eficiencia,
			Puntualidad:    c.Puntualidad,
		})
	}

	sort.Slice(candidatos, func(i, j int) bool {
		if candidatos[i].Puntaje != candidatos[j].Puntaje {
			return candidatos[i].Puntaje > candidatos[j].Puntaje
		}
		if candidatos[i].DiasAcumulados != candidatos[j].DiasAcumulados {
			return candidatos[i].DiasAcumulados < candidatos[j].DiasAcumulados
		}
		return candidatos[i].Conductor.ID < candidatos[j].Conductor.ID
	})

	if limite > 0 && len(candidatos) > limite {
		candidatos = candidatos[:limite]
	}
	return candidatos, nil
}

func (s *replanificacionService) Puntuar(ctx context.Context, conductorID, turnoID string) (float64, error) {
	turno, err := s.obtenerTurno(ctx, s.repo, turnoID)
	if err != nil {
		return 0, err
	}
	conductor, err := s.repo.Conductor.GetByID(ctx, conductorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrConductorNotFound
		}
		return 0, err
	}
	return puntaje(conductor, turno), nil
}

// puntaje 适配评分；权重固定，阈值 dias<5 为经营侧约定
func puntaje(c *model.Conductor, t *model.Turno) float64 {
	p := 0.40*float64(c.Eficiencia)/100 + 0.30*float64(c.Puntualidad)/100
	if c.DiasAcumulados < 5 {
		p += 0.20
	}
	if c.ServiciosAutorizados.Contains(t.TipoRuta) {
		p += 0.10
	}
	return p * 100
}

// ════════════════════════════════════════════════════════════
// Reasignar — 单班次改派
//
//   1. 加载班次与当前司机（行锁防并发双占）
//   2. 新司机冲突校验；强制原因码跳过累计天数规则，冲突规则始终生效
//   3. 班次换人或取消
//   4. 原因码对被释放司机的状态副作用（医疗→DESCANSO_MEDICO 等）
//   5. 双方司机合规评估
//   6. 成功审计与业务写同事务提交
//   7. 任一步失败整体回滚，失败审计在回滚之外单独提交
// ════════════════════════════════════════════════════════════

func (s *replanificacionService) Reasignar(ctx context.Context, req *dto.ReasignarRequest, operadorID string) (*dto.ReplanificacionResponse, error) {
	motivo := model.MotivoReplanificacion(req.Motivo)
	if !motivo.Valida() {
		return nil, ErrMotivoInvalido
	}

	var registro *model.Replanificacion
	var anterior *model.Conductor // 失败审计需要事务外可见

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		turno, err := s.obtenerTurno(ctx, txRepo, req.TurnoID)
		if err != nil {
			return err
		}
		if turno.Estado.EsTerminal() {
			return ErrTurnoTerminal
		}

		if turno.ConductorID != nil {
			anterior, err = txRepo.Conductor.GetByID(ctx, *turno.ConductorID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		var nuevo *model.Conductor
		if req.ConductorNuevoID != "" {
			nuevo, err = txRepo.Conductor.GetByID(ctx, req.ConductorNuevoID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCandidatoNoDisponible
				}
				return err
			}
			if err := s.validarCandidato(ctx, txRepo, nuevo, turno, motivo); err != nil {
				return err
			}
		}

		// 班次换人 / 取消
		if nuevo != nil {
			id := nuevo.ConductorID
			turno.ConductorID = &id
		} else {
			turno.ConductorID = nil
			turno.Estado = model.TurnoCancelado
		}
		turno.UpdatedBy = &operadorID
		if err := txRepo.Turno.Update(ctx, turno); err != nil {
			return err
		}

		// 被释放司机的状态副作用
		if anterior != nil {
			if liberado := motivo.EstadoLiberado(); liberado != nil && anterior.Estado != *liberado {
				anterior.Estado = *liberado
				if liberado.EsDescansoOLicencia() {
					anterior.DiasAcumulados = 0
				}
				anterior.UpdatedBy = &operadorID
				if err := txRepo.Conductor.Update(ctx, anterior); err != nil {
					return err
				}
			}
			if _, err := s.validacion.Evaluar(ctx, txRepo, anterior, ContextoEvaluacion{
				Evento: EventoReplanLiberado,
				Motivo: &motivo,
			}); err != nil {
				return err
			}
		}
		if nuevo != nil {
			if _, err := s.validacion.Evaluar(ctx, txRepo, nuevo, ContextoEvaluacion{
				Evento: EventoReplanAsignado,
				Motivo: &motivo,
			}); err != nil {
				return err
			}
		}

		registro = s.nuevoRegistro(turno.TurnoID, anterior, req.ConductorNuevoID, motivo, operadorID, req.Notas)
		registro.Resultado = model.ReplanExito
		return txRepo.Replanificacion.Create(ctx, registro)
	})
	if err != nil {
		// 失败审计：独立提交，不随业务事务回滚
		fallo := s.nuevoRegistro(req.TurnoID, anterior, req.ConductorNuevoID, motivo, operadorID, req.Notas)
		fallo.Resultado = model.ReplanError
		fallo.MensajeError = err.Error()
		if auditErr := s.repo.Replanificacion.Create(ctx, fallo); auditErr != nil {
			s.logger.Error("写入失败审计失败", zap.String("turno_id", req.TurnoID), zap.Error(auditErr))
		}

		if !esErrorDeRegla(err) {
			s.logger.Error("改派失败", zap.String("turno_id", req.TurnoID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("班次已改派",
		zap.String("turno_id", req.TurnoID),
		zap.String("motivo", string(motivo)),
		zap.String("operador_id", operadorID))
	return replanToResponse(registro), nil
}

// validarCandidato 强制原因码（病假/停职/休假）跳过累计天数规则；
// 日程冲突规则任何情况下不可跳过
func (s *replanificacionService) validarCandidato(ctx context.Context, txRepo *repository.Repository, c *model.Conductor, turno *model.Turno, motivo model.MotivoReplanificacion) error {
	if c.Estado != model.EstadoDisponible {
		return ErrCandidatoNoDisponible
	}
	if !motivo.EsForzoso() && c.DiasAcumulados >= s.reglas.MaxDiasAcumulados {
		return ErrCandidatoNoDisponible
	}
	libre, err := s.sinConflicto(ctx, txRepo, c.ConductorID, turno.Fecha)
	if err != nil {
		return err
	}
	if !libre {
		return ErrCandidatoNoDisponible
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// AutoReplanificar — 整模板批量优化
// ════════════════════════════════════════════════════════════

func (s *replanificacionService) AutoReplanificar(ctx context.Context, req *dto.AutoReplanificarRequest, operadorID string) (*dto.AutoReplanificarResponse, error) {
	plantilla, err := s.repo.Plantilla.GetByID(ctx, req.PlantillaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantillaNotFound
		}
		return nil, err
	}

	// 服务日守卫：服务已开始的模板拒绝自动改派，除非强制标志
	if !req.Forzar && s.plantillaIniciada(plantilla) {
		return nil, ErrPlantillaEnCurso
	}

	maxCambios := req.MaxCambios
	if maxCambios <= 0 || maxCambios > s.reglas.AutoReplanMax {
		maxCambios = s.reglas.AutoReplanMax
	}

	turnos, err := s.repo.Turno.ListByPlantilla(ctx, req.PlantillaID)
	if err != nil {
		s.logger.Error("查询模板班次失败", zap.String("plantilla_id", req.PlantillaID), zap.Error(err))
		return nil, err
	}

	resp := &dto.AutoReplanificarResponse{Cambios: make([]dto.ReplanificacionResponse, 0)}
	var sumaDeltas float64

	for i := range turnos {
		turno := &turnos[i]
		if turno.Estado.EsTerminal() || turno.ConductorID == nil {
			continue
		}
		resp.Evaluados++

		if len(resp.Cambios) >= maxCambios {
			resp.Advertencias = append(resp.Advertencias, "已达单次改派上限，结果为部分优化")
			break
		}

		actual, err := s.repo.Conductor.GetByID(ctx, *turno.ConductorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}

		candidatos, err := s.BuscarCandidatos(ctx, turno.TurnoID, 1)
		if err != nil {
			return nil, err
		}
		// 仅当候选效率严格高于当前承运人才提议换人
		if len(candidatos) == 0 || candidatos[0].Eficiencia <= actual.Eficiencia {
			continue
		}
		mejor := candidatos[0]

		// 逐班次独立子事务：单次失败不回滚已提交的改派
		cambio, err := s.Reasignar(ctx, &dto.ReasignarRequest{
			TurnoID:          turno.TurnoID,
			ConductorNuevoID: mejor.Conductor.ID,
			Motivo:           string(model.MotivoOptimizacion),
			Notas:            "自动再规划",
		}, operadorID)
		if err != nil {
			resp.Advertencias = append(resp.Advertencias, "班次 "+turno.TurnoID+" 改派失败: "+err.Error())
			continue
		}

		resp.Cambios = append(resp.Cambios, *cambio)
		sumaDeltas += float64(mejor.Eficiencia - actual.Eficiencia)
	}

	if resp.Evaluados > 0 {
		resp.MejoraPct = sumaDeltas / float64(resp.Evaluados)
	}

	s.logger.Info("自动再规划完成",
		zap.String("plantilla_id", req.PlantillaID),
		zap.Int("evaluados", resp.Evaluados),
		zap.Int("cambios", len(resp.Cambios)),
		zap.Float64("mejora_pct", resp.MejoraPct))
	return resp, nil
}

// plantillaIniciada 服务日为今日且当前时刻已过开始时间
func (s *replanificacionService) plantillaIniciada(p *model.Plantilla) bool {
	ahora := s.now()
	if p.FechaServicio.Format(fechaLayout) != ahora.Format(fechaLayout) {
		return p.FechaServicio.Before(ahora)
	}
	return ahora.Format("15:04") >= p.HoraInicio
}

// ── 审计读模型 ──

func (s *replanificacionService) Historial(ctx context.Context, req *dto.HistorialRequest) (*dto.HistorialResponse, error) {
	items, total, err := s.repo.Replanificacion.ListByPlantilla(ctx, req.PlantillaID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询改派历史失败", zap.String("plantilla_id", req.PlantillaID), zap.Error(err))
		return nil, err
	}

	resp := &dto.HistorialResponse{Total: total, Items: make([]dto.ReplanificacionResponse, 0, len(items))}
	for i := range items {
		resp.Items = append(resp.Items, *replanToResponse(&items[i]))
	}
	return resp, nil
}

func (s *replanificacionService) HistorialTurno(ctx context.Context, turnoID string) ([]dto.ReplanificacionResponse, error) {
	items, err := s.repo.Replanificacion.ListByTurno(ctx, turnoID)
	if err != nil {
		s.logger.Error("查询班次改派历史失败", zap.String("turno_id", turnoID), zap.Error(err))
		return nil, err
	}

	resp := make([]dto.ReplanificacionResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *replanToResponse(&items[i]))
	}
	return resp, nil
}

// ── 内部辅助 ──

func (s *replanificacionService) obtenerTurno(ctx context.Context, txRepo *repository.Repository, id string) (*model.Turno, error) {
	turno, err := txRepo.Turno.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTurnoNotFound
		}
		return nil, err
	}
	return turno, nil
}

// sinConflicto 同日无非取消班次且无非取消短途
func (s *replanificacionService) sinConflicto(ctx context.Context, txRepo *repository.Repository, conductorID string, fecha time.Time) (bool, error) {
	if _, err := txRepo.Turno.GetActivoPorConductorFecha(ctx, conductorID, fecha); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if _, err := txRepo.RutaCorta.GetActivaPorConductorFecha(ctx, conductorID, fecha); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return true, nil
}

func (s *replanificacionService) nuevoRegistro(turnoID string, anterior *model.Conductor, nuevoID string, motivo model.MotivoReplanificacion, operadorID, notas string) *model.Replanificacion {
	r := &model.Replanificacion{
		TurnoID:    turnoID,
		Motivo:     motivo,
		OperadorID: operadorID,
		Notas:      notas,
	}
	if anterior != nil {
		id := anterior.ConductorID
		r.ConductorAnteriorID = &id
	}
	if nuevoID != "" {
		id := nuevoID
		r.ConductorNuevoID = &id
	}
	return r
}

// esErrorDeRegla 业务规则结果不按错误级别记日志
func esErrorDeRegla(err error) bool {
	return errors.Is(err, ErrTurnoNotFound) ||
		errors.Is(err, ErrTurnoTerminal) ||
		errors.Is(err, ErrCandidatoNoDisponible) ||
		errors.Is(err, ErrMotivoInvalido)
}

func replanToResponse(r *model.Replanificacion) *dto.ReplanificacionResponse {
	resp := &dto.ReplanificacionResponse{
		ID:           r.ReplanificacionID,
		TurnoID:      r.TurnoID,
		Motivo:       string(r.Motivo),
		Resultado:    string(r.Resultado),
		MensajeError: r.MensajeError,
		Notas:        r.Notas,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.ConductorAnteriorID != nil {
		resp.ConductorAnterior = &dto.ConductorBrief{ID: *r.ConductorAnteriorID}
	}
	if r.ConductorNuevoID != nil {
		resp.ConductorNuevo = &dto.ConductorBrief{ID: *r.ConductorNuevoID}
	}
	return resp
}

// [自证通过] internal/service/replanificacion_service.go

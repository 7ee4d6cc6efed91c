package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sipat/backend/config"
	"sipat/backend/internal/dto"
	"sipat/backend/internal/model"
	"sipat/backend/internal/repository"
	"sipat/backend/pkg/redis"
)

// ── 合规告警模块业务错误 ──

var (
	ErrValidacionNotFound    = errors.New("告警不存在")
	ErrValidacionYaResuelta  = errors.New("告警已处理，不可重复操作")
	ErrValidacionNoPendiente = errors.New("告警非待处理状态")
)

// EventoEvaluacion 触发合规评估的事件类型，决定激活哪些规则
type EventoEvaluacion string

const (
	EventoJornada        EventoEvaluacion = "JORNADA"         // 出勤登记 / 司机状态变更
	EventoMetricas       EventoEvaluacion = "METRICAS"        // 绩效指标更新
	EventoRutaCorta      EventoEvaluacion = "RUTA_CORTA"      // 短途指派
	EventoReplanLiberado EventoEvaluacion = "REPLAN_LIBERADO" // 改派：被释放的司机
	EventoReplanAsignado EventoEvaluacion = "REPLAN_ASIGNADO" // 改派：新接手的司机
)

// ContextoEvaluacion 规则评估的事件上下文
type ContextoEvaluacion struct {
	Evento    EventoEvaluacion
	RutaCorta *model.RutaCorta             // 仅 RUTA_CORTA 事件
	Motivo    *model.MotivoReplanificacion // 仅 REPLAN_* 事件
}

// ValidacionService 合规告警业务接口
//
// Evaluar 是规则引擎唯一入口：所有业务写操作在提交前、同一事务内调用它，
// 传入事务绑定的 txRepo，保证幂等检查与插入原子可见。
type ValidacionService interface {
	// 评估规则表并幂等写入 PENDIENTE 告警，返回本次新建的告警
	Evaluar(ctx context.Context, txRepo *repository.Repository, conductor *model.Conductor, ectx ContextoEvaluacion) ([]model.Validacion, error)
	// 操作员确认告警（PENDIENTE → VERIFICADO）
	Verificar(ctx context.Context, id, operadorID string) (*dto.ValidacionResponse, error)
	// 操作员关闭告警（PENDIENTE/VERIFICADO → RESUELTO）
	Resolver(ctx context.Context, id, operadorID string) (*dto.ValidacionResponse, error)
	// 告警分页列表
	List(ctx context.Context, req *dto.ValidacionListRequest) (*dto.ValidacionListResponse, error)
	// 告警墙：待处理告警 + 按严重度计数（短 TTL 缓存）
	Feed(ctx context.Context) (*dto.ValidacionFeedResponse, error)
}

type validacionService struct {
	reglas *config.ReglasConfig
	repo   *repository.Repository
	rdb    *redis.Client // 可为 nil（Redis 未启用时降级为直读）
	logger *zap.Logger
}

// NewValidacionService 创建 ValidacionService 实例
func NewValidacionService(reglas *config.ReglasConfig, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) ValidacionService {
	return &validacionService{reglas: reglas, repo: repo, rdb: rdb, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Evaluar — 规则表（事件 → 条件 → 告警类型/严重度）
// ════════════════════════════════════════════════════════════

func (s *validacionService) Evaluar(ctx context.Context, txRepo *repository.Repository, conductor *model.Conductor, ectx ContextoEvaluacion) ([]model.Validacion, error) {
	var creadas []model.Validacion

	agregar := func(tipo model.TipoValidacion, sev model.SeveridadValidacion, mensaje string) error {
		v, err := s.insertarSiNoPendiente(ctx, txRepo, conductor.ConductorID, tipo, sev, mensaje)
		if err != nil {
			return err
		}
		if v != nil {
			creadas = append(creadas, *v)
		}
		return nil
	}

	// 规则1: 连续值勤达上限且仍可用 → DESCANSO_001（任何司机写事件均检查）
	if conductor.DiasAcumulados >= s.reglas.MaxDiasAcumulados && conductor.Estado == model.EstadoDisponible {
		msg := fmt.Sprintf("司机 %s 连续值勤 %d 天，必须安排强制休息", conductor.Codigo, conductor.DiasAcumulados)
		if err := agregar(model.ValidacionDescanso001, model.SeveridadCritica, msg); err != nil {
			return nil, err
		}
	}

	switch ectx.Evento {
	case EventoMetricas:
		// 规则2: 绩效低于阈值 → RENDIMIENTO_BAJO
		if conductor.Eficiencia < s.reglas.UmbralRendimiento || conductor.Puntualidad < s.reglas.UmbralRendimiento {
			msg := fmt.Sprintf("司机 %s 绩效低于阈值（效率=%d 准点=%d）", conductor.Codigo, conductor.Eficiencia, conductor.Puntualidad)
			if err := agregar(model.ValidacionRendimientoBajo, model.SeveridadAdvertencia, msg); err != nil {
				return nil, err
			}
		}

	case EventoRutaCorta:
		// 规则3: 连续两日短途 → RUTAS_CORTAS_CONSECUTIVAS（提示性，不阻断指派）
		if ectx.RutaCorta != nil && ectx.RutaCorta.EsConsecutiva {
			msg := fmt.Sprintf("司机 %s 连续两日执行短途（%s）", conductor.Codigo, ectx.RutaCorta.Fecha.Format(fechaLayout))
			if err := agregar(model.ValidacionRutasCortasConsec, model.SeveridadAdvertencia, msg); err != nil {
				return nil, err
			}
		}

	case EventoReplanLiberado:
		// 规则4: 医疗原因改派 → REPLANIFICACION_MEDICA
		if ectx.Motivo != nil && ectx.Motivo.EsMedico() {
			msg := fmt.Sprintf("司机 %s 因 %s 被改派释放", conductor.Codigo, *ectx.Motivo)
			if err := agregar(model.ValidacionReplanificacionMedica, model.SeveridadInfo, msg); err != nil {
				return nil, err
			}
		}

	case EventoReplanAsignado:
		// 规则5: 改派后接手司机累计天数逼近上限 → POST_REPLANIFICACION
		if conductor.DiasAcumulados >= s.reglas.UmbralPostReplan {
			msg := fmt.Sprintf("司机 %s 接手改派班次后累计值勤 %d 天", conductor.Codigo, conductor.DiasAcumulados)
			if err := agregar(model.ValidacionPostReplanificacion, model.SeveridadAdvertencia, msg); err != nil {
				return nil, err
			}
		}
	}

	if len(creadas) > 0 {
		s.invalidarFeed(ctx)
	}
	return creadas, nil
}

// insertarSiNoPendiente 幂等插入：同 (conductor, tipo) 已有 PENDIENTE 则跳过。
// 检查与插入在调用方事务内执行；并发兜底由部分唯一索引 uq_validaciones_pendiente 保证。
func (s *validacionService) insertarSiNoPendiente(ctx context.Context, txRepo *repository.Repository, conductorID string, tipo model.TipoValidacion, sev model.SeveridadValidacion, mensaje string) (*model.Validacion, error) {
	existente, err := txRepo.Validacion.GetPendiente(ctx, conductorID, tipo)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existente != nil {
		return nil, nil // 已有待处理告警，规则不重复告
	}

	v := &model.Validacion{
		Tipo:        tipo,
		Severidad:   sev,
		ConductorID: conductorID,
		Mensaje:     mensaje,
		Estado:      model.ValidacionPendiente,
	}
	if err := txRepo.Validacion.Create(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("合规告警已创建",
		zap.String("conductor_id", conductorID),
		zap.String("tipo", string(tipo)),
		zap.String("severidad", string(sev)))
	return v, nil
}

// ── 操作员处理 ──

func (s *validacionService) Verificar(ctx context.Context, id, operadorID string) (*dto.ValidacionResponse, error) {
	v, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Estado != model.ValidacionPendiente {
		return nil, ErrValidacionNoPendiente
	}

	v.Estado = model.ValidacionVerificada
	v.UpdatedBy = &operadorID
	if err := s.repo.Validacion.Update(ctx, v); err != nil {
		s.logger.Error("确认告警失败", zap.String("validacion_id", id), zap.Error(err))
		return nil, err
	}

	s.invalidarFeed(ctx)
	return validacionToResponse(v), nil
}

func (s *validacionService) Resolver(ctx context.Context, id, operadorID string) (*dto.ValidacionResponse, error) {
	v, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Estado == model.ValidacionResuelta {
		return nil, ErrValidacionYaResuelta
	}

	ahora := time.Now()
	v.Estado = model.ValidacionResuelta
	v.FechaResolucion = &ahora
	v.ResueltoPor = &operadorID
	v.UpdatedBy = &operadorID
	if err := s.repo.Validacion.Update(ctx, v); err != nil {
		s.logger.Error("关闭告警失败", zap.String("validacion_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("告警已关闭",
		zap.String("validacion_id", id),
		zap.String("operador_id", operadorID))
	s.invalidarFeed(ctx)
	return validacionToResponse(v), nil
}

// ── 读模型 ──

func (s *validacionService) List(ctx context.Context, req *dto.ValidacionListRequest) (*dto.ValidacionListResponse, error) {
	filtro := repository.ValidacionFiltro{ConductorID: req.ConductorID}
	if req.Estado != "" {
		e := model.EstadoValidacion(req.Estado)
		filtro.Estado = &e
	}
	if req.Severidad != "" {
		sev := model.SeveridadValidacion(req.Severidad)
		filtro.Severidad = &sev
	}

	items, total, err := s.repo.Validacion.List(ctx, filtro, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询告警列表失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ValidacionListResponse{Total: total, Items: make([]dto.ValidacionResponse, 0, len(items))}
	for i := range items {
		resp.Items = append(resp.Items, *validacionToResponse(&items[i]))
	}
	return resp, nil
}

// feedTTL 告警墙缓存时长；控制台轮询周期为 10s，略高于一次轮询
const feedTTL = 15 * time.Second

func (s *validacionService) Feed(ctx context.Context) (*dto.ValidacionFeedResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.GetFeed(ctx); err == nil && cached != "" {
			var resp dto.ValidacionFeedResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	pendiente := model.ValidacionPendiente
	items, _, err := s.repo.Validacion.List(ctx, repository.ValidacionFiltro{Estado: &pendiente}, 0, 50)
	if err != nil {
		s.logger.Error("查询告警墙失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ValidacionFeedResponse{Items: make([]dto.ValidacionResponse, 0, len(items))}
	for i := range items {
		switch items[i].Severidad {
		case model.SeveridadCritica:
			resp.Criticas++
		case model.SeveridadAdvertencia:
			resp.Advertencias++
		case model.SeveridadInfo:
			resp.Infos++
		}
		resp.Items = append(resp.Items, *validacionToResponse(&items[i]))
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.rdb.SetFeed(ctx, string(payload), feedTTL); err != nil {
				s.logger.Warn("写入告警墙缓存失败", zap.Error(err))
			}
		}
	}
	return resp, nil
}

// ── 内部辅助 ──

func (s *validacionService) obtener(ctx context.Context, id string) (*model.Validacion, error) {
	v, err := s.repo.Validacion.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrValidacionNotFound
		}
		s.logger.Error("查询告警失败", zap.String("validacion_id", id), zap.Error(err))
		return nil, err
	}
	return v, nil
}

// invalidarFeed 尽力而为：缓存删除失败只记日志，不影响业务写
func (s *validacionService) invalidarFeed(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.InvalidateFeed(ctx); err != nil {
		s.logger.Warn("告警墙缓存失效失败", zap.Error(err))
	}
}

func validacionToResponse(v *model.Validacion) *dto.ValidacionResponse {
	resp := &dto.ValidacionResponse{
		ID:        v.ValidacionID,
		Tipo:      string(v.Tipo),
		Severidad: string(v.Severidad),
		Mensaje:   v.Mensaje,
		Estado:    string(v.Estado),
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
	if v.FechaResolucion != nil {
		fr := v.FechaResolucion.Format(time.RFC3339)
		resp.FechaResolucion = &fr
	}
	if v.Conductor != nil {
		resp.Conductor = conductorToBrief(v.Conductor)
	} else if v.ConductorID != "" {
		resp.Conductor = &dto.ConductorBrief{ID: v.ConductorID}
	}
	return resp
}

// [自证通过] internal/service/validacion_service.go

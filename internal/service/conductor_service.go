package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sipat/backend/internal/dto"
	"sipat/backend/internal/model"
	"sipat/backend/internal/repository"
)

// ── 司机模块业务错误 ──

var (
	ErrConductorNotFound = errors.New("司机不存在")
	ErrCodigoDuplicado   = errors.New("司机编号已存在")
	ErrEstadoInvalido    = errors.New("司机状态取值非法")
	ErrTransicionIlegal  = errors.New("状态迁移不允许：SUSPENDIDO 仅能通过复职操作退出")
	ErrFechaInvalida     = errors.New("日期格式非法，应为 YYYY-MM-DD")
	ErrTurnoNoProgramado = errors.New("该司机当日无待完成班次")
)

// fechaLayout 业务日期统一格式
const fechaLayout = "2006-01-02"

// ConductorService 司机业务接口
type ConductorService interface {
	Create(ctx context.Context, req *dto.CreateConductorRequest, callerID string) (*dto.ConductorResponse, error)
	Get(ctx context.Context, id string) (*dto.ConductorResponse, error)
	List(ctx context.Context, req *dto.ConductorListRequest) (*dto.ConductorListResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateConductorRequest, callerID string) (*dto.ConductorResponse, error)
	// Delete 软删除（司机退役，档案保留）
	Delete(ctx context.Context, id, callerID string) error
	// CambiarEstado 状态机迁移；进入休息/休假/停职时累计天数归零
	CambiarEstado(ctx context.Context, id string, nuevo model.EstadoConductor, callerID string) (*dto.ConductorResponse, error)
	// Reinstaurar 行政复职：SUSPENDIDO → DISPONIBLE 的唯一出口
	Reinstaurar(ctx context.Context, id, callerID string) (*dto.ConductorResponse, error)
	// RegistrarJornada 出勤登记：当日班次置为 COMPLETADO，累计天数 +1
	RegistrarJornada(ctx context.Context, id string, req *dto.RegistrarJornadaRequest, callerID string) (*dto.ConductorResponse, error)
	// ActualizarMetricas 更新绩效指标并评估 RENDIMIENTO_BAJO 规则
	ActualizarMetricas(ctx context.Context, id string, req *dto.ActualizarMetricasRequest, callerID string) (*dto.ConductorResponse, error)
}

type conductorService struct {
	repo       *repository.Repository
	validacion ValidacionService
	logger     *zap.Logger
}

// NewConductorService 创建 ConductorService 实例
func NewConductorService(repo *repository.Repository, validacion ValidacionService, logger *zap.Logger) ConductorService {
	return &conductorService{repo: repo, validacion: validacion, logger: logger}
}

// ── CRUD ──

func (s *conductorService) Create(ctx context.Context, req *dto.CreateConductorRequest, callerID string) (*dto.ConductorResponse, error) {
	existente, err := s.repo.Conductor.GetByCodigo(ctx, req.Codigo)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询司机编号失败", zap.Error(err))
		return nil, err
	}
	if existente != nil {
		return nil, ErrCodigoDuplicado
	}

	conductor := &model.Conductor{
		Codigo:               req.Codigo,
		Nombre:               req.Nombre,
		Estado:               model.EstadoDisponible,
		Eficiencia:           100,
		Puntualidad:          100,
		Origen:               req.Origen,
		ServiciosAutorizados: model.StringArray(req.ServiciosAutorizados),
	}
	if req.Eficiencia != nil {
		conductor.Eficiencia = *req.Eficiencia
	}
	if req.Puntualidad != nil {
		conductor.Puntualidad = *req.Puntualidad
	}
	conductor.CreatedBy = &callerID

	if err := s.repo.Conductor.Create(ctx, conductor); err != nil {
		s.logger.Error("创建司机失败", zap.String("codigo", req.Codigo), zap.Error(err))
		return nil, err
	}

	s.logger.Info("司机已创建", zap.String("conductor_id", conductor.ConductorID), zap.String("codigo", conductor.Codigo))
	return conductorToResponse(conductor), nil
}

func (s *conductorService) Get(ctx context.Context, id string) (*dto.ConductorResponse, error) {
	conductor, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	return conductorToResponse(conductor), nil
}

func (s *conductorService) List(ctx context.Context, req *dto.ConductorListRequest) (*dto.ConductorListResponse, error) {
	var estado *model.EstadoConductor
	if req.Estado != "" {
		e := model.EstadoConductor(req.Estado)
		estado = &e
	}

	items, total, err := s.repo.Conductor.List(ctx, estado, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询司机列表失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ConductorListResponse{Total: total, Items: make([]dto.ConductorResponse, 0, len(items))}
	for i := range items {
		resp.Items = append(resp.Items, *conductorToResponse(&items[i]))
	}
	return resp, nil
}

func (s *conductorService) Update(ctx context.Context, id string, req *dto.UpdateConductorRequest, callerID string) (*dto.ConductorResponse, error) {
	conductor, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		conductor.Nombre = *req.Nombre
	}
	if req.Origen != nil {
		conductor.Origen = *req.Origen
	}
	if req.ServiciosAutorizados != nil {
		conductor.ServiciosAutorizados = model.StringArray(req.ServiciosAutorizados)
	}
	conductor.UpdatedBy = &callerID

	if err := s.repo.Conductor.Update(ctx, conductor); err != nil {
		s.logger.Error("更新司机失败", zap.String("conductor_id", id), zap.Error(err))
		return nil, err
	}
	return conductorToResponse(conductor), nil
}

func (s *conductorService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.obtener(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Conductor.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除司机失败", zap.String("conductor_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("司机已退役", zap.String("conductor_id", id), zap.String("operador_id", callerID))
	return nil
}

// ════════════════════════════════════════════════════════════
// CambiarEstado — 司机状态机
//
//   - 进入 DESCANSO* / VACACIONES / SUSPENDIDO：累计天数归零
//   - SUSPENDIDO 退出仅允许 Reinstaurar（行政复职）
//   - 强行回到 DISPONIBLE 且累计天数仍达上限：立即重新触发 DESCANSO_001
// ════════════════════════════════════════════════════════════

func (s *conductorService) CambiarEstado(ctx context.Context, id string, nuevo model.EstadoConductor, callerID string) (*dto.ConductorResponse, error) {
	if !nuevo.Valida() {
		return nil, ErrEstadoInvalido
	}

	conductor, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}

	if conductor.Estado == model.EstadoSuspendido && nuevo != model.EstadoSuspendido {
		return nil, ErrTransicionIlegal
	}
	if conductor.Estado == nuevo {
		return conductorToResponse(conductor), nil
	}

	return s.aplicarEstado(ctx, conductor, nuevo, callerID)
}

func (s *conductorService) Reinstaurar(ctx context.Context, id, callerID string) (*dto.ConductorResponse, error) {
	conductor, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	if conductor.Estado != model.EstadoSuspendido {
		return nil, ErrTransicionIlegal
	}

	s.logger.Info("司机复职",
		zap.String("conductor_id", id),
		zap.String("operador_id", callerID))
	return s.aplicarEstado(ctx, conductor, model.EstadoDisponible, callerID)
}

// aplicarEstado 状态写入 + 同事务合规评估
func (s *conductorService) aplicarEstado(ctx context.Context, conductor *model.Conductor, nuevo model.EstadoConductor, callerID string) (*dto.ConductorResponse, error) {
	anterior := conductor.Estado
	conductor.Estado = nuevo
	if nuevo.EsDescansoOLicencia() {
		conductor.DiasAcumulados = 0
	}
	conductor.UpdatedBy = &callerID

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Conductor.Update(ctx, conductor); err != nil {
			return err
		}
		_, err := s.validacion.Evaluar(ctx, txRepo, conductor, ContextoEvaluacion{Evento: EventoJornada})
		return err
	})
	if err != nil {
		s.logger.Error("切换司机状态失败",
			zap.String("conductor_id", conductor.ConductorID),
			zap.String("estado", string(nuevo)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("司机状态已切换",
		zap.String("conductor_id", conductor.ConductorID),
		zap.String("anterior", string(anterior)),
		zap.String("nuevo", string(nuevo)))
	return conductorToResponse(conductor), nil
}

// ── 出勤与绩效 ──

func (s *conductorService) RegistrarJornada(ctx context.Context, id string, req *dto.RegistrarJornadaRequest, callerID string) (*dto.ConductorResponse, error) {
	fecha, err := time.Parse(fechaLayout, req.Fecha)
	if err != nil {
		return nil, ErrFechaInvalida
	}

	conductor, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		turno, err := txRepo.Turno.GetActivoPorConductorFecha(ctx, id, fecha)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTurnoNoProgramado
			}
			return err
		}
		if turno.Estado.EsTerminal() {
			return ErrTurnoNoProgramado
		}

		turno.Estado = model.TurnoCompletado
		turno.UpdatedBy = &callerID
		if err := txRepo.Turno.Update(ctx, turno); err != nil {
			return err
		}

		conductor.DiasAcumulados++
		conductor.UpdatedBy = &callerID
		if err := txRepo.Conductor.Update(ctx, conductor); err != nil {
			return err
		}

		_, err = s.validacion.Evaluar(ctx, txRepo, conductor, ContextoEvaluacion{Evento: EventoJornada})
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrTurnoNoProgramado) {
			s.logger.Error("出勤登记失败", zap.String("conductor_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("出勤已登记",
		zap.String("conductor_id", id),
		zap.String("fecha", req.Fecha),
		zap.Int("dias_acumulados", conductor.DiasAcumulados))
	return conductorToResponse(conductor), nil
}

func (s *conductorService) ActualizarMetricas(ctx context.Context, id string, req *dto.ActualizarMetricasRequest, callerID string) (*dto.ConductorResponse, error) {
	conductor, err := s.obtener(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Eficiencia != nil {
		conductor.Eficiencia = *req.Eficiencia
	}
	if req.Puntualidad != nil {
		conductor.Puntualidad = *req.Puntualidad
	}
	conductor.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Conductor.Update(ctx, conductor); err != nil {
			return err
		}
		_, err := s.validacion.Evaluar(ctx, txRepo, conductor, ContextoEvaluacion{Evento: EventoMetricas})
		return err
	})
	if err != nil {
		s.logger.Error("更新绩效指标失败", zap.String("conductor_id", id), zap.Error(err))
		return nil, err
	}
	return conductorToResponse(conductor), nil
}

// ── 内部辅助 ──

func (s *conductorService) obtener(ctx context.Context, id string) (*model.Conductor, error) {
	conductor, err := s.repo.Conductor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConductorNotFound
		}
		s.logger.Error("查询司机失败", zap.String("conductor_id", id), zap.Error(err))
		return nil, err
	}
	return conductor, nil
}

func conductorToResponse(c *model.Conductor) *dto.ConductorResponse {
	resp := &dto.ConductorResponse{
		ID:                   c.ConductorID,
		Codigo:               c.Codigo,
		Nombre:               c.Nombre,
		Estado:               string(c.Estado),
		DiasAcumulados:       c.DiasAcumulados,
		Eficiencia:           c.Eficiencia,
		Puntualidad:          c.Puntualidad,
		Origen:               c.Origen,
		ServiciosAutorizados: []string(c.ServiciosAutorizados),
		CreatedAt:            c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            c.UpdatedAt.Format(time.RFC3339),
	}
	if resp.ServiciosAutorizados == nil {
		resp.ServiciosAutorizados = []string{}
	}
	if c.UltimaRutaCorta != nil {
		f := c.UltimaRutaCorta.Format(fechaLayout)
		resp.UltimaRutaCorta = &f
	}
	return resp
}

func conductorToBrief(c *model.Conductor) *dto.ConductorBrief {
	return &dto.ConductorBrief{
		ID:     c.ConductorID,
		Codigo: c.Codigo,
		Nombre: c.Nombre,
		Estado: string(c.Estado),
	}
}

// [自证通过] internal/service/conductor_service.go

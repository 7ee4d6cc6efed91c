package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"sipat/backend/internal/model"
	"sipat/backend/internal/repository"
)

// mismoDia 按日历日比较（mock 中统一忽略时刻）
func mismoDia(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// ── Mock ConductorRepository ──

type mockConductorRepo struct {
	conductores map[string]*model.Conductor
	seq         int
}

func newMockConductorRepo() *mockConductorRepo {
	return &mockConductorRepo{conductores: make(map[string]*model.Conductor)}
}

func (m *mockConductorRepo) Create(_ context.Context, c *model.Conductor) error {
	if c.ConductorID == "" {
		m.seq++
		c.ConductorID = fmt.Sprintf("cond-%d", m.seq)
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.conductores[c.ConductorID] = c
	return nil
}

func (m *mockConductorRepo) GetByID(_ context.Context, id string) (*model.Conductor, error) {
	if c, ok := m.conductores[id]; ok {
		copia := *c
		return &copia, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConductorRepo) GetByCodigo(_ context.Context, codigo string) (*model.Conductor, error) {
	for _, c := range m.conductores {
		if c.Codigo == codigo {
			copia := *c
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConductorRepo) List(_ context.Context, estado *model.EstadoConductor, offset, limit int) ([]model.Conductor, int64, error) {
	var result []model.Conductor
	for _, c := range m.conductores {
		if estado != nil && c.Estado != *estado {
			continue
		}
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

func (m *mockConductorRepo) ListDisponibles(_ context.Context) ([]model.Conductor, error) {
	var result []model.Conductor
	for _, c := range m.conductores {
		if c.Estado == model.EstadoDisponible {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockConductorRepo) ListCriticos(_ context.Context, minDias int) ([]model.Conductor, error) {
	var result []model.Conductor
	for _, c := range m.conductores {
		if c.DiasAcumulados >= minDias {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockConductorRepo) Update(_ context.Context, c *model.Conductor) error {
	if _, ok := m.conductores[c.ConductorID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c.Version++
	copia := *c
	m.conductores[c.ConductorID] = &copia
	return nil
}

func (m *mockConductorRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.conductores, id)
	return nil
}

// ── Mock BusRepository ──

type mockBusRepo struct {
	buses map[string]*model.Bus
	seq   int
}

func newMockBusRepo() *mockBusRepo {
	return &mockBusRepo{buses: make(map[string]*model.Bus)}
}

func (m *mockBusRepo) Create(_ context.Context, b *model.Bus) error {
	if b.BusID == "" {
		m.seq++
		b.BusID = fmt.Sprintf("bus-%d", m.seq)
	}
	m.buses[b.BusID] = b
	return nil
}

func (m *mockBusRepo) GetByID(_ context.Context, id string) (*model.Bus, error) {
	if b, ok := m.buses[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBusRepo) List(_ context.Context, offset, limit int) ([]model.Bus, int64, error) {
	var result []model.Bus
	for _, b := range m.buses {
		result = append(result, *b)
	}
	return result, int64(len(result)), nil
}

func (m *mockBusRepo) Update(_ context.Context, b *model.Bus) error {
	m.buses[b.BusID] = b
	return nil
}

func (m *mockBusRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.buses, id)
	return nil
}

// ── Mock PlantillaRepository ──

type mockPlantillaRepo struct {
	plantillas map[string]*model.Plantilla
	seq        int
}

func newMockPlantillaRepo() *mockPlantillaRepo {
	return &mockPlantillaRepo{plantillas: make(map[string]*model.Plantilla)}
}

func (m *mockPlantillaRepo) Create(_ context.Context, p *model.Plantilla) error {
	if p.PlantillaID == "" {
		m.seq++
		p.PlantillaID = fmt.Sprintf("plan-%d", m.seq)
	}
	m.plantillas[p.PlantillaID] = p
	return nil
}

func (m *mockPlantillaRepo) GetByID(_ context.Context, id string) (*model.Plantilla, error) {
	if p, ok := m.plantillas[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlantillaRepo) List(_ context.Context, offset, limit int) ([]model.Plantilla, int64, error) {
	var result []model.Plantilla
	for _, p := range m.plantillas {
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

func (m *mockPlantillaRepo) Update(_ context.Context, p *model.Plantilla) error {
	m.plantillas[p.PlantillaID] = p
	return nil
}

// ── Mock TurnoRepository ──

type mockTurnoRepo struct {
	turnos map[string]*model.Turno
	seq    int
}

func newMockTurnoRepo() *mockTurnoRepo {
	return &mockTurnoRepo{turnos: make(map[string]*model.Turno)}
}

func (m *mockTurnoRepo) Create(_ context.Context, t *model.Turno) error {
	if t.TurnoID == "" {
		m.seq++
		t.TurnoID = fmt.Sprintf("turno-%d", m.seq)
	}
	t.CreatedAt = time.Now()
	m.turnos[t.TurnoID] = t
	return nil
}

func (m *mockTurnoRepo) GetByID(_ context.Context, id string) (*model.Turno, error) {
	if t, ok := m.turnos[id]; ok {
		copia := *t
		return &copia, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTurnoRepo) GetActivoPorConductorFecha(_ context.Context, conductorID string, fecha time.Time) (*model.Turno, error) {
	for _, t := range m.turnos {
		if t.ConductorID != nil && *t.ConductorID == conductorID &&
			mismoDia(t.Fecha, fecha) && t.Estado != model.TurnoCancelado {
			copia := *t
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTurnoRepo) ListByPlantilla(_ context.Context, plantillaID string) ([]model.Turno, error) {
	var result []model.Turno
	for _, t := range m.turnos {
		if t.PlantillaID != nil && *t.PlantillaID == plantillaID {
			result = append(result, *t)
		}
	}
	// 按 ID 排序保证测试确定性
	sort.Slice(result, func(i, j int) bool { return result[i].TurnoID < result[j].TurnoID })
	return result, nil
}

func (m *mockTurnoRepo) ListByConductorRango(_ context.Context, conductorID string, desde, hasta time.Time) ([]model.Turno, error) {
	var result []model.Turno
	for _, t := range m.turnos {
		if t.ConductorID == nil || *t.ConductorID != conductorID {
			continue
		}
		if t.Fecha.Before(desde) || t.Fecha.After(hasta) {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTurnoRepo) Update(_ context.Context, t *model.Turno) error {
	if _, ok := m.turnos[t.TurnoID]; !ok {
		return gorm.ErrRecordNotFound
	}
	t.Version++
	copia := *t
	m.turnos[t.TurnoID] = &copia
	return nil
}

// ── Mock RutaCortaRepository ──

type mockRutaCortaRepo struct {
	rutas map[string]*model.RutaCorta
	seq   int
}

func newMockRutaCortaRepo() *mockRutaCortaRepo {
	return &mockRutaCortaRepo{rutas: make(map[string]*model.RutaCorta)}
}

func (m *mockRutaCortaRepo) Create(_ context.Context, rc *model.RutaCorta) error {
	if rc.RutaCortaID == "" {
		m.seq++
		rc.RutaCortaID = fmt.Sprintf("rc-%d", m.seq)
	}
	rc.CreatedAt = time.Now()
	m.rutas[rc.RutaCortaID] = rc
	return nil
}

func (m *mockRutaCortaRepo) GetByID(_ context.Context, id string) (*model.RutaCorta, error) {
	if rc, ok := m.rutas[id]; ok {
		copia := *rc
		return &copia, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRutaCortaRepo) GetActivaPorConductorFecha(_ context.Context, conductorID string, fecha time.Time) (*model.RutaCorta, error) {
	for _, rc := range m.rutas {
		if rc.ConductorID == conductorID && mismoDia(rc.Fecha, fecha) && rc.Estado != model.RutaCortaCancelada {
			copia := *rc
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRutaCortaRepo) ListPorConductorSemana(_ context.Context, conductorID string, semana, anio int) ([]model.RutaCorta, error) {
	var result []model.RutaCorta
	for _, rc := range m.rutas {
		if rc.ConductorID == conductorID && rc.Semana == semana && rc.Anio == anio {
			result = append(result, *rc)
		}
	}
	return result, nil
}

func (m *mockRutaCortaRepo) Update(_ context.Context, rc *model.RutaCorta) error {
	if _, ok := m.rutas[rc.RutaCortaID]; !ok {
		return gorm.ErrRecordNotFound
	}
	rc.Version++
	copia := *rc
	m.rutas[rc.RutaCortaID] = &copia
	return nil
}

// ── Mock BalanceSemanalRepository ──

type mockBalanceRepo struct {
	balances map[string]*model.BalanceSemanal
}

func newMockBalanceRepo() *mockBalanceRepo {
	return &mockBalanceRepo{balances: make(map[string]*model.BalanceSemanal)}
}

func claveBalance(conductorID string, semana, anio int) string {
	return fmt.Sprintf("%s:%d:%d", conductorID, semana, anio)
}

func (m *mockBalanceRepo) Upsert(_ context.Context, b *model.BalanceSemanal) error {
	if b.BalanceID == "" {
		b.BalanceID = "bal-" + claveBalance(b.ConductorID, b.Semana, b.Anio)
	}
	copia := *b
	m.balances[claveBalance(b.ConductorID, b.Semana, b.Anio)] = &copia
	return nil
}

func (m *mockBalanceRepo) GetPorClave(_ context.Context, conductorID string, semana, anio int) (*model.BalanceSemanal, error) {
	if b, ok := m.balances[claveBalance(conductorID, semana, anio)]; ok {
		copia := *b
		return &copia, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBalanceRepo) ListPorSemana(_ context.Context, semana, anio int) ([]model.BalanceSemanal, error) {
	var result []model.BalanceSemanal
	for _, b := range m.balances {
		if b.Semana == semana && b.Anio == anio {
			result = append(result, *b)
		}
	}
	return result, nil
}

// ── Mock ValidacionRepository ──

type mockValidacionRepo struct {
	validaciones map[string]*model.Validacion
	seq          int
}

func newMockValidacionRepo() *mockValidacionRepo {
	return &mockValidacionRepo{validaciones: make(map[string]*model.Validacion)}
}

func (m *mockValidacionRepo) Create(_ context.Context, v *model.Validacion) error {
	if v.ValidacionID == "" {
		m.seq++
		v.ValidacionID = fmt.Sprintf("val-%d", m.seq)
	}
	v.CreatedAt = time.Now()
	m.validaciones[v.ValidacionID] = v
	return nil
}

func (m *mockValidacionRepo) GetByID(_ context.Context, id string) (*model.Validacion, error) {
	if v, ok := m.validaciones[id]; ok {
		copia := *v
		return &copia, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockValidacionRepo) GetPendiente(_ context.Context, conductorID string, tipo model.TipoValidacion) (*model.Validacion, error) {
	for _, v := range m.validaciones {
		if v.ConductorID == conductorID && v.Tipo == tipo && v.Estado == model.ValidacionPendiente {
			copia := *v
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockValidacionRepo) List(_ context.Context, filtro repository.ValidacionFiltro, offset, limit int) ([]model.Validacion, int64, error) {
	var result []model.Validacion
	for _, v := range m.validaciones {
		if filtro.ConductorID != "" && v.ConductorID != filtro.ConductorID {
			continue
		}
		if filtro.Estado != nil && v.Estado != *filtro.Estado {
			continue
		}
		if filtro.Severidad != nil && v.Severidad != *filtro.Severidad {
			continue
		}
		result = append(result, *v)
	}
	return result, int64(len(result)), nil
}

func (m *mockValidacionRepo) Update(_ context.Context, v *model.Validacion) error {
	if _, ok := m.validaciones[v.ValidacionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copia := *v
	m.validaciones[v.ValidacionID] = &copia
	return nil
}

// contarPorTipo 测试断言辅助：统计某司机某类型处于指定状态的告警数
func (m *mockValidacionRepo) contarPorTipo(conductorID string, tipo model.TipoValidacion, estado model.EstadoValidacion) int {
	n := 0
	for _, v := range m.validaciones {
		if v.ConductorID == conductorID && v.Tipo == tipo && v.Estado == estado {
			n++
		}
	}
	return n
}

// ── Mock ReplanificacionRepository ──

type mockReplanificacionRepo struct {
	registros []model.Replanificacion
	turnos    *mockTurnoRepo // ListByPlantilla 需跨表解析
	seq       int
}

func newMockReplanificacionRepo(turnos *mockTurnoRepo) *mockReplanificacionRepo {
	return &mockReplanificacionRepo{turnos: turnos}
}

func (m *mockReplanificacionRepo) Create(_ context.Context, rec *model.Replanificacion) error {
	if rec.ReplanificacionID == "" {
		m.seq++
		rec.ReplanificacionID = fmt.Sprintf("replan-%d", m.seq)
	}
	rec.CreatedAt = time.Now()
	m.registros = append(m.registros, *rec)
	return nil
}

func (m *mockReplanificacionRepo) ListByTurno(_ context.Context, turnoID string) ([]model.Replanificacion, error) {
	var result []model.Replanificacion
	for _, r := range m.registros {
		if r.TurnoID == turnoID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReplanificacionRepo) ListByPlantilla(_ context.Context, plantillaID string, offset, limit int) ([]model.Replanificacion, int64, error) {
	var result []model.Replanificacion
	for _, r := range m.registros {
		t, ok := m.turnos.turnos[r.TurnoID]
		if !ok || t.PlantillaID == nil || *t.PlantillaID != plantillaID {
			continue
		}
		result = append(result, r)
	}
	return result, int64(len(result)), nil
}

// ── 测试用 Repository 聚合 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	conductor  *mockConductorRepo
	bus        *mockBusRepo
	plantilla  *mockPlantillaRepo
	turno      *mockTurnoRepo
	rutaCorta  *mockRutaCortaRepo
	balance    *mockBalanceRepo
	validacion *mockValidacionRepo
	replan     *mockReplanificacionRepo
}

func newTestRepos() *testRepos {
	turno := newMockTurnoRepo()
	return &testRepos{
		conductor:  newMockConductorRepo(),
		bus:        newMockBusRepo(),
		plantilla:  newMockPlantillaRepo(),
		turno:      turno,
		rutaCorta:  newMockRutaCortaRepo(),
		balance:    newMockBalanceRepo(),
		validacion: newMockValidacionRepo(),
		replan:     newMockReplanificacionRepo(turno),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	// db 为空：Transaction 直接在当前聚合上执行 fn
	return &repository.Repository{
		Conductor:       r.conductor,
		Bus:             r.bus,
		Plantilla:       r.plantilla,
		Turno:           r.turno,
		RutaCorta:       r.rutaCorta,
		Balance:         r.balance,
		Validacion:      r.validacion,
		Replanificacion: r.replan,
	}
}

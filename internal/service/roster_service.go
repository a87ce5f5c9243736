package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/roster-platform/internal/model"
	"github.com/Leganyst/roster-platform/internal/pagination"
	"github.com/Leganyst/roster-platform/internal/repository"
	"github.com/Leganyst/roster-platform/internal/roster"
	"github.com/Leganyst/roster-platform/internal/week"
)

// RosterService управляет недельными сетками: генерация, ручные правки,
// сброс, счётчики справедливости и правила доступности. Все операции
// записи сериализуются мьютексом: у сетки единственный писатель.
type RosterService struct {
	mu sync.Mutex

	therapists repository.TherapistRepository
	rooms      repository.RoomRepository
	rules      repository.RuleRepository
	rosters    repository.RosterRepository
	events     repository.EventRepository
}

func NewRosterService(
	therapists repository.TherapistRepository,
	rooms repository.RoomRepository,
	rules repository.RuleRepository,
	rosters repository.RosterRepository,
	events repository.EventRepository,
) *RosterService {
	return &RosterService{
		therapists: therapists,
		rooms:      rooms,
		rules:      rules,
		rosters:    rosters,
		events:     events,
	}
}

// Generate строит сетку недели с нуля и сохраняет её. Пустая неделя
// означает текущую. Ротация продолжается с курсора последнего
// сохранённого ростера, повторная генерация той же недели перезаписывает
// сетку и продвигает курсор дальше. Вместе с сеткой возвращаются
// счётчики нагрузки прохода.
func (s *RosterService) Generate(ctx context.Context, week string) (*RosterView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekStart, err := resolveWeek(week)
	if err != nil {
		return nil, err
	}

	env, err := s.loadEnv(ctx)
	if err != nil {
		return nil, err
	}

	cursor := 0
	if last, err := s.rosters.GetLatest(ctx); err == nil {
		cursor = last.Cursor
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	grid, counters, next := roster.Generate(env.cal, env.order, env.rules, env.rc, cursor)

	row, err := s.saveRoster(ctx, weekStart, grid.Blob(), next)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, model.EventTypeRosterGenerated, &row.ID, nil,
		fmt.Sprintf("week %s, %d cells", rowWeek(row), grid.Assigned()))

	view, err := viewFromRow(env.cal, row)
	if err != nil {
		return nil, err
	}
	view.Fairness = loadsFor(env.therapists, counters)
	return view, nil
}

// Current возвращает сетку недели. Пустая неделя означает последнюю
// сохранённую; если не сохранено ничего, возвращается пустая сетка
// текущей недели.
func (s *RosterService) Current(ctx context.Context, week string) (*RosterView, error) {
	cal, _, err := s.shape(ctx)
	if err != nil {
		return nil, err
	}

	if week == "" {
		row, err := s.rosters.GetLatest(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &RosterView{
					WeekStart: formatWeek(currentWeek()),
					Grid:      roster.NewGrid(cal).Blob(),
				}, nil
			}
			return nil, err
		}
		return viewFromRow(cal, row)
	}

	row, err := s.rosterRow(ctx, week)
	if err != nil {
		return nil, err
	}
	return viewFromRow(cal, row)
}

// Reset заменяет сетку недели пустой, не трогая курсор ротации.
// Пустая неделя означает текущую.
func (s *RosterService) Reset(ctx context.Context, week string) (*RosterView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekStart, err := resolveWeek(week)
	if err != nil {
		return nil, err
	}

	cal, _, err := s.shape(ctx)
	if err != nil {
		return nil, err
	}

	cursor := 0
	if existing, err := s.rosters.GetByWeek(ctx, weekStart); err == nil {
		cursor = existing.Cursor
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row, err := s.saveRoster(ctx, weekStart, roster.NewGrid(cal).Blob(), cursor)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, model.EventTypeRosterReset, &row.ID, nil, "week "+rowWeek(row))
	return viewFromRow(cal, row)
}

// EditCell применяет ручную правку одной ячейки: назначение либо очистку.
// Правка проверяется только на временное окно кабинета. Пустая неделя
// означает последний сохранённый ростер.
func (s *RosterService) EditCell(ctx context.Context, week string, ref CellRef, therapistID string) (*RosterView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tid, err := s.checkTherapist(ctx, therapistID)
	if err != nil {
		return nil, err
	}

	cal, rc, err := s.shape(ctx)
	if err != nil {
		return nil, err
	}

	row, err := s.rosterRow(ctx, week)
	if err != nil {
		return nil, err
	}

	grid, err := gridFromRow(cal, row)
	if err != nil {
		return nil, err
	}

	next, err := roster.ApplyCellEdit(grid, rc, ref.cell(), roster.TherapistID(therapistID))
	if err != nil {
		return nil, err
	}

	row, err = s.saveRoster(ctx, *row.WeekStart, next.Blob(), row.Cursor)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, model.EventTypeCellEdited, &row.ID, tid,
		fmt.Sprintf("%s/%s/%s", ref.Day, ref.Slot, ref.Room))
	return viewFromRow(cal, row)
}

// MoveCell переносит назначение между ячейками одной атомарной правкой.
// Занятый приёмник перезаписывается.
func (s *RosterService) MoveCell(ctx context.Context, week string, from, to CellRef) (*RosterView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, rc, err := s.shape(ctx)
	if err != nil {
		return nil, err
	}

	row, err := s.rosterRow(ctx, week)
	if err != nil {
		return nil, err
	}

	grid, err := gridFromRow(cal, row)
	if err != nil {
		return nil, err
	}

	next, err := roster.ApplyCellMove(grid, rc, from.cell(), to.cell())
	if err != nil {
		return nil, err
	}

	row, err = s.saveRoster(ctx, *row.WeekStart, next.Blob(), row.Cursor)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, model.EventTypeCellMoved, &row.ID, nil,
		fmt.Sprintf("%s/%s/%s -> %s/%s/%s", from.Day, from.Slot, from.Room, to.Day, to.Slot, to.Room))
	return viewFromRow(cal, row)
}

// Fairness возвращает счётчики нагрузки по сетке недели. Счётчики всегда
// пересчитываются по содержимому сетки, что бы её ни меняло до этого.
// В сводке присутствуют все активные терапевты, включая оставшихся
// без назначений.
func (s *RosterService) Fairness(ctx context.Context, week string) (map[string]TherapistLoad, error) {
	cal, _, err := s.shape(ctx)
	if err != nil {
		return nil, err
	}

	grid := roster.NewGrid(cal)
	if week == "" {
		row, err := s.rosters.GetLatest(ctx)
		if err == nil {
			if grid, err = gridFromRow(cal, row); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		row, err := s.rosterRow(ctx, week)
		if err != nil {
			return nil, err
		}
		if grid, err = gridFromRow(cal, row); err != nil {
			return nil, err
		}
	}

	therapists, err := s.therapists.List(ctx, true)
	if err != nil {
		return nil, err
	}
	return loadsFor(therapists, roster.CountAssignments(grid)), nil
}

// Rules возвращает сохранённые правила доступности. Null вместо списка
// означает «без ограничений».
func (s *RosterService) Rules(ctx context.Context) (roster.RulesBlob, error) {
	rows, err := s.rules.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return rulesBlobFromRows(rows)
}

// SaveRules заменяет весь набор правил. Каждый ключ должен быть
// идентификатором существующего терапевта.
func (s *RosterService) SaveRules(ctx context.Context, blob roster.RulesBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]model.AvailabilityRule, 0, len(blob))
	for id, rb := range blob {
		tid, err := uuid.Parse(string(id))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		if _, err := s.therapists.GetByID(ctx, tid.String()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrTherapistNotFound, id)
			}
			return err
		}

		limit := (roster.AvailabilityRule{MaxConsecutivePerDay: rb.MaxConsecutivePerDay}).Normalized().MaxConsecutivePerDay
		rows = append(rows, model.AvailabilityRule{
			TherapistID:          tid,
			AvailableDays:        marshalList(rb.AvailableDays),
			WFHDays:              marshalList(rb.WFHDays),
			AvailableSlots:       marshalList(rb.AvailableSlots),
			MaxConsecutivePerDay: limit,
		})
	}

	if err := s.rules.ReplaceAll(ctx, rows); err != nil {
		return err
	}

	s.logEvent(ctx, model.EventTypeRulesUpdated, nil, nil, fmt.Sprintf("%d rules", len(rows)))
	return nil
}

// ListRosters возвращает страницу сохранённых недель, новые первыми.
func (s *RosterService) ListRosters(ctx context.Context, page, pageSize int) (pagination.Page[RosterSummary], error) {
	page, pageSize, offset := pagination.Normalize(page, pageSize)

	rows, total, err := s.rosters.List(ctx, pageSize, offset)
	if err != nil {
		return pagination.Page[RosterSummary]{}, err
	}

	cal, _, err := s.shape(ctx)
	if err != nil {
		return pagination.Page[RosterSummary]{}, err
	}

	summaries := make([]RosterSummary, 0, len(rows))
	for i := range rows {
		grid, err := gridFromRow(cal, &rows[i])
		if err != nil {
			return pagination.Page[RosterSummary]{}, err
		}
		summaries = append(summaries, RosterSummary{
			WeekStart: rowWeek(&rows[i]),
			Assigned:  grid.Assigned(),
			UpdatedAt: rows[i].UpdatedAt,
		})
	}

	return pagination.PageOf(summaries, page, pageSize, int(total)), nil
}

// ListEvents возвращает страницу журнала аудита, свежие первыми.
func (s *RosterService) ListEvents(ctx context.Context, page, pageSize int) (pagination.Page[EventView], error) {
	page, pageSize, offset := pagination.Normalize(page, pageSize)

	rows, total, err := s.events.ListRecent(ctx, pageSize, offset)
	if err != nil {
		return pagination.Page[EventView]{}, err
	}

	views := make([]EventView, 0, len(rows))
	for i := range rows {
		views = append(views, mapEvent(&rows[i]))
	}

	return pagination.PageOf(views, page, pageSize, int(total)), nil
}

// --- внутреннее окружение генератора ---

type rosterEnv struct {
	cal        roster.Calendar
	therapists []model.Therapist
	order      []roster.TherapistID
	rules      roster.RuleSet
	rc         roster.RoomConstraints
}

// loadEnv собирает входы генератора: активных терапевтов в порядке
// обхода, форму календаря, окна кабинетов и набор правил.
func (s *RosterService) loadEnv(ctx context.Context) (*rosterEnv, error) {
	cal, rc, err := s.shape(ctx)
	if err != nil {
		return nil, err
	}

	therapists, err := s.therapists.List(ctx, true)
	if err != nil {
		return nil, err
	}
	order := make([]roster.TherapistID, 0, len(therapists))
	for _, t := range therapists {
		order = append(order, roster.TherapistID(t.ID.String()))
	}

	ruleRows, err := s.rules.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	blob, err := rulesBlobFromRows(ruleRows)
	if err != nil {
		return nil, err
	}

	return &rosterEnv{
		cal:        cal,
		therapists: therapists,
		order:      order,
		rules:      blob.RuleSet(cal),
		rc:         rc,
	}, nil
}

// shape строит форму календаря и окна по активным кабинетам.
func (s *RosterService) shape(ctx context.Context) (roster.Calendar, roster.RoomConstraints, error) {
	rooms, err := s.rooms.List(ctx, true)
	if err != nil {
		return roster.Calendar{}, nil, err
	}

	ids := make([]roster.RoomID, 0, len(rooms))
	rc := make(roster.RoomConstraints)
	for i := range rooms {
		id := roster.RoomID(rooms[i].ID.String())
		ids = append(ids, id)

		window, err := decodeWindow(rooms[i].TimeWindow)
		if err != nil {
			return roster.Calendar{}, nil, fmt.Errorf("room %s: %w", id, err)
		}
		if len(window) > 0 {
			rc[id] = window
		}
	}

	return roster.DefaultCalendar(ids), rc, nil
}

// rosterRow находит строку недели. Пустая неделя означает последнюю
// сохранённую.
func (s *RosterService) rosterRow(ctx context.Context, week string) (*model.Roster, error) {
	if week == "" {
		row, err := s.rosters.GetLatest(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRosterNotFound
			}
			return nil, err
		}
		return row, nil
	}

	weekStart, err := parseWeek(week)
	if err != nil {
		return nil, err
	}
	row, err := s.rosters.GetByWeek(ctx, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: week %s", ErrRosterNotFound, week)
		}
		return nil, err
	}
	return row, nil
}

// checkTherapist проверяет идентификатор назначаемого терапевта.
// Пустой идентификатор означает очистку ячейки и проверки не требует.
func (s *RosterService) checkTherapist(ctx context.Context, id string) (*uuid.UUID, error) {
	if id == "" {
		return nil, nil
	}
	tid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if _, err := s.therapists.GetByID(ctx, tid.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTherapistNotFound, id)
		}
		return nil, err
	}
	return &tid, nil
}

func (s *RosterService) saveRoster(ctx context.Context, weekStart datatypes.Date, blob roster.GridBlob, cursor int) (*model.Roster, error) {
	raw, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("marshal grid: %w", err)
	}

	row := &model.Roster{
		WeekStart: &weekStart,
		Grid:      datatypes.JSON(raw),
		Cursor:    cursor,
	}
	if err := s.rosters.Save(ctx, row); err != nil {
		return nil, err
	}
	// перечитываем строку, чтобы вернуть актуальные метки времени
	return s.rosters.GetByWeek(ctx, weekStart)
}

// logEvent пишет событие аудита. Сбой аудита операцию не прерывает.
func (s *RosterService) logEvent(ctx context.Context, typ model.EventType, rosterID, therapistID *uuid.UUID, details string) {
	ev := &model.Event{
		EventType:   typ,
		RosterID:    rosterID,
		TherapistID: therapistID,
		Details:     details,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		log.Printf("audit event %s: %v", typ, err)
	}
}

// --- преобразования ---

func viewFromRow(cal roster.Calendar, row *model.Roster) (*RosterView, error) {
	grid, err := gridFromRow(cal, row)
	if err != nil {
		return nil, err
	}
	return &RosterView{
		WeekStart: rowWeek(row),
		Grid:      grid.Blob(),
		Cursor:    row.Cursor,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// gridFromRow разворачивает сохранённую сетку в текущую форму календаря.
// Частичные и устаревшие данные нормализуются, а не отвергаются.
func gridFromRow(cal roster.Calendar, row *model.Roster) (*roster.Grid, error) {
	var blob roster.GridBlob
	if len(row.Grid) > 0 {
		if err := json.Unmarshal(row.Grid, &blob); err != nil {
			return nil, fmt.Errorf("stored grid for week %s: %w", rowWeek(row), err)
		}
	}
	return roster.GridFromBlob(cal, blob), nil
}

func rulesBlobFromRows(rows []model.AvailabilityRule) (roster.RulesBlob, error) {
	blob := make(roster.RulesBlob, len(rows))
	for i := range rows {
		days, err := decodeList[roster.Day](rows[i].AvailableDays)
		if err != nil {
			return nil, fmt.Errorf("rule %s: available days: %w", rows[i].TherapistID, err)
		}
		wfh, err := decodeList[roster.Day](rows[i].WFHDays)
		if err != nil {
			return nil, fmt.Errorf("rule %s: wfh days: %w", rows[i].TherapistID, err)
		}
		slots, err := decodeList[roster.Slot](rows[i].AvailableSlots)
		if err != nil {
			return nil, fmt.Errorf("rule %s: available slots: %w", rows[i].TherapistID, err)
		}
		blob[roster.TherapistID(rows[i].TherapistID.String())] = roster.RuleBlob{
			AvailableDays:        days,
			WFHDays:              wfh,
			AvailableSlots:       slots,
			MaxConsecutivePerDay: rows[i].MaxConsecutivePerDay,
		}
	}
	return blob, nil
}

// decodeList читает JSON-массив из колонки. Пустая колонка и null
// дают nil: отсутствие списка трактуется выше как «без ограничений».
func decodeList[T any](raw datatypes.JSON) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func marshalList[T any](v []T) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, _ := json.Marshal(v) // ошибки маршалинга тут невозможны
	return datatypes.JSON(raw)
}

// --- недели ---

func currentWeek() datatypes.Date {
	return datatypes.Date(week.Current())
}

// parseWeek разбирает дату недели и переводит ошибку формата в
// сервисную, чтобы транспорт отдал её как некорректный запрос.
func parseWeek(s string) (datatypes.Date, error) {
	t, err := week.Parse(s)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	return datatypes.Date(t), nil
}

// resolveWeek — как parseWeek, но пустая строка означает текущую неделю.
func resolveWeek(s string) (datatypes.Date, error) {
	if s == "" {
		return currentWeek(), nil
	}
	return parseWeek(s)
}

func formatWeek(d datatypes.Date) string {
	return week.Format(time.Time(d))
}

func rowWeek(row *model.Roster) string {
	if row.WeekStart == nil {
		return ""
	}
	return formatWeek(*row.WeekStart)
}

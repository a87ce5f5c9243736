package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Leganyst/roster-platform/internal/model"
	"github.com/Leganyst/roster-platform/internal/repository"
	"github.com/Leganyst/roster-platform/internal/roster"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Минимальная схема под логику ростера, совместимая с sqlite.
	schema := []string{
		`CREATE TABLE therapists (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			position TEXT,
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT 1,
			time_window TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE availability_rules (
			id TEXT PRIMARY KEY,
			therapist_id TEXT NOT NULL UNIQUE,
			available_days TEXT,
			wfh_days TEXT,
			available_slots TEXT,
			max_consecutive_per_day INTEGER NOT NULL DEFAULT 2,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE rosters (
			id TEXT PRIMARY KEY,
			week_start DATE UNIQUE,
			grid TEXT,
			cursor INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			created_at DATETIME,
			roster_id TEXT,
			therapist_id TEXT,
			details TEXT
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newRosterService(db *gorm.DB) *RosterService {
	return NewRosterService(
		repository.NewGormTherapistRepository(db),
		repository.NewGormRoomRepository(db),
		repository.NewGormRuleRepository(db),
		repository.NewGormRosterRepository(db),
		repository.NewGormEventRepository(db),
	)
}

func seedTherapist(t *testing.T, db *gorm.DB, name string, at time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	row := model.Therapist{ID: id, DisplayName: name, Active: true, CreatedAt: at, UpdatedAt: at}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed therapist %s: %v", name, err)
	}
	return id
}

func seedRoom(t *testing.T, db *gorm.DB, name string, order int, window string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	row := model.Room{ID: id, Name: name, SortOrder: order, Active: true}
	if window != "" {
		row.TimeWindow = datatypes.JSON(window)
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed room %s: %v", name, err)
	}
	return id
}

func countAssigned(grid roster.GridBlob) int {
	n := 0
	for _, slots := range grid {
		for _, rooms := range slots {
			for _, id := range rooms {
				if id != "" {
					n++
				}
			}
		}
	}
	return n
}

func eventCount(t *testing.T, db *gorm.DB, typ model.EventType) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Event{}).Where("event_type = ?", typ).Count(&n).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}

const testWeek = "2026-08-24" // понедельник

func TestRosterService_GenerateFullGrid(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"alice", "bob", "carol", "dave"} {
		seedTherapist(t, db, name, base.Add(time.Duration(i)*time.Second))
	}
	seedRoom(t, db, "room 1", 1, "")
	seedRoom(t, db, "room 2", 2, "")

	view, err := svc.Generate(ctx, testWeek)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if view.WeekStart != testWeek {
		t.Errorf("week = %s, want %s", view.WeekStart, testWeek)
	}
	// 5 дней x 2 слота x 2 кабинета при достаточном составе
	if got := countAssigned(view.Grid); got != 20 {
		t.Errorf("assigned cells = %d, want 20", got)
	}

	// ответ генерации несёт счётчики нагрузки прохода
	if len(view.Fairness) != 4 {
		t.Fatalf("fairness entries = %d, want 4", len(view.Fairness))
	}
	total := 0
	for id, load := range view.Fairness {
		if load.DisplayName == "" {
			t.Errorf("load %s carries no name", id)
		}
		total += load.Total
	}
	if total != 20 {
		t.Errorf("fairness total = %d, want 20", total)
	}

	if n := eventCount(t, db, model.EventTypeRosterGenerated); n != 1 {
		t.Errorf("generated events = %d, want 1", n)
	}
}

func TestRosterService_GenerateContinuesRotation(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	seedTherapist(t, db, "bob", base.Add(time.Second))
	room := seedRoom(t, db, "room 1", 1, "")

	first, err := svc.Generate(ctx, testWeek)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := svc.Generate(ctx, "2026-08-31")
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	// вторая неделя продолжает ротацию: понедельничное утро достаётся
	// следующему терапевту, а не снова первому
	roomID := roster.RoomID(room.String())
	a := first.Grid[roster.DayMonday][roster.SlotMorning][roomID]
	b := second.Grid[roster.DayMonday][roster.SlotMorning][roomID]
	if a == "" || b == "" {
		t.Fatal("monday morning left empty")
	}
	if a == b {
		t.Error("rotation stuck: both weeks start with the same therapist")
	}

	var rows int64
	if err := db.Model(&model.Roster{}).Count(&rows).Error; err != nil {
		t.Fatalf("count rosters: %v", err)
	}
	if rows != 2 {
		t.Errorf("roster rows = %d, want 2", rows)
	}
}

func TestRosterService_GenerateRespectsRoomWindow(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"alice", "bob", "carol", "dave"} {
		seedTherapist(t, db, name, base.Add(time.Duration(i)*time.Second))
	}
	seedRoom(t, db, "main", 1, "")
	small := seedRoom(t, db, "small", 2, `[{"day":"wed","slot":"am"},{"day":"thu","slot":"pm"}]`)

	view, err := svc.Generate(ctx, testWeek)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	smallID := roster.RoomID(small.String())
	for day, slots := range view.Grid {
		for slot, rooms := range slots {
			id := rooms[smallID]
			allowed := (day == roster.DayWednesday && slot == roster.SlotMorning) ||
				(day == roster.DayThursday && slot == roster.SlotAfternoon)
			if id != "" && !allowed {
				t.Errorf("small room assigned at %s/%s outside its window", day, slot)
			}
			if id == "" && allowed {
				t.Errorf("small room empty at %s/%s despite available staff", day, slot)
			}
		}
	}
	// 10 ячеек основного кабинета и 2 ячейки малого
	if got := countAssigned(view.Grid); got != 12 {
		t.Errorf("assigned cells = %d, want 12", got)
	}
}

func TestRosterService_GenerateAppliesRules(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	alice := seedTherapist(t, db, "alice", base)
	seedTherapist(t, db, "bob", base.Add(time.Second))
	seedTherapist(t, db, "carol", base.Add(2*time.Second))
	seedRoom(t, db, "room 1", 1, "")

	blob := roster.RulesBlob{
		roster.TherapistID(alice.String()): {
			AvailableDays:        []roster.Day{roster.DayMonday, roster.DayTuesday, roster.DayWednesday},
			WFHDays:              []roster.Day{roster.DayTuesday},
			AvailableSlots:       []roster.Slot{roster.SlotMorning, roster.SlotAfternoon},
			MaxConsecutivePerDay: 1,
		},
	}
	if err := svc.SaveRules(ctx, blob); err != nil {
		t.Fatalf("SaveRules: %v", err)
	}

	view, err := svc.Generate(ctx, testWeek)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	aliceID := roster.TherapistID(alice.String())
	perDay := map[roster.Day]int{}
	for day, slots := range view.Grid {
		for _, rooms := range slots {
			for _, id := range rooms {
				if id == aliceID {
					perDay[day]++
				}
			}
		}
	}
	if perDay[roster.DayTuesday] != 0 {
		t.Error("alice scheduled on her WFH day")
	}
	if perDay[roster.DayThursday] != 0 || perDay[roster.DayFriday] != 0 {
		t.Error("alice scheduled outside her available days")
	}
	for day, n := range perDay {
		if n > 1 {
			t.Errorf("alice has %d slots on %s with limit 1", n, day)
		}
	}
}

func TestRosterService_EditCell(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	bob := seedTherapist(t, db, "bob", base.Add(time.Second))
	room := seedRoom(t, db, "room 1", 1, "")

	if _, err := svc.Generate(ctx, testWeek); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ref := CellRef{Day: "mon", Slot: "am", Room: room.String()}
	view, err := svc.EditCell(ctx, testWeek, ref, bob.String())
	if err != nil {
		t.Fatalf("EditCell: %v", err)
	}
	got := view.Grid[roster.DayMonday][roster.SlotMorning][roster.RoomID(room.String())]
	if got != roster.TherapistID(bob.String()) {
		t.Errorf("cell holds %s, want bob", got)
	}
	if n := eventCount(t, db, model.EventTypeCellEdited); n != 1 {
		t.Errorf("edit events = %d, want 1", n)
	}

	// очистка ячейки
	view, err = svc.EditCell(ctx, testWeek, ref, "")
	if err != nil {
		t.Fatalf("clear cell: %v", err)
	}
	if got := view.Grid[roster.DayMonday][roster.SlotMorning][roster.RoomID(room.String())]; got != "" {
		t.Errorf("cell still holds %s after clearing", got)
	}
}

func TestRosterService_EditCellValidation(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	alice := seedTherapist(t, db, "alice", base)
	closed := seedRoom(t, db, "closed", 1, `[{"day":"mon","slot":"am"}]`)

	if _, err := svc.Generate(ctx, testWeek); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// кабинет закрыт в этот слот
	_, err := svc.EditCell(ctx, testWeek, CellRef{Day: "tue", Slot: "pm", Room: closed.String()}, alice.String())
	if !errors.Is(err, roster.ErrRoomClosed) {
		t.Fatalf("expected ErrRoomClosed, got %v", err)
	}

	// неизвестный терапевт
	_, err = svc.EditCell(ctx, testWeek, CellRef{Day: "mon", Slot: "am", Room: closed.String()}, uuid.NewString())
	if !errors.Is(err, ErrTherapistNotFound) {
		t.Fatalf("expected ErrTherapistNotFound, got %v", err)
	}

	// адрес вне формы календаря
	_, err = svc.EditCell(ctx, testWeek, CellRef{Day: "sun", Slot: "am", Room: closed.String()}, alice.String())
	if !errors.Is(err, roster.ErrCellOutsideCalendar) {
		t.Fatalf("expected ErrCellOutsideCalendar, got %v", err)
	}

	// неделя без ростера
	_, err = svc.EditCell(ctx, "2027-01-04", CellRef{Day: "mon", Slot: "am", Room: closed.String()}, alice.String())
	if !errors.Is(err, ErrRosterNotFound) {
		t.Fatalf("expected ErrRosterNotFound, got %v", err)
	}
}

func TestRosterService_MoveCell(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	room := seedRoom(t, db, "room 1", 1, "")

	if _, err := svc.Generate(ctx, testWeek); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	from := CellRef{Day: "mon", Slot: "am", Room: room.String()}
	to := CellRef{Day: "fri", Slot: "pm", Room: room.String()}

	before, err := svc.Current(ctx, testWeek)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	moved := before.Grid[roster.DayMonday][roster.SlotMorning][roster.RoomID(room.String())]
	if moved == "" {
		t.Fatal("source cell unexpectedly empty after generation")
	}

	view, err := svc.MoveCell(ctx, testWeek, from, to)
	if err != nil {
		t.Fatalf("MoveCell: %v", err)
	}
	if got := view.Grid[roster.DayMonday][roster.SlotMorning][roster.RoomID(room.String())]; got != "" {
		t.Errorf("source cell still holds %s", got)
	}
	if got := view.Grid[roster.DayFriday][roster.SlotAfternoon][roster.RoomID(room.String())]; got != moved {
		t.Errorf("destination holds %s, want %s", got, moved)
	}
	if n := eventCount(t, db, model.EventTypeCellMoved); n != 1 {
		t.Errorf("move events = %d, want 1", n)
	}

	// перенос из пустой ячейки
	_, err = svc.MoveCell(ctx, testWeek, from, to)
	if !errors.Is(err, roster.ErrSourceEmpty) {
		t.Fatalf("expected ErrSourceEmpty, got %v", err)
	}
}

func TestRosterService_Reset(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	seedTherapist(t, db, "bob", base.Add(time.Second))
	seedRoom(t, db, "room 1", 1, "")

	generated, err := svc.Generate(ctx, testWeek)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	view, err := svc.Reset(ctx, testWeek)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := countAssigned(view.Grid); got != 0 {
		t.Errorf("assigned cells after reset = %d, want 0", got)
	}
	// сброс сетки не откатывает ротацию
	if view.Cursor != generated.Cursor {
		t.Errorf("cursor after reset = %d, want %d", view.Cursor, generated.Cursor)
	}
	if n := eventCount(t, db, model.EventTypeRosterReset); n != 1 {
		t.Errorf("reset events = %d, want 1", n)
	}
}

func TestRosterService_CurrentWithoutRosters(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	seedRoom(t, db, "room 1", 1, "")

	view, err := svc.Current(ctx, "")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got := countAssigned(view.Grid); got != 0 {
		t.Errorf("assigned cells = %d, want 0", got)
	}
	if view.WeekStart == "" {
		t.Error("empty view must still carry a week")
	}

	// конкретная несохранённая неделя — ошибка
	if _, err := svc.Current(ctx, testWeek); !errors.Is(err, ErrRosterNotFound) {
		t.Fatalf("expected ErrRosterNotFound, got %v", err)
	}
}

func TestRosterService_WeekNormalizedToMonday(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	seedRoom(t, db, "room 1", 1, "")

	// среда той же недели
	view, err := svc.Generate(ctx, "2026-08-26")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if view.WeekStart != testWeek {
		t.Errorf("week = %s, want %s", view.WeekStart, testWeek)
	}

	if _, err := svc.Current(ctx, testWeek); err != nil {
		t.Fatalf("Current by monday: %v", err)
	}
}

func TestRosterService_Fairness(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	seedTherapist(t, db, "bob", base.Add(time.Second))
	seedRoom(t, db, "room 1", 1, "")
	seedRoom(t, db, "room 2", 2, "")

	if _, err := svc.Generate(ctx, testWeek); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	loads, err := svc.Fairness(ctx, testWeek)
	if err != nil {
		t.Fatalf("Fairness: %v", err)
	}
	if len(loads) != 2 {
		t.Fatalf("fairness entries = %d, want 2", len(loads))
	}

	total := 0
	for _, load := range loads {
		total += load.Total
		perRoom := 0
		for _, n := range load.PerRoom {
			perRoom += n
		}
		if perRoom != load.Total {
			t.Errorf("%s: per-room sum %d != total %d", load.DisplayName, perRoom, load.Total)
		}
	}
	// оба терапевта заняты во всех 20 ячейках
	if total != 20 {
		t.Errorf("total assignments = %d, want 20", total)
	}
}

func TestRosterService_RulesRoundTrip(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	alice := seedTherapist(t, db, "alice", base)

	blob := roster.RulesBlob{
		roster.TherapistID(alice.String()): {
			AvailableDays:        []roster.Day{roster.DayMonday},
			WFHDays:              []roster.Day{roster.DayFriday},
			AvailableSlots:       []roster.Slot{roster.SlotMorning},
			MaxConsecutivePerDay: 1,
		},
	}
	if err := svc.SaveRules(ctx, blob); err != nil {
		t.Fatalf("SaveRules: %v", err)
	}

	got, err := svc.Rules(ctx)
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	rule, ok := got[roster.TherapistID(alice.String())]
	if !ok {
		t.Fatal("alice rule missing after round trip")
	}
	if len(rule.AvailableDays) != 1 || rule.AvailableDays[0] != roster.DayMonday {
		t.Errorf("available days = %v, want [mon]", rule.AvailableDays)
	}
	if len(rule.WFHDays) != 1 || rule.WFHDays[0] != roster.DayFriday {
		t.Errorf("wfh days = %v, want [fri]", rule.WFHDays)
	}
	if rule.MaxConsecutivePerDay != 1 {
		t.Errorf("limit = %d, want 1", rule.MaxConsecutivePerDay)
	}
	if n := eventCount(t, db, model.EventTypeRulesUpdated); n != 1 {
		t.Errorf("rules events = %d, want 1", n)
	}

	// неизвестный терапевт отклоняется целиком
	bad := roster.RulesBlob{roster.TherapistID(uuid.NewString()): {}}
	if err := svc.SaveRules(ctx, bad); !errors.Is(err, ErrTherapistNotFound) {
		t.Fatalf("expected ErrTherapistNotFound, got %v", err)
	}
}

func TestRosterService_ListRosters(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	seedRoom(t, db, "room 1", 1, "")

	for _, week := range []string{"2026-08-10", "2026-08-17", testWeek} {
		if _, err := svc.Generate(ctx, week); err != nil {
			t.Fatalf("Generate %s: %v", week, err)
		}
	}

	page, err := svc.ListRosters(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListRosters: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	if !page.HasNext || page.HasPrev {
		t.Errorf("unexpected paging flags: %+v", page)
	}
	// свежие недели первыми
	if page.Items[0].WeekStart != testWeek {
		t.Errorf("first item = %s, want %s", page.Items[0].WeekStart, testWeek)
	}
	if page.Items[0].Assigned != 10 {
		t.Errorf("assigned = %d, want 10", page.Items[0].Assigned)
	}
}

func TestRosterService_ListEvents(t *testing.T) {
	db := openTestDB(t)
	svc := newRosterService(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedTherapist(t, db, "alice", base)
	seedRoom(t, db, "room 1", 1, "")

	if _, err := svc.Generate(ctx, testWeek); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := svc.Reset(ctx, testWeek); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	page, err := svc.ListEvents(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("total = %d, want 2", page.Total)
	}
	types := map[string]bool{}
	for _, ev := range page.Items {
		types[ev.Type] = true
	}
	if !types[string(model.EventTypeRosterGenerated)] || !types[string(model.EventTypeRosterReset)] {
		t.Errorf("unexpected event types: %v", types)
	}
}

package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Leganyst/roster-platform/internal/model"
	"github.com/Leganyst/roster-platform/internal/roster"
)

// RosterView — сетка недели в том виде, в котором она уходит наружу.
// Fairness заполняется только при генерации: это счётчики нагрузки
// самого прохода.
type RosterView struct {
	WeekStart string                   `json:"weekStart"`
	Grid      roster.GridBlob          `json:"grid"`
	Cursor    int                      `json:"cursor"`
	Fairness  map[string]TherapistLoad `json:"fairness,omitempty"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// RosterSummary — строка списка сохранённых недель.
type RosterSummary struct {
	WeekStart string    `json:"weekStart"`
	Assigned  int       `json:"assigned"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CellRef — адрес ячейки во внешних запросах.
type CellRef struct {
	Day  string `json:"day"`
	Slot string `json:"slot"`
	Room string `json:"room"`
}

func (c CellRef) cell() roster.Cell {
	return roster.Cell{
		Day:  roster.Day(c.Day),
		Slot: roster.Slot(c.Slot),
		Room: roster.RoomID(c.Room),
	}
}

// TherapistLoad — нагрузка одного терапевта в сводке справедливости.
type TherapistLoad struct {
	DisplayName string                `json:"displayName"`
	Total       int                   `json:"total"`
	PerRoom     map[roster.RoomID]int `json:"perRoom"`
}

// loadsFor раскладывает счётчики нагрузки по терапевтам справочника.
// Терапевты без назначений присутствуют с нулевыми счётчиками.
func loadsFor(therapists []model.Therapist, counters *roster.Counters) map[string]TherapistLoad {
	snapshot := counters.Snapshot()

	view := make(map[string]TherapistLoad, len(therapists))
	for i := range therapists {
		id := roster.TherapistID(therapists[i].ID.String())
		load := snapshot[id]
		if load.PerRoom == nil {
			load.PerRoom = map[roster.RoomID]int{}
		}
		view[string(id)] = TherapistLoad{
			DisplayName: therapists[i].DisplayName,
			Total:       load.Total,
			PerRoom:     load.PerRoom,
		}
		delete(snapshot, id)
	}
	// назначения терапевтов, выбывших из справочника, тоже показываем
	for id, load := range snapshot {
		view[string(id)] = TherapistLoad{Total: load.Total, PerRoom: load.PerRoom}
	}
	return view
}

// EventView — запись журнала аудита.
type EventView struct {
	Type        string    `json:"type"`
	RosterID    string    `json:"rosterId,omitempty"`
	TherapistID string    `json:"therapistId,omitempty"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func mapEvent(e *model.Event) EventView {
	v := EventView{
		Type:      string(e.EventType),
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}
	if e.RosterID != nil {
		v.RosterID = e.RosterID.String()
	}
	if e.TherapistID != nil {
		v.TherapistID = e.TherapistID.String()
	}
	return v
}

// TherapistView — терапевт справочника.
type TherapistView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Position    string `json:"position"`
	Active      bool   `json:"active"`
}

// RoomView — кабинет справочника вместе с временным окном.
type RoomView struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	SortOrder  int                   `json:"sortOrder"`
	Active     bool                  `json:"active"`
	TimeWindow roster.RoomTimeWindow `json:"timeWindow"`
}

func mapTherapist(t *model.Therapist) *TherapistView {
	if t == nil {
		return nil
	}
	return &TherapistView{
		ID:          t.ID.String(),
		DisplayName: t.DisplayName,
		Position:    t.Position,
		Active:      t.Active,
	}
}

func mapRoom(r *model.Room) (*RoomView, error) {
	if r == nil {
		return nil, nil
	}
	window, err := decodeWindow(r.TimeWindow)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", r.ID, err)
	}
	return &RoomView{
		ID:         r.ID.String(),
		Name:       r.Name,
		SortOrder:  r.SortOrder,
		Active:     r.Active,
		TimeWindow: window,
	}, nil
}

// decodeWindow читает временное окно из JSON-колонки.
// Пустая колонка и null означают окно без ограничений.
func decodeWindow(raw []byte) (roster.RoomTimeWindow, error) {
	if len(raw) == 0 {
		return roster.RoomTimeWindow{}, nil
	}
	var window roster.RoomTimeWindow
	if err := json.Unmarshal(raw, &window); err != nil {
		return nil, fmt.Errorf("time window: %w", err)
	}
	if window == nil {
		window = roster.RoomTimeWindow{}
	}
	return window, nil
}

package roster

import (
	"errors"
	"fmt"
)

// Ошибки ручных правок сетки.
var (
	ErrRoomClosed  = errors.New("room is not available at this day and slot")
	ErrSourceEmpty = errors.New("source cell is empty")
)

// ApplyCellEdit применяет одиночную ручную правку: назначает терапевта
// в ячейку либо очищает её (пустой идентификатор). Правка проверяется
// только на временное окно кабинета; персональные правила доступности
// на ручные правки не распространяются. Очистка не проверяется вовсе:
// окно ограничивает попадание в ячейку, а не выход из неё.
// Исходная сетка не меняется, возвращается новая.
func ApplyCellEdit(g *Grid, rc RoomConstraints, cell Cell, id TherapistID) (*Grid, error) {
	if !g.cal.Contains(cell) {
		return nil, fmt.Errorf("%w: %s", ErrCellOutsideCalendar, cell)
	}
	if id != "" && !rc.Allows(cell.Room, cell.Day, cell.Slot) {
		return nil, fmt.Errorf("%w: %s", ErrRoomClosed, cell)
	}

	next := g.Clone()
	if id == "" {
		delete(next.cells, cell)
	} else {
		next.cells[cell] = id
	}
	return next, nil
}

// ApplyCellMove переносит назначение из одной ячейки в другую как одну
// атомарную правку: очистка источника и запись приёмника происходят
// в одной новой сетке, промежуточное состояние не наблюдаемо снаружи.
// Занятый приёмник перезаписывается.
func ApplyCellMove(g *Grid, rc RoomConstraints, from, to Cell) (*Grid, error) {
	if !g.cal.Contains(from) {
		return nil, fmt.Errorf("%w: %s", ErrCellOutsideCalendar, from)
	}
	if !g.cal.Contains(to) {
		return nil, fmt.Errorf("%w: %s", ErrCellOutsideCalendar, to)
	}
	id, ok := g.Get(from)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceEmpty, from)
	}
	if !rc.Allows(to.Room, to.Day, to.Slot) {
		return nil, fmt.Errorf("%w: %s", ErrRoomClosed, to)
	}

	next := g.Clone()
	delete(next.cells, from)
	next.cells[to] = id
	return next, nil
}

package roster

import (
	"errors"
	"fmt"
)

// ErrCellOutsideCalendar — адрес ячейки не принадлежит форме календаря.
// Такая ошибка означает дефект вызывающего кода, а не плохие данные.
var ErrCellOutsideCalendar = errors.New("cell is outside the calendar shape")

// Grid — назначения одной недели. Для каждой ячейки формы календаря
// хранится не более одного терапевта. Пустые ячейки в карте не хранятся,
// но логически присутствуют: Get определён для любой ячейки формы.
type Grid struct {
	cal   Calendar
	cells map[Cell]TherapistID
}

// NewGrid создаёт полностью пустую сетку заданной формы.
func NewGrid(cal Calendar) *Grid {
	return &Grid{cal: cal, cells: make(map[Cell]TherapistID)}
}

// Calendar возвращает форму сетки.
func (g *Grid) Calendar() Calendar { return g.cal }

// Get возвращает назначение ячейки. Второй результат false, если ячейка
// пуста; для адреса вне формы календаря результат всегда пустой.
func (g *Grid) Get(c Cell) (TherapistID, bool) {
	id, ok := g.cells[c]
	return id, ok
}

// Set назначает терапевта в ячейку; пустой идентификатор очищает её.
func (g *Grid) Set(c Cell, id TherapistID) error {
	if !g.cal.Contains(c) {
		return fmt.Errorf("%w: %s", ErrCellOutsideCalendar, c)
	}
	if id == "" {
		delete(g.cells, c)
		return nil
	}
	g.cells[c] = id
	return nil
}

// Assigned возвращает число занятых ячеек.
func (g *Grid) Assigned() int { return len(g.cells) }

// Clone возвращает независимую копию сетки. Карта назначений плоская,
// поэтому копия не разделяет с оригиналом никаких структур.
func (g *Grid) Clone() *Grid {
	cells := make(map[Cell]TherapistID, len(g.cells))
	for c, id := range g.cells {
		cells[c] = id
	}
	return &Grid{cal: g.cal, cells: cells}
}

package roster

import (
	"errors"
	"fmt"
	"slices"
)

// Ошибки конфигурации календарной сетки.
var (
	ErrNoDays    = errors.New("calendar has no days")
	ErrSlotCount = errors.New("calendar must have exactly two slots")
	ErrNoRooms   = errors.New("calendar has no rooms")
	ErrDuplicate = errors.New("duplicate entry in calendar")
)

// День недели в сетке. Порядок дней задаётся календарём и определяет
// порядок обхода при генерации.
type Day string

const (
	DayMonday    Day = "mon"
	DayTuesday   Day = "tue"
	DayWednesday Day = "wed"
	DayThursday  Day = "thu"
	DayFriday    Day = "fri"
)

// Слот — половина рабочего дня. Слотов в календаре всегда ровно два:
// правило «подряд идущих слотов» определено именно для пары.
type Slot string

const (
	SlotMorning   Slot = "am"
	SlotAfternoon Slot = "pm"
)

// TherapistID — непрозрачный идентификатор терапевта.
// Пустая строка никогда не обозначает человека.
type TherapistID string

// RoomID — непрозрачный идентификатор кабинета.
type RoomID string

// Cell — адрес одной ячейки сетки: (день, слот, кабинет).
type Cell struct {
	Day  Day
	Slot Slot
	Room RoomID
}

// String — краткая форма адреса для сообщений об ошибках и журнала.
func (c Cell) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Day, c.Slot, c.Room)
}

// Calendar описывает форму недельной сетки: упорядоченные дни, ровно два
// слота и упорядоченный список кабинетов. Порядок кабинетов — видимая
// пользователю настройка, а не инвариант ядра.
type Calendar struct {
	Days  []Day
	Slots []Slot
	Rooms []RoomID
}

// DefaultCalendar возвращает календарь Пн–Пт с утренним и дневным слотами
// для переданного списка кабинетов.
func DefaultCalendar(rooms []RoomID) Calendar {
	return Calendar{
		Days:  []Day{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday},
		Slots: []Slot{SlotMorning, SlotAfternoon},
		Rooms: rooms,
	}
}

// Validate проверяет форму календаря: непустые дни и кабинеты,
// ровно два слота, без дубликатов.
func (c Calendar) Validate() error {
	if len(c.Days) == 0 {
		return ErrNoDays
	}
	if len(c.Slots) != 2 {
		return ErrSlotCount
	}
	if len(c.Rooms) == 0 {
		return ErrNoRooms
	}

	seenDays := make(map[Day]bool, len(c.Days))
	for _, d := range c.Days {
		if seenDays[d] {
			return fmt.Errorf("%w: day %q", ErrDuplicate, d)
		}
		seenDays[d] = true
	}
	if c.Slots[0] == c.Slots[1] {
		return fmt.Errorf("%w: slot %q", ErrDuplicate, c.Slots[0])
	}
	seenRooms := make(map[RoomID]bool, len(c.Rooms))
	for _, r := range c.Rooms {
		if seenRooms[r] {
			return fmt.Errorf("%w: room %q", ErrDuplicate, r)
		}
		seenRooms[r] = true
	}

	return nil
}

// Contains сообщает, принадлежит ли адрес ячейки форме календаря.
func (c Calendar) Contains(cell Cell) bool {
	return slices.Contains(c.Days, cell.Day) &&
		slices.Contains(c.Slots, cell.Slot) &&
		slices.Contains(c.Rooms, cell.Room)
}

// OtherSlot возвращает второй слот пары. Второй результат false,
// если слот календарю не принадлежит.
func (c Calendar) OtherSlot(s Slot) (Slot, bool) {
	if len(c.Slots) != 2 {
		return "", false
	}
	switch s {
	case c.Slots[0]:
		return c.Slots[1], true
	case c.Slots[1]:
		return c.Slots[0], true
	}
	return "", false
}

// Cells перечисляет все адреса ячеек в порядке обхода генератора:
// день, затем слот, затем кабинет.
func (c Calendar) Cells() []Cell {
	cells := make([]Cell, 0, len(c.Days)*len(c.Slots)*len(c.Rooms))
	for _, d := range c.Days {
		for _, s := range c.Slots {
			for _, r := range c.Rooms {
				cells = append(cells, Cell{Day: d, Slot: s, Room: r})
			}
		}
	}
	return cells
}

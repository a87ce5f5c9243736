package roster

import "slices"

// DaySlot — пара (день, слот), элемент временного окна кабинета.
type DaySlot struct {
	Day  Day  `json:"day"`
	Slot Slot `json:"slot"`
}

// RoomTimeWindow — белый список пар (день, слот), в которые кабинет
// вообще может использоваться. Пустое окно означает отсутствие
// ограничений: так же читаются и устаревшие данные без окна.
type RoomTimeWindow []DaySlot

// Contains сообщает, входит ли пара (день, слот) в окно.
func (w RoomTimeWindow) Contains(d Day, s Slot) bool {
	return slices.Contains(w, DaySlot{Day: d, Slot: s})
}

// RoomConstraints — временные окна по кабинетам.
// Кабинеты без записи не ограничены.
type RoomConstraints map[RoomID]RoomTimeWindow

// Allows сообщает, разрешена ли пара (день, слот) для кабинета.
// Ограничение кабинета не зависит от того, кого в него назначают:
// оно действует и на генерацию, и на ручные правки.
func (rc RoomConstraints) Allows(room RoomID, d Day, s Slot) bool {
	w, ok := rc[room]
	if !ok || len(w) == 0 {
		return true
	}
	return w.Contains(d, s)
}

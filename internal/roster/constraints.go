package roster

// dayOccupancy — занятость в пределах одного дня текущего прохода:
// какие слоты дня уже получил каждый терапевт.
type dayOccupancy map[TherapistID]map[Slot]bool

func (o dayOccupancy) occupies(id TherapistID, s Slot) bool {
	return o[id][s]
}

func (o dayOccupancy) occupy(id TherapistID, s Slot) {
	slots := o[id]
	if slots == nil {
		slots = make(map[Slot]bool, 2)
		o[id] = slots
	}
	slots[s] = true
}

// canAssign — жёсткие ограничения назначения. Проверки выполняются
// в фиксированном порядке, первая неудача отклоняет кандидата:
//  1. временное окно кабинета;
//  2. домашний день (перекрывает общую доступность);
//  3. доступность по дню и по слоту;
//  4. лимит «один слот в день» — второй слот той же пары занят;
//  5. этот же слот уже занят в другом кабинете.
func canAssign(cal Calendar, rc RoomConstraints, rule AvailabilityRule, id TherapistID, cell Cell, occ dayOccupancy) bool {
	if !rc.Allows(cell.Room, cell.Day, cell.Slot) {
		return false
	}
	if rule.WorksFromHome(cell.Day) {
		return false
	}
	if !rule.DayAvailable(cell.Day) || !rule.SlotAvailable(cell.Slot) {
		return false
	}
	if rule.MaxConsecutivePerDay == 1 {
		if other, ok := cal.OtherSlot(cell.Slot); ok && occ.occupies(id, other) {
			return false
		}
	}
	if occ.occupies(id, cell.Slot) {
		return false
	}
	return true
}

package roster

// Вес общего числа назначений в оценке кандидата. Выбран так, чтобы
// разница в одну смену всегда перевешивала любую разницу по кабинетам.
const totalWeight = 1000

// Generate строит полностью заполненную сетку с нуля за один проход
// по ячейкам: день, слот, кабинет. Для каждой ячейки кандидаты
// перебираются от курсора с одним оборотом по кругу, из подходящих
// выбирается терапевт с минимальной оценкой
//
//	total*totalWeight + perRoom[кабинет]
//
// при равенстве оценок побеждает встреченный раньше по порядку обхода.
// Курсор после назначения переходит на индекс выбранного терапевта.
//
// Функция тотальна и детерминирована: одинаковые входы дают одинаковый
// результат, незаполнимая ячейка остаётся пустой и ошибкой не считается.
// Курсор передаётся и возвращается явно: продолжать ли ротацию между
// запусками — решение вызывающей стороны.
func Generate(cal Calendar, therapists []TherapistID, rules RuleSet, rc RoomConstraints, startCursor int) (*Grid, *Counters, int) {
	grid := NewGrid(cal)
	counters := NewCounters()

	if len(therapists) == 0 {
		return grid, counters, 0
	}
	cursor := normalizeCursor(startCursor, len(therapists))

	for _, day := range cal.Days {
		// занятость отслеживается только внутри дня
		occ := dayOccupancy{}
		for _, slot := range cal.Slots {
			for _, room := range cal.Rooms {
				cell := Cell{Day: day, Slot: slot, Room: room}

				best := -1
				bestScore := 0
				for k := 0; k < len(therapists); k++ {
					idx := (cursor + k) % len(therapists)
					id := therapists[idx]
					rule := rules.For(id, cal)
					if !canAssign(cal, rc, rule, id, cell, occ) {
						continue
					}
					score := counters.Total(id)*totalWeight + counters.InRoom(id, room)
					if best == -1 || score < bestScore {
						best, bestScore = idx, score
					}
				}
				if best == -1 {
					continue
				}

				id := therapists[best]
				grid.cells[cell] = id
				counters.record(id, room)
				occ.occupy(id, slot)
				cursor = best
			}
		}
	}

	return grid, counters, cursor
}

// normalizeCursor приводит произвольное значение курсора к индексу
// в пределах списка терапевтов.
func normalizeCursor(cursor, n int) int {
	cursor %= n
	if cursor < 0 {
		cursor += n
	}
	return cursor
}

package roster

import "slices"

// GridBlob — сериализуемая форма сетки: день → слот → кабинет →
// идентификатор терапевта. Пустая ячейка хранится пустой строкой,
// набор ключей всегда повторяет форму календаря целиком.
type GridBlob map[Day]map[Slot]map[RoomID]TherapistID

// Blob приводит сетку к сериализуемой форме.
func (g *Grid) Blob() GridBlob {
	blob := make(GridBlob, len(g.cal.Days))
	for _, d := range g.cal.Days {
		daymap := make(map[Slot]map[RoomID]TherapistID, len(g.cal.Slots))
		for _, s := range g.cal.Slots {
			slotmap := make(map[RoomID]TherapistID, len(g.cal.Rooms))
			for _, r := range g.cal.Rooms {
				id, _ := g.Get(Cell{Day: d, Slot: s, Room: r})
				slotmap[r] = id
			}
			daymap[s] = slotmap
		}
		blob[d] = daymap
	}
	return blob
}

// GridFromBlob разворачивает сериализованную сетку в форму календаря.
// Отсутствующие ключи читаются как пустые ячейки, лишние отбрасываются:
// частичные и устаревшие данные — штатный вход, а не ошибка.
func GridFromBlob(cal Calendar, blob GridBlob) *Grid {
	g := NewGrid(cal)
	for _, cell := range cal.Cells() {
		if id := blob[cell.Day][cell.Slot][cell.Room]; id != "" {
			g.cells[cell] = id
		}
	}
	return g
}

// NormalizeBlob приводит внешний blob к форме календаря: совпадающие
// ключи переносятся, недостающие ячейки становятся пустыми, лишние
// ключи отбрасываются. Операция идемпотентна.
func NormalizeBlob(cal Calendar, blob GridBlob) GridBlob {
	return GridFromBlob(cal, blob).Blob()
}

// RuleBlob — сериализуемая форма одного правила доступности.
type RuleBlob struct {
	AvailableDays        []Day  `json:"availableDays"`
	WFHDays              []Day  `json:"wfhDays"`
	AvailableSlots       []Slot `json:"availableSlots"`
	MaxConsecutivePerDay int    `json:"maxConsecutivePerDay"`
}

// RulesBlob — правила по терапевтам в сериализуемой форме.
type RulesBlob map[TherapistID]RuleBlob

// RuleSet разворачивает blob в набор правил движка. Записи с пустым
// идентификатором отбрасываются, лимит слотов нормализуется.
// Отсутствующие списки (null в JSON) означают «без ограничений»
// и заполняются из календаря; пустой список — явное «никогда».
func (b RulesBlob) RuleSet(cal Calendar) RuleSet {
	rs := make(RuleSet, len(b))
	for id, rb := range b {
		if id == "" {
			continue
		}
		rule := AvailabilityRule{
			AvailableDays:        rb.AvailableDays,
			WFHDays:              rb.WFHDays,
			AvailableSlots:       rb.AvailableSlots,
			MaxConsecutivePerDay: rb.MaxConsecutivePerDay,
		}
		if rule.AvailableDays == nil {
			rule.AvailableDays = slices.Clone(cal.Days)
		}
		if rule.AvailableSlots == nil {
			rule.AvailableSlots = slices.Clone(cal.Slots)
		}
		rs[id] = rule.Normalized()
	}
	return rs
}

// Blob приводит набор правил к сериализуемой форме. Nil-списки
// заменяются пустыми, чтобы JSON содержал массивы, а не null.
func (rs RuleSet) Blob() RulesBlob {
	blob := make(RulesBlob, len(rs))
	for id, r := range rs {
		r = r.Normalized()
		blob[id] = RuleBlob{
			AvailableDays:        emptyIfNil(r.AvailableDays),
			WFHDays:              emptyIfNil(r.WFHDays),
			AvailableSlots:       emptyIfNil(r.AvailableSlots),
			MaxConsecutivePerDay: r.MaxConsecutivePerDay,
		}
	}
	return blob
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

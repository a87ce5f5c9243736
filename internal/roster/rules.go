package roster

import "slices"

// AvailabilityRule — персональные ограничения доступности терапевта.
// Дни WFH имеют приоритет над списком доступных дней: день, попавший
// в оба списка, трактуется как домашний.
type AvailabilityRule struct {
	AvailableDays  []Day
	WFHDays        []Day
	AvailableSlots []Slot

	// 1 или 2 слота в день; любые другие значения нормализуются к 2.
	MaxConsecutivePerDay int
}

// DefaultRule — правило «полностью доступен»: все дни календаря, оба слота,
// без домашних дней, до двух слотов в день. Применяется к терапевтам,
// у которых правило не настроено.
func DefaultRule(cal Calendar) AvailabilityRule {
	return AvailabilityRule{
		AvailableDays:        slices.Clone(cal.Days),
		AvailableSlots:       slices.Clone(cal.Slots),
		MaxConsecutivePerDay: 2,
	}
}

// Normalized возвращает правило с лимитом слотов, приведённым к 1 или 2.
func (r AvailabilityRule) Normalized() AvailabilityRule {
	if r.MaxConsecutivePerDay != 1 && r.MaxConsecutivePerDay != 2 {
		r.MaxConsecutivePerDay = 2
	}
	return r
}

// WorksFromHome — день объявлен домашним. Домашний день исключает
// любые назначения независимо от остальных списков.
func (r AvailabilityRule) WorksFromHome(d Day) bool {
	return slices.Contains(r.WFHDays, d)
}

// DayAvailable — день присутствует в списке доступных (без учёта WFH).
func (r AvailabilityRule) DayAvailable(d Day) bool {
	return slices.Contains(r.AvailableDays, d)
}

// SlotAvailable — слот присутствует в списке доступных.
func (r AvailabilityRule) SlotAvailable(s Slot) bool {
	return slices.Contains(r.AvailableSlots, s)
}

// RuleSet — правила доступности по терапевтам.
type RuleSet map[TherapistID]AvailabilityRule

// For возвращает правило терапевта либо правило по умолчанию, если оно
// не задано. Отсутствие правила — штатная ситуация, а не ошибка данных.
func (rs RuleSet) For(id TherapistID, cal Calendar) AvailabilityRule {
	if r, ok := rs[id]; ok {
		return r.Normalized()
	}
	return DefaultRule(cal)
}

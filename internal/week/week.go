package week

import (
	"errors"
	"fmt"
	"time"
)

// Layout — формат недели во внешних запросах и ответах.
const Layout = "2006-01-02"

var ErrBadFormat = errors.New("invalid week format")

// Monday возвращает понедельник недели, к которой относится дата.
// Время обнуляется, результат всегда в UTC.
func Monday(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// Current возвращает понедельник текущей недели.
func Current() time.Time {
	return Monday(time.Now().UTC())
}

// Parse разбирает дату в формате YYYY-MM-DD и нормализует её
// к понедельнику своей недели. Любой день недели указывает на ту же
// неделю, что и её понедельник.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadFormat, s)
	}
	return Monday(t), nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

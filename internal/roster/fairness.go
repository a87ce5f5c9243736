package roster

// Counters — счётчики справедливости: сколько назначений у каждого
// терапевта всего и в разрезе кабинетов. Генератор ведёт счётчики
// инкрементально по ходу прохода; после любых внешних правок сетки
// они пересчитываются заново через CountAssignments.
type Counters struct {
	totals  map[TherapistID]int
	perRoom map[TherapistID]map[RoomID]int
}

// NewCounters создаёт пустые счётчики.
func NewCounters() *Counters {
	return &Counters{
		totals:  make(map[TherapistID]int),
		perRoom: make(map[TherapistID]map[RoomID]int),
	}
}

// Total — общее число назначений терапевта за неделю.
func (c *Counters) Total(id TherapistID) int { return c.totals[id] }

// InRoom — число назначений терапевта в конкретный кабинет.
func (c *Counters) InRoom(id TherapistID, room RoomID) int {
	return c.perRoom[id][room]
}

// record фиксирует одно назначение.
func (c *Counters) record(id TherapistID, room RoomID) {
	c.totals[id]++
	rooms := c.perRoom[id]
	if rooms == nil {
		rooms = make(map[RoomID]int)
		c.perRoom[id] = rooms
	}
	rooms[room]++
}

// CountAssignments пересчитывает счётчики полным проходом по сетке.
// Результат зависит только от содержимого сетки, не от её истории.
func CountAssignments(g *Grid) *Counters {
	c := NewCounters()
	for _, cell := range g.cal.Cells() {
		if id, ok := g.Get(cell); ok {
			c.record(id, cell.Room)
		}
	}
	return c
}

// Load — снимок нагрузки одного терапевта для выдачи наружу.
type Load struct {
	Total   int            `json:"total"`
	PerRoom map[RoomID]int `json:"perRoom"`
}

// Snapshot возвращает счётчики в сериализуемой форме.
func (c *Counters) Snapshot() map[TherapistID]Load {
	out := make(map[TherapistID]Load, len(c.totals))
	for id, total := range c.totals {
		rooms := make(map[RoomID]int, len(c.perRoom[id]))
		for room, n := range c.perRoom[id] {
			rooms[room] = n
		}
		out[id] = Load{Total: total, PerRoom: rooms}
	}
	return out
}

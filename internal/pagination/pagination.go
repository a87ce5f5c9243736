package pagination

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T  `json:"items"`    // элементы на текущей странице
	Page     int  `json:"page"`     // номер страницы (с 1)
	PageSize int  `json:"pageSize"` // количество элементов на странице
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
	Total    int  `json:"total"` // общее количество элементов
}

const defaultPageSize = 20

// Normalize приводит номер страницы и размер к допустимым значениям
// и возвращает смещение для запроса в хранилище.
func Normalize(page, pageSize int) (p, size, offset int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize, (page - 1) * pageSize
}

// PageOf собирает страницу из уже отобранных хранилищем элементов
// и общего количества. page нумеруется с 1.
func PageOf[T any](items []T, page, pageSize, total int) Page[T] {
	page, pageSize, offset := Normalize(page, pageSize)

	if items == nil {
		items = []T{}
	}

	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  offset+len(items) < total,
		HasPrev:  page > 1,
		Total:    total,
	}
}

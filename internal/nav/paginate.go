package nav

// Размеры страниц каталога и списка слушателей.
const (
	CatalogPageSize = 12
	UserPageSize    = 10
)

// Pager: одна страница списка. Start/End: полуинтервал индексов [Start, End).
type Pager struct {
	Page  int
	Pages int
	Size  int
	Total int
	Start int
	End   int
}

// Paginate ограничивает номер страницы диапазоном [1, последняя].
// Пустой список: одна пустая страница.
func Paginate(total, size, page int) Pager {
	if size <= 0 {
		size = 1
	}
	if total < 0 {
		total = 0
	}
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	page = clampInt(page, 1, pages)
	start := (page - 1) * size
	end := min(start+size, total)
	return Pager{Page: page, Pages: pages, Size: size, Total: total, Start: start, End: end}
}

func (p Pager) HasPrev() bool { return p.Page > 1 }

func (p Pager) HasNext() bool { return p.Page < p.Pages }

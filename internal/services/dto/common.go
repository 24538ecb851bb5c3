package dto

// PaginationQuery - общие параметры списков (?page=&page_size=)
type PaginationQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type ListMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func NewListMeta(total int64, q PaginationQuery) ListMeta {
	page, size := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return ListMeta{Total: total, Page: page, PageSize: size}
}

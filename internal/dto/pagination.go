package dto

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationRequest 列表查询的分页参数（query string）
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 页码，缺省为 1
func (p *PaginationRequest) GetPage() int {
	return max(p.Page, 1)
}

// GetPageSize 每页条数，缺省 20，上限 100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	return min(p.PageSize, maxPageSize)
}

// GetOffset 数据库偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Package basemodels chứa các model dùng chung cho tầng API
package basemodels

// PaginateResult chứa kết quả phân trang
// Type Parameters:
//   - T: Kiểu dữ liệu của item
type PaginateResult[T any] struct {
	Items     []T   `json:"items" bson:"items"`         // Danh sách các item
	Page      int64 `json:"page" bson:"page"`           // Trang hiện tại
	Limit     int64 `json:"limit" bson:"limit"`         // Số lượng item trên một trang
	ItemCount int64 `json:"itemCount" bson:"itemCount"` // Số lượng item trả về thực tế
	Total     int64 `json:"total" bson:"total"`         // Tổng số item
	TotalPage int64 `json:"totalPage" bson:"totalPage"` // Tổng số trang
}

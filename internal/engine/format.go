package engine

import (
	"fmt"
	"strings"

	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/table"
	"github.com/rmadesk/rma-qa/internal/timefilter"
)

// UnknownIntentText answers questions no rule recognized.
const UnknownIntentText = "Không xác định được ý định từ câu hỏi."

// dimension describes a column the engine groups or filters by.
type dimension struct {
	label      string   // noun used in messages, e.g. "khách hàng"
	candidates []string // logical names tried in order
	action     string   // verb counted per row, e.g. "gửi"
	ranking    string   // ranked list heading
	best       string   // single-answer sentence format
}

var (
	customerDim = dimension{
		label:      "khách hàng",
		candidates: []string{"ten_khach_hang", "khach_hang", columns.Customer},
		action:     "gửi",
		ranking:    "khách hàng gửi nhiều nhất",
		best:       "Khách hàng gửi nhiều nhất là **%s** với tổng cộng %d lượt gửi.",
	}
	productDim = dimension{
		label:      "sản phẩm",
		candidates: []string{"san_pham", "model", "ten_san_pham", columns.Product},
		action:     "gửi",
		ranking:    "sản phẩm lỗi nhiều nhất",
		best:       "Sản phẩm lỗi nhiều nhất là **%s** với tổng cộng %d lượt gửi.",
	}
	technicianDim = dimension{
		label:      "kỹ thuật viên",
		candidates: []string{"ktv", "ten_ky_thuat_vien", columns.Technician},
		action:     "xử lý",
		ranking:    "kỹ thuật viên xử lý nhiều nhất",
		best:       "Kỹ thuật viên xử lý nhiều nhất là **%s** với tổng cộng %d lượt xử lý.",
	}
)

func (d dimension) notFound() string {
	return fmt.Sprintf("Không tìm thấy dữ liệu %s trong bảng.", d.label)
}

func (d dimension) superlative(c table.Count) string {
	return fmt.Sprintf(d.best, c.Value, c.Count)
}

// scope renders the entity and time qualifiers appended to headings,
// e.g. " của khách hàng **HP** trong năm 2024".
func scope(ref timefilter.Reference, filter *entityFilter) string {
	var b strings.Builder
	if filter != nil && filter.name != "" {
		fmt.Fprintf(&b, " của %s **%s**", filter.dim.label, filter.display())
	}
	if !ref.IsZero() {
		b.WriteString(" trong ")
		b.WriteString(ref.Describe())
	}
	return b.String()
}

// rankedText formats a numbered list:
//
//	Top 2 sản phẩm lỗi nhiều nhất trong năm 2024:
//	1. **X**: 2 lượt gửi
//	2. **Y**: 1 lượt gửi
func rankedText(dim dimension, top []table.Count, ref timefilter.Reference, filter *entityFilter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d %s%s:", len(top), dim.ranking, scope(ref, filter))
	for i, c := range top {
		fmt.Fprintf(&b, "\n%d. **%s**: %d lượt %s", i+1, c.Value, c.Count, dim.action)
	}
	return b.String()
}

func noDataText(dim dimension, ref timefilter.Reference, filter *entityFilter) string {
	return fmt.Sprintf("Không có dữ liệu %s phù hợp%s.", dim.label, scope(ref, filter))
}

func countText(ref timefilter.Reference, n int) string {
	if ref.IsZero() {
		return fmt.Sprintf("Tổng cộng có %d sản phẩm được nhận bảo hành.", n)
	}
	return fmt.Sprintf("Trong %s, đã có tổng cộng %d sản phẩm được nhận bảo hành.", ref.Describe(), n)
}

func customerCountText(ref timefilter.Reference, customer string, n int) string {
	if ref.IsZero() {
		return fmt.Sprintf("Khách hàng **%s** đã gửi tổng cộng %d sản phẩm bảo hành.", customer, n)
	}
	return fmt.Sprintf("Trong %s, khách hàng **%s** đã gửi tổng cộng %d sản phẩm bảo hành.", ref.Describe(), customer, n)
}

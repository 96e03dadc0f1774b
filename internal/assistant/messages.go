package assistant

// User-facing answer texts produced outside the engine.
const (
	// NoDataText answers when there are no rows to reason about.
	NoDataText = "Không có dữ liệu phù hợp để trả lời."

	// LLMErrorPrefix precedes the error of a failed fallback call.
	LLMErrorPrefix = "Lỗi khi gọi mô hình ngôn ngữ: "

	// RateLimitedText is shown when the caller's burst allowance is spent.
	// The argument is the wait in seconds.
	RateLimitedText = "Bạn đã hỏi quá nhiều câu cần mô hình ngôn ngữ. Vui lòng thử lại sau %d giây."

	// DailyLimitText is shown when the caller's daily allowance is spent.
	DailyLimitText = "Bạn đã dùng hết lượt hỏi mô hình ngôn ngữ trong hôm nay. Vui lòng thử lại vào ngày mai."

	// DatasetUnavailableText is the user message for a missing dataset.
	DatasetUnavailableText = "Dữ liệu bảo hành chưa được tải, vui lòng thử lại sau."
)

package stringutil

import "testing"

func TestCanonicalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Accented header", "Tên khách hàng", "ten khach hang"},
		{"Unaccented header", "ten khach hang", "ten khach hang"},
		{"Mixed case", "Tên KHÁCH Hàng", "ten khach hang"},
		{"Vietnamese d", "Đã sửa xong", "da sua xong"},
		{"Lower d", "đơn vị", "don vi"},
		{"Punctuation", "Ngày-tiếp  nhận (dd/mm)", "ngay tiep nhan dd mm"},
		{"Underscore kept", "ten_khach_hang", "ten_khach_hang"},
		{"Surrounding space", "  Quý  ", "quy"},
		{"Empty", "", ""},
		{"Only punctuation", "?!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Canonicalize(tt.input); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_DecomposedInput(t *testing.T) {
	t.Parallel()
	// "Khách" written with combining marks instead of precomposed runes.
	decomposed := "Kha\u0301ch ha\u0300ng"
	if got := Canonicalize(decomposed); got != "khach hang" {
		t.Errorf("Canonicalize(decomposed) = %q, want %q", got, "khach hang")
	}
}

func TestSnakeASCII(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  string
	}{
		{"Ngày tiếp nhận", "ngay_tiep_nhan"},
		{"Kỹ thuật viên", "ky_thuat_vien"},
		{"Năm", "nam"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SnakeASCII(tt.input); got != tt.want {
			t.Errorf("SnakeASCII(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContainsAny(t *testing.T) {
	t.Parallel()
	if !ContainsAny("ktv nào sửa nhiều", "kỹ thuật viên", "ktv") {
		t.Error("expected match on ktv")
	}
	if ContainsAny("khách hàng", "ktv") {
		t.Error("unexpected match")
	}
	if ContainsAny("anything") {
		t.Error("no candidates must not match")
	}
}

func TestCollapseSpace(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"  tổng số \t sản phẩm\n gửi ", "tổng số sản phẩm gửi"},
		{"đã gọn", "đã gọn"},
	}
	for _, tt := range tests {
		if got := CollapseSpace(tt.input); got != tt.want {
			t.Errorf("CollapseSpace(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package intent

import (
	"regexp"
	"testing"
)

func TestClassifier_DefaultRules(t *testing.T) {
	t.Parallel()
	c := NewClassifier(DefaultRules())

	tests := []struct {
		name         string
		question     string
		wantKind     Kind
		wantCustomer string
		wantProduct  string
	}{
		{"Product superlative", "Sản phẩm nào nhiều nhất?", TopProducts, "", ""},
		{"Product superlative without which", "sản phẩm nhiều nhất năm 2024", TopProducts, "", ""},
		{"Which product then many", "Sản phẩm gì bị lỗi nhiều trong tháng 5", TopProducts, "", ""},
		{
			"Named customer asks for products",
			"khách hàng Công ty A gửi nhiều sản phẩm nào nhất trong năm 2024?",
			TopProductsByCustomer, "công ty a", "",
		},
		{"Customer superlative", "khách hàng nào gửi nhiều nhất năm 2024", TopCustomers, "", ""},
		{"Customer with synonym", "Khách nào gởi bảo hành nhiều nhất?", TopCustomers, "", ""},
		{"Customer with bare warranty verb", "Khách hàng nào bảo hành nhiều nhất?", TopCustomers, "", ""},
		{
			"Count by named customer with warranty verb",
			"khách hàng Công ty A bảo hành bao nhiêu sản phẩm trong năm 2024",
			CountProductsByCustomer, "công ty a", "",
		},
		{"Customer many", "khách gửi nhiều là ai", TopCustomers, "", ""},
		{"Defective item", "loại nào hay bị hư", TopProducts, "", ""},
		{"Defective item send", "mặt hàng gì được gửi nhiều", TopProducts, "", ""},
		{"Product error keywords", "sản phẩm bị lỗi nhiều", TopProducts, "", ""},
		{"Customer products", "Công ty B gửi gì nhiều nhất", TopProductsByCustomer, "công ty b", ""},
		{"Customer products without name", "gửi gì nhiều nhất", TopProductsByCustomer, "", ""},
		{"Product customers", "ai gửi máy in nhiều nhất", TopCustomersByProduct, "", "máy in"},
		{"Product customers via khách", "khách nào gửi camera nhiều nhất", TopCustomersByProduct, "", "camera"},
		{"Product keyword shadows product customers", "ai gửi sản phẩm X nhiều nhất", TopProducts, "", ""},
		{"Technician short", "KTV nào xử lý nhiều nhất tháng 3", TopTechnicians, "", ""},
		{"Technician long", "kỹ thuật viên sửa nhiều nhất", TopTechnicians, "", ""},
		{"Count", "tổng số sản phẩm gửi trong tháng 3 năm 2023", CountProducts, "", ""},
		{"Count quarter", "có bao nhiêu sản phẩm được nhận trong quý II", CountProducts, "", ""},
		{
			"Count by named customer",
			"khách hàng Công ty A đã gửi bao nhiêu sản phẩm trong năm 2024",
			CountProductsByCustomer, "công ty a", "",
		},
		{"Count by leading word", "HP đã gửi bao nhiêu sản phẩm trong quý 2", CountProductsByCustomer, "hp", ""},
		{"Count needs time", "tổng số sản phẩm gửi", Unknown, "", ""},
		{"Product customers falls through", "ai gửi nhiều nhất?", Unknown, "", ""},
		{"Off topic", "hôm nay thời tiết thế nào?", Unknown, "", ""},
		{"Empty", "", Unknown, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(tt.question)
			if got.Kind != tt.wantKind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.question, got.Kind, tt.wantKind)
			}
			if got.Question != tt.question {
				t.Errorf("Question = %q, want original text", got.Question)
			}
			if got.Customer != tt.wantCustomer {
				t.Errorf("Customer = %q, want %q", got.Customer, tt.wantCustomer)
			}
			if got.Product != tt.wantProduct {
				t.Errorf("Product = %q, want %q", got.Product, tt.wantProduct)
			}
		})
	}
}

func TestClassifier_CustomerSendsManyIsTopCustomers(t *testing.T) {
	t.Parallel()
	c := NewClassifier(DefaultRules())

	questions := []string{
		"khách gửi nhiều nhất",
		"khách hàng nào gửi nhiều trong tháng 4",
		"trong năm 2023 khách nào gửi nhiều",
		"cho tôi biết khách hàng gửi nhiều",
	}
	for _, q := range questions {
		in, rule := c.ClassifyRule(q)
		if in.Kind != TopCustomers {
			t.Errorf("Classify(%q) = %v via %q, want top_customers", q, in.Kind, rule)
		}
	}
}

func TestClassifier_PriorityOrder(t *testing.T) {
	t.Parallel()
	rules := []Rule{
		{Name: "late", Priority: 20, Pattern: regexp.MustCompile(`x`), Build: of(TopCustomers)},
		{Name: "early", Priority: 10, Pattern: regexp.MustCompile(`x`), Build: of(TopProducts)},
		{
			Name:     "declines",
			Priority: 5,
			Match:    func(string) bool { return true },
			Build:    func(Query) (Intent, bool) { return Intent{}, false },
		},
	}
	c := NewClassifier(rules)

	in, rule := c.ClassifyRule("x")
	if in.Kind != TopProducts || rule != "early" {
		t.Errorf("ClassifyRule() = %v via %q, want top_products via early", in.Kind, rule)
	}

	want := []string{"declines", "early", "late"}
	got := c.RuleNames()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RuleNames() = %v, want %v", got, want)
		}
	}
	if rules[0].Name != "late" {
		t.Error("NewClassifier must not reorder the caller's slice")
	}
}

func TestDefaultRules_Order(t *testing.T) {
	t.Parallel()
	want := []string{
		"TopProductsSuperlative",
		"TopProductsWhich",
		"NamedCustomerProducts",
		"TopCustomers",
		"TopProductsWhat",
		"DefectiveItem",
		"ProductKeywords",
		"CustomerProducts",
		"ProductCustomers",
		"Technicians",
		"CountProducts",
	}
	got := NewClassifier(DefaultRules()).RuleNames()
	if len(got) != len(want) {
		t.Fatalf("RuleNames() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rule %d = %q, want %q", i, got[i], want[i])
		}
	}
}

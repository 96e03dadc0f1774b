package intent

import "fmt"

// Kind identifies what a question asks for.
type Kind int

// Known kinds. Unknown is the zero value and routes the question to the LLM.
const (
	Unknown Kind = iota
	TopCustomers
	TopProducts
	TopProductsByCustomer
	TopCustomersByProduct
	TopTechnicians
	CountProducts
	CountProductsByCustomer
)

var kindNames = [...]string{
	Unknown:                 "unknown",
	TopCustomers:            "top_customers",
	TopProducts:             "top_products",
	TopProductsByCustomer:   "top_products_by_customer",
	TopCustomersByProduct:   "top_customers_by_product",
	TopTechnicians:          "top_ktv",
	CountProducts:           "count_product",
	CountProductsByCustomer: "count_product_by_customer",
}

// String returns the wire name of the kind, e.g. "top_customers".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given wire name.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return Unknown, false
}

// AllKinds lists every kind, Unknown first.
func AllKinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kindNames {
		kinds[i] = Kind(i)
	}
	return kinds
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown intent kind %q", string(b))
	}
	*k = parsed
	return nil
}

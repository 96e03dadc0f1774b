// Package intent classifies a Vietnamese RMA question into one of a fixed
// set of intents using an ordered list of keyword and regex rules, and pulls
// customer and product names out of the question.
package intent

// Param keys returned by Intent.Params.
const (
	ParamQuestion = "question"
	ParamCustomer = "customer"
	ParamProduct  = "product"
)

// Intent is a classified question. Customer and Product are set only by
// the kinds that carry them and may be empty when extraction failed.
type Intent struct {
	Kind     Kind
	Question string
	Customer string
	Product  string
}

// Params returns the intent parameters: always the original question, plus
// the extracted entity name for entity-bearing kinds.
func (in Intent) Params() map[string]string {
	params := map[string]string{ParamQuestion: in.Question}
	if in.Customer != "" {
		params[ParamCustomer] = in.Customer
	}
	if in.Product != "" {
		params[ParamProduct] = in.Product
	}
	return params
}

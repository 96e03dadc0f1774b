// Command verify checks the rule table, the intent catalog and the column
// aliases for consistency. It exits non-zero when any check fails, so it can
// gate a release after rule or alias edits.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/intent"
	"github.com/rmadesk/rma-qa/internal/stringutil"
)

type verifyResult struct {
	name    string
	passed  bool
	message string
}

// probes are questions whose classification must not drift.
var probes = []struct {
	question string
	want     intent.Kind
}{
	{"Sản phẩm nào nhiều nhất?", intent.TopProducts},
	{"khách hàng Công ty A gửi nhiều sản phẩm nào nhất trong năm 2024?", intent.TopProductsByCustomer},
	{"khách hàng nào gửi nhiều nhất năm 2024", intent.TopCustomers},
	{"loại nào hay bị hư", intent.TopProducts},
	{"Công ty B gửi gì nhiều nhất", intent.TopProductsByCustomer},
	{"ai gửi máy in nhiều nhất", intent.TopCustomersByProduct},
	{"KTV nào xử lý nhiều nhất tháng 3", intent.TopTechnicians},
	{"tổng số sản phẩm gửi trong tháng 3 năm 2023", intent.CountProducts},
	{"khách hàng Công ty A đã gửi bao nhiêu sản phẩm trong năm 2024", intent.CountProductsByCustomer},
	{"hôm nay thời tiết thế nào?", intent.Unknown},
}

func main() {
	aliasFile := flag.String("aliases", "", "optional YAML alias override file to verify")
	flag.Parse()

	fmt.Println("🔍 RMA QA - Rule and Alias Verification")
	fmt.Println("=======================================")

	var results []verifyResult
	results = append(results, verifyRuleOrder()...)
	results = append(results, verifyProbes()...)
	results = append(results, verifyKindNames()...)
	results = append(results, verifyAliases(*aliasFile)...)

	fmt.Println("\n📊 Verification Results:")
	fmt.Println("========================")

	passed, failed := 0, 0
	for _, r := range results {
		status := "❌"
		if r.passed {
			status = "✅"
			passed++
		} else {
			failed++
		}
		fmt.Printf("%s %s: %s\n", status, r.name, r.message)
	}

	fmt.Printf("\n📈 Summary: %d passed, %d failed\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// verifyRuleOrder checks rule names are unique and priorities strictly increase.
func verifyRuleOrder() []verifyResult {
	rules := intent.DefaultRules()
	seen := make(map[string]bool, len(rules))
	var dupes []string
	ordered := true
	for i, r := range rules {
		if seen[r.Name] {
			dupes = append(dupes, r.Name)
		}
		seen[r.Name] = true
		if i > 0 && rules[i-1].Priority >= r.Priority {
			ordered = false
		}
	}

	// The classifier sorts by priority; it must agree with the declared order.
	sorted := intent.NewClassifier(rules).RuleNames()
	declared := make([]string, len(rules))
	for i, r := range rules {
		declared[i] = r.Name
	}

	return []verifyResult{
		{
			name:    "Classifier Order Matches Declaration",
			passed:  slices.Equal(sorted, declared),
			message: fmt.Sprintf("%v", sorted),
		},
		{
			name:    "Rule Names Unique",
			passed:  len(dupes) == 0,
			message: fmt.Sprintf("%d rules, duplicates: %v", len(rules), dupes),
		},
		{
			name:    "Rule Priorities Increasing",
			passed:  ordered,
			message: fmt.Sprintf("%d rules checked", len(rules)),
		},
	}
}

// verifyProbes classifies every probe question.
func verifyProbes() []verifyResult {
	c := intent.NewClassifier(intent.DefaultRules())
	var results []verifyResult
	for _, p := range probes {
		got, rule := c.ClassifyRule(p.question)
		results = append(results, verifyResult{
			name:    "Probe " + p.want.String(),
			passed:  got.Kind == p.want,
			message: fmt.Sprintf("%q -> %s (rule %q)", p.question, got.Kind, rule),
		})
	}
	return results
}

// verifyKindNames checks every intent name parses back to its kind.
func verifyKindNames() []verifyResult {
	var broken []string
	for _, k := range intent.AllKinds() {
		parsed, ok := intent.ParseKind(k.String())
		if !ok || parsed != k {
			broken = append(broken, k.String())
		}
	}
	return []verifyResult{{
		name:    "Intent Names Round Trip",
		passed:  len(broken) == 0,
		message: fmt.Sprintf("%d kinds, broken: %v", len(intent.AllKinds()), broken),
	}}
}

// verifyAliases checks no alias resolves to two different logical columns.
func verifyAliases(path string) []verifyResult {
	aliases, err := columns.LoadAliases(path)
	if err != nil {
		return []verifyResult{{name: "Alias File", passed: false, message: err.Error()}}
	}

	owner := make(map[string]string)
	var conflicts []string
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, alias := range aliases[name] {
			k := stringutil.Canonicalize(alias)
			if prev, ok := owner[k]; ok && prev != name {
				conflicts = append(conflicts, fmt.Sprintf("%q (%s, %s)", alias, prev, name))
				continue
			}
			owner[k] = name
		}
	}

	source := "built-in"
	if path != "" {
		source = path
	}
	return []verifyResult{{
		name:    "Aliases Unambiguous",
		passed:  len(conflicts) == 0,
		message: fmt.Sprintf("%s: %d columns, conflicts: %v", source, len(aliases), conflicts),
	}}
}

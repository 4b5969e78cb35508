package analysis

import (
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/mdunlap/budget-analyzer/pkg/constants"
	"github.com/mdunlap/budget-analyzer/pkg/ledger"
	"github.com/mdunlap/budget-analyzer/pkg/period"
	"github.com/mdunlap/budget-analyzer/pkg/rules"
	"github.com/shopspring/decimal"
)

// stubParser replays a canned record set per ingested period.
type stubParser struct {
	byPeriod map[string][]ledger.Record
	cursor   []string
}

func (p *stubParser) Parse(io.Reader) ([]ledger.Record, error) {
	key := p.cursor[0]
	p.cursor = p.cursor[1:]
	return p.byPeriod[key], nil
}

func (p *stubParser) Exclude(ledger.Record) bool { return false }

func txn(location string, amount string) ledger.Record {
	return ledger.Record{Location: location, Amount: decimal.RequireFromString(amount)}
}

func buildLedger(t *testing.T, label string, data map[string][]ledger.Record) *ledger.Ledger {
	t.Helper()
	parser := &stubParser{byPeriod: data}
	l := ledger.NewLedger(label, parser)

	var keys []string
	for key := range data {
		keys = append(keys, key)
	}
	var periods []period.Period
	for _, key := range keys {
		p, err := period.Parse(key)
		if err != nil {
			t.Fatalf("bad period key %q: %v", key, err)
		}
		periods = append(periods, p)
	}
	period.SortAscending(periods)
	for _, p := range periods {
		parser.cursor = append(parser.cursor, p.String())
		if err := l.Ingest(p, strings.NewReader("")); err != nil {
			t.Fatalf("Ingest(%s) unexpected error: %v", p, err)
		}
	}
	return l
}

func testRules(t *testing.T) *rules.Set {
	t.Helper()
	set, err := rules.Parse(strings.NewReader(
		"groceries\t400.00\tMART\n" +
			"online\t200.00\tWAL\n" +
			"fuel\t0\tSHELL\n"))
	if err != nil {
		t.Fatalf("rules.Parse() unexpected error: %v", err)
	}
	return set
}

func cell(t *testing.T, m *Matrix, periodKey, category string) decimal.Decimal {
	t.Helper()
	p, err := period.Parse(periodKey)
	if err != nil {
		t.Fatalf("bad period key %q: %v", periodKey, err)
	}
	row, ok := m.Cells[p]
	if !ok {
		t.Fatalf("matrix has no row for period %s", periodKey)
	}
	amount, ok := row[category]
	if !ok {
		t.Fatalf("matrix row %s has no category %q", periodKey, category)
	}
	return amount
}

func periodStrings(periods []period.Period) []string {
	var out []string
	for _, p := range periods {
		out = append(out, p.String())
	}
	return out
}

// john has Jan-Mar 2023, michael has Feb-Apr 2023. Intersection mode must
// keep Feb-Mar; union mode must keep Jan-Apr with the absent account
// contributing zero.
func TestPeriodDomain(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": {txn("SHELL OIL", "40.00")},
		"2023-02": {txn("SHELL OIL", "45.00")},
		"2023-03": {txn("SHELL OIL", "50.00")},
	})
	michael := buildLedger(t, "michael", map[string][]ledger.Record{
		"2023-02": {txn("MARTIN GROCERY", "100.00")},
		"2023-03": {txn("MARTIN GROCERY", "110.00")},
		"2023-04": {txn("MARTIN GROCERY", "120.00")},
	})

	tests := []struct {
		name      string
		intersect bool
		expected  []string
	}{
		{
			name:      "Intersection mode",
			intersect: true,
			expected:  []string{"2023-02", "2023-03"},
		},
		{
			name:      "Union mode",
			intersect: false,
			expected:  []string{"2023-01", "2023-02", "2023-03", "2023-04"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer, err := NewAnalyzer("household", decimal.Zero, testRules(t), tt.intersect,
				[]*ledger.Ledger{john, michael}, nil)
			if err != nil {
				t.Fatalf("NewAnalyzer() unexpected error: %v", err)
			}
			m := analyzer.Build()
			if got := periodStrings(m.Periods); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Periods = %v, expected %v", got, tt.expected)
			}

			if !tt.intersect {
				// Michael contributes zero in Jan; the total is John's alone.
				if got := cell(t, m, "2023-01", constants.CategoryTotal); !got.Equal(decimal.RequireFromString("40.00")) {
					t.Errorf("Jan total = %s, expected 40.00", got)
				}
				if got := cell(t, m, "2023-04", "fuel"); !got.IsZero() {
					t.Errorf("Apr fuel = %s, expected 0", got)
				}
			}
		})
	}
}

// Intersection mode's period set must be a subset of union mode's.
func TestIntersectionSubsetOfUnion(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": nil, "2023-02": nil, "2023-03": nil,
	})
	michael := buildLedger(t, "michael", map[string][]ledger.Record{
		"2023-03": nil, "2023-05": nil,
	})

	build := func(intersect bool) *Matrix {
		analyzer, err := NewAnalyzer("household", decimal.Zero, testRules(t), intersect,
			[]*ledger.Ledger{john, michael}, nil)
		if err != nil {
			t.Fatalf("NewAnalyzer() unexpected error: %v", err)
		}
		return analyzer.Build()
	}

	union := make(map[period.Period]bool)
	for _, p := range build(false).Periods {
		union[p] = true
	}
	for _, p := range build(true).Periods {
		if !union[p] {
			t.Errorf("intersection period %s missing from union", p)
		}
	}
}

func TestCollisionDoubleCounts(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": {
			txn("WALMART #123", "52.10"),
			txn("SHELL OIL", "41.00"),
		},
	})

	analyzer, err := NewAnalyzer("household", decimal.Zero, testRules(t), true,
		[]*ledger.Ledger{john}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() unexpected error: %v", err)
	}
	m := analyzer.Build()

	// WALMART matches both groceries (MART) and online (WAL): the amount is
	// counted toward both categories.
	if got := cell(t, m, "2023-01", "groceries"); !got.Equal(decimal.RequireFromString("52.10")) {
		t.Errorf("groceries = %s, expected 52.10", got)
	}
	if got := cell(t, m, "2023-01", "online"); !got.Equal(decimal.RequireFromString("52.10")) {
		t.Errorf("online = %s, expected 52.10", got)
	}
	// The total is classification-independent: counted once.
	if got := cell(t, m, "2023-01", constants.CategoryTotal); !got.Equal(decimal.RequireFromString("93.10")) {
		t.Errorf("total = %s, expected 93.10", got)
	}

	if len(m.Collisions) != 1 {
		t.Fatalf("got %d collisions, expected 1", len(m.Collisions))
	}
	collision := m.Collisions[0]
	if collision.Location != "WALMART #123" {
		t.Errorf("collision location = %q, expected WALMART #123", collision.Location)
	}
	if !reflect.DeepEqual(collision.Categories, []string{"groceries", "online"}) {
		t.Errorf("collision categories = %v, expected [groceries online]", collision.Categories)
	}
}

func TestUncategorized(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": {
			txn("CORNER DINER", "18.25"),
			txn("CORNER DINER", "22.00"),
			txn("SHELL OIL", "41.00"),
		},
	})

	analyzer, err := NewAnalyzer("household", decimal.Zero, testRules(t), true,
		[]*ledger.Ledger{john}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() unexpected error: %v", err)
	}
	m := analyzer.Build()

	if got := cell(t, m, "2023-01", constants.CategoryUncategorized); !got.Equal(decimal.RequireFromString("40.25")) {
		t.Errorf("uncategorized cell = %s, expected 40.25", got)
	}
	if got := m.Uncategorized["CORNER DINER"]; !got.Equal(decimal.RequireFromString("40.25")) {
		t.Errorf("uncategorized bucket = %s, expected 40.25", got)
	}
	// Uncategorized amounts still count toward the total.
	if got := cell(t, m, "2023-01", constants.CategoryTotal); !got.Equal(decimal.RequireFromString("81.25")) {
		t.Errorf("total = %s, expected 81.25", got)
	}
	if len(m.Collisions) != 0 {
		t.Errorf("got %d collisions, expected none", len(m.Collisions))
	}
}

// Without collisions, per-category contributions (including uncategorized)
// must sum to the period total.
func TestCategorySumEqualsTotal(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": {
			txn("MARTIN GROCERY", "100.00"),
			txn("SHELL OIL", "41.00"),
			txn("CORNER DINER", "18.25"),
		},
	})

	analyzer, err := NewAnalyzer("household", decimal.Zero, testRules(t), true,
		[]*ledger.Ledger{john}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() unexpected error: %v", err)
	}
	m := analyzer.Build()

	sum := decimal.Zero
	for _, category := range m.Categories {
		if category == constants.CategoryTotal {
			continue
		}
		sum = sum.Add(cell(t, m, "2023-01", category))
	}
	if total := cell(t, m, "2023-01", constants.CategoryTotal); !sum.Equal(total) {
		t.Errorf("category sum = %s, total = %s", sum, total)
	}
}

func TestBudgetEvaluation(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": {
			txn("MARTIN GROCERY", "450.00"), // over the 400 groceries limit
			txn("SHELL OIL", "900.00"),      // fuel has no limit
		},
		"2023-02": {
			txn("MARTIN GROCERY", "100.00"),
		},
	})

	analyzer, err := NewAnalyzer("household", decimal.NewFromInt(1000), testRules(t), true,
		[]*ledger.Ledger{john}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() unexpected error: %v", err)
	}
	m := analyzer.Build()

	if len(m.OverLimit) != 2 {
		t.Fatalf("got %d over-limit entries, expected 2: %+v", len(m.OverLimit), m.OverLimit)
	}
	if m.OverLimit[0].Category != "groceries" || m.OverLimit[0].Period.String() != "2023-01" {
		t.Errorf("OverLimit[0] = %+v, expected groceries in 2023-01", m.OverLimit[0])
	}
	if m.OverLimit[1].Category != constants.CategoryTotal {
		t.Errorf("OverLimit[1] = %+v, expected the period total", m.OverLimit[1])
	}
	if !m.OverLimit[1].Amount.Equal(decimal.RequireFromString("1350.00")) {
		t.Errorf("total over-limit amount = %s, expected 1350.00", m.OverLimit[1].Amount)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": {
			txn("WALMART #123", "52.10"),
			txn("CORNER DINER", "18.25"),
		},
		"2023-02": {
			txn("MARTIN GROCERY", "450.00"),
		},
	})

	analyzer, err := NewAnalyzer("household", decimal.NewFromInt(1000), testRules(t), true,
		[]*ledger.Ledger{john}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() unexpected error: %v", err)
	}

	first := analyzer.Build()
	second := analyzer.Build()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rebuild produced a different matrix")
	}
}

func TestPerAccountCells(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{
		"2023-01": {txn("SHELL OIL", "40.00")},
	})
	michael := buildLedger(t, "michael", map[string][]ledger.Record{
		"2023-01": {txn("SHELL OIL", "60.00")},
	})

	analyzer, err := NewAnalyzer("household", decimal.Zero, testRules(t), true,
		[]*ledger.Ledger{john, michael}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() unexpected error: %v", err)
	}
	m := analyzer.Build()

	p, _ := period.Parse("2023-01")
	if got := m.AccountCells["john"][p]["fuel"]; !got.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("john fuel = %s, expected 40.00", got)
	}
	if got := m.AccountCells["michael"][p]["fuel"]; !got.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("michael fuel = %s, expected 60.00", got)
	}
	if got := cell(t, m, "2023-01", "fuel"); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("combined fuel = %s, expected 100.00", got)
	}
}

func TestNewAnalyzerErrors(t *testing.T) {
	john := buildLedger(t, "john", map[string][]ledger.Record{"2023-01": nil})

	if _, err := NewAnalyzer("empty", decimal.Zero, testRules(t), true, nil, nil); err == nil {
		t.Errorf("NewAnalyzer() expected error for zero accounts")
	}
	if _, err := NewAnalyzer("norules", decimal.Zero, nil, true, []*ledger.Ledger{john}, nil); err == nil {
		t.Errorf("NewAnalyzer() expected error for nil rule set")
	}
	dup := buildLedger(t, "john", map[string][]ledger.Record{"2023-01": nil})
	if _, err := NewAnalyzer("dup", decimal.Zero, testRules(t), true, []*ledger.Ledger{john, dup}, nil); err == nil {
		t.Errorf("NewAnalyzer() expected error for duplicate account labels")
	}
}

package analysis

import (
	"fmt"

	"github.com/mdunlap/budget-analyzer/internal/audit"
	"github.com/mdunlap/budget-analyzer/internal/config"
	"github.com/mdunlap/budget-analyzer/pkg/institution"
	"github.com/mdunlap/budget-analyzer/pkg/ledger"
	"github.com/mdunlap/budget-analyzer/pkg/period"
	"github.com/mdunlap/budget-analyzer/pkg/rules"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Result is the full outcome of one analysis run: every analyzer's matrix
// snapshot plus the gap audit over all configured accounts. It is read-only;
// a fresh Run is required to pick up config or data edits.
type Result struct {
	Matrices []*Matrix
	Gaps     map[string][]period.Period
}

// Run loads every configured account, audits all of them for missing
// periods, and builds each configured analyzer's expense matrix. Structural
// errors (naming convention violations, duplicate periods, bad rules files)
// abort the run; classification findings are returned as data inside the
// matrices.
func Run(logger *zap.Logger, conf *config.Configuration) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ledgers := make(map[string]*ledger.Ledger, len(conf.Accounts))
	ordered := make([]*ledger.Ledger, 0, len(conf.Accounts))
	for _, account := range conf.Accounts {
		if _, ok := ledgers[account.Label]; ok {
			return nil, fmt.Errorf("account %q is defined more than once", account.Label)
		}
		parser, err := buildParser(account)
		if err != nil {
			return nil, err
		}

		l := ledger.NewLedger(account.Label, parser)
		if err := l.LoadDirectory(account.DataDir); err != nil {
			return nil, err
		}
		logger.Info("loaded account",
			zap.String("op", "analysis.Run"),
			zap.String("account", account.Label),
			zap.Int("periods", len(l.Periods())),
		)

		ledgers[account.Label] = l
		ordered = append(ordered, l)
	}

	result := &Result{Gaps: audit.Audit(ordered)}
	for _, l := range ordered {
		if gaps, ok := result.Gaps[l.Label()]; ok {
			logger.Warn("account is missing periods",
				zap.String("op", "analysis.Run"),
				zap.String("account", l.Label()),
				zap.Int("missing", len(gaps)),
			)
		}
	}

	for _, analyzerConf := range conf.Analyzers {
		set, err := rules.Load(analyzerConf.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("analyzer %q: %w", analyzerConf.Label, err)
		}

		members := make([]*ledger.Ledger, 0, len(analyzerConf.Accounts))
		for _, label := range analyzerConf.Accounts {
			l, ok := ledgers[label]
			if !ok {
				return nil, fmt.Errorf("analyzer %q references unknown account %q", analyzerConf.Label, label)
			}
			members = append(members, l)
		}

		analyzer, err := NewAnalyzer(
			analyzerConf.Label,
			decimal.NewFromFloat(analyzerConf.TargetTotalLimit),
			set,
			analyzerConf.IntersectDates,
			members,
			logger,
		)
		if err != nil {
			return nil, err
		}

		matrix := analyzer.Build()
		logger.Info("built expense matrix",
			zap.String("op", "analysis.Run"),
			zap.String("analyzer", analyzerConf.Label),
			zap.Int("periods", len(matrix.Periods)),
			zap.Int("collisions", len(matrix.Collisions)),
			zap.Int("uncategorized", len(matrix.Uncategorized)),
		)
		result.Matrices = append(result.Matrices, matrix)
	}

	return result, nil
}

// buildParser constructs the statement parser for one account's institution.
func buildParser(account config.AccountConfig) (ledger.StatementParser, error) {
	switch account.Parser {
	case "", config.ParserCSV:
		parser, err := institution.NewCSVParser(institution.CSVLayout{
			DateColumn:     account.CSV.DateColumn,
			AmountColumn:   account.CSV.AmountColumn,
			LocationColumn: account.CSV.LocationColumn,
			SkipHeader:     account.CSV.SkipHeader,
			NegateAmounts:  account.CSV.NegateAmounts,
		}, account.Exclude)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", account.Label, err)
		}
		return parser, nil
	default:
		return nil, fmt.Errorf("account %q: unknown parser %q", account.Label, account.Parser)
	}
}

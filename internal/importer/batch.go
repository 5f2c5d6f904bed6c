package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/cleared-dev/backoffice/internal/catalog"
	"github.com/cleared-dev/backoffice/internal/id"
	"github.com/cleared-dev/backoffice/internal/logging"
	"github.com/cleared-dev/backoffice/internal/model"
	"github.com/cleared-dev/backoffice/internal/normalize"
)

// Source supplies the reference data and stored external IDs for a run.
type Source interface {
	ReferenceData(ctx context.Context) (model.ReferenceData, error)
	ExternalIDs(ctx context.Context, kind model.Kind) ([]string, error)
}

// Creator persists one record and returns its store ID.
type Creator interface {
	CreateRecord(ctx context.Context, rec model.Record) (int64, error)
}

// Store is what the importer needs from the record store.
type Store interface {
	Source
	Creator
}

// Options tune an Importer.
type Options struct {
	// SubmitRate caps record submissions per second. Zero means unlimited.
	SubmitRate float64
	// Strategies overrides the account-name matching strategies.
	Strategies []normalize.Strategy
}

// Importer validates rows and submits the valid ones, one at a time.
type Importer struct {
	store      Store
	limiter    *rate.Limiter
	strategies []normalize.Strategy
	log        zerolog.Logger
}

// New creates an importer over store.
func New(store Store, log zerolog.Logger, opts Options) *Importer {
	limit := rate.Inf
	if opts.SubmitRate > 0 {
		limit = rate.Limit(opts.SubmitRate)
	}
	return &Importer{
		store:      store,
		limiter:    rate.NewLimiter(limit, 1),
		strategies: opts.Strategies,
		log:        log,
	}
}

// ImportFile reads fileName's rows and imports them.
func (im *Importer) ImportFile(ctx context.Context, schema Schema, r io.Reader, fileName string) (*Summary, error) {
	rows, err := ReadRows(r, fileName, schema)
	if err != nil {
		return nil, err
	}
	return im.ImportAll(ctx, schema, rows)
}

// ValidateFile reads and validates fileName without creating anything.
func (im *Importer) ValidateFile(ctx context.Context, schema Schema, r io.Reader, fileName string) (*Summary, error) {
	rows, err := ReadRows(r, fileName, schema)
	if err != nil {
		return nil, err
	}
	return im.Validate(ctx, schema, rows)
}

// Validate runs every row through validation and reports what an import
// would do. Nothing is submitted.
func (im *Importer) Validate(ctx context.Context, schema Schema, rows []Row) (*Summary, error) {
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}
	outcomes, _, err := im.validate(ctx, schema, rows)
	if err != nil {
		return nil, err
	}
	sum := newSummary(schema.Name, "")
	sum.DryRun = true
	for _, o := range outcomes {
		if o.OK() {
			sum.SuccessCount++
			continue
		}
		for _, e := range o.Errors {
			sum.fail(e)
		}
	}
	return sum, nil
}

// ImportAll validates rows, then submits valid records in row order. There
// is no rollback: records created before a failure or cancellation stay.
// When ctx is cancelled mid-run the remaining valid records are counted as
// Skipped.
func (im *Importer) ImportAll(ctx context.Context, schema Schema, rows []Row) (*Summary, error) {
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}
	outcomes, cat, err := im.validate(ctx, schema, rows)
	if err != nil {
		return nil, err
	}

	sum := newSummary(schema.Name, id.NewBatchID())
	log := im.logger(ctx).With().Str("batch_id", sum.BatchID).Str("entity", schema.Name).Logger()

	var valid []model.Record
	for _, o := range outcomes {
		if o.OK() {
			valid = append(valid, *o.Record)
			continue
		}
		for _, e := range o.Errors {
			sum.fail(e)
		}
	}
	log.Debug().Int("rows", len(rows)).Int("valid", len(valid)).Msg("validated import rows")

	for i, rec := range valid {
		if err := im.wait(ctx); err != nil {
			sum.Skipped = len(valid) - i
			sum.Cancelled = true
			log.Warn().Err(err).Int("skipped", sum.Skipped).Msg("import cancelled")
			break
		}

		rec.Origin = model.OriginBatch
		rec.BatchID = sum.BatchID
		if _, err := im.store.CreateRecord(ctx, rec); err != nil {
			msg := submissionError(schema, cat, rec, err)
			log.Warn().Err(err).Str("external_id", rec.ExternalID).Msg("record rejected")
			sum.fail(msg)
			continue
		}
		sum.SuccessCount++
	}

	log.Info().
		Int("success", sum.SuccessCount).
		Int("errors", sum.ErrorCount).
		Int("skipped", sum.Skipped).
		Msg("import finished")
	return sum, nil
}

func (im *Importer) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return im.limiter.Wait(ctx)
}

// logger prefers a request-scoped logger carried on ctx.
func (im *Importer) logger(ctx context.Context) zerolog.Logger {
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return im.log
}

// validate builds the run's catalog and tracker from a fresh read of the
// store, then checks every row.
func (im *Importer) validate(ctx context.Context, schema Schema, rows []Row) ([]Outcome, *catalog.Catalog, error) {
	ref, err := im.store.ReferenceData(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading reference data: %w", err)
	}
	existing, err := im.store.ExternalIDs(ctx, schema.Kind)
	if err != nil {
		return nil, nil, fmt.Errorf("loading existing %s IDs: %w", schema.Noun, err)
	}

	cat := catalog.New(ref, im.strategies...)
	v := NewValidator(schema, cat, NewTracker(existing))
	outcomes := make([]Outcome, 0, len(rows))
	for _, row := range rows {
		outcomes = append(outcomes, v.Validate(row))
	}
	return outcomes, cat, nil
}

// userMessager is implemented by store errors that carry text fit for users.
type userMessager interface {
	UserMessage() string
}

// submissionError describes a failed create by account and amount.
func submissionError(schema Schema, cat *catalog.Catalog, rec model.Record, err error) string {
	msg := err.Error()
	var um userMessager
	if errors.As(err, &um) && um.UserMessage() != "" {
		msg = um.UserMessage()
	}

	account := fmt.Sprintf("#%d", rec.AccountID)
	if a, ok := cat.AccountByID(rec.AccountID); ok {
		account = a.Name
	}
	return fmt.Sprintf("Failed to import %s for account %q (amount %s): %s",
		schema.Noun, account, FormatAmount(rec.Amount, rec.CurrencyCode), msg)
}

// FormatAmount renders amount in code's display format, e.g. "$100.50".
// Unknown codes fall back to "<amount> <code>".
func FormatAmount(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.String() + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

// Package guard blocks registrations that reuse the identity of a locked applicant.
package guard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"irdesk/internal/verification/models"
	"irdesk/internal/verification/workflow"
	dErrors "irdesk/pkg/domain-errors"
	pstrings "irdesk/pkg/platform/strings"
	"irdesk/pkg/requestcontext"
)

// Finder runs exact-match lookups on one identity field. Stores are not assumed
// to support case-insensitive search, so the guard queries likely spellings itself.
type Finder interface {
	FindBy(ctx context.Context, field models.IdentityField, value string) ([]models.Applicant, error)
}

// LockedAccountError reports that a registration matched a locked applicant.
// It unwraps to a dErrors.CodeLocked error so transports can map it generically.
type LockedAccountError struct {
	Field         models.IdentityField
	LockedUntil   time.Time
	RemainingDays int
}

func (e *LockedAccountError) Error() string {
	return fmt.Sprintf("account locked for %d more day(s) (matched on %s)", e.RemainingDays, e.Field)
}

func (e *LockedAccountError) Unwrap() error {
	return dErrors.New(dErrors.CodeLocked, "account is temporarily locked")
}

// Input is the identity of a registration attempt. Phone and FullName are optional.
type Input struct {
	Email    string
	Phone    string
	FullName string
}

// Guard checks registrations against existing applicants.
type Guard struct {
	finder Finder
	now    func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides the time source used to evaluate locks. By default the
// request time from the context is used.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// New creates a Guard.
func New(finder Finder, opts ...Option) *Guard {
	g := &Guard{finder: finder}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// fieldPriority orders the fields when deciding which one matched.
var fieldPriority = []models.IdentityField{models.FieldEmail, models.FieldPhone, models.FieldFullName}

type candidate struct {
	applicant models.Applicant
	field     models.IdentityField
}

// Check returns a *LockedAccountError when any supplied identifier belongs to a
// locked applicant. Unlocked duplicates pass. Lookup failures are returned as-is.
//
// The check and the subsequent create are not atomic; two concurrent registrations
// can both pass.
func (g *Guard) Check(ctx context.Context, in Input) error {
	found, err := g.lookup(ctx, in)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	if g.now != nil {
		now = g.now()
	}
	var matches []candidate
	for _, a := range found {
		field, ok := matchedField(a, in)
		if !ok {
			continue
		}
		matches = append(matches, candidate{applicant: a, field: field})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return rank(matches[i].field) < rank(matches[j].field)
	})

	for _, m := range matches {
		if info, locked := workflow.Lock(m.applicant, now); locked {
			return &LockedAccountError{
				Field:         m.field,
				LockedUntil:   info.LockedUntil,
				RemainingDays: info.RemainingDays,
			}
		}
	}
	return nil
}

// lookup queries every spelling of every supplied identifier concurrently and
// returns the union, de-duplicated by applicant id in first-seen order.
func (g *Guard) lookup(ctx context.Context, in Input) ([]models.Applicant, error) {
	type query struct {
		field models.IdentityField
		value string
	}
	var queries []query
	for _, v := range pstrings.DedupeAndTrim([]string{in.Email, strings.ToLower(in.Email)}) {
		queries = append(queries, query{models.FieldEmail, v})
	}
	for _, v := range pstrings.DedupeAndTrim([]string{in.Phone}) {
		queries = append(queries, query{models.FieldPhone, v})
	}
	for _, v := range pstrings.DedupeAndTrim([]string{in.FullName, pstrings.CollapseSpace(in.FullName)}) {
		queries = append(queries, query{models.FieldFullName, v})
	}

	results := make([][]models.Applicant, len(queries))
	eg, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		eg.Go(func() error {
			rows, err := g.finder.FindBy(gctx, q.field, q.value)
			if err != nil {
				return fmt.Errorf("find applicants by %s: %w", q.field, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []models.Applicant
	for _, rows := range results {
		for _, a := range rows {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			out = append(out, a)
		}
	}
	return out, nil
}

// matchedField re-checks a candidate field by field, highest priority first.
func matchedField(a models.Applicant, in Input) (models.IdentityField, bool) {
	supplied := map[models.IdentityField]string{
		models.FieldEmail:    in.Email,
		models.FieldPhone:    in.Phone,
		models.FieldFullName: pstrings.CollapseSpace(in.FullName),
	}
	for _, f := range fieldPriority {
		stored := a.IdentityValue(f)
		if f == models.FieldFullName {
			stored = pstrings.CollapseSpace(stored)
		}
		if pstrings.EqualFoldTrim(stored, supplied[f]) {
			return f, true
		}
	}
	return "", false
}

func rank(f models.IdentityField) int {
	for i, p := range fieldPriority {
		if p == f {
			return i
		}
	}
	return len(fieldPriority)
}

package aggregates

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/rules"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/dbctx"
)

const defaultRequisitionPrefix = "RQ"

type RequisitionAggregateDeps struct {
	Base BaseDeps

	Requisitions repos.BookRequisitionRepo
	Books        repos.BookRepo
	Grades       repos.GradeRepo
	GradeBooks   repos.GradeBookRepo

	Prefix string
}

type requisitionAggregate struct {
	deps RequisitionAggregateDeps
}

func NewRequisitionAggregate(deps RequisitionAggregateDeps) domainagg.RequisitionAggregate {
	deps.Base = deps.Base.withDefaults()
	deps.Prefix = strings.ToUpper(strings.TrimSpace(deps.Prefix))
	if deps.Prefix == "" {
		deps.Prefix = defaultRequisitionPrefix
	}
	return &requisitionAggregate{deps: deps}
}

func (a *requisitionAggregate) Contract() domainagg.Contract {
	return domainagg.RequisitionAggregateContract
}

// RequisitionNumber renders PREFIX-SITE-YYYYMMDD-NNN; seq restarts daily per
// site.
func RequisitionNumber(prefix string, siteID uint, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%d-%s-%03d", prefix, siteID, day.Format("20060102"), seq)
}

func (a *requisitionAggregate) Submit(ctx context.Context, in domainagg.SubmitRequisitionInput) (domainagg.RequisitionResult, error) {
	const op = "School.Requisition.Submit"
	var out domainagg.RequisitionResult
	r := in.Requisition
	if r == nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing requisition", nil)
	}
	if r.ID != 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "requisition is already submitted", nil)
	}
	if r.RequestDate.IsZero() {
		r.RequestDate = in.Actor.When()
	}
	r.RequestDate = rules.DateOnly(r.RequestDate)
	if r.RequestedBy == 0 && in.Actor.UserID != nil {
		r.RequestedBy = *in.Actor.UserID
	}
	for i := range r.Details {
		d := &r.Details[i]
		if d.ApprovedQuantity != 0 || d.FulfilledQuantity != 0 {
			return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("line %d: a new line cannot be approved or fulfilled", i+1), nil)
		}
		d.Book = nil
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.priceLines(dbc, op, r); err != nil {
			return err
		}
		n, err := a.deps.Requisitions.CountForDay(dbc, r.SiteID, r.RequestDate)
		if err != nil {
			return err
		}
		r.RequisitionNumber = RequisitionNumber(a.deps.Prefix, r.SiteID, r.RequestDate, int(n)+1)
		if err := checkRules(op, r.Validate()); err != nil {
			return err
		}
		r.Stamp(in.Actor.UserID)
		for i := range r.Details {
			r.Details[i].Stamp(in.Actor.UserID)
		}
		if err := a.deps.Requisitions.Create(dbc, r); err != nil {
			return err
		}

		tr := newTrail(a.deps.Base.Audit, in.Actor)
		header := *r
		header.Details = nil
		if err := tr.inserted(dbc, header, r.ID); err != nil {
			return err
		}
		for i := range r.Details {
			if err := tr.inserted(dbc, r.Details[i], r.Details[i].ID); err != nil {
				return err
			}
		}
		out = domainagg.RequisitionResult{Requisition: r, Trail: tr.entries}
		return nil
	})
	return out, err
}

// priceLines checks every book belongs to the requisition's company and is
// active, and fills unset unit prices from the catalogue.
func (a *requisitionAggregate) priceLines(dbc dbctx.Context, op string, r *school.BookRequisition) error {
	ids := []uint{}
	seen := map[uint]bool{}
	for _, d := range r.Details {
		if d.BookID != 0 && !seen[d.BookID] {
			seen[d.BookID] = true
			ids = append(ids, d.BookID)
		}
	}
	books, err := a.deps.Books.GetByIDs(dbc, ids)
	if err != nil {
		return err
	}
	byID := map[uint]*school.Book{}
	for _, b := range books {
		byID[b.ID] = b
	}
	var s rules.Set
	for i := range r.Details {
		d := &r.Details[i]
		b := byID[d.BookID]
		switch {
		case d.BookID == 0:
			continue
		case b == nil:
			return notFound(op, fmt.Sprintf("book %d", d.BookID))
		case b.CompanyID != r.CompanyID:
			s.Add(fmt.Sprintf("line %d: book %d belongs to another company", i+1, b.ID))
		case !b.IsActive:
			s.Add(fmt.Sprintf("line %d: %s is no longer stocked", i+1, b.Title))
		}
		if b != nil && d.UnitPrice.IsZero() {
			d.UnitPrice = b.Price
		}
	}
	return checkRules(op, s.List())
}

func (a *requisitionAggregate) Approve(ctx context.Context, in domainagg.LineQuantitiesInput) (domainagg.RequisitionResult, error) {
	const op = "School.Requisition.Approve"
	return a.updateLines(ctx, op, in, func(_ dbctx.Context, d *school.BookRequisitionDetail, q int) error {
		return d.UpdateApprovedQuantity(q)
	})
}

func (a *requisitionAggregate) Fulfil(ctx context.Context, in domainagg.LineQuantitiesInput) (domainagg.RequisitionResult, error) {
	const op = "School.Requisition.Fulfil"
	return a.updateLines(ctx, op, in, func(dbc dbctx.Context, d *school.BookRequisitionDetail, q int) error {
		delta := q - d.FulfilledQuantity
		if delta < 0 {
			return ValidationError(fmt.Sprintf("line %d: fulfilled quantity cannot go down from %d to %d", d.ID, d.FulfilledQuantity, q))
		}
		if err := d.UpdateFulfilledQuantity(q); err != nil {
			return err
		}
		ok, err := a.deps.Books.TakeStock(dbc, d.BookID, delta)
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError(fmt.Sprintf("not enough stock of book %d to fulfil %d more", d.BookID, delta))
		}
		return nil
	})
}

func (a *requisitionAggregate) updateLines(ctx context.Context, op string, in domainagg.LineQuantitiesInput, apply func(dbc dbctx.Context, d *school.BookRequisitionDetail, q int) error) (domainagg.RequisitionResult, error) {
	var out domainagg.RequisitionResult
	if in.RequisitionID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing requisition_id", nil)
	}
	if len(in.Quantities) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no line quantities given", nil)
	}
	lineIDs := make([]uint, 0, len(in.Quantities))
	for id := range in.Quantities {
		lineIDs = append(lineIDs, id)
	}
	sort.Slice(lineIDs, func(i, j int) bool { return lineIDs[i] < lineIDs[j] })

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		r, err := a.deps.Requisitions.LockByID(dbc, in.RequisitionID)
		if err != nil {
			return err
		}
		if r == nil {
			return notFound(op, fmt.Sprintf("requisition %d", in.RequisitionID))
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		for _, id := range lineIDs {
			d := r.DetailByID(id)
			if d == nil {
				return notFound(op, fmt.Sprintf("line %d of requisition %s", id, r.RequisitionNumber))
			}
			before := *d
			before.Book = nil
			if err := apply(dbc, d, in.Quantities[id]); err != nil {
				return err
			}
			if err := checkRules(op, d.Validate()); err != nil {
				return err
			}
			d.Touch(in.Actor.UserID)
			if err := a.deps.Requisitions.SaveDetail(dbc, d); err != nil {
				return err
			}
			after := *d
			after.Book = nil
			if err := tr.updated(dbc, before, after, d.ID); err != nil {
				return err
			}
		}
		out = domainagg.RequisitionResult{Requisition: r, Trail: tr.entries}
		return nil
	})
	return out, err
}

func (a *requisitionAggregate) SetReadingList(ctx context.Context, in domainagg.SetReadingListInput) (domainagg.ReadingListResult, error) {
	const op = "School.Requisition.SetReadingList"
	var out domainagg.ReadingListResult
	if in.GradeID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing grade_id", nil)
	}
	if a.deps.Grades == nil || a.deps.GradeBooks == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "reading list repositories are not configured", nil)
	}

	items := make([]school.GradeBook, len(in.Books))
	bookIDs := make([]uint, 0, len(in.Books))
	var s rules.Set
	for i, gb := range in.Books {
		gb.ID, gb.GradeID = 0, in.GradeID
		gb.Grade, gb.Book = nil, nil
		s.Merge(fmt.Sprintf("book %d", i+1), gb.Validate())
		items[i] = gb
		bookIDs = append(bookIDs, gb.BookID)
	}
	s.Merge("", school.ValidateGradeBooks(items))
	if err := checkRules(op, s.List()); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		grade, err := a.deps.Grades.GetByID(dbc, in.GradeID)
		if err != nil {
			return err
		}
		if grade == nil {
			return notFound(op, fmt.Sprintf("grade %d", in.GradeID))
		}
		books, err := a.deps.Books.GetByIDs(dbc, bookIDs)
		if err != nil {
			return err
		}
		byID := make(map[uint]*school.Book, len(books))
		for _, b := range books {
			byID[b.ID] = b
		}
		for _, id := range bookIDs {
			b := byID[id]
			if b == nil {
				return notFound(op, fmt.Sprintf("book %d", id))
			}
			if b.CompanyID != grade.CompanyID {
				return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("book %d belongs to another company", id), nil)
			}
		}

		current, err := a.deps.GradeBooks.ListByGrade(dbc, in.GradeID)
		if err != nil {
			return err
		}
		tr := newTrail(a.deps.Base.Audit, in.Actor)
		for i := range current {
			old := current[i]
			old.Grade, old.Book = nil, nil
			if err := a.deps.GradeBooks.Delete(dbc, old.GradeID, old.BookID); err != nil {
				return err
			}
			if err := tr.deleted(dbc, old, old.ID); err != nil {
				return err
			}
		}

		rows := make([]*school.GradeBook, len(items))
		for i := range items {
			rows[i] = &items[i]
			rows[i].Stamp(in.Actor.UserID)
		}
		if err := a.deps.GradeBooks.Create(dbc, rows); err != nil {
			return err
		}
		for _, gb := range rows {
			if err := tr.inserted(dbc, gb, gb.ID); err != nil {
				return err
			}
		}
		out = domainagg.ReadingListResult{Books: rows, Trail: tr.entries}
		return nil
	})
	return out, err
}

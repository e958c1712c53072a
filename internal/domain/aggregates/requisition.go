package aggregates

import (
	"context"

	"github.com/yungbote/cadenza-backend/internal/domain/school"
)

var RequisitionAggregateContract = Contract{
	Name:             "School.RequisitionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns requisition numbering, line approval and fulfilment against book stock.",
}

// RequisitionAggregate keeps Fulfilled <= Approved <= Requested on every
// line, and only fulfils what is on the shelf.
type RequisitionAggregate interface {
	Aggregate

	Submit(ctx context.Context, in SubmitRequisitionInput) (RequisitionResult, error)

	// Approve sets approved quantities by line id.
	Approve(ctx context.Context, in LineQuantitiesInput) (RequisitionResult, error)

	// Fulfil sets fulfilled quantities by line id and takes the increase
	// from stock. Insufficient stock is CodeConflict.
	Fulfil(ctx context.Context, in LineQuantitiesInput) (RequisitionResult, error)

	// SetReadingList replaces a grade's reading list. Every book must belong
	// to the grade's company. An empty list clears it.
	SetReadingList(ctx context.Context, in SetReadingListInput) (ReadingListResult, error)
}

type SubmitRequisitionInput struct {
	Actor       Actor
	Requisition *school.BookRequisition
}

type LineQuantitiesInput struct {
	Actor         Actor
	RequisitionID uint
	Quantities    map[uint]int
}

type RequisitionResult struct {
	Requisition *school.BookRequisition
	Trail       Trail
}

type SetReadingListInput struct {
	Actor   Actor
	GradeID uint
	Books   []school.GradeBook
}

type ReadingListResult struct {
	Books []*school.GradeBook
	Trail Trail
}

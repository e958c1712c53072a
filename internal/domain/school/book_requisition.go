package school

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

// Line status is derived from quantities, never stored.
const (
	RequisitionPending   = "Pending"
	RequisitionApproved  = "Approved"
	RequisitionFulfilled = "Fulfilled"
)

type BookRequisition struct {
	ID                uint                    `gorm:"primaryKey" json:"id"`
	CompanyID         uint                    `gorm:"column:company_id;not null;index" json:"company_id" validate:"required"`
	SiteID            uint                    `gorm:"column:site_id;not null;index" json:"site_id" validate:"required"`
	RequisitionNumber string                  `gorm:"column:requisition_number;size:30;not null;uniqueIndex" json:"requisition_number" validate:"required,max=30"`
	RequestedBy       uint                    `gorm:"column:requested_by;not null" json:"requested_by" validate:"required"`
	RequestDate       time.Time               `gorm:"column:request_date;type:date;not null" json:"request_date" validate:"required"`
	Notes             *string                 `gorm:"column:notes;size:1000" json:"notes,omitempty" validate:"omitempty,max=1000"`
	Details           []BookRequisitionDetail `gorm:"foreignKey:BookRequisitionID" json:"details,omitempty" validate:"-"`
	AuditFields
}

func (BookRequisition) TableName() string { return "book_requisition" }

func (r BookRequisition) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(r))
	s.Check(len(r.Details) == 0, "a requisition needs at least one line")
	type key struct {
		book    uint
		student uint
	}
	seen := map[key]bool{}
	for i, d := range r.Details {
		k := key{book: d.BookID}
		if d.StudentID != nil {
			k.student = *d.StudentID
		}
		if seen[k] {
			if d.StudentID != nil {
				s.Add(fmt.Sprintf("line %d: book %d for student %d is already on another line", i+1, d.BookID, k.student))
			} else {
				s.Add(fmt.Sprintf("line %d: book %d for the whole class is already on another line", i+1, d.BookID))
			}
		}
		seen[k] = true
		s.Merge(fmt.Sprintf("line %d", i+1), d.Validate())
	}
	return s.List()
}

// Status rolls the lines up: Fulfilled when every line is, Approved when
// any line has an approved quantity, otherwise Pending.
func (r BookRequisition) Status() string {
	if len(r.Details) == 0 {
		return RequisitionPending
	}
	fulfilled, approved := 0, 0
	for _, d := range r.Details {
		switch d.Status() {
		case RequisitionFulfilled:
			fulfilled++
			approved++
		case RequisitionApproved:
			approved++
		}
	}
	switch {
	case fulfilled == len(r.Details):
		return RequisitionFulfilled
	case approved > 0:
		return RequisitionApproved
	default:
		return RequisitionPending
	}
}

// DetailByID returns the line with id, or nil.
func (r *BookRequisition) DetailByID(id uint) *BookRequisitionDetail {
	for i := range r.Details {
		if r.Details[i].ID == id {
			return &r.Details[i]
		}
	}
	return nil
}

type BookRequisitionDetail struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	BookRequisitionID uint            `gorm:"column:book_requisition_id;not null;index" json:"book_requisition_id"`
	BookID            uint            `gorm:"column:book_id;not null;index" json:"book_id" validate:"required"`
	StudentID         *uint           `gorm:"column:student_id" json:"student_id,omitempty"`
	RequestedQuantity int             `gorm:"column:requested_quantity;not null" json:"requested_quantity" validate:"gte=1,lte=1000"`
	ApprovedQuantity  int             `gorm:"column:approved_quantity;not null" json:"approved_quantity"`
	FulfilledQuantity int             `gorm:"column:fulfilled_quantity;not null" json:"fulfilled_quantity"`
	UnitPrice         decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Remarks           *string         `gorm:"column:remarks;size:500" json:"remarks,omitempty" validate:"omitempty,max=500"`
	Book              *Book           `gorm:"foreignKey:BookID" json:"book,omitempty" validate:"-"`
	AuditFields
}

func (BookRequisitionDetail) TableName() string { return "book_requisition_detail" }

func (d BookRequisitionDetail) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(d))
	s.Check(d.ApprovedQuantity < 0, "approved quantity must not be negative")
	s.Check(d.FulfilledQuantity < 0, "fulfilled quantity must not be negative")
	s.Check(d.ApprovedQuantity > d.RequestedQuantity, "approved quantity must not exceed requested quantity")
	s.Check(d.FulfilledQuantity > d.ApprovedQuantity, "fulfilled quantity must not exceed approved quantity")
	s.Check(d.UnitPrice.IsNegative(), "unit price must not be negative")
	return s.List()
}

func (d BookRequisitionDetail) Status() string {
	switch {
	case d.ApprovedQuantity > 0 && d.FulfilledQuantity >= d.ApprovedQuantity:
		return RequisitionFulfilled
	case d.ApprovedQuantity > 0:
		return RequisitionApproved
	default:
		return RequisitionPending
	}
}

// UpdateApprovedQuantity keeps Fulfilled <= Approved <= Requested; a value
// that would break the ordering is rejected and nothing changes.
func (d *BookRequisitionDetail) UpdateApprovedQuantity(q int) error {
	if q < 0 || q > d.RequestedQuantity {
		return rangeErr("approved quantity %d must be between 0 and requested quantity %d", q, d.RequestedQuantity)
	}
	if q < d.FulfilledQuantity {
		return rangeErr("approved quantity %d is below the %d already fulfilled", q, d.FulfilledQuantity)
	}
	d.ApprovedQuantity = q
	return nil
}

func (d *BookRequisitionDetail) UpdateFulfilledQuantity(q int) error {
	if q < 0 || q > d.ApprovedQuantity {
		return rangeErr("fulfilled quantity %d must be between 0 and approved quantity %d", q, d.ApprovedQuantity)
	}
	d.FulfilledQuantity = q
	return nil
}

func (d BookRequisitionDetail) OutstandingQuantity() int {
	return d.ApprovedQuantity - d.FulfilledQuantity
}

func (d BookRequisitionDetail) FulfillmentRate() float64 {
	return rules.Round2(rules.Percent(float64(d.FulfilledQuantity), float64(d.ApprovedQuantity)))
}

func (d BookRequisitionDetail) RequestedAmount() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.RequestedQuantity))).Round(2)
}

func (d BookRequisitionDetail) ApprovedAmount() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.ApprovedQuantity))).Round(2)
}

func (d BookRequisitionDetail) FulfilledAmount() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.FulfilledQuantity))).Round(2)
}

type RequisitionSummary struct {
	Lines             int             `json:"lines"`
	Pending           int             `json:"pending"`
	Approved          int             `json:"approved"`
	Fulfilled         int             `json:"fulfilled"`
	RequestedQuantity int             `json:"requested_quantity"`
	ApprovedQuantity  int             `json:"approved_quantity"`
	FulfilledQuantity int             `json:"fulfilled_quantity"`
	FulfillmentRate   float64         `json:"fulfillment_rate"`
	RequestedAmount   decimal.Decimal `json:"requested_amount"`
	ApprovedAmount    decimal.Decimal `json:"approved_amount"`
	FulfilledAmount   decimal.Decimal `json:"fulfilled_amount"`
}

func SummarizeRequisition(details []BookRequisitionDetail) RequisitionSummary {
	var out RequisitionSummary
	for _, d := range details {
		out.Lines++
		switch d.Status() {
		case RequisitionPending:
			out.Pending++
		case RequisitionApproved:
			out.Approved++
		case RequisitionFulfilled:
			out.Fulfilled++
		}
		out.RequestedQuantity += d.RequestedQuantity
		out.ApprovedQuantity += d.ApprovedQuantity
		out.FulfilledQuantity += d.FulfilledQuantity
		out.RequestedAmount = out.RequestedAmount.Add(d.RequestedAmount())
		out.ApprovedAmount = out.ApprovedAmount.Add(d.ApprovedAmount())
		out.FulfilledAmount = out.FulfilledAmount.Add(d.FulfilledAmount())
	}
	out.FulfillmentRate = rules.Round2(rules.Percent(float64(out.FulfilledQuantity), float64(out.ApprovedQuantity)))
	return out
}

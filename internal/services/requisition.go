package services

import (
	"context"
	"time"

	"github.com/yungbote/cadenza-backend/internal/data/repos"
	types "github.com/yungbote/cadenza-backend/internal/domain"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/domain/school"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type RequisitionService interface {
	Submit(ctx context.Context, in domainagg.SubmitRequisitionInput) (*types.BookRequisition, error)
	Approve(ctx context.Context, in domainagg.LineQuantitiesInput) (*types.BookRequisition, error)
	Fulfil(ctx context.Context, in domainagg.LineQuantitiesInput) (*types.BookRequisition, error)

	Get(ctx context.Context, id uint) (*types.BookRequisition, error)
	ListBySite(ctx context.Context, siteID uint, from, to time.Time) ([]*types.BookRequisition, error)
	Summary(ctx context.Context, id uint) (school.RequisitionSummary, error)

	// DraftForGrade builds an unsaved requisition for a grade's reading
	// list, quantity copies of each book.
	DraftForGrade(ctx context.Context, in DraftForGradeInput) (*types.BookRequisition, error)

	ReadingList(ctx context.Context, gradeID uint) ([]types.GradeBook, error)
	SetReadingList(ctx context.Context, in domainagg.SetReadingListInput) ([]*types.GradeBook, error)
}

type DraftForGradeInput struct {
	CompanyID     uint
	SiteID        uint
	GradeID       uint
	Quantity      int
	MandatoryOnly bool
}

type requisitionService struct {
	log          *logger.Logger
	agg          domainagg.RequisitionAggregate
	requisitions repos.BookRequisitionRepo
	gradeBooks   repos.GradeBookRepo
	publisher    TrailPublisher
}

func NewRequisitionService(log *logger.Logger, agg domainagg.RequisitionAggregate, requisitions repos.BookRequisitionRepo, gradeBooks repos.GradeBookRepo, publisher TrailPublisher) RequisitionService {
	return &requisitionService{
		log:          log.With("service", "RequisitionService"),
		agg:          agg,
		requisitions: requisitions,
		gradeBooks:   gradeBooks,
		publisher:    publisher,
	}
}

func (s *requisitionService) Submit(ctx context.Context, in domainagg.SubmitRequisitionInput) (*types.BookRequisition, error) {
	res, err := s.agg.Submit(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Requisition.Submit", res.Trail)
	return res.Requisition, nil
}

func (s *requisitionService) Approve(ctx context.Context, in domainagg.LineQuantitiesInput) (*types.BookRequisition, error) {
	res, err := s.agg.Approve(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Requisition.Approve", res.Trail)
	return res.Requisition, nil
}

func (s *requisitionService) Fulfil(ctx context.Context, in domainagg.LineQuantitiesInput) (*types.BookRequisition, error) {
	res, err := s.agg.Fulfil(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Requisition.Fulfil", res.Trail)
	return res.Requisition, nil
}

func (s *requisitionService) SetReadingList(ctx context.Context, in domainagg.SetReadingListInput) ([]*types.GradeBook, error) {
	res, err := s.agg.SetReadingList(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, "School.Requisition.SetReadingList", res.Trail)
	return res.Books, nil
}

func (s *requisitionService) ReadingList(ctx context.Context, gradeID uint) ([]types.GradeBook, error) {
	const op = "School.Requisition.ReadingList"
	if gradeID == 0 {
		return nil, missingID(op, "grade_id")
	}
	rows, err := s.gradeBooks.ListByGrade(readCtx(ctx), gradeID)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *requisitionService) Get(ctx context.Context, id uint) (*types.BookRequisition, error) {
	const op = "School.Requisition.Get"
	r, err := s.requisitions.GetByID(readCtx(ctx), id)
	if err != nil {
		return nil, readErr(op, err)
	}
	if r == nil {
		return nil, notFound(op, "requisition", id)
	}
	return r, nil
}

func (s *requisitionService) ListBySite(ctx context.Context, siteID uint, from, to time.Time) ([]*types.BookRequisition, error) {
	const op = "School.Requisition.ListBySite"
	if siteID == 0 {
		return nil, missingID(op, "site_id")
	}
	if err := checkRange(op, from, to); err != nil {
		return nil, err
	}
	rows, err := s.requisitions.ListBySite(readCtx(ctx), siteID, from, to)
	if err != nil {
		return nil, readErr(op, err)
	}
	return rows, nil
}

func (s *requisitionService) Summary(ctx context.Context, id uint) (school.RequisitionSummary, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return school.RequisitionSummary{}, err
	}
	return school.SummarizeRequisition(r.Details), nil
}

func (s *requisitionService) DraftForGrade(ctx context.Context, in DraftForGradeInput) (*types.BookRequisition, error) {
	const op = "School.Requisition.DraftForGrade"
	if in.GradeID == 0 {
		return nil, missingID(op, "grade_id")
	}
	if in.Quantity <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "quantity must be at least 1", nil)
	}
	list, err := s.gradeBooks.ListByGrade(readCtx(ctx), in.GradeID)
	if err != nil {
		return nil, readErr(op, err)
	}

	req := &types.BookRequisition{CompanyID: in.CompanyID, SiteID: in.SiteID}
	for _, gb := range list {
		if in.MandatoryOnly && !gb.IsMandatory {
			continue
		}
		if gb.Book != nil && !gb.Book.IsActive {
			continue
		}
		line := types.BookRequisitionDetail{BookID: gb.BookID, RequestedQuantity: in.Quantity}
		if gb.Book != nil {
			line.UnitPrice = gb.Book.Price
		}
		req.Details = append(req.Details, line)
	}
	if len(req.Details) == 0 {
		return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op, "grade has no books to order", nil)
	}
	return req, nil
}

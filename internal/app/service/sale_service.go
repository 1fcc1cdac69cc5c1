package service

import (
	"errors"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"gorm.io/gorm"
)

// SaleEventPublisher receives committed sale changes. Publish runs on the
// request goroutine and must return promptly.
type SaleEventPublisher interface {
	Publish(event model.SaleEvent)
}

type SaleService interface {
	CreateSale(sale *model.Sale) (*model.Sale, error)
	UpdateSale(id uint, details *model.Sale) (*model.Sale, error)
	ApproveSale(id uint) (*model.Sale, error)
	CompleteSale(id uint) (*model.Sale, error)
	CancelSale(id uint, reason string) (*model.Sale, error)
	RefundSale(id uint, reason string) (*model.Sale, error)

	GetSale(id uint) (*model.Sale, error)
	ListSales(filter repository.SaleFilter) ([]model.Sale, int64, error)
	SalesByCustomer(customerID uint) ([]model.Sale, error)
	SalesByVehicle(vehicleID uint) ([]model.Sale, error)
	PendingUnfinalized() ([]model.Sale, error)
	CountByStatus(status model.SaleStatus) (int64, error)
}

type saleService struct {
	db           *gorm.DB
	saleRepo     repository.SaleRepository
	vehicleRepo  repository.VehicleRepository
	customerRepo repository.CustomerRepository
	vehicles     VehicleLifecycle
	publisher    SaleEventPublisher
	now          Clock
}

type SaleServiceOption func(*saleService)

func WithSaleEventPublisher(publisher SaleEventPublisher) SaleServiceOption {
	return func(s *saleService) {
		s.publisher = publisher
	}
}

func WithSaleClock(clock Clock) SaleServiceOption {
	return func(s *saleService) {
		if clock != nil {
			s.now = clock
		}
	}
}

func NewSaleService(
	db *gorm.DB,
	saleRepo repository.SaleRepository,
	vehicleRepo repository.VehicleRepository,
	customerRepo repository.CustomerRepository,
	vehicles VehicleLifecycle,
	opts ...SaleServiceOption,
) SaleService {
	s := &saleService{
		db:           db,
		saleRepo:     saleRepo,
		vehicleRepo:  vehicleRepo,
		customerRepo: customerRepo,
		vehicles:     vehicles,
		now:          utcNow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *saleService) CreateSale(sale *model.Sale) (*model.Sale, error) {
	sale.ID = 0
	sale.Status = model.SaleStatusPending
	sale.ContractSignedAt = nil
	sale.Vehicle = nil
	sale.Customer = nil
	sale.ApplyDefaults(s.now())
	sale.RecalculateCommission()

	fields := map[string]interface{}{
		"vehicle_id":  sale.VehicleID,
		"customer_id": sale.CustomerID,
	}
	logger.Info("Creating sale", fields)

	if err := sale.Validate(); err != nil {
		logFailure("Sale validation failed", err, fields)
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		vehicle, err := s.vehicleRepo.WithTx(tx).FindByIDForUpdate(sale.VehicleID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return apperrors.NotFound("vehicle", sale.VehicleID)
		}

		customer, err := s.customerRepo.WithTx(tx).FindByID(sale.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return apperrors.NotFound("customer", sale.CustomerID)
		}

		if !vehicle.Status.Sellable() {
			return apperrors.Conflict(apperrors.VehicleNotAvailable,
				"vehicle not available: status is "+string(vehicle.Status))
		}
		if !customer.IsActive {
			return ErrCustomerInactive
		}

		if _, err := s.vehicles.WithTx(tx).Reserve(vehicle.ID); err != nil {
			return err
		}
		return s.saleRepo.WithTx(tx).Create(sale)
	})
	if err != nil {
		logFailure("Sale creation failed", err, fields)
		return nil, err
	}

	logger.Info("Sale created", map[string]interface{}{
		"sale_id":    sale.ID,
		"vehicle_id": sale.VehicleID,
		"sale_price": sale.SalePrice,
	})
	return s.committed(sale.ID, model.SaleEventCreated)
}

func (s *saleService) UpdateSale(id uint, details *model.Sale) (*model.Sale, error) {
	return s.transition(id, "update", model.SaleEventUpdated, func(_ *gorm.DB, sale *model.Sale) error {
		if sale.IsFinalized {
			return ErrSaleFinalized
		}
		sale.ApplyDetails(details)
		sale.RecalculateCommission()
		return sale.Validate()
	})
}

func (s *saleService) ApproveSale(id uint) (*model.Sale, error) {
	return s.transition(id, "approve", model.SaleEventApproved, func(_ *gorm.DB, sale *model.Sale) error {
		if !sale.Status.CanApprove() {
			return invalidTransition("approve", sale.Status)
		}
		sale.Status = model.SaleStatusApproved
		return nil
	})
}

func (s *saleService) CompleteSale(id uint) (*model.Sale, error) {
	return s.transition(id, "complete", model.SaleEventCompleted, func(tx *gorm.DB, sale *model.Sale) error {
		if !sale.Status.CanComplete() {
			return invalidTransition("complete", sale.Status)
		}
		signedAt := s.now()
		sale.Status = model.SaleStatusCompleted
		sale.IsFinalized = true
		sale.ContractSignedAt = &signedAt

		_, err := s.vehicles.WithTx(tx).MarkSold(sale.VehicleID)
		return err
	})
}

func (s *saleService) CancelSale(id uint, reason string) (*model.Sale, error) {
	return s.transition(id, "cancel", model.SaleEventCancelled, func(tx *gorm.DB, sale *model.Sale) error {
		if !sale.Status.CanCancel() {
			return invalidTransition("cancel", sale.Status)
		}
		sale.Status = model.SaleStatusCancelled
		if reason != "" {
			sale.AppendNote("Cancellation reason: " + reason)
		}

		_, err := s.vehicles.WithTx(tx).MakeAvailable(sale.VehicleID)
		return err
	})
}

// RefundSale reverses a completed sale and returns the vehicle to stock.
func (s *saleService) RefundSale(id uint, reason string) (*model.Sale, error) {
	return s.transition(id, "refund", model.SaleEventRefunded, func(tx *gorm.DB, sale *model.Sale) error {
		if !sale.Status.CanRefund() {
			return invalidTransition("refund", sale.Status)
		}
		sale.Status = model.SaleStatusRefunded
		if reason != "" {
			sale.AppendNote("Refund reason: " + reason)
		}

		_, err := s.vehicles.WithTx(tx).MakeAvailable(sale.VehicleID)
		return err
	})
}

// transition locks the sale, lets apply mutate it and stores it with a
// version check, all in one transaction.
func (s *saleService) transition(
	id uint,
	action string,
	eventType model.SaleEventType,
	apply func(tx *gorm.DB, sale *model.Sale) error,
) (*model.Sale, error) {
	fields := map[string]interface{}{
		"sale_id": id,
		"action":  action,
	}
	logger.Info("Applying sale transition", fields)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sales := s.saleRepo.WithTx(tx)

		sale, err := sales.FindByIDForUpdate(id)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperrors.NotFound("sale", id)
		}

		if err := apply(tx, sale); err != nil {
			return err
		}

		if err := sales.Save(sale); err != nil {
			if errors.Is(err, repository.ErrStaleSale) {
				return ErrSaleStale
			}
			return err
		}
		fields["status"] = sale.Status
		return nil
	})
	if err != nil {
		logFailure("Sale transition failed", err, fields)
		return nil, err
	}

	logger.Info("Sale transition committed", fields)
	return s.committed(id, eventType)
}

// committed reloads the sale with its associations after commit and
// announces the change.
func (s *saleService) committed(id uint, eventType model.SaleEventType) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		logger.Error("Failed to reload sale after commit", err, map[string]interface{}{
			"sale_id": id,
		})
		return nil, err
	}
	if sale == nil {
		return nil, apperrors.NotFound("sale", id)
	}

	if s.publisher != nil {
		event := model.SaleEvent{
			Type:       eventType,
			SaleID:     sale.ID,
			VehicleID:  sale.VehicleID,
			CustomerID: sale.CustomerID,
			Status:     sale.Status,
			OccurredAt: s.now(),
		}
		if sale.Vehicle != nil {
			event.VehicleStatus = sale.Vehicle.Status
		}
		s.publisher.Publish(event)
	}
	return sale, nil
}

func (s *saleService) GetSale(id uint) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		logger.Error("Failed to fetch sale", err, map[string]interface{}{
			"sale_id": id,
		})
		return nil, err
	}
	if sale == nil {
		return nil, apperrors.NotFound("sale", id)
	}
	return sale, nil
}

func (s *saleService) ListSales(filter repository.SaleFilter) ([]model.Sale, int64, error) {
	verr := apperrors.NewValidationError()
	if filter.Status != "" && !filter.Status.Valid() {
		verr.Add("status", "must be one of PENDING APPROVED COMPLETED CANCELLED REFUNDED")
	}
	if filter.PaymentMethod != "" && !filter.PaymentMethod.Valid() {
		verr.Add("payment_method", "must be one of CASH FINANCING LEASE TRADE_IN COMBINATION")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		verr.Add("start_date", "must not be after end_date")
	}
	if err := verr.OrNil(); err != nil {
		return nil, 0, err
	}
	return s.saleRepo.List(filter)
}

func (s *saleService) SalesByCustomer(customerID uint) ([]model.Sale, error) {
	return s.saleRepo.FindAll(repository.SaleFilter{CustomerID: customerID})
}

func (s *saleService) SalesByVehicle(vehicleID uint) ([]model.Sale, error) {
	return s.saleRepo.FindAll(repository.SaleFilter{VehicleID: vehicleID})
}

// PendingUnfinalized lists pending sales that still await a decision.
func (s *saleService) PendingUnfinalized() ([]model.Sale, error) {
	return s.saleRepo.FindPendingUnfinalized()
}

func (s *saleService) CountByStatus(status model.SaleStatus) (int64, error) {
	if !status.Valid() {
		return 0, apperrors.Invalid("status", "must be one of PENDING APPROVED COMPLETED CANCELLED REFUNDED")
	}
	return s.saleRepo.CountByStatus(status)
}

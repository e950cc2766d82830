package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryService interface {
	// Receive adds inbound stock, merging into an existing lot when the
	// (batch, location, expiration) identity matches, and records one inbound
	// movement.
	Receive(ctx context.Context, userID uuid.UUID, req dto.ReceiveStockRequest) (*dto.ProductStockResponse, error)

	// Consume removes stock earliest-expiration-first and returns the lots it
	// mutated, in the order they were touched. All-or-nothing: when the
	// product's available total cannot cover the request, nothing is mutated
	// and *InsufficientStockError is returned. Exactly one outbound movement
	// is recorded per successful call.
	Consume(ctx context.Context, userID uuid.UUID, req dto.ConsumeStockRequest) ([]model.StockLot, error)

	// ConsumeTx is Consume inside a caller-owned transaction, for invoicing.
	ConsumeTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, req dto.ConsumeStockRequest) ([]model.StockLot, error)

	// Reserve earmarks available units without removing them. No movement is
	// recorded; reservations are bookkeeping, not ledger events.
	Reserve(ctx context.Context, req dto.ReservationRequest) error

	// Release returns reserved units to the available pool. Releasing more
	// than is reserved fails with ErrOverRelease.
	Release(ctx context.Context, req dto.ReservationRequest) error

	// Adjust reconciles the system total with a physical count. The diff is
	// applied to the first lot in consumption order and recorded as one
	// adjustment movement carrying the signed diff.
	Adjust(ctx context.Context, userID uuid.UUID, req dto.AdjustStockRequest) error

	ProductStock(ctx context.Context, productID uuid.UUID) (*dto.ProductStockResponse, error)
	Movements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	LowStockAlerts(ctx context.Context) ([]dto.LowStockAlert, error)
	ExpirationAlerts(ctx context.Context, withinDays int) ([]dto.ExpirationAlert, error)
}

type inventoryService struct {
	repo        repository.StockRepository
	productRepo repository.ProductRepository
}

func NewInventoryService(repo repository.StockRepository, productRepo repository.ProductRepository) InventoryService {
	return &inventoryService{repo: repo, productRepo: productRepo}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// sortLotsForConsumption orders lots earliest expiration first, undated lots
// last, creation order as the tiebreaker. This is the single consumption
// order used by Consume, Reserve, Release and Adjust.
func sortLotsForConsumption(lots []model.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i].ExpirationDate, lots[j].ExpirationDate
		switch {
		case a == nil && b == nil:
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		default:
			return a.Before(*b)
		}
	})
}

// ── Receive ───────────────────────────────────────────────────────────────────

func (s *inventoryService) Receive(ctx context.Context, userID uuid.UUID, req dto.ReceiveStockRequest) (*dto.ProductStockResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found", req.ProductID)
	}
	if product.Type == model.ProductService {
		return nil, errors.New("services do not carry stock")
	}

	var expiration *time.Time
	if req.ExpirationDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expiration_date: %w", err)
		}
		parsed = parsed.UTC()
		expiration = &parsed
	}
	if product.ExpirationTracking && expiration == nil {
		return nil, fmt.Errorf("product %s tracks expiration, expiration_date is required", product.SKU)
	}

	movType := model.MovementPurchase
	if req.MovementType != nil {
		movType = model.StockMovementType(*req.MovementType)
		if !movType.Inbound() {
			return nil, fmt.Errorf("%s is not an inbound movement type", movType)
		}
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		lots, err := s.repo.FindLotsByProductTx(tx, productID)
		if err != nil {
			return err
		}

		// Merge into the lot with the same identity, or open a new one.
		var target *model.StockLot
		for i := range lots {
			if lots[i].MatchesKey(req.BatchNumber, req.Location, expiration) {
				target = &lots[i]
				break
			}
		}
		if target != nil {
			target.CurrentQuantity += req.Quantity
			if err := s.repo.UpdateLotTx(tx, target); err != nil {
				return err
			}
		} else {
			lot := &model.StockLot{
				ProductID:       productID,
				CurrentQuantity: req.Quantity,
				ExpirationDate:  expiration,
				BatchNumber:     req.BatchNumber,
				Location:        req.Location,
			}
			if err := s.repo.CreateLotTx(tx, lot); err != nil {
				return err
			}
		}

		return s.repo.CreateMovementTx(tx, s.movement(productID, userID, movType, req.Quantity, req.ReferenceID, req.ReferenceType, req.Notes))
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.ProductStock(ctx, productID)
}

// ── Consume ───────────────────────────────────────────────────────────────────

func (s *inventoryService) Consume(ctx context.Context, userID uuid.UUID, req dto.ConsumeStockRequest) ([]model.StockLot, error) {
	var touched []model.StockLot
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		touched, err = s.ConsumeTx(ctx, tx, userID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (s *inventoryService) ConsumeTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, req dto.ConsumeStockRequest) ([]model.StockLot, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("product %s not found", req.ProductID)
	}

	movType := model.MovementSale
	if req.MovementType != nil {
		movType = model.StockMovementType(*req.MovementType)
		if !movType.Outbound() {
			return nil, fmt.Errorf("%s is not an outbound movement type", movType)
		}
	}

	lots, err := s.lotsForAllocation(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	available := 0
	for i := range lots {
		available += lots[i].Available()
	}
	if available < req.Quantity {
		return nil, &InsufficientStockError{Available: available, Requested: req.Quantity}
	}

	// Greedy walk: drain each lot's available units until satisfied.
	touched := make([]model.StockLot, 0, len(lots))
	remaining := req.Quantity
	for i := range lots {
		if remaining == 0 {
			break
		}
		take := lots[i].Available()
		if take == 0 {
			continue
		}
		if take > remaining {
			take = remaining
		}
		lots[i].CurrentQuantity -= take
		remaining -= take
		if err := s.repo.UpdateLotTx(tx, &lots[i]); err != nil {
			return nil, err
		}
		touched = append(touched, lots[i])
	}

	if err := s.repo.CreateMovementTx(tx, s.movement(productID, userID, movType, req.Quantity, req.ReferenceID, req.ReferenceType, req.Notes)); err != nil {
		return nil, err
	}
	return touched, nil
}

// lotsForAllocation loads and orders lots for a tx-scoped walk. A nil tx
// falls back to the unlocked read (unit test mode).
func (s *inventoryService) lotsForAllocation(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	var err error
	if tx != nil {
		lots, err = s.repo.FindLotsByProductTx(tx, productID)
	} else {
		lots, err = s.repo.FindLotsByProduct(ctx, productID)
	}
	if err != nil {
		return nil, err
	}
	sortLotsForConsumption(lots)
	return lots, nil
}

// ── Reserve / Release ─────────────────────────────────────────────────────────

func (s *inventoryService) Reserve(ctx context.Context, req dto.ReservationRequest) error {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product_id: %w", err)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return fmt.Errorf("product %s not found", req.ProductID)
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		lots, err := s.lotsForAllocation(ctx, tx, productID)
		if err != nil {
			return err
		}

		available := 0
		for i := range lots {
			available += lots[i].Available()
		}
		if available < req.Quantity {
			return &InsufficientStockError{Available: available, Requested: req.Quantity}
		}

		remaining := req.Quantity
		for i := range lots {
			if remaining == 0 {
				break
			}
			take := lots[i].Available()
			if take == 0 {
				continue
			}
			if take > remaining {
				take = remaining
			}
			lots[i].ReservedQuantity += take
			remaining -= take
			if err := s.repo.UpdateLotTx(tx, &lots[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *inventoryService) Release(ctx context.Context, req dto.ReservationRequest) error {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product_id: %w", err)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return fmt.Errorf("product %s not found", req.ProductID)
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		lots, err := s.lotsForAllocation(ctx, tx, productID)
		if err != nil {
			return err
		}

		reserved := 0
		for i := range lots {
			reserved += lots[i].ReservedQuantity
		}
		if reserved < req.Quantity {
			return ErrOverRelease
		}

		remaining := req.Quantity
		for i := range lots {
			if remaining == 0 {
				break
			}
			give := lots[i].ReservedQuantity
			if give == 0 {
				continue
			}
			if give > remaining {
				give = remaining
			}
			lots[i].ReservedQuantity -= give
			remaining -= give
			if err := s.repo.UpdateLotTx(tx, &lots[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ── Adjust ────────────────────────────────────────────────────────────────────

func (s *inventoryService) Adjust(ctx context.Context, userID uuid.UUID, req dto.AdjustStockRequest) error {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product_id: %w", err)
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return fmt.Errorf("product %s not found", req.ProductID)
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		lots, err := s.lotsForAllocation(ctx, tx, productID)
		if err != nil {
			return err
		}

		total := 0
		for i := range lots {
			total += lots[i].CurrentQuantity
		}
		diff := req.NewTotalQuantity - total
		if diff == 0 {
			return ErrNoOpAdjustment
		}

		// The whole diff lands on the first lot in consumption order; a new
		// lot is opened when the product has none.
		if len(lots) == 0 {
			if diff < 0 {
				return &InsufficientStockError{Available: 0, Requested: -diff}
			}
			lot := &model.StockLot{ProductID: productID, CurrentQuantity: diff}
			if err := s.repo.CreateLotTx(tx, lot); err != nil {
				return err
			}
		} else {
			target := &lots[0]
			if target.CurrentQuantity+diff < 0 {
				return &InsufficientStockError{Available: target.CurrentQuantity, Requested: -diff}
			}
			target.CurrentQuantity += diff
			if err := s.repo.UpdateLotTx(tx, target); err != nil {
				return err
			}
		}

		notes := req.Reason
		return s.repo.CreateMovementTx(tx, s.movement(productID, userID, model.MovementAdjustment, diff, nil, nil, &notes))
	})
}

// ── Reads / alerts ────────────────────────────────────────────────────────────

func (s *inventoryService) ProductStock(ctx context.Context, productID uuid.UUID) (*dto.ProductStockResponse, error) {
	lots, err := s.repo.FindLotsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	sortLotsForConsumption(lots)

	resp := &dto.ProductStockResponse{
		ProductID: productID.String(),
		Lots:      make([]dto.StockLotResponse, 0, len(lots)),
	}
	for i := range lots {
		l := &lots[i]
		resp.TotalQuantity += l.CurrentQuantity
		resp.TotalReserved += l.ReservedQuantity
		resp.TotalAvailable += l.Available()

		lr := dto.StockLotResponse{
			ID:                l.ID.String(),
			ProductID:         l.ProductID.String(),
			CurrentQuantity:   l.CurrentQuantity,
			ReservedQuantity:  l.ReservedQuantity,
			AvailableQuantity: l.Available(),
			BatchNumber:       l.BatchNumber,
			Location:          l.Location,
		}
		if l.ExpirationDate != nil {
			d := l.ExpirationDate.Format("2006-01-02")
			lr.ExpirationDate = &d
		}
		resp.Lots = append(resp.Lots, lr)
	}
	return resp, nil
}

func (s *inventoryService) Movements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	movements, total, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.StockMovementResponse, 0, len(movements))
	for i := range movements {
		m := &movements[i]
		item := dto.StockMovementResponse{
			ID:            m.ID.String(),
			ProductID:     m.ProductID.String(),
			Type:          string(m.Type),
			Quantity:      m.Quantity,
			ReferenceType: m.ReferenceType,
			Notes:         m.Notes,
			CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if m.Product != nil {
			item.ProductName = m.Product.Name
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			item.ReferenceID = &ref
		}
		items = append(items, item)
	}
	return &dto.MovementListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *inventoryService) LowStockAlerts(ctx context.Context) ([]dto.LowStockAlert, error) {
	rows, err := s.productRepo.FindBelowMinimum(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlert, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		level := "warning"
		if r.TotalStock == 0 {
			level = "critical"
		}
		alerts = append(alerts, dto.LowStockAlert{
			ProductID:    r.ID.String(),
			ProductName:  r.Name,
			CurrentStock: r.TotalStock,
			MinimumStock: r.MinimumStock,
			ReorderPoint: r.ReorderPoint,
			Level:        level,
		})
	}
	return alerts, nil
}

func (s *inventoryService) ExpirationAlerts(ctx context.Context, withinDays int) ([]dto.ExpirationAlert, error) {
	now := time.Now().UTC()
	horizon := now.AddDate(0, 0, withinDays)

	lots, err := s.repo.FindNearExpiration(ctx, horizon)
	if err != nil {
		return nil, err
	}

	alerts := make([]dto.ExpirationAlert, 0, len(lots))
	for i := range lots {
		l := &lots[i]
		days := int(l.ExpirationDate.Sub(now).Hours() / 24)
		level := "warning"
		if days <= 7 {
			level = "critical"
		}
		alert := dto.ExpirationAlert{
			ProductID:        l.ProductID.String(),
			LotID:            l.ID.String(),
			BatchNumber:      l.BatchNumber,
			ExpirationDate:   l.ExpirationDate.Format("2006-01-02"),
			DaysToExpiration: days,
			Quantity:         l.CurrentQuantity,
			Level:            level,
		}
		if l.Product != nil {
			alert.ProductName = l.Product.Name
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// movement builds a ledger entry with the sign normalized by movement type.
func (s *inventoryService) movement(productID, userID uuid.UUID, movType model.StockMovementType, quantity int, refID, refType, notes *string) *model.StockMovement {
	m := &model.StockMovement{
		ProductID:     productID,
		Type:          movType,
		Quantity:      movType.NormalizeQuantity(quantity),
		ReferenceType: refType,
		Notes:         notes,
	}
	if userID != uuid.Nil {
		m.CreatedBy = &userID
	}
	if refID != nil {
		if parsed, err := uuid.Parse(*refID); err == nil {
			m.ReferenceID = &parsed
		}
	}
	return m
}

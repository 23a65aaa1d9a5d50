package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/adapters/persistence/repositories"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/pkg/claimcode"

	"gorm.io/gorm"
)

const claimCodeAttempts = 5

// orderLockStripes bounds the lock table; memory stays constant no
// matter how many orders the process has touched
const orderLockStripes = 64

// OrderService governs the order fulfillment state machine.
// Transitions on the same order are serialized through a striped
// lock so that two concurrent redeem attempts against the same claim
// code cannot both succeed.
type OrderService struct {
	orderRepo    repositories.OrderRepository
	bookRepo     repositories.BookRepository
	discountRepo repositories.DiscountRepository

	locks [orderLockStripes]sync.Mutex
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repositories.OrderRepository,
	bookRepo repositories.BookRepository,
	discountRepo repositories.DiscountRepository,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		bookRepo:     bookRepo,
		discountRepo: discountRepo,
	}
}

// lockOrder returns the stripe serializing transitions for one order
// id. Distinct orders sharing a stripe serialize too, which is safe,
// just occasionally slower.
func (s *OrderService) lockOrder(orderID uint) *sync.Mutex {
	return &s.locks[orderID%orderLockStripes]
}

// PlaceItemInput represents one requested line item
type PlaceItemInput struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"`
}

// PlaceInput represents order placement input
type PlaceInput struct {
	Items []PlaceItemInput `json:"items"`
}

// Place creates an order in Pending with a fresh unique claim code.
// Prices and the best discount are computed once and frozen; later
// catalog or discount changes never touch a placed order.
func (s *OrderService) Place(ctx context.Context, memberID uint, input *PlaceInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	ids := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidInput
		}
		ids = append(ids, item.BookID)
	}

	books, err := s.bookRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	var items []models.OrderItem
	var total float64
	for _, item := range input.Items {
		book, ok := byID[item.BookID]
		if !ok {
			return nil, domain.ErrBookNotFound
		}
		items = append(items, models.OrderItem{
			BookID:    book.ID,
			Title:     book.Title,
			Quantity:  item.Quantity,
			UnitPrice: book.Price,
		})
		total += book.Price * float64(item.Quantity)
	}

	discount, err := s.computeDiscount(ctx, items, total)
	if err != nil {
		return nil, err
	}

	code, err := s.freshClaimCode(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		MemberID:        memberID,
		TotalAmount:     total,
		DiscountApplied: discount,
		ClaimCode:       code,
		Status:          string(domain.OrderPending),
		Items:           items,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("✅ Order %d placed by member %d (total %.2f, discount %.2f)",
		order.ID, memberID, total, discount)
	return order, nil
}

// computeDiscount freezes the discount amount at placement time.
// Policy: the better of the single highest applicable discount and the
// sum of all applicable stackable discounts.
func (s *OrderService) computeDiscount(ctx context.Context, items []models.OrderItem, total float64) (float64, error) {
	discounts, err := s.discountRepo.ListActive(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	inOrder := make(map[uint]float64) // book id -> line subtotal
	for _, item := range items {
		inOrder[item.BookID] += item.UnitPrice * float64(item.Quantity)
	}

	var bestSingle, stackSum float64
	for _, d := range discounts {
		if total < d.MinAmount {
			continue
		}

		base := total
		if d.BookID != nil {
			subtotal, ok := inOrder[*d.BookID]
			if !ok {
				continue
			}
			base = subtotal
		}
		amount := base * d.Percent / 100

		if amount > bestSingle {
			bestSingle = amount
		}
		if d.Stackable {
			stackSum += amount
		}
	}

	applied := bestSingle
	if stackSum > applied {
		applied = stackSum
	}
	if applied > total {
		applied = total
	}
	return applied, nil
}

// freshClaimCode generates a claim code not yet bound to any order
func (s *OrderService) freshClaimCode(ctx context.Context) (string, error) {
	for i := 0; i < claimCodeAttempts; i++ {
		code, err := claimcode.Generate()
		if err != nil {
			return "", err
		}
		taken, err := s.orderRepo.ExistsByClaimCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique claim code")
}

// GetOwn returns a member's own order. Unknown ids and other members'
// orders both surface as not found.
func (s *OrderService) GetOwn(ctx context.Context, memberID, orderID uint) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.MemberID != memberID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// Get returns any order (staff access, gated upstream)
func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.getOrder(ctx, orderID)
}

// ListOwn returns a member's orders
func (s *OrderService) ListOwn(ctx context.Context, memberID uint, offset, limit int) ([]*models.Order, int64, error) {
	return s.orderRepo.ListByMember(ctx, memberID, offset, limit)
}

// ListByStatus returns orders in one status for staff processing
func (s *OrderService) ListByStatus(ctx context.Context, status domain.OrderStatus, offset, limit int) ([]*models.Order, int64, error) {
	if status != domain.OrderPending && status != domain.OrderConfirmed &&
		status != domain.OrderCompleted && status != domain.OrderCancelled {
		return nil, 0, domain.ErrInvalidInput
	}
	return s.orderRepo.ListByStatus(ctx, status, offset, limit)
}

// Redeem releases an order against its claim code. Requires the order
// to be Pending or Confirmed and the supplied code to match exactly.
// Exactly one of any number of concurrent attempts can succeed; the
// rest observe the post-transition state.
func (s *OrderService) Redeem(ctx context.Context, staffID, orderID uint, code string) (*models.Order, error) {
	lock := s.lockOrder(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	status := domain.OrderStatus(order.Status)
	if status != domain.OrderPending && status != domain.OrderConfirmed {
		return nil, domain.ErrInvalidTransition
	}

	if !claimcode.Matches(code, order.ClaimCode) {
		// No state change, no detail about why the code is wrong
		log.Printf("🚫 Claim code mismatch on order %d (staff %d)", orderID, staffID)
		return nil, domain.ErrClaimCodeMismatch
	}

	now := time.Now()
	order.Status = string(domain.OrderCompleted)
	order.ProcessedBy = &staffID
	order.ProcessedAt = &now

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("✅ Order %d redeemed by staff %d", orderID, staffID)
	return order, nil
}

// CancelOwn cancels a member's own order while it is still Pending
func (s *OrderService) CancelOwn(ctx context.Context, memberID, orderID uint) (*models.Order, error) {
	lock := s.lockOrder(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.MemberID != memberID {
		return nil, domain.ErrOrderNotFound
	}
	if domain.OrderStatus(order.Status) != domain.OrderPending {
		return nil, domain.ErrInvalidTransition
	}

	order.Status = string(domain.OrderCancelled)
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("✅ Order %d cancelled by member %d", orderID, memberID)
	return order, nil
}

// Cancel cancels any non-terminal order (staff access). Cancelling an
// already-cancelled order is an invalid transition, not a silent
// success, so double-cancel bugs stay visible to callers.
func (s *OrderService) Cancel(ctx context.Context, staffID, orderID uint) (*models.Order, error) {
	lock := s.lockOrder(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if domain.OrderStatus(order.Status).IsTerminal() {
		return nil, domain.ErrInvalidTransition
	}

	order.Status = string(domain.OrderCancelled)
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("✅ Order %d cancelled by staff %d", orderID, staffID)
	return order, nil
}

// UpdateStatus moves an order strictly forward. Backward moves and any
// transition out of a terminal state are rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, staffID, orderID uint, next domain.OrderStatus) (*models.Order, error) {
	lock := s.lockOrder(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := domain.OrderStatus(order.Status)
	if !current.CanAdvanceTo(next) {
		return nil, domain.ErrInvalidTransition
	}

	order.Status = string(next)
	if next == domain.OrderCompleted {
		now := time.Now()
		order.ProcessedBy = &staffID
		order.ProcessedAt = &now
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("✅ Order %d moved %s to %s by staff %d", orderID, current, next, staffID)
	return order, nil
}

func (s *OrderService) getOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

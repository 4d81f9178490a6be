package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront/orders-service/internal/app/orders/entity"
	"storefront/orders-service/internal/app/orders/infrastructure"
	"storefront/orders-service/internal/app/orders/repository"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CheckoutPolicy - сколько раз и с какой паузой повторять попытку при конфликте
type CheckoutPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Jitter      time.Duration
}

var DefaultCheckoutPolicy = CheckoutPolicy{
	MaxAttempts: 3,
	Backoff:     30 * time.Millisecond,
	Jitter:      20 * time.Millisecond,
}

func (p CheckoutPolicy) backoff() retry.Backoff {
	base := p.Backoff
	if base <= 0 {
		base = time.Millisecond
	}
	var b retry.Backoff = retry.NewConstant(base)
	if p.Jitter > 0 {
		b = retry.WithJitter(p.Jitter, b)
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// CheckoutService резервирует остатки и создает заказ.
// Единственный компонент, который уменьшает stock.
type CheckoutService struct {
	tx        repository.TxManager
	publisher infrastructure.MessagePublisher
	policy    CheckoutPolicy
	tracer    trace.Tracer
}

func NewCheckoutService(tx repository.TxManager, publisher infrastructure.MessagePublisher, policy CheckoutPolicy) *CheckoutService {
	return &CheckoutService{
		tx:        tx,
		publisher: publisher,
		policy:    policy,
		tracer:    otel.Tracer("storefront/orders-service/checkout"),
	}
}

type cartLine struct {
	variantID int64
	quantity  int
}

// PlaceOrder оформляет корзину целиком или не оформляет ничего.
// Каждая попытка - отдельная транзакция: чтение остатков, проверка,
// вставка заказа и условное списание по (stock, version).
func (s *CheckoutService) PlaceOrder(ctx context.Context, req *entity.CheckoutRequest) (*entity.Order, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	lines, err := normalizeCart(req.Cart)
	if err != nil {
		s.finish(span, metrics.CheckoutValidationFailed, start, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("checkout.lines", len(lines)))

	attempt := 0
	order, err := retry.DoValue(ctx, s.policy.backoff(), func(ctx context.Context) (*entity.Order, error) {
		attempt++
		span.AddEvent("checkout.attempt", trace.WithAttributes(attribute.Int("attempt", attempt)))

		placed, err := s.attempt(ctx, req, lines)
		if err == nil {
			return placed, nil
		}

		reason := retryReason(err)
		if reason == "" {
			return nil, err
		}
		if attempt < s.policy.MaxAttempts {
			metrics.RecordCheckoutRetry(reason)
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("reason", reason).
				Msg("Checkout attempt failed, retrying")
		}
		return nil, retry.RetryableError(err)
	})
	if err != nil {
		return nil, s.fail(span, start, attempt, err)
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.Int("checkout.attempts", attempt))
	s.finish(span, metrics.CheckoutSuccess, start, nil)
	metrics.RecordOrderCreated(order.TotalAmount.InexactFloat64())

	logger.Info().
		Int64("order_id", order.ID).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Int("items", len(order.Items)).
		Int("attempts", attempt).
		Msg("Order placed")

	publishOrderEvent(ctx, s.publisher, newOrderEvent(entity.EventOrderCreated, order, order.Items))

	return order, nil
}

func (s *CheckoutService) attempt(ctx context.Context, req *entity.CheckoutRequest, lines []cartLine) (*entity.Order, error) {
	var order *entity.Order

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ids := make([]int64, len(lines))
		for i, line := range lines {
			ids[i] = line.variantID
		}

		variants, err := repos.Variants.GetForCheckout(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load variants: %w", err)
		}
		if err := validateLines(lines, variants); err != nil {
			return err
		}

		placed := buildOrder(req, lines, variants)
		if err := repos.Orders.Create(ctx, placed); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		var lost []string
		for _, line := range lines {
			observed := variants[line.variantID]
			affected, err := repos.Variants.DecrementStock(ctx, observed, line.quantity)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if affected == 0 {
				lost = append(lost, observed.ProductName)
			}
		}
		if len(lost) > 0 {
			return &ConflictError{Products: lost}
		}

		order = placed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// fail приводит финальную ошибку к таксономии сервиса
func (s *CheckoutService) fail(span trace.Span, start time.Time, attempts int, err error) error {
	var validation *ValidationError
	var conflict *ConflictError

	switch {
	case errors.As(err, &validation):
		s.finish(span, metrics.CheckoutValidationFailed, start, err)
		return err
	case errors.As(err, &conflict):
		logger.Warn().Int("attempts", attempts).Strs("products", conflict.Products).Msg("Checkout conflict, attempts exhausted")
		s.finish(span, metrics.CheckoutConflictExhausted, start, err)
		return conflict
	case errors.Is(err, repository.ErrStoreBusy):
		logger.Error().Err(err).Int("attempts", attempts).Msg("Store busy, attempts exhausted")
		s.finish(span, metrics.CheckoutUnavailable, start, err)
		return ErrStoreUnavailable
	}

	logger.Error().Err(err).Int("attempts", attempts).Msg("Checkout failed")
	s.finish(span, metrics.CheckoutError, start, err)
	return fmt.Errorf("failed to place order: %w", err)
}

func (s *CheckoutService) finish(span trace.Span, outcome string, start time.Time, err error) {
	metrics.RecordCheckout(outcome, time.Since(start))
	span.SetAttributes(attribute.String("checkout.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
}

func retryReason(err error) string {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return "stock_changed"
	case errors.Is(err, repository.ErrStoreBusy):
		return "store_busy"
	}
	return ""
}

// normalizeCart склеивает повторяющиеся варианты и сортирует строки по id,
// чтобы конкурентные корзины брали блокировки строк в одном порядке
func normalizeCart(cart []entity.CartLine) ([]cartLine, error) {
	if len(cart) == 0 {
		return nil, &ValidationError{Reason: ErrInvalidCart}
	}

	merged := make(map[int64]int, len(cart))
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Reason: ErrInvalidCart, VariantID: line.VariantID, Requested: line.Quantity}
		}
		// Оба слагаемых не больше предела, поэтому сумма не переполняется
		if line.Quantity > entity.MaxCartLineQuantity || merged[line.VariantID] > entity.MaxCartLineQuantity-line.Quantity {
			return nil, &ValidationError{Reason: ErrInvalidCart, VariantID: line.VariantID, Requested: line.Quantity}
		}
		merged[line.VariantID] += line.Quantity
	}

	lines := make([]cartLine, 0, len(merged))
	for id, qty := range merged {
		lines = append(lines, cartLine{variantID: id, quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].variantID < lines[j].variantID })
	return lines, nil
}

func validateLines(lines []cartLine, variants map[int64]entity.CheckoutVariant) error {
	total := decimal.Zero
	for _, line := range lines {
		v, ok := variants[line.variantID]
		if !ok {
			return &ValidationError{Reason: ErrVariantNotFound, VariantID: line.variantID, Requested: line.quantity}
		}
		if v.Status != entity.VariantStatusActive {
			return &ValidationError{Reason: ErrVariantInactive, VariantID: v.ID, ProductName: v.ProductName, Requested: line.quantity, Available: v.Stock}
		}
		if v.Stock < line.quantity {
			return &ValidationError{Reason: ErrInsufficientStock, VariantID: v.ID, ProductName: v.ProductName, Requested: line.quantity, Available: v.Stock}
		}
		total = total.Add(v.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
		if total.GreaterThan(entity.MaxOrderAmount) {
			return &ValidationError{Reason: ErrOrderTooLarge, VariantID: v.ID, ProductName: v.ProductName, Requested: line.quantity, Available: v.Stock}
		}
	}
	return nil
}

// buildOrder считает цены только по прочитанным из БД вариантам
func buildOrder(req *entity.CheckoutRequest, lines []cartLine, variants map[int64]entity.CheckoutVariant) *entity.Order {
	country := strings.ToUpper(strings.TrimSpace(req.ShippingCountry))
	if country == "" {
		country = entity.DefaultShippingCountry
	}

	order := &entity.Order{
		Status:          entity.OrderStatusPending,
		CustomerName:    strings.TrimSpace(req.Name),
		CustomerPhone:   strings.TrimSpace(req.Phone),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ShippingCity:    strings.TrimSpace(req.ShippingCity),
		ShippingCountry: country,
		Notes:           req.Notes,
		Items:           make([]entity.OrderItem, 0, len(lines)),
	}

	total := decimal.Zero
	for _, line := range lines {
		v := variants[line.variantID]
		lineTotal := v.Price.Mul(decimal.NewFromInt(int64(line.quantity)))
		order.Items = append(order.Items, entity.OrderItem{
			VariantID:   v.ID,
			Quantity:    line.quantity,
			UnitPrice:   v.Price,
			TotalPrice:  lineTotal,
			ProductName: v.ProductName,
		})
		total = total.Add(lineTotal)
	}
	order.TotalAmount = total

	return order
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ManuelReschke/PixCheckout/app/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// webhookInFlightTTL is how long a delivery that started processing but never
// finished blocks re-deliveries of the same body.
const webhookInFlightTTL = time.Minute

// Options carries the optional collaborators of the payment service.
type Options struct {
	// CallbackURL is sent to the gateway as the webhook target.
	CallbackURL string

	// FallbackWindow restricts value-based rescue to orders created within
	// the window. Zero means no restriction.
	FallbackWindow time.Duration

	Cache    StatusCache
	Archiver PayloadArchiver
	Counter  OutcomeRecorder
}

// Service creates orders, issues charges and reconciles gateway webhooks.
type Service struct {
	repo     Repository
	gateway  Gateway
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a payment service from injected collaborators.
func NewService(repo Repository, gateway Gateway, opts Options) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Service{
		repo:     repo,
		gateway:  gateway,
		opts:     opts,
		validate: v,
		now:      time.Now,
	}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gateway Gateway, opts Options) *Service {
	return NewService(NewRepository(db), gateway, opts)
}

// CallbackURLFromBase derives the webhook URL from the public base URL.
func CallbackURLFromBase(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/webhook"
}

// CreateOrder records a pending order and requests a PIX charge for it. A
// failed charge leaves the pending order in place without transaction id.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	in.normalize()
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName:  in.Customer.Name,
		CustomerPhone: in.Customer.Phone,
		CustomerEmail: in.Customer.Email,
		AmountCents:   in.ValueInCents,
		Status:        models.OrderStatusPending,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, storeError("create order", err)
	}

	charge, err := s.gateway.CreateCharge(ctx, order.AmountCents, s.opts.CallbackURL)
	if err != nil {
		log.Warnf("[Checkout] Charge for order %d failed: %v", order.ID, err)
		if !IsGateway(err) {
			err = &GatewayError{Message: genericGatewayMessage, Err: err}
		}
		return nil, err
	}

	txid := strings.TrimSpace(charge.TransactionID)
	if txid == "" {
		log.Warnf("[Checkout] Gateway returned no transaction id for order %d", order.ID)
	} else {
		set, err := s.repo.SetCorrelationID(ctx, order.ID, txid)
		if err != nil {
			return nil, storeError("set correlation id", err)
		}
		if !set {
			log.Warnf("[Checkout] Order %d was already correlated when storing transaction %s", order.ID, txid)
		}
	}

	log.Infof("[Checkout] Order %d created: %d cents, transaction %q", order.ID, order.AmountCents, txid)
	return &CreateOrderResult{
		LocalID:       order.ID,
		TransactionID: txid,
		Charge:        charge.Payload,
	}, nil
}

// OrderStatus answers a status poll. Unknown orders yield StatusUnknown with
// a nil error; store failures yield StatusUnknown and the error.
func (s *Service) OrderStatus(ctx context.Context, id uint) (string, error) {
	if id == 0 {
		return StatusUnknown, nil
	}

	if s.opts.Cache != nil {
		status, ok, err := s.opts.Cache.GetStatus(ctx, id)
		if err != nil {
			log.Warnf("[Checkout] Status cache lookup for order %d failed: %v", id, err)
		} else if ok && status == models.OrderStatusPaid {
			return status, nil
		}
	}

	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return StatusUnknown, nil
	}
	if err != nil {
		return StatusUnknown, storeError("get order", err)
	}
	return order.Status, nil
}

// Reconcile applies an approved notification to the order store.
func (s *Service) Reconcile(ctx context.Context, n *Notification) (*ReconcileResult, error) {
	if n == nil || n.TransactionID == "" {
		return &ReconcileResult{Outcome: OutcomeMissingID}, nil
	}
	if !n.Approved() {
		return &ReconcileResult{Outcome: OutcomeIgnored}, nil
	}

	res, err := s.matchExact(ctx, n.TransactionID)
	if err != nil || res != nil {
		return res, err
	}
	if n.AmountCents == nil {
		return &ReconcileResult{Outcome: OutcomeUnmatched}, nil
	}

	var createdAfter *time.Time
	if s.opts.FallbackWindow > 0 {
		t := s.now().Add(-s.opts.FallbackWindow)
		createdAfter = &t
	}

	order, err := s.repo.RescuePending(ctx, n.TransactionID, *n.AmountCents, createdAfter, s.now())
	switch {
	case err == nil:
		log.Warnf("[Webhook] Rescued order %d by amount %d for unknown transaction %s", order.ID, *n.AmountCents, n.TransactionID)
		id := order.ID
		return &ReconcileResult{Outcome: OutcomeRescued, OrderID: &id}, nil
	case errors.Is(err, ErrOrderNotFound):
		return &ReconcileResult{Outcome: OutcomeUnmatched}, nil
	case errors.Is(err, ErrCorrelationTaken):
		// the checkout stored the id in the meantime
		res, err := s.matchExact(ctx, n.TransactionID)
		if err != nil || res != nil {
			return res, err
		}
		return &ReconcileResult{Outcome: OutcomeUnmatched}, nil
	default:
		return nil, storeError("rescue pending order", err)
	}
}

// matchExact returns nil, nil when no order owns the transaction id.
func (s *Service) matchExact(ctx context.Context, transactionID string) (*ReconcileResult, error) {
	order, err := s.repo.FindByCorrelationID(ctx, transactionID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find order by transaction id", err)
	}

	id := order.ID
	changed, err := s.repo.MarkPaid(ctx, id, s.now())
	if err != nil {
		return nil, storeError("mark order paid", err)
	}
	if !changed {
		return &ReconcileResult{Outcome: OutcomeDuplicate, OrderID: &id}, nil
	}
	return &ReconcileResult{Outcome: OutcomeTransitioned, OrderID: &id}, nil
}

// HandleWebhook records a delivery and reconciles it. Re-deliveries of an
// event that settled an order are acknowledged without touching orders again;
// events that settled nothing are reconciled again. A re-delivery racing an
// unfinished copy fails with ErrWebhookInFlight so that it is retried.
func (s *Service) HandleWebhook(ctx context.Context, raw []byte, n *Notification) (*WebhookResult, error) {
	receivedAt := s.now()
	eventKey := EventKey(raw)
	event := &models.PaymentWebhookEvent{
		Provider:      models.PaymentProviderPushinPay,
		EventKey:      eventKey,
		TransactionID: n.TransactionID,
		Status:        n.Status,
		PayloadJSON:   string(raw),
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(ctx, event)
	if err != nil {
		return nil, storeError("record webhook event", err)
	}
	if !created {
		reclaimed, err := s.repo.ReclaimWebhookEvent(ctx, stored.ID, receivedAt.Add(-webhookInFlightTTL))
		if err != nil {
			return nil, storeError("reclaim webhook event", err)
		}
		if !reclaimed {
			if stored.ProcessedAt == nil {
				log.Infof("[Webhook] Event %d is still in flight (transaction %s)", stored.ID, n.TransactionID)
				return nil, storeError("claim webhook event", ErrWebhookInFlight)
			}
			log.Infof("[Webhook] Duplicate delivery of event %d (transaction %s)", stored.ID, n.TransactionID)
			s.count(ctx, OutcomeDuplicate)
			return &WebhookResult{Outcome: OutcomeDuplicate, OrderID: stored.OrderID, EventID: stored.ID}, nil
		}
		log.Infof("[Webhook] Reprocessing event %d (transaction %s)", stored.ID, n.TransactionID)
	}

	res, err := s.Reconcile(ctx, n)
	if err != nil {
		if markErr := s.repo.MarkWebhookProcessed(ctx, stored.ID, "", nil, err.Error()); markErr != nil {
			log.Errorf("[Webhook] Failed to record processing error for event %d: %v", stored.ID, markErr)
		}
		return nil, err
	}

	if err := s.repo.MarkWebhookProcessed(ctx, stored.ID, string(res.Outcome), res.OrderID, ""); err != nil {
		log.Errorf("[Webhook] Failed to mark event %d processed: %v", stored.ID, err)
	}
	s.count(ctx, res.Outcome)

	switch {
	case res.Outcome.Paid():
		log.Infof("[Webhook] Order %d paid (%s, transaction %s)", *res.OrderID, res.Outcome, n.TransactionID)
		s.afterPaid(ctx, *res.OrderID, eventKey, receivedAt, raw)
	case res.Outcome == OutcomeUnmatched:
		log.Warnf("[Webhook] No order for transaction %s", n.TransactionID)
	}

	return &WebhookResult{Outcome: res.Outcome, OrderID: res.OrderID, EventID: stored.ID}, nil
}

func (s *Service) afterPaid(ctx context.Context, orderID uint, eventKey string, receivedAt time.Time, raw []byte) {
	if s.opts.Cache != nil {
		if err := s.opts.Cache.SetStatus(ctx, orderID, models.OrderStatusPaid); err != nil {
			log.Warnf("[Webhook] Failed to cache paid status for order %d: %v", orderID, err)
		}
	}
	if s.opts.Archiver != nil {
		if err := s.opts.Archiver.ArchiveWebhookPayload(ctx, eventKey, receivedAt, raw); err != nil {
			log.Warnf("[Webhook] Failed to archive payload for order %d: %v", orderID, err)
		}
	}
}

func (s *Service) count(ctx context.Context, outcome Outcome) {
	if s.opts.Counter == nil {
		return
	}
	if err := s.opts.Counter.Add(ctx, string(outcome)); err != nil {
		log.Warnf("[Webhook] Failed to count outcome %s: %v", outcome, err)
	}
}

func (s *Service) validateInput(in *CreateOrderInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: "invalid order", Err: err}
	}
	return &ValidationError{Message: validationMessage(verrs[0]), Err: err}
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

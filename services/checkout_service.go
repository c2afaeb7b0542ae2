package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/services/razorpay"
	"github.com/sahilchouksey/skill-academy/utils/metrics"
	"github.com/sahilchouksey/skill-academy/utils/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionCreatePayment asks checkout to open a gateway order
const ActionCreatePayment = "create_payment"

// PaymentGateway is the part of the payment provider checkout depends on
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	VerifySignature(payload razorpay.CallbackPayload) bool
}

// EnrollmentNotifier is told about enrollments created by a verified payment
type EnrollmentNotifier interface {
	NotifyEnrollment(ctx context.Context, user *model.User, course *model.Course, payment *model.Payment) error
}

// CheckoutMode says what InitiateCheckout did
type CheckoutMode string

const (
	ModeDisplay      CheckoutMode = "display"
	ModeEnrolled     CheckoutMode = "enrolled"
	ModeOrderCreated CheckoutMode = "order_created"
)

// BillingDetails are collected on the checkout page and forwarded to the
// gateway as order notes
type BillingDetails struct {
	FirstName string `form:"first_name" json:"first_name" validate:"required"`
	LastName  string `form:"last_name" json:"last_name" validate:"required"`
	Country   string `form:"country" json:"country" validate:"required"`
	Address1  string `form:"address_1" json:"address_1" validate:"required"`
	City      string `form:"city" json:"city" validate:"required"`
	State     string `form:"state" json:"state" validate:"required"`
	Postcode  string `form:"postcode" json:"postcode" validate:"required"`
	Phone     string `form:"phone" json:"phone" validate:"required"`
	Email     string `form:"email" json:"email" validate:"required,email"`
}

func (b BillingDetails) sanitized() BillingDetails {
	return BillingDetails{
		FirstName: validation.SanitizeString(b.FirstName),
		LastName:  validation.SanitizeString(b.LastName),
		Country:   validation.SanitizeString(b.Country),
		Address1:  validation.SanitizeString(b.Address1),
		City:      validation.SanitizeString(b.City),
		State:     validation.SanitizeString(b.State),
		Postcode:  validation.SanitizeString(b.Postcode),
		Phone:     validation.SanitizeString(b.Phone),
		Email:     validation.SanitizeString(b.Email),
	}
}

// Notes renders the billing details in the shape sent to the gateway
func (b BillingDetails) Notes() map[string]string {
	return map[string]string{
		"name":     strings.TrimSpace(b.FirstName + " " + b.LastName),
		"country":  b.Country,
		"address":  b.Address1,
		"city":     b.City,
		"state":    b.State,
		"postcode": b.Postcode,
		"phone":    b.Phone,
		"email":    b.Email,
	}
}

// CheckoutRequest is the input of InitiateCheckout
type CheckoutRequest struct {
	UserID   uint
	CourseID uint
	Action   string
	Billing  *BillingDetails
}

// Pricing is what the learner pays for a course
type Pricing struct {
	Price       int64  `json:"price"`
	Discount    int    `json:"discount"`
	Payable     int64  `json:"payable"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// CheckoutResult is the output of InitiateCheckout
type CheckoutResult struct {
	Mode            CheckoutMode
	Course          *model.Course
	Pricing         Pricing
	Order           *razorpay.Order
	Payment         *model.Payment
	Enrollment      *model.UserCourse
	AlreadyEnrolled bool
}

// VerificationResult is the output of VerifyPayment
type VerificationResult struct {
	Outcome    VerificationOutcome
	Payment    *model.Payment
	Enrollment *model.UserCourse
}

// CheckoutConfig holds the gateway-facing settings of checkout
type CheckoutConfig struct {
	Currency      string
	ReceiptPrefix string
	Clock         func() time.Time
}

// CheckoutService turns a course purchase into an enrollment
type CheckoutService struct {
	db        *gorm.DB
	gateway   PaymentGateway
	ledger    *EnrollmentService
	validator *validation.Validator
	notifier  EnrollmentNotifier
	config    CheckoutConfig
	log       *zap.Logger
}

// NewCheckoutService creates a new checkout orchestrator
func NewCheckoutService(db *gorm.DB, gateway PaymentGateway, ledger *EnrollmentService, config CheckoutConfig, log *zap.Logger) *CheckoutService {
	if config.Currency == "" {
		config.Currency = "INR"
	}
	if config.ReceiptPrefix == "" {
		config.ReceiptPrefix = "SKILLACADEMY"
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &CheckoutService{
		db:        db,
		gateway:   gateway,
		ledger:    ledger,
		validator: validation.NewValidator(),
		config:    config,
		log:       log.Named("checkout"),
	}
}

// SetNotifier registers who hears about paid enrollments
func (s *CheckoutService) SetNotifier(notifier EnrollmentNotifier) {
	s.notifier = notifier
}

// CalculatePayableAmount applies a percentage discount to a whole-unit price,
// rounds half away from zero, and returns both the payable amount and the
// same amount in minor units (x100).
func CalculatePayableAmount(price int64, discount int) (payable int64, minor int64) {
	if discount < 0 {
		discount = 0
	}
	if discount > 100 {
		discount = 100
	}

	p := decimal.NewFromInt(price)
	off := p.Mul(decimal.NewFromInt(int64(discount))).Div(decimal.NewFromInt(100))
	rounded := p.Sub(off).Round(0)

	return rounded.IntPart(), rounded.Mul(decimal.NewFromInt(100)).IntPart()
}

// PriceCourse computes the pricing shown on the checkout page
func (s *CheckoutService) PriceCourse(course *model.Course) Pricing {
	payable, minor := CalculatePayableAmount(course.Price, course.DiscountPercent())
	return Pricing{
		Price:       course.Price,
		Discount:    course.DiscountPercent(),
		Payable:     payable,
		AmountMinor: minor,
		Currency:    s.config.Currency,
	}
}

// InitiateCheckout enrolls free courses immediately, opens a gateway order for
// paid courses when asked to, and otherwise only prices the course.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	course, err := s.loadPublishedCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{
		Mode:    ModeDisplay,
		Course:  course,
		Pricing: s.PriceCourse(course),
	}

	if course.IsFree() {
		return s.enrollFree(ctx, req.UserID, result)
	}

	if req.Action != ActionCreatePayment {
		metrics.CheckoutTotal.WithLabelValues(string(ModeDisplay)).Inc()
		return result, nil
	}

	enrolled, err := s.ledger.IsEnrolled(ctx, req.UserID, course.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	billing := BillingDetails{}
	if req.Billing != nil {
		billing = req.Billing.sanitized()
	}
	if err := s.validator.ValidateStruct(billing); err != nil {
		return nil, &BillingValidationError{Fields: validation.FormatValidationErrors(err)}
	}

	orderReq := razorpay.OrderRequest{
		Amount:   result.Pricing.AmountMinor,
		Currency: s.config.Currency,
		Receipt:  fmt.Sprintf("%s-%d", s.config.ReceiptPrefix, s.config.Clock().Unix()),
		Notes:    billing.Notes(),
	}

	order, err := s.gateway.CreateOrder(ctx, orderReq)
	if err != nil {
		metrics.CheckoutTotal.WithLabelValues("gateway_error").Inc()
		s.log.Error("gateway order creation failed",
			zap.Uint("user_id", req.UserID),
			zap.Uint("course_id", course.ID),
			zap.Int64("amount", orderReq.Amount),
			zap.Error(err))
		return nil, &GatewayError{Op: "create_order", Err: err}
	}

	notes, err := json.Marshal(orderReq.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order notes: %w", err)
	}

	payment := &model.Payment{
		OrderID:  order.ID,
		UserID:   req.UserID,
		CourseID: course.ID,
		Amount:   orderReq.Amount,
		Currency: orderReq.Currency,
		Receipt:  orderReq.Receipt,
		Notes:    datatypes.JSON(notes),
		Status:   model.PaymentStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record pending payment for order %s: %w", order.ID, err)
	}

	s.log.Info("gateway order created",
		zap.String("order_id", order.ID),
		zap.Uint("user_id", req.UserID),
		zap.Uint("course_id", course.ID),
		zap.Int64("amount", orderReq.Amount))
	metrics.CheckoutTotal.WithLabelValues(string(ModeOrderCreated)).Inc()

	result.Mode = ModeOrderCreated
	result.Order = order
	result.Payment = payment
	return result, nil
}

func (s *CheckoutService) enrollFree(ctx context.Context, userID uint, result *CheckoutResult) (*CheckoutResult, error) {
	existing, err := s.ledger.FindEnrollment(ctx, userID, result.Course.ID)
	if err != nil {
		return nil, err
	}

	result.Mode = ModeEnrolled
	if existing != nil {
		result.Enrollment = existing
		result.AlreadyEnrolled = true
		metrics.CheckoutTotal.WithLabelValues(string(ModeEnrolled)).Inc()
		return result, nil
	}

	enrollment, err := s.ledger.Enroll(ctx, nil, userID, result.Course.ID, false)
	if err != nil {
		return nil, err
	}

	s.log.Info("enrolled in free course", zap.Uint("user_id", userID), zap.Uint("course_id", result.Course.ID))
	metrics.EnrollmentsTotal.WithLabelValues("false").Inc()
	metrics.CheckoutTotal.WithLabelValues(string(ModeEnrolled)).Inc()

	result.Enrollment = enrollment
	return result, nil
}

func (s *CheckoutService) loadPublishedCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Author").
		Preload("Level").
		Where("status = ?", model.CourseStatusPublish).
		First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course %d: %w", courseID, err)
	}
	return &course, nil
}

// errPaymentRaced means another callback completed the payment between our
// read and our conditional update
var errPaymentRaced = errors.New("payment completed concurrently")

// VerifyPayment checks a gateway callback and, when it is genuine and new,
// enrolls the buyer and completes the payment in one transaction. Rejections
// come back as outcomes; the error is reserved for infrastructure failures.
func (s *CheckoutService) VerifyPayment(ctx context.Context, payload razorpay.CallbackPayload) (*VerificationResult, error) {
	log := s.log.With(zap.String("order_id", payload.OrderID), zap.String("payment_id", payload.PaymentID))

	if payload.OrderID == "" || payload.PaymentID == "" || payload.Signature == "" || !s.gateway.VerifySignature(payload) {
		return s.finishVerification(log, &VerificationResult{Outcome: OutcomeSignatureInvalid}), nil
	}

	result := &VerificationResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment model.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", payload.OrderID).
			First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Outcome = OutcomeOrderNotFound
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}

		result.Payment = &payment
		if payment.IsVerified() {
			result.Outcome = OutcomeAlreadyVerified
			return nil
		}

		enrollment, err := s.ledger.Enroll(ctx, tx, payment.UserID, payment.CourseID, true)
		if err != nil {
			return err
		}

		verifiedAt := s.config.Clock()
		paymentID := payload.PaymentID

		// Compare-and-swap on status so a racing callback cannot complete twice
		update := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
			Updates(map[string]interface{}{
				"payment_id":     paymentID,
				"signature":      payload.Signature,
				"user_course_id": enrollment.ID,
				"status":         model.PaymentStatusCompleted,
				"verified_at":    verifiedAt,
			})
		if update.Error != nil {
			return fmt.Errorf("failed to complete payment: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			return errPaymentRaced
		}

		payment.PaymentID = &paymentID
		payment.Signature = payload.Signature
		payment.UserCourseID = &enrollment.ID
		payment.Status = model.PaymentStatusCompleted
		payment.VerifiedAt = &verifiedAt

		result.Outcome = OutcomeVerified
		result.Enrollment = enrollment
		return nil
	})

	if errors.Is(err, errPaymentRaced) {
		result = &VerificationResult{Outcome: OutcomeAlreadyVerified, Payment: result.Payment}
		err = nil
	}
	if err != nil {
		metrics.PaymentVerificationsTotal.WithLabelValues("error").Inc()
		log.Error("payment verification failed", zap.Error(err))
		return nil, err
	}

	if result.Outcome == OutcomeVerified {
		metrics.EnrollmentsTotal.WithLabelValues("true").Inc()
		s.notifyAsync(result.Payment)
	}

	return s.finishVerification(log, result), nil
}

func (s *CheckoutService) finishVerification(log *zap.Logger, result *VerificationResult) *VerificationResult {
	metrics.PaymentVerificationsTotal.WithLabelValues(result.Outcome.String()).Inc()

	if result.Outcome.Succeeded() {
		log.Info("payment verified",
			zap.Uint("user_id", result.Payment.UserID),
			zap.Uint("course_id", result.Payment.CourseID),
			zap.Uint("user_course_id", result.Enrollment.ID))
	} else {
		log.Warn("payment verification rejected", zap.Stringer("outcome", result.Outcome))
	}

	return result
}

func (s *CheckoutService) notifyAsync(payment *model.Payment) {
	if s.notifier == nil || payment == nil {
		return
	}

	p := *payment
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var user model.User
		if err := s.db.WithContext(ctx).First(&user, p.UserID).Error; err != nil {
			s.log.Warn("enrollment notification skipped: user lookup failed", zap.Uint("user_id", p.UserID), zap.Error(err))
			return
		}
		var course model.Course
		if err := s.db.WithContext(ctx).First(&course, p.CourseID).Error; err != nil {
			s.log.Warn("enrollment notification skipped: course lookup failed", zap.Uint("course_id", p.CourseID), zap.Error(err))
			return
		}

		if err := s.notifier.NotifyEnrollment(ctx, &user, &course, &p); err != nil {
			s.log.Warn("enrollment notification failed", zap.String("order_id", p.OrderID), zap.Error(err))
		}
	}()
}

// GetPayment returns one of the user's payments by gateway order id
func (s *CheckoutService) GetPayment(ctx context.Context, userID uint, orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return &payment, nil
}

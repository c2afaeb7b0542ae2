package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/services"
	"github.com/sahilchouksey/skill-academy/services/razorpay"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"go.uber.org/zap"
)

// CheckoutHandler exposes course purchase and gateway callbacks
type CheckoutHandler struct {
	checkout *services.CheckoutService
	keyID    string
	log      *zap.Logger
}

// NewCheckoutHandler creates a new checkout handler. keyID is the public
// gateway key the browser needs to open the payment widget.
func NewCheckoutHandler(checkout *services.CheckoutService, keyID string, log *zap.Logger) *CheckoutHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutHandler{
		checkout: checkout,
		keyID:    keyID,
		log:      log.Named("checkout"),
	}
}

// OrderResponse is the order handle the client passes to the payment widget
type OrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CheckoutResponse is returned by Checkout
type CheckoutResponse struct {
	Mode            services.CheckoutMode `json:"mode"`
	Course          *model.Course         `json:"course"`
	Pricing         services.Pricing      `json:"pricing"`
	KeyID           string                `json:"key_id,omitempty"`
	Order           *OrderResponse        `json:"order,omitempty"`
	Enrollment      *model.UserCourse     `json:"enrollment,omitempty"`
	AlreadyEnrolled bool                  `json:"already_enrolled,omitempty"`
}

// VerifyResponse is returned by a successful Verify
type VerifyResponse struct {
	OrderID      string `json:"razorpay_order_id"`
	PaymentID    string `json:"razorpay_payment_id"`
	CourseID     uint   `json:"course_id"`
	UserCourseID uint   `json:"user_course_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Checkout handles GET and POST /api/v1/checkout/:id
//
// Without an action it prices the course; free courses are enrolled right
// away. With action=create_payment it validates billing details and opens a
// gateway order.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return response.BadRequest(c, "Invalid course id")
	}

	action := c.Query("action")
	if action == "" {
		action = c.FormValue("action")
	}

	req := services.CheckoutRequest{
		UserID:   userID,
		CourseID: uint(courseID),
		Action:   action,
	}

	if action == services.ActionCreatePayment {
		var billing services.BillingDetails
		if c.Method() == fiber.MethodGet {
			err = c.QueryParser(&billing)
		} else {
			err = c.BodyParser(&billing)
		}
		if err != nil {
			return response.BadRequest(c, "Invalid billing details")
		}
		req.Billing = &billing
	}

	result, err := h.checkout.InitiateCheckout(c.UserContext(), req)
	if err != nil {
		return h.checkoutFailed(c, err)
	}

	res := CheckoutResponse{
		Mode:            result.Mode,
		Course:          result.Course,
		Pricing:         result.Pricing,
		Enrollment:      result.Enrollment,
		AlreadyEnrolled: result.AlreadyEnrolled,
	}

	switch result.Mode {
	case services.ModeOrderCreated:
		res.KeyID = h.keyID
		res.Order = &OrderResponse{
			ID:       result.Payment.OrderID,
			Amount:   result.Payment.Amount,
			Currency: result.Payment.Currency,
			Receipt:  result.Payment.Receipt,
		}
		return response.Created(c, res)
	case services.ModeEnrolled:
		if result.AlreadyEnrolled {
			return response.SuccessWithMessage(c, "You are already enrolled in this course", res)
		}
		return response.SuccessWithMessage(c, "Enrolled successfully", res)
	default:
		return response.Success(c, res)
	}
}

func (h *CheckoutHandler) checkoutFailed(c *fiber.Ctx, err error) error {
	var billingErr *services.BillingValidationError
	var gatewayErr *services.GatewayError

	switch {
	case errors.As(err, &billingErr):
		return response.FieldErrors(c, billingErr.Fields)
	case errors.As(err, &gatewayErr):
		// Logged by the service with order context
		return response.PaymentFailed(c, fiber.StatusPaymentRequired)
	case errors.Is(err, services.ErrCourseNotFound):
		return response.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return response.Conflict(c, "You are already enrolled in this course")
	default:
		h.log.Error("checkout failed", zap.Error(err))
		return response.InternalServerError(c, "Checkout failed")
	}
}

// Verify handles POST /api/v1/payments/verify, the form-encoded callback the
// browser posts after the payment widget closes
func (h *CheckoutHandler) Verify(c *fiber.Ctx) error {
	var payload razorpay.CallbackPayload
	if err := c.BodyParser(&payload); err != nil {
		return response.PaymentFailed(c, fiber.StatusBadRequest)
	}

	result, err := h.checkout.VerifyPayment(c.UserContext(), payload)
	if err != nil {
		return response.InternalServerError(c, "Payment verification failed")
	}
	if !result.Outcome.Succeeded() {
		return response.PaymentFailed(c, fiber.StatusBadRequest)
	}

	return response.SuccessWithMessage(c, "Payment successful", VerifyResponse{
		OrderID:      payload.OrderID,
		PaymentID:    payload.PaymentID,
		CourseID:     result.Payment.CourseID,
		UserCourseID: result.Enrollment.ID,
		Amount:       result.Payment.Amount,
		Currency:     result.Payment.Currency,
	})
}

// GetPayment handles GET /api/v1/payments/:order_id
func (h *CheckoutHandler) GetPayment(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	payment, err := h.checkout.GetPayment(c.UserContext(), userID, c.Params("order_id"))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to fetch payment")
	}
	return response.Success(c, payment)
}

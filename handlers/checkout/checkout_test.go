package checkout

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/database/dbtest"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/services"
	"github.com/sahilchouksey/skill-academy/services/razorpay"
	authutil "github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const keySecret = "handler_test_secret"

type fixture struct {
	app    *fiber.App
	db     *gorm.DB
	token  string
	user   *model.User
	orders *int32
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func newFixture(t *testing.T, gatewayStatus int) *fixture {
	t.Helper()

	var orders int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gatewayStatus != http.StatusOK {
			w.WriteHeader(gatewayStatus)
			io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR","description":"boom"}}`)
			return
		}
		var req razorpay.OrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		n := atomic.AddInt32(&orders, 1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(razorpay.Order{
			ID:       "order_H" + string(rune('A'+n)),
			Entity:   "order",
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
			Status:   "created",
		})
	}))
	t.Cleanup(gateway.Close)

	db := dbtest.New(t)
	client := razorpay.NewClient(razorpay.Config{
		KeyID:       "rzp_test_key",
		KeySecret:   keySecret,
		BaseURL:     gateway.URL,
		RetryConfig: &razorpay.RetryConfig{},
	})
	checkoutService := services.NewCheckoutService(db, client, services.NewEnrollmentService(db), services.CheckoutConfig{}, nil)
	handler := NewCheckoutHandler(checkoutService, client.KeyID(), nil)

	jwtManager := authutil.NewJWTManager(authutil.JWTConfig{Secret: "checkout-secret", Issuer: "skill-academy-test"})
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	app := fiber.New()
	app.Get("/checkout/:id", authMiddleware.Required(), handler.Checkout)
	app.Post("/checkout/:id", authMiddleware.Required(), handler.Checkout)
	app.Post("/payments/verify", handler.Verify)
	app.Get("/payments/:order_id", authMiddleware.Required(), handler.GetPayment)

	user := dbtest.SeedUser(t, db, "buyer@example.com")
	pair, err := jwtManager.IssuePair(user)
	require.NoError(t, err)

	return &fixture{app: app, db: db, token: pair.AccessToken, user: user, orders: &orders}
}

func (f *fixture) do(t *testing.T, method, path, contentType, body string, auth bool) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func billingForm() url.Values {
	return url.Values{
		"first_name": {"Jane"},
		"last_name":  {"Doe"},
		"country":    {"India"},
		"address_1":  {"12 MG Road"},
		"city":       {"Bengaluru"},
		"state":      {"Karnataka"},
		"postcode":   {"560001"},
		"phone":      {"9999999999"},
		"email":      {"jane@example.com"},
	}
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestCheckoutFreeCourseEnrolls(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	course := dbtest.SeedCourse(t, f.db, "Intro to Go", 0, nil)

	status, env := f.do(t, http.MethodGet, "/checkout/"+itoa(course.ID), "", "", true)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Enrolled successfully", env.Message)

	status, env = f.do(t, http.MethodGet, "/checkout/"+itoa(course.ID), "", "", true)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "You are already enrolled in this course", env.Message)

	assert.Equal(t, int64(1), countRows(t, f.db, &model.UserCourse{}))
	assert.Equal(t, int64(0), countRows(t, f.db, &model.Payment{}))
	assert.Equal(t, int32(0), atomic.LoadInt32(f.orders))
}

func TestCheckoutDisplayPaidCourse(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	discount := 10
	course := dbtest.SeedCourse(t, f.db, "Advanced Go", 500, &discount)

	status, env := f.do(t, http.MethodGet, "/checkout/"+itoa(course.ID), "", "", true)
	require.Equal(t, fiber.StatusOK, status)

	var res CheckoutResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, services.ModeDisplay, res.Mode)
	assert.Equal(t, int64(450), res.Pricing.Payable)
	assert.Equal(t, int64(45000), res.Pricing.AmountMinor)
	assert.Nil(t, res.Order)
	assert.Equal(t, int64(0), countRows(t, f.db, &model.Payment{}))
}

func TestCheckoutRequiresAuth(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	course := dbtest.SeedCourse(t, f.db, "Advanced Go", 500, nil)

	status, _ := f.do(t, http.MethodGet, "/checkout/"+itoa(course.ID), "", "", false)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCheckoutCreatePaymentAndVerify(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	discount := 10
	course := dbtest.SeedCourse(t, f.db, "Advanced Go", 500, &discount)

	status, env := f.do(t, http.MethodPost, "/checkout/"+itoa(course.ID)+"?action=create_payment",
		fiber.MIMEApplicationForm, billingForm().Encode(), true)
	require.Equal(t, fiber.StatusCreated, status)

	var res CheckoutResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, services.ModeOrderCreated, res.Mode)
	assert.Equal(t, "rzp_test_key", res.KeyID)
	require.NotNil(t, res.Order)
	assert.Equal(t, int64(45000), res.Order.Amount)

	var payment model.Payment
	require.NoError(t, f.db.Where("order_id = ?", res.Order.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)

	callback := url.Values{
		"razorpay_order_id":   {res.Order.ID},
		"razorpay_payment_id": {"pay_123"},
		"razorpay_signature":  {razorpay.ComputeSignature(keySecret, res.Order.ID, "pay_123")},
	}
	status, env = f.do(t, http.MethodPost, "/payments/verify", fiber.MIMEApplicationForm, callback.Encode(), false)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Payment successful", env.Message)

	// Replay is rejected without a second enrollment
	status, env = f.do(t, http.MethodPost, "/payments/verify", fiber.MIMEApplicationForm, callback.Encode(), false)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "PAYMENT_FAILED", env.Error.Code)
	assert.Equal(t, int64(1), countRows(t, f.db, &model.UserCourse{}))

	status, env = f.do(t, http.MethodGet, "/payments/"+res.Order.ID, "", "", true)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &payment))
	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.PaymentID)
	assert.Equal(t, "pay_123", *payment.PaymentID)

	status, env = f.do(t, http.MethodPost, "/checkout/"+itoa(course.ID)+"?action=create_payment",
		fiber.MIMEApplicationForm, billingForm().Encode(), true)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestVerifyInvalidSignature(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	course := dbtest.SeedCourse(t, f.db, "Advanced Go", 500, nil)

	status, env := f.do(t, http.MethodPost, "/checkout/"+itoa(course.ID)+"?action=create_payment",
		fiber.MIMEApplicationForm, billingForm().Encode(), true)
	require.Equal(t, fiber.StatusCreated, status)
	var res CheckoutResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))

	callback := url.Values{
		"razorpay_order_id":   {res.Order.ID},
		"razorpay_payment_id": {"pay_123"},
		"razorpay_signature":  {razorpay.ComputeSignature("wrong_secret", res.Order.ID, "pay_123")},
	}
	status, env = f.do(t, http.MethodPost, "/payments/verify", fiber.MIMEApplicationForm, callback.Encode(), false)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "PAYMENT_FAILED", env.Error.Code)

	var payment model.Payment
	require.NoError(t, f.db.Where("order_id = ?", res.Order.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.PaymentID)
	assert.Equal(t, int64(0), countRows(t, f.db, &model.UserCourse{}))
}

func TestCheckoutBillingValidation(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	course := dbtest.SeedCourse(t, f.db, "Advanced Go", 500, nil)

	form := billingForm()
	form.Del("city")
	form.Del("phone")

	status, env := f.do(t, http.MethodPost, "/checkout/"+itoa(course.ID)+"?action=create_payment",
		fiber.MIMEApplicationForm, form.Encode(), true)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Len(t, env.Error.Fields, 2)
	assert.Contains(t, env.Error.Fields, "city")
	assert.Contains(t, env.Error.Fields, "phone")
	assert.Equal(t, int32(0), atomic.LoadInt32(f.orders))
}

func TestCheckoutGatewayFailure(t *testing.T) {
	f := newFixture(t, http.StatusBadRequest)
	course := dbtest.SeedCourse(t, f.db, "Advanced Go", 500, nil)

	status, env := f.do(t, http.MethodPost, "/checkout/"+itoa(course.ID)+"?action=create_payment",
		fiber.MIMEApplicationJSON, `{"first_name":"Jane","last_name":"Doe","country":"India","address_1":"12 MG Road","city":"Bengaluru","state":"Karnataka","postcode":"560001","phone":"9999999999","email":"jane@example.com"}`, true)
	assert.Equal(t, fiber.StatusPaymentRequired, status)
	assert.Equal(t, "PAYMENT_FAILED", env.Error.Code)
	assert.Equal(t, int64(0), countRows(t, f.db, &model.Payment{}))
}

func TestCheckoutUnknownCourse(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	status, _ := f.do(t, http.MethodGet, "/checkout/999", "", "", true)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

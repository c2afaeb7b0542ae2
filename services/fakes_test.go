package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/services/razorpay"
	"github.com/stretchr/testify/mock"
)

const testKeySecret = "rzp_test_secret"

var fixedNow = time.Unix(1700000000, 0).UTC()

// mockGateway records calls for expectation-based tests
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	args := m.Called(ctx, req)
	order, _ := args.Get(0).(*razorpay.Order)
	return order, args.Error(1)
}

func (m *mockGateway) VerifySignature(payload razorpay.CallbackPayload) bool {
	return m.Called(payload).Bool(0)
}

// hmacGateway issues sequential order ids and checks signatures for real
type hmacGateway struct {
	secret string
	seq    int64
}

func (g *hmacGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	n := atomic.AddInt64(&g.seq, 1)
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%d", n),
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}, nil
}

func (g *hmacGateway) VerifySignature(payload razorpay.CallbackPayload) bool {
	return razorpay.VerifyWithSecret(g.secret, payload)
}

func signedCallback(orderID, paymentID string) razorpay.CallbackPayload {
	return razorpay.CallbackPayload{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: razorpay.ComputeSignature(testKeySecret, orderID, paymentID),
	}
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyEnrollment(ctx context.Context, user *model.User, course *model.Course, payment *model.Payment) error {
	return m.Called(ctx, user, course, payment).Error(0)
}

func intPtr(v int) *int { return &v }

func validBilling() *BillingDetails {
	return &BillingDetails{
		FirstName: "Jane",
		LastName:  "Doe",
		Country:   "India",
		Address1:  "12 MG Road",
		City:      "Bengaluru",
		State:     "Karnataka",
		Postcode:  "560001",
		Phone:     "+919800000000",
		Email:     "jane@example.com",
	}
}

package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CallbackPayload is what the checkout widget posts back after payment
type CallbackPayload struct {
	OrderID   string `form:"razorpay_order_id" json:"razorpay_order_id"`
	PaymentID string `form:"razorpay_payment_id" json:"razorpay_payment_id"`
	Signature string `form:"razorpay_signature" json:"razorpay_signature"`
}

// ComputeSignature returns hex(HMAC-SHA256(secret, order_id|payment_id))
func ComputeSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a callback against the key secret in constant time
func (c *Client) VerifySignature(payload CallbackPayload) bool {
	return VerifyWithSecret(c.keySecret, payload)
}

// VerifyWithSecret is VerifySignature without a Client
func VerifyWithSecret(secret string, payload CallbackPayload) bool {
	if secret == "" || payload.OrderID == "" || payload.PaymentID == "" || payload.Signature == "" {
		return false
	}

	expected := ComputeSignature(secret, payload.OrderID, payload.PaymentID)
	return hmac.Equal([]byte(expected), []byte(payload.Signature))
}

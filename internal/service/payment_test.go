package service

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "testing"

    "github.com/stretchr/testify/assert"
)

func sign(orderID, paymentID, secret string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(orderID + "|" + paymentID))
    return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
    const secret = "test-secret"
    sig := sign("order_123", "pay_456", secret)

    assert.True(t, VerifyPaymentSignature("order_123", "pay_456", sig, secret))

    // Any tampering breaks the signature.
    assert.False(t, VerifyPaymentSignature("order_124", "pay_456", sig, secret))
    assert.False(t, VerifyPaymentSignature("order_123", "pay_457", sig, secret))
    assert.False(t, VerifyPaymentSignature("order_123", "pay_456", sig, "other-secret"))
    assert.False(t, VerifyPaymentSignature("order_123", "pay_456", sig[:len(sig)-1], secret))
}

func TestVerifyPaymentSignatureFailsClosed(t *testing.T) {
    sig := sign("o", "p", "s")
    assert.False(t, VerifyPaymentSignature("o", "p", sig, ""))
    assert.False(t, VerifyPaymentSignature("", "p", sig, "s"))
    assert.False(t, VerifyPaymentSignature("o", "", sig, "s"))
    assert.False(t, VerifyPaymentSignature("o", "p", "", "s"))
}

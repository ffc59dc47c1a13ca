package service

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
)

// VerifyPaymentSignature checks the gateway's HMAC-SHA256 signature
// over "<orderID>|<paymentID>". An empty secret disables verification
// and rejects everything, so a misconfigured deployment fails closed.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
    if secret == "" || orderID == "" || paymentID == "" || signature == "" {
        return false
    }
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(orderID + "|" + paymentID))
    expected := hex.EncodeToString(mac.Sum(nil))
    return hmac.Equal([]byte(expected), []byte(signature))
}

// Package qr renders wallet addresses, payment requests, and
// enrollment URLs as inline QR code images.
package qr

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// ImageSize is the rendered edge length in pixels.
const ImageSize = 300

// DataURI encodes data as a PNG QR code and returns it as a
// data:image/png;base64 URI, ready to drop into an <img> tag.
func DataURI(data string) (string, error) {
	png, err := qrcode.Encode(data, qrcode.Low, ImageSize)
	if err != nil {
		return "", errors.Wrap(err, "encode qr code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PaymentURI builds a crypto: payment request URI. Amount and label
// are optional.
func PaymentURI(address string, amount ledger.Amount, label string) string {
	uri := "crypto:" + address

	var params []string
	if amount > 0 {
		params = append(params, "amount="+amount.String())
	}
	if label != "" {
		params = append(params, "label="+url.QueryEscape(label))
	}
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}
	return uri
}

// PaymentQR renders a payment request URI as an inline image.
func PaymentQR(address string, amount ledger.Amount, label string) (string, error) {
	return DataURI(PaymentURI(address, amount, label))
}

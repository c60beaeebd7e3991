// Package whatsapp builds click-to-chat order links for the storefront.
package whatsapp

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

const (
	baseURL = "https://wa.me/"

	productGreeting = "Olá, gostaria de encomendar: "
	customGreeting  = "Olá, gostaria de fazer uma encomenda personalizada"
)

// Orders builds wa.me links that open a chat with the shop.
type Orders struct {
	phone string
}

// NewOrders keeps only the digits of phone, as wa.me expects.
func NewOrders(phone string) (*Orders, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return nil, errors.New("whatsapp phone number is empty")
	}
	return &Orders{phone: digits}, nil
}

// Phone returns the normalized phone number
func (o *Orders) Phone() string {
	return o.phone
}

// OrderLink opens a chat asking for the named product.
func (o *Orders) OrderLink(productName string) string {
	return o.link(productGreeting + strings.TrimSpace(productName))
}

// CustomOrderLink opens a chat asking for a custom order.
func (o *Orders) CustomOrderLink() string {
	return o.link(customGreeting)
}

func (o *Orders) link(message string) string {
	return baseURL + o.phone + "?text=" + encodeComponent(message)
}

// encodeComponent escapes like encodeURIComponent: spaces become %20, not '+'.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

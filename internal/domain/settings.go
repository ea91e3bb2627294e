package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// StoreSettings holds branding, tax configuration and the invoice counter.
// InvoiceStartingNumber is the next invoice number to hand out.
type StoreSettings struct {
	StoreName             string          `json:"storeName"`
	BranchName            string          `json:"branchName"`
	Address               string          `json:"address"`
	Phone                 string          `json:"phone"`
	Email                 string          `json:"email"`
	CurrencySymbol        string          `json:"currencySymbol"`
	VATRate               decimal.Decimal `json:"vatRate"`
	VATEnabled            bool            `json:"vatEnabled"`
	ServiceChargeRate     decimal.Decimal `json:"serviceChargeRate"`
	ServiceChargeEnabled  bool            `json:"serviceChargeEnabled"`
	InvoiceHeader         string          `json:"invoiceHeader"`
	InvoiceFooter         string          `json:"invoiceFooter"`
	InvoicePrefix         string          `json:"invoicePrefix"`
	InvoiceStartingNumber int64           `json:"invoiceStartingNumber"`
	LogoURL               string          `json:"logoUrl,omitempty"`
}

// DefaultSettings returns the settings of a freshly provisioned restaurant.
func DefaultSettings() StoreSettings {
	return StoreSettings{
		StoreName:             "Bhoj Restaurant",
		BranchName:            "Main Branch",
		Address:               "Dhaka, Bangladesh",
		Phone:                 "+880 1XXX XXXXXX",
		Email:                 "info@bhoj.com",
		CurrencySymbol:        "৳",
		VATRate:               decimal.NewFromInt(5),
		VATEnabled:            true,
		ServiceChargeRate:     decimal.Zero,
		ServiceChargeEnabled:  false,
		InvoiceHeader:         "BHOJ POS",
		InvoiceFooter:         "Thank you for dining with us!",
		InvoicePrefix:         "INV-",
		InvoiceStartingNumber: 1001,
	}
}

// InvoiceLabel is the label the next order will receive.
func (s StoreSettings) InvoiceLabel() string {
	return fmt.Sprintf("%s%d", s.InvoicePrefix, s.InvoiceStartingNumber)
}

// DecodeSettings decodes a stored settings document on top of the defaults,
// so keys missing from older records keep their default values.
func DecodeSettings(data []byte) (StoreSettings, error) {
	s := DefaultSettings()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return StoreSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	StoreName             *string          `json:"storeName,omitempty"`
	BranchName            *string          `json:"branchName,omitempty"`
	Address               *string          `json:"address,omitempty"`
	Phone                 *string          `json:"phone,omitempty"`
	Email                 *string          `json:"email,omitempty"`
	CurrencySymbol        *string          `json:"currencySymbol,omitempty"`
	VATRate               *decimal.Decimal `json:"vatRate,omitempty"`
	VATEnabled            *bool            `json:"vatEnabled,omitempty"`
	ServiceChargeRate     *decimal.Decimal `json:"serviceChargeRate,omitempty"`
	ServiceChargeEnabled  *bool            `json:"serviceChargeEnabled,omitempty"`
	InvoiceHeader         *string          `json:"invoiceHeader,omitempty"`
	InvoiceFooter         *string          `json:"invoiceFooter,omitempty"`
	InvoicePrefix         *string          `json:"invoicePrefix,omitempty"`
	InvoiceStartingNumber *int64           `json:"invoiceStartingNumber,omitempty"`
	LogoURL               *string          `json:"logoUrl,omitempty"`
}

// Apply returns s with every non-nil field of p copied over.
func (p SettingsPatch) Apply(s StoreSettings) StoreSettings {
	setString(&s.StoreName, p.StoreName)
	setString(&s.BranchName, p.BranchName)
	setString(&s.Address, p.Address)
	setString(&s.Phone, p.Phone)
	setString(&s.Email, p.Email)
	setString(&s.CurrencySymbol, p.CurrencySymbol)
	setString(&s.InvoiceHeader, p.InvoiceHeader)
	setString(&s.InvoiceFooter, p.InvoiceFooter)
	setString(&s.InvoicePrefix, p.InvoicePrefix)
	setString(&s.LogoURL, p.LogoURL)
	if p.VATRate != nil {
		s.VATRate = *p.VATRate
	}
	if p.VATEnabled != nil {
		s.VATEnabled = *p.VATEnabled
	}
	if p.ServiceChargeRate != nil {
		s.ServiceChargeRate = *p.ServiceChargeRate
	}
	if p.ServiceChargeEnabled != nil {
		s.ServiceChargeEnabled = *p.ServiceChargeEnabled
	}
	if p.InvoiceStartingNumber != nil {
		s.InvoiceStartingNumber = *p.InvoiceStartingNumber
	}
	return s
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

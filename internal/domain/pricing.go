package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PackageType is one of the tiers a gig is sold in.
type PackageType string

const (
	PackageBasic    PackageType = "BASIC"
	PackageStandard PackageType = "STANDARD"
	PackagePremium  PackageType = "PREMIUM"
)

// DefaultDeliveryDays applies when a package's delivery time has no leading
// positive number, or one above MaxDeliveryDays.
const DefaultDeliveryDays = 3

// MaxDeliveryDays bounds the delivery window a package may promise.
const MaxDeliveryDays = 365

// FeeRate is the platform's service fee on the package price.
var FeeRate = decimal.New(10, -2)

// Package is one purchasable tier of a gig.
type Package struct {
	Type         PackageType     `json:"type"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime string          `json:"delivery_time"`
	Revisions    int             `json:"revisions"`
	Description  string          `json:"description,omitempty"`
}

// Quote is the priced outcome of choosing a package.
type Quote struct {
	PackageType  PackageType
	Price        decimal.Decimal
	ServiceFee   decimal.Decimal
	TotalAmount  decimal.Decimal
	DeliveryDate time.Time
	MaxRevisions int
}

// ServiceFee returns price × FeeRate rounded half away from zero to cents.
func ServiceFee(price decimal.Decimal) decimal.Decimal {
	return price.Mul(FeeRate).Round(2)
}

// DeliveryDays reads the leading integer of the first space-separated token
// of a delivery time such as "3 days" or "2-3 days".
func DeliveryDays(deliveryTime string) int {
	token, _, _ := strings.Cut(deliveryTime, " ")
	end := 0
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}
	days, err := strconv.Atoi(token[:end])
	if err != nil || days <= 0 || days > MaxDeliveryDays {
		return DefaultDeliveryDays
	}
	return days
}

// NewQuote prices packageType against the gig's packages.
func NewQuote(packages []Package, packageType PackageType, now time.Time) (Quote, error) {
	for _, p := range packages {
		if p.Type != packageType {
			continue
		}
		if p.Price.IsNegative() {
			return Quote{}, ErrInvalidPackage(packageType)
		}
		price := p.Price.Round(2)
		fee := ServiceFee(price)
		return Quote{
			PackageType:  packageType,
			Price:        price,
			ServiceFee:   fee,
			TotalAmount:  price.Add(fee),
			DeliveryDate: now.AddDate(0, 0, DeliveryDays(p.DeliveryTime)),
			MaxRevisions: p.Revisions,
		}, nil
	}
	return Quote{}, ErrInvalidPackage(packageType)
}

// ToCents converts a two-decimal amount to integer minor units.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromCents converts integer minor units back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

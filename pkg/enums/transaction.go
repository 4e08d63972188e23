package enums

import "fmt"

// TransactionStatus maps to the transaction_status enum in Postgres.
type TransactionStatus string

const (
	TransactionSucceeded  TransactionStatus = "succeeded"
	TransactionRefunded   TransactionStatus = "refunded"
	TransactionChargeback TransactionStatus = "chargeback"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionSucceeded,
	TransactionRefunded,
	TransactionChargeback,
}

// IsValid reports whether the value matches the canonical transaction_status enum.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTransactionStatus converts raw input into TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}

// ProductType identifies the monetization product a transaction settled.
type ProductType string

const (
	ProductSubscription ProductType = "subscription"
	ProductDonation     ProductType = "donation"
	ProductPurchase     ProductType = "purchase"
)

var validProductTypes = []ProductType{
	ProductSubscription,
	ProductDonation,
	ProductPurchase,
}

// IsValid reports whether the value matches the canonical product_type enum.
func (p ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}

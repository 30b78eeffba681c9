package order

import (
	"gorm.io/gorm"
)

// GST policy: flat 9% CGST + 9% SGST on every supplier subtotal.
const TaxRateGST = 0.09

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

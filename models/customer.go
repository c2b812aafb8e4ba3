package models

import (
	"context"
	"errors"
	"time"

	"github.com/lanzy-lanzy/lumberv2/config"
	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"size:200;not null" json:"name" binding:"required"`
	Email           string          `gorm:"size:100" json:"email"`
	PhoneNumber     string          `gorm:"size:20" json:"phone_number"`
	Address         string          `gorm:"type:text" json:"address"`
	IsSeniorCitizen *bool           `gorm:"not null;default:false" json:"is_senior_citizen"`
	IsPwd           *bool           `gorm:"not null;default:false" json:"is_pwd"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(6,2);default:0" json:"discount_percent"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name            string          `json:"name" binding:"required"`
	Email           string          `json:"email"`
	PhoneNumber     string          `json:"phone_number"`
	Address         string          `json:"address"`
	IsSeniorCitizen *bool           `json:"is_senior_citizen"`
	IsPwd           *bool           `json:"is_pwd"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

var concessionDiscountPercent = decimal.NewFromInt(20)

// normalizeDiscount defaults the concessional rate for senior citizen / PWD
// customers when no explicit percentage was given.
func (input *NewCustomer) normalizeDiscount() {
	concession := utils.DereferencePtr(input.IsSeniorCitizen) || utils.DereferencePtr(input.IsPwd)
	if concession && input.DiscountPercent.IsZero() {
		input.DiscountPercent = concessionDiscountPercent
	}
}

func (input NewCustomer) validate() error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if input.PhoneNumber != "" {
		if err := utils.ValidatePhoneNumber(input.PhoneNumber, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("discount percent must be between 0 and 100")
	}
	return nil
}

func CreateCustomer(ctx context.Context, input NewCustomer) (*Customer, error) {

	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}
	input.normalizeDiscount()

	isSenior := input.IsSeniorCitizen
	if isSenior == nil {
		isSenior = utils.NewFalse()
	}
	isPwd := input.IsPwd
	if isPwd == nil {
		isPwd = utils.NewFalse()
	}

	customer := Customer{
		Name:            input.Name,
		Email:           input.Email,
		PhoneNumber:     input.PhoneNumber,
		Address:         input.Address,
		IsSeniorCitizen: isSenior,
		IsPwd:           isPwd,
		DiscountPercent: input.DiscountPercent,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input NewCustomer) (*Customer, error) {

	db := config.GetDB()

	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	input.normalizeDiscount()

	customer.Name = input.Name
	customer.Email = input.Email
	customer.PhoneNumber = input.PhoneNumber
	customer.Address = input.Address
	if input.IsSeniorCitizen != nil {
		customer.IsSeniorCitizen = input.IsSeniorCitizen
	}
	if input.IsPwd != nil {
		customer.IsPwd = input.IsPwd
	}
	customer.DiscountPercent = input.DiscountPercent

	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

func GetCustomers(ctx context.Context) ([]*Customer, error) {
	return utils.FetchAllModels[Customer](ctx)
}

type CustomerAccountSummary struct {
	CustomerId     int             `json:"customer_id"`
	OrderCount     int             `json:"order_count"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CreditOrders   int             `json:"credit_orders"`
}

// GetCustomerAccountSummary aggregates the customer's purchase and payment
// totals across their orders.
func GetCustomerAccountSummary(ctx context.Context, customerId int) (*CustomerAccountSummary, error) {

	db := config.GetDB()

	if err := utils.ValidateResourceId[Customer](ctx, customerId); err != nil {
		return nil, err
	}

	summary := CustomerAccountSummary{CustomerId: customerId}
	if err := db.WithContext(ctx).Model(&SalesOrder{}).
		Select(`COUNT(*) AS order_count,
			COALESCE(SUM(total_amount - discount_amount), 0) AS total_purchases,
			COALESCE(SUM(amount_paid), 0) AS total_paid,
			COALESCE(SUM(balance), 0) AS outstanding,
			COALESCE(SUM(CASE WHEN payment_type = 'Credit' THEN 1 ELSE 0 END), 0) AS credit_orders`).
		Where("customer_id = ?", customerId).
		Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

package models

import (
	"testing"

	"github.com/lanzy-lanzy/lumberv2/utils"
	"github.com/shopspring/decimal"
)

func TestNormalizeDiscountDefaultsConcessionRate(t *testing.T) {
	senior := NewCustomer{IsSeniorCitizen: utils.NewTrue()}
	senior.normalizeDiscount()
	if senior.DiscountPercent.Cmp(decimal.NewFromInt(20)) != 0 {
		t.Fatalf("expected senior citizen default discount 20; got %s", senior.DiscountPercent.String())
	}

	pwd := NewCustomer{IsPwd: utils.NewTrue()}
	pwd.normalizeDiscount()
	if pwd.DiscountPercent.Cmp(decimal.NewFromInt(20)) != 0 {
		t.Fatalf("expected PWD default discount 20; got %s", pwd.DiscountPercent.String())
	}
}

func TestNormalizeDiscountKeepsExplicitRate(t *testing.T) {
	input := NewCustomer{IsSeniorCitizen: utils.NewTrue(), DiscountPercent: decimal.NewFromInt(5)}
	input.normalizeDiscount()
	if input.DiscountPercent.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("explicit discount should not be overwritten; got %s", input.DiscountPercent.String())
	}
}

func TestNormalizeDiscountNoConcession(t *testing.T) {
	input := NewCustomer{}
	input.normalizeDiscount()
	if !input.DiscountPercent.IsZero() {
		t.Fatalf("regular customer should keep zero discount; got %s", input.DiscountPercent.String())
	}
}

func TestNewCustomerValidateDiscountRange(t *testing.T) {
	over := NewCustomer{Name: "X", DiscountPercent: decimal.NewFromInt(101)}
	if err := over.validate(); err == nil {
		t.Fatal("discount above 100 should fail validation")
	}
	negative := NewCustomer{Name: "X", DiscountPercent: decimal.NewFromInt(-1)}
	if err := negative.validate(); err == nil {
		t.Fatal("negative discount should fail validation")
	}
}

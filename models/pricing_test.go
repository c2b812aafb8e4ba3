package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBoardFeetPerPieceQuantizesToThreePlaces(t *testing.T) {
	// 2x4x10 -> 80/12 = 6.666..., quantized to 6.667 before any multiplication.
	p := LumberProduct{
		Thickness: dec("2"),
		Width:     dec("4"),
		Length:    dec("10"),
	}
	got := p.BoardFeetPerPiece()
	if got.Cmp(dec("6.667")) != 0 {
		t.Fatalf("expected 6.667 board feet per piece; got %s", got.String())
	}
	// 1x6x8 divides evenly: 48/12 = 4.
	even := LumberProduct{Thickness: dec("1"), Width: dec("6"), Length: dec("8")}
	if got := even.BoardFeetPerPiece(); got.Cmp(dec("4")) != 0 {
		t.Fatalf("expected 4 board feet per piece; got %s", got.String())
	}
}

func TestLineSubtotalBoardFootPricing(t *testing.T) {
	// 3 pieces of 2x4x10 at 10.00/bf: per-piece bf quantizes to 6.667,
	// line bf = 20.001, subtotal = 200.01.
	p := LumberProduct{
		Thickness:         dec("2"),
		Width:             dec("4"),
		Length:            dec("10"),
		PricePerBoardFoot: dec("10.00"),
	}
	boardFeet, unitPrice, subtotal := p.LineSubtotal(3)
	if boardFeet.Cmp(dec("20.001")) != 0 {
		t.Fatalf("expected board feet 20.001; got %s", boardFeet.String())
	}
	if unitPrice.Cmp(dec("10.00")) != 0 {
		t.Fatalf("expected unit price 10.00; got %s", unitPrice.String())
	}
	if subtotal.Cmp(dec("200.01")) != 0 {
		t.Fatalf("expected subtotal 200.01; got %s", subtotal.String())
	}
}

func TestLineSubtotalPerPiecePricingWins(t *testing.T) {
	perPiece := dec("65.50")
	p := LumberProduct{
		Thickness:         dec("2"),
		Width:             dec("4"),
		Length:            dec("10"),
		PricePerBoardFoot: dec("10.00"),
		PricePerPiece:     &perPiece,
	}
	boardFeet, unitPrice, subtotal := p.LineSubtotal(4)
	// Board feet still recorded on the line for the ledger.
	if boardFeet.Cmp(dec("26.668")) != 0 {
		t.Fatalf("expected board feet 26.668; got %s", boardFeet.String())
	}
	if unitPrice.Cmp(perPiece) != 0 {
		t.Fatalf("expected per-piece price 65.50 applied; got %s", unitPrice.String())
	}
	if subtotal.Cmp(dec("262.00")) != 0 {
		t.Fatalf("expected subtotal 262.00; got %s", subtotal.String())
	}
}

func TestUnitPriceAppliedIgnoresNonPositivePerPiece(t *testing.T) {
	zero := decimal.Zero
	p := LumberProduct{PricePerBoardFoot: dec("12.00"), PricePerPiece: &zero}
	price, perPiece := p.UnitPriceApplied()
	if perPiece || price.Cmp(dec("12.00")) != 0 {
		t.Fatalf("expected board-foot price to apply; got %s (perPiece=%v)", price.String(), perPiece)
	}
}

func TestApplyDiscountAndBalance(t *testing.T) {
	so := SalesOrder{
		TotalAmount:     dec("200.01"),
		DiscountPercent: dec("20"),
	}
	so.applyDiscountAndBalance()
	if so.DiscountAmount.Cmp(dec("40.00")) != 0 {
		t.Fatalf("expected discount 40.00; got %s", so.DiscountAmount.String())
	}
	if so.Balance.Cmp(dec("160.01")) != 0 {
		t.Fatalf("expected balance 160.01; got %s", so.Balance.String())
	}
	if so.AmountOwed().Cmp(dec("160.01")) != 0 {
		t.Fatalf("expected amount owed 160.01; got %s", so.AmountOwed().String())
	}
}

func TestApplyDiscountAndBalanceFloorsAtZero(t *testing.T) {
	so := SalesOrder{
		TotalAmount: dec("100.00"),
		AmountPaid:  dec("100.01"),
	}
	so.applyDiscountAndBalance()
	if !so.Balance.IsZero() {
		t.Fatalf("expected balance floored at zero; got %s", so.Balance.String())
	}
}

func TestApplyDiscountAndBalanceRoundsHalfUp(t *testing.T) {
	// 33.33 at 15% = 4.9995 -> 5.00 at 2dp.
	so := SalesOrder{
		TotalAmount:     dec("33.33"),
		DiscountPercent: dec("15"),
	}
	so.applyDiscountAndBalance()
	if so.DiscountAmount.Cmp(dec("5.00")) != 0 {
		t.Fatalf("expected discount 5.00; got %s", so.DiscountAmount.String())
	}
	if so.Balance.Cmp(dec("28.33")) != 0 {
		t.Fatalf("expected balance 28.33; got %s", so.Balance.String())
	}
}

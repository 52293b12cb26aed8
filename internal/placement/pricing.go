package placement

import "github.com/shopspring/decimal"

// Subtotal = round(unit_price * qty, precision).
func Subtotal(unitPrice decimal.Decimal, qty int, precision int32) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(precision)
}

// SumTotal menjumlahkan subtotal yang SUDAH dibulatkan, lalu membulatkan
// lagi hasilnya. Ini perilaku yang disengaja: totalnya bisa beda satu sen
// dari pembulatan grand total mentah. Jangan "diperbaiki".
func SumTotal(subtotals []decimal.Decimal, precision int32) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subtotals {
		total = total.Add(s)
	}
	return total.Round(precision)
}

package service

import "flip-lending/domain"

// ComputeFinancing prices the loan described by a deal structure. It returns
// false when the structure carries no loan amount or hold period.
func ComputeFinancing(s domain.DealStructure, projectedProfit float64) (domain.FinancingTerms, bool) {
	if s.LoanAmount <= 0 || s.HoldPeriodMonths <= 0 {
		return domain.FinancingTerms{}, false
	}

	var cuota float64
	if s.InterestRate > 0 {
		tasaMensual := (s.InterestRate / 100) / 12
		cuota = s.LoanAmount * tasaMensual
	}

	intereses := cuota * float64(s.HoldPeriodMonths)
	puntos := s.LoanAmount * s.Points / 100
	total := intereses + puntos

	return domain.FinancingTerms{
		LoanAmount:         s.LoanAmount,
		MonthlyPayment:     roundTo2Decimals(cuota),
		TotalInterest:      roundTo2Decimals(intereses),
		PointsCost:         roundTo2Decimals(puntos),
		TotalFinancingCost: roundTo2Decimals(total),
		NetProfit:          roundTo2Decimals(projectedProfit - total),
	}, true
}

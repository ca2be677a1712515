package services

import (
	"github.com/shopspring/decimal"
	"github.com/techagentng/challanx/models"
)

// ChallanSchedule is the fine charged per violation type when a report does
// not carry an amount of its own.
type ChallanSchedule map[models.ViolationType]decimal.Decimal

func DefaultChallanSchedule() ChallanSchedule {
	return ChallanSchedule{
		models.ViolationNoHelmet:     decimal.NewFromInt(1000),
		models.ViolationWrongSide:    decimal.NewFromInt(5000),
		models.ViolationSignalJump:   decimal.NewFromInt(5000),
		models.ViolationTripleRiding: decimal.NewFromInt(1000),
		models.ViolationOverloading:  decimal.NewFromInt(2000),
		models.ViolationOthers:       decimal.NewFromInt(500),
	}
}

func (s ChallanSchedule) AmountFor(v models.ViolationType) decimal.Decimal {
	if amount, ok := s[v]; ok {
		return amount
	}
	return decimal.Zero
}

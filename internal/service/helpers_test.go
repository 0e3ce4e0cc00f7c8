package service

import (
	"time"

	"github.com/carson-networks/budget-ledger/internal/money"
)

func moneyOf(v int64) money.Money { return money.Money(v) }

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }

package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPlan_CheckAmount(t *testing.T) {
	max := d("999.99")
	bounded := &Plan{ID: "basic", Name: "BASIC", MinAmount: d("100"), MaxAmount: &max, DailyPercentage: d("3"), DurationDays: 30}
	unbounded := &Plan{ID: "premium", Name: "PREMIUM", MinAmount: d("10000"), DailyPercentage: d("5"), DurationDays: 10}

	assert.NoError(t, bounded.CheckAmount(d("100")))
	assert.NoError(t, bounded.CheckAmount(d("999.99")))
	assert.ErrorIs(t, bounded.CheckAmount(d("99.99")), ErrValidation)
	assert.ErrorIs(t, bounded.CheckAmount(d("1000")), ErrValidation)
	assert.NoError(t, unbounded.CheckAmount(d("1000000")))
	assert.ErrorIs(t, unbounded.CheckAmount(d("0")), ErrValidation)

	err := bounded.CheckAmount(d("50"))
	assert.Contains(t, err.Error(), "minimum amount for BASIC is $100.00")
}

func TestPlan_TotalReturnPercentage(t *testing.T) {
	p := &Plan{DailyPercentage: d("3.00"), DurationDays: 30}
	assert.True(t, p.TotalReturnPercentage().Equal(decimal.NewFromInt(190)))
}

func TestPlan_DisplayRange(t *testing.T) {
	max := d("500")
	assert.Equal(t, "$50.00 - $500.00", (&Plan{MinAmount: d("50"), MaxAmount: &max}).DisplayRange())
	assert.Equal(t, "$50.00 - ∞", (&Plan{MinAmount: d("50")}).DisplayRange())
}

func TestPlan_Validate(t *testing.T) {
	valid := func() *Plan {
		return &Plan{ID: "p", Name: "P", MinAmount: d("1"), DailyPercentage: d("1"), DurationDays: 1}
	}
	assert.NoError(t, valid().Validate())

	lowMax := d("0.5")
	cases := map[string]func(*Plan){
		"id":       func(p *Plan) { p.ID = "" },
		"name":     func(p *Plan) { p.Name = "" },
		"min":      func(p *Plan) { p.MinAmount = decimal.Zero },
		"max":      func(p *Plan) { p.MaxAmount = &lowMax },
		"daily":    func(p *Plan) { p.DailyPercentage = d("-1") },
		"duration": func(p *Plan) { p.DurationDays = 0 },
	}
	for name, mutate := range cases {
		p := valid()
		mutate(p)
		assert.ErrorIs(t, p.Validate(), ErrValidation, name)
	}
}

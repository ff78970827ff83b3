package main

import (
	"fmt"
	"log"

	"github.com/meenmo/hwlib/bermudan"
	"github.com/meenmo/hwlib/curve"
	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/methods/pde"
	"github.com/meenmo/hwlib/model"
	"github.com/meenmo/hwlib/payoff"
)

// Callable 3% annual coupon bond maturing in 20Y, callable yearly from 12Y.
func main() {
	hw, err := model.NewHullWhite(curve.NewFlat(0.03), 0.05, []float64{30}, []float64{0.01})
	if err != nil {
		log.Fatal(err)
	}

	var times []float64
	var payoffs []payoff.Payoff
	for e := 12; e < 20; e++ {
		payTimes := []float64{float64(e)}
		cashFlows := []float64{-1}
		for k := e + 1; k <= 20; k++ {
			payTimes = append(payTimes, float64(k))
			cashFlows = append(cashFlows, 0.03)
		}
		payTimes = append(payTimes, 20)
		cashFlows = append(cashFlows, 1)

		bond, err := payoff.NewCouponBond(hw, float64(e), payTimes, cashFlows)
		if err != nil {
			log.Fatal(err)
		}
		times = append(times, float64(e))
		payoffs = append(payoffs, bond)
	}

	exact, err := methods.NewExact(hw)
	if err != nil {
		log.Fatal(err)
	}
	theta, err := pde.NewSolver(hw)
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range []struct {
		name   string
		method methods.Method
	}{
		{"exact", exact},
		{"exact+breakeven", methods.NewBreakEven(exact)},
		{"pde", theta},
	} {
		npv, err := bermudan.Price(times, payoffs, m.method)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-16s %.6f\n", m.name, npv)
	}
}

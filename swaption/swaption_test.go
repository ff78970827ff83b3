package swaption_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/hwlib/calendar"
	"github.com/meenmo/hwlib/curve"
	"github.com/meenmo/hwlib/methods"
	"github.com/meenmo/hwlib/model"
	"github.com/meenmo/hwlib/solver"
	"github.com/meenmo/hwlib/swaption"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var today = date(2018, time.September, 3)

func newSwap(t *testing.T, side swaption.PayerReceiver, disc, proj curve.YieldCurve) *swaption.Swap {
	t.Helper()
	s, err := swaption.NewSwap(swaption.SwapParams{
		ReferenceDate:   today,
		EffectiveDate:   date(2028, time.September, 4),
		MaturityDate:    date(2038, time.September, 3),
		FixedRate:       0.04,
		Notional:        1,
		Type:            side,
		FixedLeg:        swaption.FixedLeg,
		FloatLeg:        swaption.FloatLeg,
		DiscountCurve:   disc,
		ProjectionCurve: proj,
	})
	if err != nil {
		t.Fatalf("NewSwap: %v", err)
	}
	return s
}

func newModel(t *testing.T, c curve.YieldCurve) *model.HullWhite {
	t.Helper()
	hw, err := model.NewHullWhite(c, 0.03, []float64{30}, []float64{0.0060})
	if err != nil {
		t.Fatalf("NewHullWhite: %v", err)
	}
	return hw
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		end     time.Time
		leg     swaption.Leg
		periods int
		first   time.Time
	}{
		{"annualForward", date(2030, time.March, 15), swaption.FixedLeg, 2, date(2029, time.March, 15)},
		{"semiForward", date(2030, time.March, 15), swaption.FloatLeg, 4, date(2028, time.September, 15)},
		{"backStub", date(2030, time.June, 14), swaption.FixedLeg, 3, date(2029, time.March, 15)},
		{"frontStub", date(2030, time.June, 14), swaption.Leg{
			PayFrequency: swaption.FreqAnnual, DayCount: "ACT/360", Calendar: calendar.TARGET, Direction: swaption.ScheduleBackward,
		}, 3, date(2028, time.June, 14)},
	}
	for _, tc := range cases {
		periods, err := swaption.GenerateSchedule(date(2028, time.March, 15), tc.end, tc.leg)
		if err != nil {
			t.Fatalf("%s: GenerateSchedule: %v", tc.name, err)
		}
		if len(periods) != tc.periods {
			t.Fatalf("%s: period count mismatch: got %d want %d", tc.name, len(periods), tc.periods)
		}
		if !periods[0].EndDate.Equal(tc.first) {
			t.Fatalf("%s: first end mismatch: got %s want %s", tc.name, periods[0].EndDate, tc.first)
		}
		for i := 1; i < len(periods); i++ {
			if !periods[i].StartDate.Equal(periods[i-1].EndDate) {
				t.Fatalf("%s: periods not chained at %d", tc.name, i)
			}
		}
		if !periods[len(periods)-1].EndDate.Equal(tc.end) {
			t.Fatalf("%s: last end mismatch: got %s", tc.name, periods[len(periods)-1].EndDate)
		}
	}

	// Sunday 2028-10-15 rolls to Monday
	periods, err := swaption.GenerateSchedule(date(2028, time.April, 14), date(2028, time.October, 15), swaption.FloatLeg)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if got := periods[0].EndDate; !got.Equal(date(2028, time.October, 16)) {
		t.Fatalf("adjusted end mismatch: got %s", got)
	}

	if _, err := swaption.GenerateSchedule(date(2030, time.January, 1), date(2029, time.January, 1), swaption.FixedLeg); !errors.Is(err, solver.ErrBadInput) {
		t.Fatalf("expected ErrBadInput, got %v", err)
	}
}

func TestSwap(t *testing.T) {
	t.Parallel()

	disc := curve.NewFlat(0.03)
	s := newSwap(t, swaption.Payer, disc, curve.NewFlat(0.04))
	if s.FairRate() <= 0.04 {
		t.Fatalf("a 4%% projection curve above 3%% discounting should give a fair rate above 4%%, got %v", s.FairRate())
	}
	atm := newSwap(t, swaption.Payer, disc, curve.NewFlat(0.04))
	atm.FixedRate = atm.FairRate()
	if npv := atm.NPV(); math.Abs(npv) > 1e-15 {
		t.Fatalf("NPV at the fair rate: got %v", npv)
	}
	rec := newSwap(t, swaption.Receiver, disc, curve.NewFlat(0.04))
	if got := s.NPV() + rec.NPV(); math.Abs(got) > 1e-15 {
		t.Fatalf("payer and receiver should offset, got %v", got)
	}

	// one curve: the float leg telescopes to notional at start minus at end
	single := newSwap(t, swaption.Payer, disc, disc)
	float := single.FloatCashFlows()
	want := disc.Discount(single.Time(float[0].StartDate)) - disc.Discount(single.Time(float[len(float)-1].EndDate))
	if got := single.FloatLegPV(); math.Abs(got-want) > 1e-14 {
		t.Fatalf("float leg mismatch: got %v want %v", got, want)
	}
	if n := len(single.FixedCashFlows()); n != 10 {
		t.Fatalf("expected 10 fixed coupons, got %d", n)
	}
}

func TestSwaptionBachelier(t *testing.T) {
	t.Parallel()

	s := newSwap(t, swaption.Payer, curve.NewFlat(0.03), curve.NewFlat(0.04))
	expiry := calendar.AddBusinessDays(calendar.TARGET, s.EffectiveDate, -2)
	sw, err := swaption.NewSwaption(s, expiry, 0.0060)
	if err != nil {
		t.Fatalf("NewSwaption: %v", err)
	}
	npv := sw.BachelierNPV()
	if !(npv > 0) {
		t.Fatalf("expected a positive NPV, got %v", npv)
	}
	bumped, err := swaption.NewSwaption(s, expiry, 0.0061)
	if err != nil {
		t.Fatalf("NewSwaption: %v", err)
	}
	fd := (bumped.BachelierNPV() - npv) / 0.0001 * 1e-4
	if math.Abs(fd-sw.Vega()) > 1e-3*sw.Vega() {
		t.Fatalf("vega mismatch: got %v want %v", sw.Vega(), fd)
	}
	if _, err := swaption.NewSwaption(s, s.MaturityDate, 0.006); !errors.Is(err, solver.ErrBadInput) {
		t.Fatalf("expected ErrBadInput for expiry after start, got %v", err)
	}
}

func TestBondOptionDetails(t *testing.T) {
	t.Parallel()

	disc := curve.NewFlat(0.03)
	hw := newModel(t, disc)
	payer := newSwap(t, swaption.Payer, disc, curve.NewFlat(0.04))
	receiver := newSwap(t, swaption.Receiver, disc, curve.NewFlat(0.04))
	expiry := calendar.AddBusinessDays(calendar.TARGET, payer.EffectiveDate, -2)
	ps, err := swaption.NewSwaption(payer, expiry, 0.006)
	if err != nil {
		t.Fatalf("NewSwaption: %v", err)
	}
	rs, err := swaption.NewSwaption(receiver, expiry, 0.006)
	if err != nil {
		t.Fatalf("NewSwaption: %v", err)
	}
	d, err := ps.BondOptionDetails()
	if err != nil {
		t.Fatalf("BondOptionDetails: %v", err)
	}
	if d.Strike != 0 || len(d.PayTimes) != len(d.CashFlows) {
		t.Fatalf("details shape mismatch: %+v", d)
	}
	if d.CashFlows[0] != -1 || d.CashFlows[len(d.CashFlows)-1] != 1 {
		t.Fatalf("expected notional exchange, got %v", d.CashFlows)
	}

	p, err := ps.HullWhiteNPV(hw)
	if err != nil {
		t.Fatalf("HullWhiteNPV: %v", err)
	}
	r, err := rs.HullWhiteNPV(hw)
	if err != nil {
		t.Fatalf("HullWhiteNPV: %v", err)
	}
	if got, want := p-r, payer.NPV(); math.Abs(got-want) > 2e-7 {
		t.Fatalf("parity mismatch: got %v want %v", got, want)
	}
}

func TestBermudan(t *testing.T) {
	t.Parallel()

	disc := curve.NewFlat(0.03)
	hw := newModel(t, disc)
	s := newSwap(t, swaption.Receiver, disc, curve.NewFlat(0.04))
	var dates []time.Time
	for _, p := range s.FixedCashFlows() {
		dates = append(dates, calendar.AddBusinessDays(calendar.TARGET, p.StartDate, -2))
	}
	exact, err := methods.NewExact(hw)
	if err != nil {
		t.Fatalf("NewExact: %v", err)
	}
	m := methods.NewBreakEven(exact)

	european, err := swaption.NewBermudan(s, dates[:1])
	if err != nil {
		t.Fatalf("NewBermudan: %v", err)
	}
	got, err := european.Price(hw, m)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	sw, _ := swaption.NewSwaption(s, dates[0], 0.006)
	want, err := sw.HullWhiteNPV(hw)
	if err != nil {
		t.Fatalf("HullWhiteNPV: %v", err)
	}
	if math.Abs(got-want) > 2e-5 {
		t.Fatalf("single exercise mismatch: got %v want %v", got, want)
	}

	berm, err := swaption.NewBermudan(s, dates)
	if err != nil {
		t.Fatalf("NewBermudan: %v", err)
	}
	npv, err := berm.Price(hw, m)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if npv < got {
		t.Fatalf("bermudan %v below its first european %v", npv, got)
	}

	if _, err := swaption.NewBermudan(s, []time.Time{dates[1], dates[0]}); !errors.Is(err, solver.ErrBadInput) {
		t.Fatalf("expected ErrBadInput for unsorted dates, got %v", err)
	}
}

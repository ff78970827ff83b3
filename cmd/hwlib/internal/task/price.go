package task

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/hwlib/bermudan"
	"github.com/meenmo/hwlib/black"
	"github.com/meenmo/hwlib/payoff"
	"github.com/meenmo/hwlib/solver"
)

// ExerciseInput is one exercise date with its underlying coupon bond,
// observed at Time.
type ExerciseInput struct {
	Time      float64   `json:"time"`
	PayTimes  []float64 `json:"pay_times"`
	CashFlows []float64 `json:"cash_flows"`
}

// PriceInput is a Bermudan bond option pricing task.
type PriceInput struct {
	TaskID    string          `json:"task_id,omitempty"`
	Curve     CurveInput      `json:"curve"`
	Model     ModelInput      `json:"model"`
	Method    MethodInput     `json:"method"`
	Exercises []ExerciseInput `json:"exercises"`
}

// PriceOutput is the result of a PriceInput.
type PriceOutput struct {
	TaskID    string  `json:"task_id,omitempty"`
	Method    string  `json:"method,omitempty"`
	NPV       float64 `json:"npv"`
	ElapsedMS int64   `json:"elapsed_ms"`
	Error     string  `json:"error,omitempty"`
}

// Failed reports whether the task errored.
func (o PriceOutput) Failed() bool { return o.Error != "" }

// Price runs backward induction for one task.
func Price(in PriceInput, logger *zap.Logger) PriceOutput {
	start := time.Now()
	out := PriceOutput{TaskID: in.TaskID, Method: in.Method.Name}
	npv, err := price(in, logger)
	if err != nil {
		logger.Warn("price task failed", zap.String("task_id", in.TaskID), zap.Error(err))
		out.Error = err.Error()
		return out
	}
	out.NPV = npv
	out.ElapsedMS = time.Since(start).Milliseconds()
	return out
}

func price(in PriceInput, logger *zap.Logger) (float64, error) {
	if len(in.Exercises) == 0 {
		return 0, fmt.Errorf("no exercises: %w", solver.ErrBadInput)
	}
	c, err := in.Curve.Build()
	if err != nil {
		return 0, err
	}
	hw, err := in.Model.Build(c)
	if err != nil {
		return 0, err
	}

	times := make([]float64, len(in.Exercises))
	payoffs := make([]payoff.Payoff, len(in.Exercises))
	maturity := 0.0
	for k, ex := range in.Exercises {
		times[k] = ex.Time
		if payoffs[k], err = payoff.NewCouponBond(hw, ex.Time, ex.PayTimes, ex.CashFlows); err != nil {
			return 0, fmt.Errorf("exercise %d: %w", k, err)
		}
		for _, T := range ex.PayTimes {
			maturity = max(maturity, T)
		}
	}
	m, err := in.Method.Build(hw, times, maturity, logger)
	if err != nil {
		return 0, err
	}
	return bermudan.NewEngine(bermudan.WithLogger(logger)).Price(times, payoffs, m)
}

// EuropeanInput is a coupon bond option priced by Jamshidian's
// decomposition.
type EuropeanInput struct {
	TaskID    string     `json:"task_id,omitempty"`
	Curve     CurveInput `json:"curve"`
	Model     ModelInput `json:"model"`
	Expiry    float64    `json:"expiry"`
	PayTimes  []float64  `json:"pay_times"`
	CashFlows []float64  `json:"cash_flows"`
	Strike    float64    `json:"strike"`
	CallPut   string     `json:"call_put"`
}

// European prices one EuropeanInput.
func European(in EuropeanInput, logger *zap.Logger) PriceOutput {
	start := time.Now()
	out := PriceOutput{TaskID: in.TaskID, Method: "jamshidian"}
	npv, err := european(in)
	if err != nil {
		logger.Warn("european task failed", zap.String("task_id", in.TaskID), zap.Error(err))
		out.Error = err.Error()
		return out
	}
	out.NPV = npv
	out.ElapsedMS = time.Since(start).Milliseconds()
	return out
}

func european(in EuropeanInput) (float64, error) {
	cp, err := black.ParseCallPut(in.CallPut)
	if err != nil {
		return 0, err
	}
	c, err := in.Curve.Build()
	if err != nil {
		return 0, err
	}
	hw, err := in.Model.Build(c)
	if err != nil {
		return 0, err
	}
	return hw.CouponBondOption(in.Expiry, in.PayTimes, in.CashFlows, in.Strike, cp)
}

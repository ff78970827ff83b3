package task

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/hwlib/bermudan"
	"github.com/meenmo/hwlib/calendar"
	"github.com/meenmo/hwlib/swaption"
	"github.com/meenmo/hwlib/utils"
)

// SwaptionInput describes a swaption on calendar dates. Without exercise
// dates it is European, expiring two TARGET business days before the
// effective date.
type SwaptionInput struct {
	TaskID          string      `json:"task_id,omitempty"`
	ReferenceDate   string      `json:"reference_date"`
	EffectiveDate   string      `json:"effective_date"`
	MaturityDate    string      `json:"maturity_date"`
	FixedRate       float64     `json:"fixed_rate"`
	Notional        float64     `json:"notional"`
	Side            string      `json:"side"`
	NormalVol       float64     `json:"normal_vol"`
	ExerciseDates   []string    `json:"exercise_dates,omitempty"`
	DiscountCurve   CurveInput  `json:"discount_curve"`
	ProjectionCurve CurveInput  `json:"projection_curve"`
	Model           ModelInput  `json:"model"`
	Method          MethodInput `json:"method"`
}

// SwaptionOutput reports the swap analytics and swaption prices.
type SwaptionOutput struct {
	TaskID       string  `json:"task_id,omitempty"`
	FairRate     float64 `json:"fair_rate"`
	Annuity      float64 `json:"annuity"`
	BachelierNPV float64 `json:"bachelier_npv"`
	Vega         float64 `json:"vega"`
	EuropeanNPV  float64 `json:"european_npv"`
	BermudanNPV  float64 `json:"bermudan_npv,omitempty"`
	ElapsedMS    int64   `json:"elapsed_ms"`
	Error        string  `json:"error,omitempty"`
}

// Failed reports whether the task errored.
func (o SwaptionOutput) Failed() bool { return o.Error != "" }

// Swaption prices one SwaptionInput.
func Swaption(in SwaptionInput, logger *zap.Logger) SwaptionOutput {
	start := time.Now()
	out, err := swaptionTask(in, logger)
	if err != nil {
		logger.Warn("swaption task failed", zap.String("task_id", in.TaskID), zap.Error(err))
		return SwaptionOutput{TaskID: in.TaskID, Error: err.Error()}
	}
	out.ElapsedMS = time.Since(start).Milliseconds()
	return out
}

func swaptionTask(in SwaptionInput, logger *zap.Logger) (SwaptionOutput, error) {
	var dates [3]time.Time
	for i, s := range []string{in.ReferenceDate, in.EffectiveDate, in.MaturityDate} {
		d, err := utils.ParseDate(s)
		if err != nil {
			return SwaptionOutput{}, err
		}
		dates[i] = d
	}
	side, err := swaption.ParsePayerReceiver(in.Side)
	if err != nil {
		return SwaptionOutput{}, err
	}
	disc, err := in.DiscountCurve.Build()
	if err != nil {
		return SwaptionOutput{}, fmt.Errorf("discount curve: %w", err)
	}
	proj, err := in.ProjectionCurve.Build()
	if err != nil {
		return SwaptionOutput{}, fmt.Errorf("projection curve: %w", err)
	}
	swap, err := swaption.NewSwap(swaption.SwapParams{
		ReferenceDate:   dates[0],
		EffectiveDate:   dates[1],
		MaturityDate:    dates[2],
		FixedRate:       in.FixedRate,
		Notional:        in.Notional,
		Type:            side,
		FixedLeg:        swaption.FixedLeg,
		FloatLeg:        swaption.FloatLeg,
		DiscountCurve:   disc,
		ProjectionCurve: proj,
	})
	if err != nil {
		return SwaptionOutput{}, err
	}

	exercises := make([]time.Time, 0, len(in.ExerciseDates))
	for _, s := range in.ExerciseDates {
		d, err := utils.ParseDate(s)
		if err != nil {
			return SwaptionOutput{}, err
		}
		exercises = append(exercises, d)
	}
	expiry := calendar.AddBusinessDays(calendar.TARGET, dates[1], -2)
	if len(exercises) > 0 {
		expiry = exercises[0]
	}
	european, err := swaption.NewSwaption(swap, expiry, in.NormalVol)
	if err != nil {
		return SwaptionOutput{}, err
	}
	hw, err := in.Model.Build(disc)
	if err != nil {
		return SwaptionOutput{}, err
	}
	out := SwaptionOutput{
		TaskID:       in.TaskID,
		FairRate:     swap.FairRate(),
		Annuity:      swap.Annuity(),
		BachelierNPV: european.BachelierNPV(),
		Vega:         european.Vega(),
	}
	if out.EuropeanNPV, err = european.HullWhiteNPV(hw); err != nil {
		return SwaptionOutput{}, err
	}
	if len(exercises) == 0 {
		return out, nil
	}

	berm, err := swaption.NewBermudan(swap, exercises)
	if err != nil {
		return SwaptionOutput{}, err
	}
	times, payoffs, err := berm.Exercises(hw)
	if err != nil {
		return SwaptionOutput{}, err
	}
	m, err := in.Method.Build(hw, times, swap.Time(swap.MaturityDate), logger)
	if err != nil {
		return SwaptionOutput{}, err
	}
	if out.BermudanNPV, err = bermudan.NewEngine(bermudan.WithLogger(logger)).Price(times, payoffs, m); err != nil {
		return SwaptionOutput{}, err
	}
	return out, nil
}

package task

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/hwlib/black"
	"github.com/meenmo/hwlib/sabr"
	"github.com/meenmo/hwlib/solver"
)

// SABRInput is a smile task. With ATMVol set, Alpha is only the starting
// value and is recalibrated to the ATM normal volatility.
type SABRInput struct {
	TaskID  string    `json:"task_id,omitempty"`
	Forward float64   `json:"forward"`
	Expiry  float64   `json:"expiry"`
	Alpha   float64   `json:"alpha"`
	Beta    float64   `json:"beta"`
	Nu      float64   `json:"nu"`
	Rho     float64   `json:"rho"`
	ATMVol  *float64  `json:"atm_vol,omitempty"`
	Strikes []float64 `json:"strikes"`
}

// SmilePoint is the model output at one strike. Price is out-of-the-money.
type SmilePoint struct {
	Strike    float64 `json:"strike"`
	NormalVol float64 `json:"normal_vol"`
	Price     float64 `json:"price"`
	Density   float64 `json:"density"`
	CallOrPut string  `json:"call_put"`
}

// SABROutput is the result of a SABRInput.
type SABROutput struct {
	TaskID    string       `json:"task_id,omitempty"`
	Alpha     float64      `json:"alpha"`
	Smile     []SmilePoint `json:"smile,omitempty"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Error     string       `json:"error,omitempty"`
}

// Failed reports whether the task errored.
func (o SABROutput) Failed() bool { return o.Error != "" }

// SABR evaluates the smile of one task.
func SABR(in SABRInput, logger *zap.Logger) SABROutput {
	start := time.Now()
	out := SABROutput{TaskID: in.TaskID}
	m, err := sabr.New(in.Forward, in.Expiry, in.Alpha, in.Beta, in.Nu, in.Rho)
	if err == nil && in.ATMVol != nil {
		_, err = m.CalibrateATM(*in.ATMVol)
	}
	if err == nil && len(in.Strikes) == 0 {
		err = fmt.Errorf("no strikes: %w", solver.ErrBadInput)
	}
	if err != nil {
		logger.Warn("sabr task failed", zap.String("task_id", in.TaskID), zap.Error(err))
		out.Error = err.Error()
		return out
	}

	out.Alpha = m.Alpha
	out.Smile = make([]SmilePoint, len(in.Strikes))
	for i, k := range in.Strikes {
		cp := black.Call
		if k < m.Forward {
			cp = black.Put
		}
		out.Smile[i] = SmilePoint{
			Strike:    k,
			NormalVol: m.NormalVolatility(k),
			Price:     m.VanillaPrice(k, cp),
			Density:   m.Density(k),
			CallOrPut: cp.String(),
		}
	}
	out.ElapsedMS = time.Since(start).Milliseconds()
	return out
}

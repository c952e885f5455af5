package model

import "fmt"

// StrategyParams configures the RSI/MA signal.
type StrategyParams struct {
	RSIPeriod     int     `json:"rsi_period" yaml:"rsi_period"`
	MAPeriod      int     `json:"ma_period" yaml:"ma_period"`
	RSIOversold   float64 `json:"rsi_oversold" yaml:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought" yaml:"rsi_overbought"`
}

// DefaultParams mirrors the classic 14/20/30/70 configuration.
func DefaultParams() StrategyParams {
	return StrategyParams{RSIPeriod: 14, MAPeriod: 20, RSIOversold: 30, RSIOverbought: 70}
}

// Warmup is the number of bars needed before both indicators are defined.
func (p StrategyParams) Warmup() int {
	return max(p.RSIPeriod, p.MAPeriod)
}

// Check reports the first violated invariant, or nil.
func (p StrategyParams) Check() error {
	if p.RSIPeriod <= 0 {
		return fmt.Errorf("rsi period %d must be positive", p.RSIPeriod)
	}
	if p.MAPeriod <= 0 {
		return fmt.Errorf("ma period %d must be positive", p.MAPeriod)
	}
	if p.RSIOversold <= 0 || p.RSIOversold >= 100 {
		return fmt.Errorf("rsi oversold %.2f must be within (0,100)", p.RSIOversold)
	}
	if p.RSIOverbought <= 0 || p.RSIOverbought >= 100 {
		return fmt.Errorf("rsi overbought %.2f must be within (0,100)", p.RSIOverbought)
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("rsi oversold %.2f must be below overbought %.2f", p.RSIOversold, p.RSIOverbought)
	}
	return nil
}

func (p StrategyParams) String() string {
	return fmt.Sprintf("rsi=%d ma=%d oversold=%.0f overbought=%.0f",
		p.RSIPeriod, p.MAPeriod, p.RSIOversold, p.RSIOverbought)
}

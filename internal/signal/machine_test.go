package signal

import (
	"testing"
	"time"

	"VCPSentinel/internal/model"
	"VCPSentinel/internal/strategy"
)

func scored(passed, total int) strategy.Result {
	r := strategy.Result{Ready: true}
	for i := 0; i < total; i++ {
		r.Criteria = append(r.Criteria, strategy.Criterion{Name: "c", Pass: i < passed})
	}
	return r
}

func at(day int, close float64) model.Bar {
	return model.Bar{Date: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC), Close: close}
}

func TestMachine_BuyOnceSellOnce(t *testing.T) {
	m := NewMachine(DefaultSettings())
	full := scored(6, 6)
	noCross := EMAPair{PrevClose: 10, PrevEMA: 9, Close: 11, EMA: 10, Valid: true}
	cross := EMAPair{PrevClose: 10, PrevEMA: 9.5, Close: 9, EMA: 9.4, Valid: true}

	tr, ok := m.Step(at(1, 10), full, noCross)
	if !ok || tr.Kind != model.EventBuy || tr.Price != 10 {
		t.Fatalf("expected buy at 10, got %+v ok=%v", tr, ok)
	}
	if m.State() != model.StateHolding {
		t.Fatalf("expected holding, got %s", m.State())
	}
	if price, date := m.Entry(); price != 10 || date.Day() != 1 {
		t.Errorf("unexpected entry %.2f %s", price, date)
	}

	for day := 2; day < 5; day++ {
		if tr, ok := m.Step(at(day, 11), full, noCross); ok {
			t.Fatalf("day %d: unexpected %s while holding", day, tr.Kind)
		}
	}

	tr, ok = m.Step(at(5, 9), full, cross)
	if !ok || tr.Kind != model.EventSell || tr.Price != 9 {
		t.Fatalf("expected sell at 9, got %+v ok=%v", tr, ok)
	}
	if m.State() != model.StateArmed {
		t.Errorf("expected armed after sell, got %s", m.State())
	}
	if price, _ := m.Entry(); price != 0 {
		t.Errorf("expected entry cleared, got %.2f", price)
	}
	if _, ok := m.Step(at(6, 9), scored(5, 6), cross); ok {
		t.Error("expected no transition while armed below threshold")
	}
}

func TestMachine_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		result    strategy.Result
		want      bool
	}{
		{"all criteria", 1, scored(6, 6), true},
		{"five of six", 1, scored(5, 6), false},
		{"loose two of six", LooseThreshold, scored(2, 6), false},
		{"loose three of eight", LooseThreshold, scored(3, 8), true},
		{"not ready", LooseThreshold, strategy.Result{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(Settings{ProgressThreshold: tt.threshold, EMASellPeriod: 5})
			_, ok := m.Step(at(1, 10), tt.result, EMAPair{})
			if ok != tt.want {
				t.Errorf("expected buy=%v, got %v", tt.want, ok)
			}
		})
	}
}

func TestMachine_InvalidEMANeverSells(t *testing.T) {
	m := NewMachine(DefaultSettings())
	m.Restore(model.SymbolState{State: model.StateHolding, EntryPrice: 20})
	if _, ok := m.Step(at(1, 1), scored(0, 6), EMAPair{PrevClose: 10, PrevEMA: 9, Close: 1, EMA: 5}); ok {
		t.Error("expected no sell without a valid EMA pair")
	}
	if price, _ := m.Entry(); price != 20 {
		t.Errorf("expected restored entry 20, got %.2f", price)
	}
}

func TestEMAPair_CrossedDown(t *testing.T) {
	tests := []struct {
		name string
		p    EMAPair
		want bool
	}{
		{"cross", EMAPair{PrevClose: 10, PrevEMA: 10, Close: 9, EMA: 9.5, Valid: true}, true},
		{"already below", EMAPair{PrevClose: 9, PrevEMA: 10, Close: 8, EMA: 9.5, Valid: true}, false},
		{"still above", EMAPair{PrevClose: 11, PrevEMA: 10, Close: 10.5, EMA: 10.2, Valid: true}, false},
		{"touch", EMAPair{PrevClose: 11, PrevEMA: 10, Close: 10.2, EMA: 10.2, Valid: true}, false},
	}
	for _, tt := range tests {
		if got := tt.p.CrossedDown(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestPresetSettings(t *testing.T) {
	s, err := PresetSettings(strategy.PresetLoose)
	if err != nil || s.ProgressThreshold != LooseThreshold {
		t.Errorf("expected loose threshold, got %+v err=%v", s, err)
	}
	s, err = PresetSettings(strategy.PresetPlus)
	if err != nil || s.ProgressThreshold != 1 || s.EMASellPeriod != 5 {
		t.Errorf("expected defaults for plus, got %+v err=%v", s, err)
	}
	if _, err := PresetSettings("bogus"); err == nil {
		t.Error("expected error for unknown preset")
	}
	if err := (Settings{ProgressThreshold: 1.5, EMASellPeriod: 5}).Validate(); err == nil {
		t.Error("expected threshold above 1 to fail")
	}
}

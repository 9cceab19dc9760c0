// Package fx описывает и собирает цепочку эффектов дорожки:
// сухой путь (EQ, панорама, громкость) и посылы на задержку и реверберацию
package fx

// Частоты полочных фильтров эквалайзера
const (
	LowShelfHz  = 200.0
	HighShelfHz = 4000.0
	// ShelfRangeDB - усиление полки при значении регулятора 1
	ShelfRangeDB = 15.0
)

// Kind - тип ступени цепочки
type Kind int

const (
	KindLowShelf Kind = iota
	KindHighShelf
	KindPan
	KindGain
	KindDelay
	KindConvolve
)

func (k Kind) String() string {
	switch k {
	case KindLowShelf:
		return "lowshelf"
	case KindHighShelf:
		return "highshelf"
	case KindPan:
		return "pan"
	case KindGain:
		return "gain"
	case KindDelay:
		return "delay"
	case KindConvolve:
		return "convolve"
	}
	return "unknown"
}

// Stage описывает одну ступень обработки
type Stage struct {
	Kind     Kind
	Freq     float64
	GainDB   float64
	Value    float64 // панорама или множитель громкости
	Time     float64
	Feedback float64
}

// Params - параметры дорожки, влияющие на цепочку
type Params struct {
	Volume float64
	Pan    float64
	Muted  bool

	EQEnabled bool
	EQLow     float64
	EQHigh    float64

	DelayEnabled  bool
	DelayTime     float64
	DelayFeedback float64
	DelayWet      float64

	ReverbEnabled bool
	ReverbWet     float64
}

// Plan - граф цепочки эффектов в виде описаний ступеней.
// Все ветви начинаются от входа цепочки и суммируются на выходе.
type Plan struct {
	Dry    []Stage
	Delay  []Stage
	Reverb []Stage
}

// NewPlan строит план цепочки по параметрам дорожки
func NewPlan(p Params) Plan {
	var plan Plan

	if p.EQEnabled {
		plan.Dry = append(plan.Dry,
			Stage{Kind: KindLowShelf, Freq: LowShelfHz, GainDB: p.EQLow * ShelfRangeDB},
			Stage{Kind: KindHighShelf, Freq: HighShelfHz, GainDB: p.EQHigh * ShelfRangeDB},
		)
	}
	volume := p.Volume
	if p.Muted {
		volume = 0
	}
	plan.Dry = append(plan.Dry,
		Stage{Kind: KindPan, Value: p.Pan},
		Stage{Kind: KindGain, Value: volume},
	)

	delayWet := 0.0
	if p.DelayEnabled {
		delayWet = p.DelayWet
	}
	plan.Delay = []Stage{
		{Kind: KindDelay, Time: p.DelayTime, Feedback: p.DelayFeedback},
		{Kind: KindGain, Value: delayWet},
	}

	reverbWet := 0.0
	if p.ReverbEnabled {
		reverbWet = p.ReverbWet
	}
	plan.Reverb = []Stage{
		{Kind: KindConvolve},
		{Kind: KindGain, Value: reverbWet},
	}

	return plan
}

// Stages перечисляет виды всех ступеней плана: сухая ветвь, затем посылы
func (p Plan) Stages() []Kind {
	kinds := make([]Kind, 0, len(p.Dry)+len(p.Delay)+len(p.Reverb))
	for _, branch := range [][]Stage{p.Dry, p.Delay, p.Reverb} {
		for _, st := range branch {
			kinds = append(kinds, st.Kind)
		}
	}
	return kinds
}

// Silent сообщает, что ветвь заканчивается нулевым усилением и ее можно не собирать
func Silent(branch []Stage) bool {
	if len(branch) == 0 {
		return true
	}
	last := branch[len(branch)-1]
	return last.Kind == KindGain && last.Value == 0
}

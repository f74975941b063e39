package screener

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"MarketScreener/internal/model"
	"MarketScreener/internal/strategy"

	"github.com/go-playground/validator/v10"
)

// FilterSpec is a declarative set of predicates over a snapshot and issuer profile.
// Every configured sub-filter must hold; a missing key means no constraint.
type FilterSpec struct {
	Technical   TechnicalFilter    `json:"technical"`
	Fundamental *FundamentalFilter `json:"fundamental,omitempty"`
}

// TechnicalFilter holds predicates computed from price history.
type TechnicalFilter struct {
	PriceAboveMA *PriceAboveMA `json:"price_above_ma,omitempty"`
	ADR20        *Range        `json:"adr_20,omitempty"`
	RSI14        *Range        `json:"rsi_14,omitempty"`
	MAAlignment  *MAAlignment  `json:"ma_alignment,omitempty"`
	Volume       *VolumeFilter `json:"volume,omitempty"`
	Week52       *Week52Filter `json:"week_52,omitempty"`
	VWAP         *VWAPFilter   `json:"vwap,omitempty"`
}

// FundamentalFilter holds predicates over issuer metadata.
type FundamentalFilter struct {
	MarketCap          *Range         `json:"market_cap,omitempty"`
	PriceRange         *Range         `json:"price_range,omitempty"`
	Sectors            []string       `json:"sectors,omitempty"`
	InvestmentDecision []model.Action `json:"investment_decision,omitempty" validate:"omitempty,dive,oneof=BUY HOLD SELL"`
}

// Range bounds a value inclusively; either side may be omitted.
type Range struct {
	Min *float64 `json:"min,omitempty" validate:"omitempty,gte=0"`
	Max *float64 `json:"max,omitempty" validate:"omitempty,gte=0"`
}

// PriceAboveMA requires the close to be strictly above each selected average.
type PriceAboveMA struct {
	MA10  bool `json:"ma_10,omitempty"`
	MA20  bool `json:"ma_20,omitempty"`
	MA50  bool `json:"ma_50"`
	MA150 bool `json:"ma_150,omitempty"`
	MA200 bool `json:"ma_200"`
}

// MAAlignment requires a perfect order of the 10/20/50/150/200 averages.
// An empty order means bullish.
type MAAlignment struct {
	Enabled bool   `json:"enabled"`
	Order   string `json:"order" validate:"omitempty,oneof=bullish bearish"`
}

// VolumeFilter bounds liquidity.
type VolumeFilter struct {
	AvgVolumeMin    *float64 `json:"avg_volume_min,omitempty" validate:"omitempty,gte=0"`
	VolumeSurge     *float64 `json:"volume_surge,omitempty" validate:"omitempty,gte=0"`
	DollarVolumeMin *float64 `json:"dollar_volume_min,omitempty" validate:"omitempty,gte=0"`
}

// Week52Filter selects symbols at or near their yearly extremes.
type Week52Filter struct {
	NewHigh  bool `json:"new_high,omitempty"`
	NearHigh bool `json:"near_high,omitempty"`
	NewLow   bool `json:"new_low,omitempty"`
	NearLow  bool `json:"near_low,omitempty"`
}

// VWAPFilter compares the close to the cumulative VWAP.
type VWAPFilter struct {
	Above bool `json:"above,omitempty"`
	Below bool `json:"below,omitempty"`
}

// nearExtremePercent is the distance from a 52-week extreme counted as near.
const nearExtremePercent = 5.0

// InvalidFilterSpecError reports malformed or contradictory filter bounds.
type InvalidFilterSpecError struct {
	Problems []string
}

func (e *InvalidFilterSpecError) Error() string {
	return "invalid filter spec: " + strings.Join(e.Problems, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		r := sl.Current().Interface().(Range)
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			sl.ReportError(r.Min, "min", "Min", "lte_max", fmt.Sprint(*r.Max))
		}
	}, Range{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		t := sl.Current().Interface().(TechnicalFilter)
		if t.RSI14 != nil {
			if outside(t.RSI14.Min, 0, 100) {
				sl.ReportError(t.RSI14.Min, "rsi_14.min", "RSI14", "rsi_bounds", "0-100")
			}
			if outside(t.RSI14.Max, 0, 100) {
				sl.ReportError(t.RSI14.Max, "rsi_14.max", "RSI14", "rsi_bounds", "0-100")
			}
		}
	}, TechnicalFilter{})
	return v
}

func outside(v *float64, lo, hi float64) bool {
	return v != nil && (*v < lo || *v > hi)
}

// Validate checks bounds and enumerations.
func (f *FilterSpec) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &InvalidFilterSpecError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s fails %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
		}
	}
	return &InvalidFilterSpecError{Problems: problems}
}

// ParseFilterSpec decodes a JSON filter spec, rejecting unknown fields, and validates it.
// Empty input is the empty spec.
func ParseFilterSpec(data []byte) (FilterSpec, error) {
	var spec FilterSpec
	if len(bytes.TrimSpace(data)) == 0 {
		return spec, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return FilterSpec{}, &InvalidFilterSpecError{Problems: []string{err.Error()}}
	}
	if err := spec.Validate(); err != nil {
		return FilterSpec{}, err
	}
	return spec, nil
}

// admits reports whether v satisfies the range. A configured bound rejects an absent value.
func (r *Range) admits(v model.Value) bool {
	if r == nil || (r.Min == nil && r.Max == nil) {
		return true
	}
	x, ok := v.Get()
	if !ok {
		return false
	}
	if r.Min != nil && x < *r.Min {
		return false
	}
	if r.Max != nil && x > *r.Max {
		return false
	}
	return true
}

func above(snap *model.Snapshot, ma model.Value) bool {
	v, ok := snap.AboveMA(ma).Get()
	return ok && v == 1
}

// CheckTechnical evaluates the technical predicates and returns the first failing one.
func (f *FilterSpec) CheckTechnical(snap *model.Snapshot) (bool, string) {
	t := f.Technical
	if p := t.PriceAboveMA; p != nil {
		gates := []struct {
			on   bool
			ma   model.Value
			name string
		}{
			{p.MA10, snap.MA10, "ma_10"},
			{p.MA20, snap.MA20, "ma_20"},
			{p.MA50, snap.MA50, "ma_50"},
			{p.MA150, snap.MA150, "ma_150"},
			{p.MA200, snap.MA200, "ma_200"},
		}
		for _, g := range gates {
			if g.on && !above(snap, g.ma) {
				return false, "price not above " + g.name
			}
		}
	}
	if !t.ADR20.admits(snap.ADR20) {
		return false, "adr_20 out of range"
	}
	if !t.RSI14.admits(snap.RSI14) {
		return false, "rsi_14 out of range"
	}
	if a := t.MAAlignment; a != nil && a.Enabled {
		if a.Order == "bearish" {
			if !snap.PerfectOrderBearish {
				return false, "moving averages not in bearish order"
			}
		} else if !snap.PerfectOrderBullish {
			return false, "moving averages not in bullish order"
		}
	}
	if v := t.Volume; v != nil {
		avg, ok := snap.VolumeAvg20.Get()
		if (v.VolumeSurge != nil || v.DollarVolumeMin != nil || v.AvgVolumeMin != nil) && (!ok || avg <= 0) {
			return false, "average volume unavailable"
		}
		if v.AvgVolumeMin != nil && avg < *v.AvgVolumeMin {
			return false, "average volume too low"
		}
		if v.VolumeSurge != nil && snap.Volume/avg < *v.VolumeSurge {
			return false, "no volume surge"
		}
		if v.DollarVolumeMin != nil && snap.Price*avg < *v.DollarVolumeMin {
			return false, "dollar volume too low"
		}
	}
	if w := t.Week52; w != nil {
		high, hok := snap.Week52High.Get()
		low, lok := snap.Week52Low.Get()
		if (w.NewHigh || w.NearHigh) && !hok || (w.NewLow || w.NearLow) && !lok {
			return false, "52-week range unavailable"
		}
		if w.NewHigh && snap.High < high {
			return false, "not a 52-week high"
		}
		if w.NearHigh && snap.Price < high*(1-nearExtremePercent/100) {
			return false, "not near 52-week high"
		}
		if w.NewLow && snap.Low > low {
			return false, "not a 52-week low"
		}
		if w.NearLow && snap.Price > low*(1+nearExtremePercent/100) {
			return false, "not near 52-week low"
		}
	}
	if vw := t.VWAP; vw != nil && (vw.Above || vw.Below) {
		v, ok := snap.VWAP.Get()
		if !ok {
			return false, "vwap unavailable"
		}
		if vw.Above && !(snap.Price > v) {
			return false, "price not above vwap"
		}
		if vw.Below && !(snap.Price < v) {
			return false, "price not below vwap"
		}
	}
	return true, ""
}

// CheckFundamental evaluates the profile-dependent predicates.
func (f *FilterSpec) CheckFundamental(snap *model.Snapshot, profile *model.IssuerProfile) (bool, string) {
	fu := f.Fundamental
	if fu == nil {
		return true, ""
	}
	if !fu.PriceRange.admits(model.Some(snap.Price)) {
		return false, "price out of range"
	}
	if fu.MarketCap != nil {
		mc := model.Absent
		if profile != nil && profile.MarketCap > 0 {
			mc = model.Some(profile.MarketCap)
		}
		if !fu.MarketCap.admits(mc) {
			return false, "market cap out of range"
		}
	}
	if len(fu.Sectors) > 0 {
		if profile == nil || !containsFold(fu.Sectors, profile.Sector) {
			return false, "sector excluded"
		}
	}
	if len(fu.InvestmentDecision) > 0 {
		d := strategy.Decide(snap, profile)
		allowed := false
		for _, a := range fu.InvestmentDecision {
			if a == d.Action {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, "investment decision " + string(d.Action)
		}
	}
	return true, ""
}

// Match reports whether every configured predicate holds.
func (f *FilterSpec) Match(snap *model.Snapshot, profile *model.IssuerProfile) bool {
	if ok, _ := f.CheckTechnical(snap); !ok {
		return false
	}
	ok, _ := f.CheckFundamental(snap, profile)
	return ok
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

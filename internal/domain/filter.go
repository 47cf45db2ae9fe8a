package domain

// FilterKind discriminates the read-view filters the state store accepts
// (§4.2). Filters never mutate state; they only narrow which index-keyed
// entries a read view yields, in ascending index order.
type FilterKind string

const (
	FilterNone        FilterKind = "none"
	FilterExchanges   FilterKind = "exchanges"
	FilterInstruments FilterKind = "instruments"
	FilterUnderlyings FilterKind = "underlyings"
)

// Filter narrows a read view over index-keyed state. Exactly one of the
// index sets is consulted, per Kind.
type Filter struct {
	Kind        FilterKind
	Exchanges   map[ExchangeIndex]struct{}
	Instruments map[InstrumentIndex]struct{}
	// Underlyings filters instruments whose BaseAsset is in this set.
	Underlyings map[AssetIndex]struct{}
}

// NoFilter matches every entry.
func NoFilter() Filter { return Filter{Kind: FilterNone} }

// FilterByExchanges matches entries belonging to one of the given
// exchanges.
func FilterByExchanges(exchanges ...ExchangeIndex) Filter {
	set := make(map[ExchangeIndex]struct{}, len(exchanges))
	for _, e := range exchanges {
		set[e] = struct{}{}
	}
	return Filter{Kind: FilterExchanges, Exchanges: set}
}

// FilterByInstruments matches entries belonging to one of the given
// instruments.
func FilterByInstruments(instruments ...InstrumentIndex) Filter {
	set := make(map[InstrumentIndex]struct{}, len(instruments))
	for _, i := range instruments {
		set[i] = struct{}{}
	}
	return Filter{Kind: FilterInstruments, Instruments: set}
}

// FilterByUnderlyings matches instruments whose base asset is one of the
// given assets.
func FilterByUnderlyings(assets ...AssetIndex) Filter {
	set := make(map[AssetIndex]struct{}, len(assets))
	for _, a := range assets {
		set[a] = struct{}{}
	}
	return Filter{Kind: FilterUnderlyings, Underlyings: set}
}

// MatchesExchange reports whether the filter admits the given exchange,
// for filter kinds that key off exchange alone (FilterNone, FilterExchanges).
func (f Filter) MatchesExchange(e ExchangeIndex) bool {
	switch f.Kind {
	case FilterNone:
		return true
	case FilterExchanges:
		_, ok := f.Exchanges[e]
		return ok
	default:
		return false
	}
}

// MatchesInstrument reports whether the filter admits the given instrument,
// consulting its base asset for FilterUnderlyings.
func (f Filter) MatchesInstrument(inst Instrument) bool {
	switch f.Kind {
	case FilterNone:
		return true
	case FilterExchanges:
		_, ok := f.Exchanges[inst.Exchange]
		return ok
	case FilterInstruments:
		_, ok := f.Instruments[inst.Index]
		return ok
	case FilterUnderlyings:
		if !inst.HasBase {
			return false
		}
		_, ok := f.Underlyings[inst.BaseAsset]
		return ok
	default:
		return false
	}
}

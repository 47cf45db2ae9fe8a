// Package catalog builds and serves the IndexedCatalog described in the
// engine design: the translation layer between human/wire identifiers and
// the dense zero-based indices every hot-path lookup in the engine uses.
package catalog

import (
	"fmt"

	"github.com/lumenquant/tradecore/internal/domain"
)

// ExchangeSpec is one exchange's declarative definition, as supplied to
// New. Assets and Instruments are given in the order that determines their
// index assignment.
type ExchangeSpec struct {
	ID          domain.ExchangeID
	Assets      []AssetSpec
	Instruments []InstrumentSpec
}

// AssetSpec declares one asset traded on an exchange.
type AssetSpec struct {
	NameInternal string
	NameExchange string
}

// InstrumentSpec declares one instrument traded on an exchange.
type InstrumentSpec struct {
	NameInternal string
	NameExchange string
	Kind         domain.InstrumentKind
	QuoteAsset   string // NameInternal of the quote asset, must be declared in the same exchange
	BaseAsset    string // NameInternal of the base asset; empty for non-spot kinds
	Spec         domain.InstrumentSpec
}

type exchangeEntry struct {
	id            domain.ExchangeID
	assetsByName  map[string]domain.AssetIndex
	instByName    map[string]domain.InstrumentIndex
}

// Catalog is the immutable, fully resolved set of exchanges, assets and
// instruments the engine can reference. It never changes after New
// returns; every lookup table is built once at construction time.
type Catalog struct {
	exchangeByID map[domain.ExchangeID]domain.ExchangeIndex
	exchanges    []exchangeEntry

	assets       []domain.Asset
	instruments  []domain.Instrument
}

// New builds a Catalog from a declarative list of exchange specs. Indices
// are assigned in insertion order: exchanges in the order given, then
// assets and instruments within each exchange in the order given.
func New(specs []ExchangeSpec) (*Catalog, error) {
	c := &Catalog{
		exchangeByID: make(map[domain.ExchangeID]domain.ExchangeIndex, len(specs)),
	}

	for _, es := range specs {
		if _, exists := c.exchangeByID[es.ID]; exists {
			return nil, fmt.Errorf("catalog: duplicate exchange %q", es.ID)
		}
		exIdx := domain.ExchangeIndex(len(c.exchanges))
		c.exchangeByID[es.ID] = exIdx

		entry := exchangeEntry{
			id:           es.ID,
			assetsByName: make(map[string]domain.AssetIndex, len(es.Assets)),
			instByName:   make(map[string]domain.InstrumentIndex, len(es.Instruments)),
		}

		assetIdxByInternal := make(map[string]domain.AssetIndex, len(es.Assets))
		for _, as := range es.Assets {
			key := domain.Normalize(as.NameExchange)
			if _, exists := entry.assetsByName[key]; exists {
				return nil, fmt.Errorf("catalog: duplicate asset %q on exchange %q", as.NameExchange, es.ID)
			}
			idx := domain.AssetIndex(len(c.assets))
			c.assets = append(c.assets, domain.Asset{
				Index:        idx,
				NameInternal: as.NameInternal,
				NameExchange: as.NameExchange,
				Exchange:     exIdx,
			})
			entry.assetsByName[key] = idx
			assetIdxByInternal[as.NameInternal] = idx
		}

		for _, is := range es.Instruments {
			key := domain.Normalize(is.NameExchange)
			if _, exists := entry.instByName[key]; exists {
				return nil, fmt.Errorf("catalog: duplicate instrument %q on exchange %q", is.NameExchange, es.ID)
			}
			quoteIdx, ok := assetIdxByInternal[is.QuoteAsset]
			if !ok {
				return nil, fmt.Errorf("catalog: instrument %q references undeclared quote asset %q", is.NameExchange, is.QuoteAsset)
			}
			inst := domain.Instrument{
				Index:        domain.InstrumentIndex(len(c.instruments)),
				NameInternal: is.NameInternal,
				NameExchange: is.NameExchange,
				Exchange:     exIdx,
				Kind:         is.Kind,
				QuoteAsset:   quoteIdx,
				Spec:         is.Spec,
			}
			if is.BaseAsset != "" {
				baseIdx, ok := assetIdxByInternal[is.BaseAsset]
				if !ok {
					return nil, fmt.Errorf("catalog: instrument %q references undeclared base asset %q", is.NameExchange, is.BaseAsset)
				}
				inst.BaseAsset = baseIdx
				inst.HasBase = true
			}
			entry.instByName[key] = inst.Index
			c.instruments = append(c.instruments, inst)
		}

		c.exchanges = append(c.exchanges, entry)
	}

	return c, nil
}

// IndexExchange resolves a venue identifier to its dense index.
func (c *Catalog) IndexExchange(id domain.ExchangeID) (domain.ExchangeIndex, error) {
	idx, ok := c.exchangeByID[id]
	if !ok {
		return 0, domain.ErrUnknownExchange
	}
	return idx, nil
}

// IndexAsset resolves a wire-supplied asset name to its dense index within
// the given exchange.
func (c *Catalog) IndexAsset(exchange domain.ExchangeIndex, nameExchange string) (domain.AssetIndex, error) {
	entry, err := c.exchangeEntry(exchange)
	if err != nil {
		return 0, err
	}
	idx, ok := entry.assetsByName[domain.Normalize(nameExchange)]
	if !ok {
		return 0, domain.ErrUnknownAsset
	}
	return idx, nil
}

// IndexInstrument resolves a wire-supplied instrument name to its dense
// index within the given exchange.
func (c *Catalog) IndexInstrument(exchange domain.ExchangeIndex, nameExchange string) (domain.InstrumentIndex, error) {
	entry, err := c.exchangeEntry(exchange)
	if err != nil {
		return 0, err
	}
	idx, ok := entry.instByName[domain.Normalize(nameExchange)]
	if !ok {
		return 0, domain.ErrUnknownInstrument
	}
	return idx, nil
}

// ExchangeID returns the venue identifier for a given index.
func (c *Catalog) ExchangeID(idx domain.ExchangeIndex) (domain.ExchangeID, error) {
	entry, err := c.exchangeEntry(idx)
	if err != nil {
		return "", err
	}
	return entry.id, nil
}

// Instrument returns the full record for a given index. The index is
// guaranteed valid by construction everywhere in the engine, so this is a
// total function except for indices fabricated out of range.
func (c *Catalog) Instrument(idx domain.InstrumentIndex) (*domain.Instrument, error) {
	if int(idx) < 0 || int(idx) >= len(c.instruments) {
		return nil, domain.ErrIndexOutOfRange
	}
	inst := c.instruments[idx]
	return &inst, nil
}

// Asset returns the full record for a given index.
func (c *Catalog) Asset(idx domain.AssetIndex) (*domain.Asset, error) {
	if int(idx) < 0 || int(idx) >= len(c.assets) {
		return nil, domain.ErrIndexOutOfRange
	}
	a := c.assets[idx]
	return &a, nil
}

// NumExchanges returns the number of exchanges registered in the catalog.
func (c *Catalog) NumExchanges() int { return len(c.exchanges) }

// NumInstruments returns the number of instruments registered in the
// catalog, across all exchanges.
func (c *Catalog) NumInstruments() int { return len(c.instruments) }

// NumAssets returns the number of assets registered in the catalog, across
// all exchanges.
func (c *Catalog) NumAssets() int { return len(c.assets) }

// Instruments returns every instrument registered in the catalog, in
// ascending index order. Callers must not mutate the returned slice.
func (c *Catalog) Instruments() []domain.Instrument { return c.instruments }

// Assets returns every asset registered in the catalog, in ascending index
// order. Callers must not mutate the returned slice.
func (c *Catalog) Assets() []domain.Asset { return c.assets }

func (c *Catalog) exchangeEntry(exchange domain.ExchangeIndex) (exchangeEntry, error) {
	if int(exchange) < 0 || int(exchange) >= len(c.exchanges) {
		return exchangeEntry{}, domain.ErrUnknownExchange
	}
	return c.exchanges[exchange], nil
}

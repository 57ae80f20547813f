package runner

import (
	"sort"
	"sync"
	"time"

	"mtf_bot/internal/helper"
)

// Instrument is one traded symbol. Spend 0 means the configured default.
type Instrument struct {
	Symbol  string
	Spend   float64
	AddedAt time.Time
}

// Registry holds the instruments the scheduler evaluates.
type Registry struct {
	mu       sync.RWMutex
	items    map[string]Instrument
	onChange func(symbols []string)
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Instrument)}
}

// OnChange registers fn to run with the new symbol list whenever a symbol is added or removed.
func (r *Registry) OnChange(fn func(symbols []string)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Add registers or updates a symbol. It reports whether the symbol was new.
func (r *Registry) Add(symbol string, spend float64) (Instrument, bool) {
	sym := helper.NormSymbol(symbol)
	r.mu.Lock()
	ins, exists := r.items[sym]
	if !exists {
		ins = Instrument{Symbol: sym, AddedAt: time.Now()}
	}
	ins.Spend = spend
	r.items[sym] = ins
	r.mu.Unlock()

	if !exists {
		r.changed()
	}
	return ins, !exists
}

func (r *Registry) Remove(symbol string) bool {
	sym := helper.NormSymbol(symbol)
	r.mu.Lock()
	_, ok := r.items[sym]
	delete(r.items, sym)
	r.mu.Unlock()

	if ok {
		r.changed()
	}
	return ok
}

func (r *Registry) changed() {
	r.mu.RLock()
	fn := r.onChange
	r.mu.RUnlock()
	if fn != nil {
		fn(r.Symbols())
	}
}

func (r *Registry) Get(symbol string) (Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ins, ok := r.items[helper.NormSymbol(symbol)]
	return ins, ok
}

// List returns the instruments sorted by symbol.
func (r *Registry) List() []Instrument {
	r.mu.RLock()
	out := make([]Instrument, 0, len(r.items))
	for _, ins := range r.items {
		out = append(out, ins)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (r *Registry) Symbols() []string {
	list := r.List()
	out := make([]string, len(list))
	for i, ins := range list {
		out[i] = ins.Symbol
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

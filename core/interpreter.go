package core

import "pkt.systems/hackterm/schema"

// Result is the outcome of interpreting one input.
type Result struct {
	Command    schema.CommandID
	Normalized string
	Lines      []string
	Effect     Effect
}

// Interpreter turns raw input into output lines and an effect. It holds no
// session state, so one value can serve every session.
type Interpreter struct {
	catalog Catalog
}

// NewInterpreter returns an interpreter speaking the given catalog.
func NewInterpreter(catalog Catalog) *Interpreter {
	return &Interpreter{catalog: catalog.Clone()}
}

// Catalog returns a copy of the interpreter catalog.
func (i *Interpreter) Catalog() Catalog {
	return i.catalog.Clone()
}

// Execute interprets raw input. Unknown input, including the empty string,
// yields the not-found lines.
func (i *Interpreter) Execute(raw string) Result {
	normalized := NormalizeCommand(raw)
	entry, ok := registry[normalized]
	if !ok {
		return Result{
			Command:    schema.CommandUnknown,
			Normalized: normalized,
			Lines:      i.catalog.notFound(normalized),
		}
	}
	res := Result{Command: entry.id, Normalized: normalized, Effect: entry.effect}
	if entry.effect != EffectClear {
		res.Lines = i.catalog.output(entry.id)
	}
	return res
}

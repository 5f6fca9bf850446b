package cipher

// Direction selects which way a message runs through the rotor stack.
type Direction string

const (
	DirectionEncode Direction = "encode"
	DirectionDecode Direction = "decode"
)

// Lookup resolves rotor identifiers to definitions. It is supplied by the
// caller; the engine never stores definitions itself.
type Lookup interface {
	Rotor(id string) (*RotorDefinition, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(id string) (*RotorDefinition, bool)

func (f LookupFunc) Rotor(id string) (*RotorDefinition, bool) {
	return f(id)
}

// MapLookup is a Lookup over a fixed id to definition map.
type MapLookup map[string]*RotorDefinition

func (m MapLookup) Rotor(id string) (*RotorDefinition, bool) {
	def, ok := m[id]
	return def, ok
}

// NewMapLookup indexes defs by ID.
func NewMapLookup(defs ...*RotorDefinition) MapLookup {
	m := make(MapLookup, len(defs))
	for _, def := range defs {
		if def != nil {
			m[def.ID] = def
		}
	}
	return m
}

// RotorPosition is the position of one configured rotor.
type RotorPosition struct {
	RotorID  string `json:"rotor_id"`
	Position int    `json:"position"`
}

// Warning records a character that was copied through unchanged because it
// is not in the alphabet.
type Warning struct {
	// Index is the character offset within the input, counted in runes.
	Index   int    `json:"index"`
	Char    string `json:"char"`
	Message string `json:"message"`
}

// Result is the outcome of encoding or decoding a whole message.
type Result struct {
	Direction           Direction       `json:"direction"`
	Text                string          `json:"text"`
	FinalPositions      []RotorPosition `json:"final_positions"`
	CharactersProcessed int             `json:"characters_processed"`
	Warnings            []Warning       `json:"warnings,omitempty"`
}

// Positions returns only the final positions, in configured order.
func (r *Result) Positions() []int {
	out := make([]int, len(r.FinalPositions))
	for i, p := range r.FinalPositions {
		out[i] = p.Position
	}
	return out
}

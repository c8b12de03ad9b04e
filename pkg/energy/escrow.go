package energy

// Escrow tracks the energy promised to an unstable function. The first call
// releases it; a second call that repeats the first output is penalised.
type Escrow struct {
	Function   string
	Amount     int
	Released   bool
	CallCount  int
	LastOutput any
}

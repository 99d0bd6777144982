package store

// Hooks are lightweight callbacks for high-signal store events.
// Implementations MUST be cheap and non-blocking; they run on the read and
// write paths.
type Hooks interface {
	// An entry was deleted on read.
	// reason ∈ {"corrupt", "key_mismatch", "gen_mismatch"}
	SelfHeal(storageKey, stage, reason string)

	// A provider returned ok=false on Set (backpressure/eviction).
	// stage ∈ {"durable", "front"}
	SetRejected(storageKey, stage string)

	// GenStore errors. op ∈ {"snapshot", "bump"}
	GenError(op string, err error)
}

type NopHooks struct{}

func (NopHooks) SelfHeal(string, string, string) {}
func (NopHooks) SetRejected(string, string)      {}
func (NopHooks) GenError(string, error)          {}

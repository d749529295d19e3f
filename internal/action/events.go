package action

// Event is a wallet-provider notification fed into the runner as an explicit
// value rather than a registered callback, so ordering is observable and
// tests can inject synthetic events.
type Event interface{ isEvent() }

// AccountChanged reports a new connected account; an empty address means
// disconnected.
type AccountChanged struct {
	Address string
}

// NetworkChanged reports the active network id.
type NetworkChanged struct {
	ID int64
}

func (AccountChanged) isEvent() {}
func (NetworkChanged) isEvent() {}

// Apply resyncs the runner's account and network fields from a provider
// event. Snapshots are dropped on either change: raws read for another owner
// or another chain describe nothing current.
func (r *Runner) Apply(ev Event) {
	switch e := ev.(type) {
	case AccountChanged:
		if e.Address != r.account {
			r.account = e.Address
			r.book.Reset()
		}
	case NetworkChanged:
		if e.ID != r.networkID {
			r.networkID = e.ID
			r.book.Reset()
		}
	}
}

// NetworkID returns the last observed network id (0 until the first event).
func (r *Runner) NetworkID() int64 {
	return r.networkID
}

package arnie

type OptionFunc func(*Migrator) error
type ActionConfigurator func(a *action)

type action struct {
	count int
	fake  bool
}

// WithCount bounds how many units the run may visit. Zero means no limit.
func WithCount(count int) ActionConfigurator {
	return func(a *action) {
		a.count = count
	}
}

// WithFake records the ledger change for each visited unit without
// executing the unit itself.
func WithFake() ActionConfigurator {
	return func(a *action) {
		a.fake = true
	}
}

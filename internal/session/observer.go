package session

// Observer receives view snapshots. Publish is called outside the controller
// lock and may run concurrently; implementations should drop snapshots whose
// Version is older than one already seen.
type Observer interface {
	Publish(View)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(View)

// Publish calls f.
func (f ObserverFunc) Publish(v View) { f(v) }

// Observers fans a snapshot out to several observers in order.
type Observers []Observer

// Publish forwards v to each non-nil observer.
func (o Observers) Publish(v View) {
	for _, observer := range o {
		if observer != nil {
			observer.Publish(v)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Publish(View) {}

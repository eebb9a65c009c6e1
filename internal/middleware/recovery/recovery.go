// Package recovery turns handler panics into a logged, counted error
// response instead of a dropped connection.
package recovery

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fitlog/internal/log"
)

type Recoverer struct {
	panics  prometheus.Counter
	onPanic http.HandlerFunc
}

// New registers the panic counter with reg. onPanic writes the response
// for a recovered request; it may be nil, in which case a bare 500 is sent.
func New(reg prometheus.Registerer, onPanic http.HandlerFunc) *Recoverer {
	if onPanic == nil {
		onPanic = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	return &Recoverer{
		panics: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "http",
			Name:      "handler_panics_total",
			Help:      "Handler panics recovered by the server.",
		}),
		onPanic: onPanic,
	}
}

func (rc *Recoverer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// net/http uses this sentinel to abort a response silently.
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			rc.panics.Inc()
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Panic serving request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"panic", rec,
				"stack", string(debug.Stack()))
			rc.onPanic(w, r)
		}()
		next.ServeHTTP(w, r)
	})
}

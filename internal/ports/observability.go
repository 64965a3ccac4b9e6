package ports

// Observability bundles the logging and metrics surface the core components
// record into. Implementations decide the backend; the core never touches a
// logger or metrics registry directly.
type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
}

// Field is one structured logging key/value pair.
type Field struct {
	Key   string
	Value any
}

package testsupport

import (
	"testing"

	"coverharvest/internal/config"
	"coverharvest/internal/csvsink"
	"coverharvest/internal/record"
)

// MustOpenSink opens the configured CSV mirror for tests.
func MustOpenSink(t testing.TB, cfg *config.Config) *csvsink.Sink {
	t.Helper()

	sink, err := csvsink.Open(cfg.Paths.CSVFile)
	if err != nil {
		t.Fatalf("csvsink.Open: %v", err)
	}
	return sink
}

// Record builds a record from alternating name/value pairs.
func Record(pairs ...string) record.Record {
	fields := make([]record.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields = append(fields, record.Field{Name: pairs[i], Value: pairs[i+1]})
	}
	return record.New(fields...)
}

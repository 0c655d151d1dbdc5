package pubcontent

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/eringen/pubcontent/schema"
)

func TestMetricsObserveFile(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFile(nil, time.Millisecond)
	m.ObserveFile(schema.ValidationErrors{
		{Field: schema.FieldTitle, Kind: schema.MissingField, Index: -1},
		{Field: schema.FieldTags, Kind: schema.InvalidArrayElement, Index: 1},
	}, time.Millisecond)
	m.ObserveFile(errors.New("unreadable"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesValidated.WithLabelValues("valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesValidated.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FieldErrors.WithLabelValues("title", "missing_field")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FieldErrors.WithLabelValues("tags", "invalid_array_element")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFile(nil, time.Second)
	m.ObserveCollection(&Collection{})
}

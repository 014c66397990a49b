package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsSharedCollectors(t *testing.T) {
	a := New()
	b := New()
	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.NotPanics(t, func() {
		b.UploadsTotal.WithLabelValues("ok").Inc()
		b.SubmissionsTotal.WithLabelValues("create", "saved").Inc()
	})
}

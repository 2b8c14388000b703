package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeout(t *testing.T) {
	d, err := Timeout(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d, err = Timeout(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, d, time.Second)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = Timeout(cancelled, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Service: "data.gov.in", Status: 503}
	assert.Equal(t, "data.gov.in returned status 503", err.Error())
}

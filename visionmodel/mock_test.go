package visionmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientCyclesResponses(t *testing.T) {
	m := NewMockClient([]Response{{Label: "digging"}, {Label: "idle"}}, nil)

	r1, err := m.Classify(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "digging", r1.Label)

	r2, err := m.Classify(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "idle", r2.Label)

	r3, err := m.Classify(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "digging", r3.Label)
	assert.Equal(t, 3, m.Calls())
}

func TestMockClientReturnsScriptedErrors(t *testing.T) {
	wantErr := errors.New("boom")
	m := NewMockClient([]Response{{Label: "idle"}}, []error{nil, wantErr})

	_, err := m.Classify(context.Background(), Request{})
	assert.NoError(t, err)

	_, err = m.Classify(context.Background(), Request{})
	assert.ErrorIs(t, err, wantErr)
}

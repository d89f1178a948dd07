// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/docstore"
)

/*
TestMemoryBackend_FailureInjection verifies that injected errors are returned
until cleared and that stored bytes are copied.
*/
func TestMemoryBackend_FailureInjection(t *testing.T) {
	backend := docstore.NewMemoryBackend()
	ctx := context.Background()
	boom := errors.New("disk full")

	payload := []byte(`{"x":1}`)
	require.NoError(t, backend.Save(ctx, "doc", payload))
	payload[2] = 'y'

	data, err := backend.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(data))

	backend.FailSave("doc", boom)
	assert.ErrorIs(t, backend.Save(ctx, "doc", []byte(`{}`)), boom)
	assert.Equal(t, 1, backend.Saves("doc"))

	backend.FailLoad("doc", boom)
	_, err = backend.Load(ctx, "doc")
	assert.ErrorIs(t, err, boom)

	backend.FailLoad("doc", nil)
	backend.FailSave("doc", nil)
	require.NoError(t, backend.Save(ctx, "doc", []byte(`{}`)))
	assert.Equal(t, 2, backend.Saves("doc"))

	backend.FailPing(boom)
	assert.ErrorIs(t, backend.Ping(ctx), boom)

	_, err = backend.Load(ctx, "missing")
	assert.True(t, docstore.IsNotExist(err))
}

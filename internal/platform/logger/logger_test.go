// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/logger"
)

/*
TestNew_ConsoleOnly verifies JSON output and the static app attribute.
*/
func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	log, closer := logger.New(logger.Options{App: "undangan", Stdout: &buf})
	defer closer.Close()

	log.Info("comment_created", "comment_id", 7)
	log.Debug("hidden")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "comment_created", record["msg"])
	assert.Equal(t, "undangan", record["app"])
	assert.EqualValues(t, 7, record["comment_id"])
}

/*
TestNew_FileSink verifies that records are duplicated into the rotated file.
*/
func TestNew_FileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "app.log")

	log, closer := logger.New(logger.Options{Debug: true, File: path, Stdout: &buf})
	log.Debug("flush_started")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "flush_started")
	assert.Contains(t, buf.String(), "flush_started")
}

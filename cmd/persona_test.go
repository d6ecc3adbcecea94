package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/daikw/vchat/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWritePersonaYAML(t *testing.T) {
	var p persona.Persona
	require.NoError(t, json.Unmarshal([]byte(`{"name": "둥그레", "voice_id": "123", "created_at": "2024", "persona_data": {"gender": "여성", "tone": ["밝음"]}, "few_shot_examples": []}`), &p))

	t.Run("block yaml in stored order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writePersonaYAML(&buf, &p))

		out := buf.String()
		assert.True(t, strings.HasPrefix(out, "name: 둥그레\n"))
		assert.Contains(t, out, "voice_id: \"123\"\n")
		assert.Contains(t, out, "persona_data:\n  gender: 여성\n")
		assert.NotContains(t, out, "{")
		assert.Less(t, strings.Index(out, "voice_id:"), strings.Index(out, "created_at:"))
		assert.Less(t, strings.Index(out, "created_at:"), strings.Index(out, "persona_data:"))
	})

	t.Run("write error is returned", func(t *testing.T) {
		err := writePersonaYAML(failingWriter{}, &p)
		assert.Error(t, err)
	})
}

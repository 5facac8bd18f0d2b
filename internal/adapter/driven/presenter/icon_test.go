package presenter

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

func TestLogIconPresenter_Present(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogIconPresenter(slog.New(slog.NewJSONHandler(&buf, nil)))

	p.Present(context.Background(), model.DefaultIconState(), model.IconState{State: model.IconStatusOn, UnreadCount: 2})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "icon state changed", line["msg"])
	assert.Equal(t, "on", line["state"])
	assert.Equal(t, "+2", line["badge"])
	assert.Equal(t, "off", line["prev_state"])
	assert.Equal(t, "", line["prev_badge"])
}

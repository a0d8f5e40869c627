package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope(nil)
	assert.Error(t, err)
	_, err = DecodeEnvelope([]byte("{not json"))
	assert.Error(t, err)
	_, err = DecodeEnvelope([]byte(`{"d":{}}`))
	assert.Error(t, err)
}

func TestDecodeClientUpdate(t *testing.T) {
	raw := []byte(`{"t":"client_update","d":{"id":"a1b2c3","name":"Nova","colour":{"r":1,"g":2,"b":3},
		"keys":{"up":true,"torpedos":true},"viewport":{"width":800,"height":600},"time":42}}`)
	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, MsgClientUpdate, env.T)

	u, err := DecodePayload[ClientUpdate](env)
	require.NoError(t, err)
	assert.Equal(t, "Nova", u.Name)
	assert.True(t, u.Keys.Up)
	assert.True(t, u.Keys.Torpedos)
	assert.False(t, u.Keys.Left)
	assert.Equal(t, 800.0, u.Viewport.Width)
	assert.Equal(t, int64(42), u.Time)
}

func TestRequestNameForms(t *testing.T) {
	assert.Equal(t, "torpedo", RequestName(json.RawMessage(`"torpedo"`), "weapon_name"))
	assert.Equal(t, "hull", RequestName(json.RawMessage(`{"upgrade_name":"hull"}`), "upgrade_name"))
	assert.Equal(t, "", RequestName(json.RawMessage(`{"other":"hull"}`), "upgrade_name"))
	assert.Equal(t, "", RequestName(nil, "upgrade_name"))
}

func TestBinaryEnvelopeUsesJSONNames(t *testing.T) {
	b, err := EncodeBinary(MsgNotification, Notification{Text: "hi"})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, DecodeBinary(b, &out))
	assert.Equal(t, MsgNotification, out["t"])
	d, ok := out["d"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", d["text"])
}

package fieldtest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	// downtown Chicago, western hemisphere
	fix, err := DecodePayload([]byte{157, 149, 108, 62, 48, 247, 4, 179, 12, 7})
	require.NoError(t, err)

	require.True(t, fix.HasFix)
	require.InDelta(t, 1.2, fix.HDOP, 0.001)
	require.Equal(t, 7, fix.Satellites)
	require.InDelta(t, 41.8779989, fix.Latitude, 1e-7)
	require.InDelta(t, -87.6290012, fix.Longitude, 1e-7)
	require.Equal(t, 203, fix.Altitude)
	require.InDelta(t, 1.1, fix.Accuracy, 0.001)
}

func TestDecodePayloadSouthernHemisphere(t *testing.T) {
	// Sydney, negative latitude and positive longitude
	fix, err := DecodePayload([]byte{87, 237, 0, 107, 80, 158, 4, 34, 9, 11})
	require.NoError(t, err)

	require.True(t, fix.HasFix)
	require.InDelta(t, -33.8688053, fix.Latitude, 1e-7)
	require.InDelta(t, 151.2092957, fix.Longitude, 1e-7)
	require.Equal(t, 58, fix.Altitude)
	require.InDelta(t, 0.9, fix.HDOP, 0.001)
	require.Equal(t, 11, fix.Satellites)
	require.InDelta(t, 0.95, fix.Accuracy, 0.001)
}

func TestDecodePayloadFixFlag(t *testing.T) {
	tests := []struct {
		hdop byte
		sats byte
		want bool
	}{
		{20, 5, true},
		{21, 5, false},
		{20, 4, false},
		{0, 0, false},
		{255, 12, false},
		{1, 255, true},
	}

	for _, tt := range tests {
		p := make([]byte, PayloadLen)
		p[8], p[9] = tt.hdop, tt.sats
		fix, err := DecodePayload(p)
		require.NoError(t, err)
		require.Equal(t, tt.want, fix.HasFix, "hdop=%d sats=%d", tt.hdop, tt.sats)
	}
}

func TestDecodePayloadNoFixSkipsPosition(t *testing.T) {
	// same coordinate bytes as the Chicago payload, but hdop 5.1 and 3
	// satellites, a stale position the decoder must not surface
	fix, err := DecodePayload([]byte{157, 149, 108, 62, 48, 247, 4, 179, 51, 3})
	require.NoError(t, err)

	require.False(t, fix.HasFix)
	require.InDelta(t, 5.1, fix.HDOP, 0.001)
	require.Equal(t, 3, fix.Satellites)
	require.Zero(t, fix.Latitude)
	require.Zero(t, fix.Longitude)
	require.Zero(t, fix.Altitude)
	require.Zero(t, fix.Accuracy)
}

func TestDecodePayloadMalformed(t *testing.T) {
	_, err := DecodePayload(nil)
	require.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodePayload([]byte{44, 120, 140})
	require.ErrorIs(t, err, ErrMalformedPayload)

	// 9 bytes is one short
	_, err = DecodePayload(make([]byte, PayloadLen-1))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodePayloadExtraBytes(t *testing.T) {
	p := []byte{157, 149, 108, 62, 48, 247, 4, 179, 12, 7, 0xde, 0xad}
	fix, err := DecodePayload(p)
	require.NoError(t, err)
	require.InDelta(t, 41.8779989, fix.Latitude, 1e-7)
}

func TestDecodePayloadDeterministic(t *testing.T) {
	p := []byte{157, 149, 108, 62, 48, 247, 4, 179, 12, 7}
	fix1, err := DecodePayload(p)
	require.NoError(t, err)
	fix2, err := DecodePayload(p)
	require.NoError(t, err)
	require.Equal(t, fix1, fix2)
}

func TestEncodePayloadRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		alt      int
		hdop     float64
		sats     int
	}{
		{"paris", 48.85826, 2.29451, 35, 1.3, 9},
		{"santiago", -33.44889, -70.66927, 570, 0.8, 12},
		{"quito", -0.1807, -78.4678, 2850, 1.1, 6},
		{"below sea level", 31.5, 35.47, -420, 1.0, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix, err := DecodePayload(EncodePayload(tt.lat, tt.lng, tt.alt, tt.hdop, tt.sats))
			require.NoError(t, err)
			require.InDelta(t, tt.lat, fix.Latitude, 2e-5)
			require.InDelta(t, tt.lng, fix.Longitude, 3e-5)
			require.Equal(t, tt.alt, fix.Altitude)
			require.InDelta(t, tt.hdop, fix.HDOP, 0.01)
			require.Equal(t, tt.sats, fix.Satellites)
		})
	}
}

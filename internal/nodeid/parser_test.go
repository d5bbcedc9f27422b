// internal/nodeid/parser_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		rawID        string
		expectErr    bool
		expectedAddr Address
	}{
		{
			name:         "simple identifier",
			rawID:        "engine:outputToScreen",
			expectedAddr: Address{Module: "engine", Name: "outputToScreen"},
		},
		{
			name:         "dotted name",
			rawID:        "engine:fbo.ssaoBlurred",
			expectedAddr: Address{Module: "engine", Name: "fbo.ssaoBlurred"},
		},
		{
			name:         "hyphen and underscore",
			rawID:        "core-rendering:late_blur.first",
			expectedAddr: Address{Module: "core-rendering", Name: "late_blur.first"},
		},
		{
			name:      "error - empty string",
			rawID:     "",
			expectErr: true,
		},
		{
			name:      "error - missing module separator",
			rawID:     "opaqueBlocks",
			expectErr: true,
		},
		{
			name:      "error - empty module",
			rawID:     ":opaqueBlocks",
			expectErr: true,
		},
		{
			name:      "error - empty name",
			rawID:     "engine:",
			expectErr: true,
		},
		{
			name:      "error - empty segment",
			rawID:     "engine:fbo..blur",
			expectErr: true,
		},
		{
			name:      "error - invalid segment characters",
			rawID:     "engine:fbo.blur[0]",
			expectErr: true,
		},
		{
			name:      "error - lone hyphen segment",
			rawID:     "engine:fbo.-",
			expectErr: true,
		},
		{
			name:      "error - second separator",
			rawID:     "engine:fbo:blur",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.rawID)

			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedAddr, addr)
		})
	}
}

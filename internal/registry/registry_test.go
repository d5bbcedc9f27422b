package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/rendergraph/internal/node"
	"github.com/vk/rendergraph/internal/nodeid"
	"github.com/vk/rendergraph/internal/registry"
	"github.com/vk/rendergraph/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func TestRegistry_CreateAndTypes(t *testing.T) {
	ctx := testutil.Context()
	r := registry.New()
	r.RegisterPass("b_pass", func(_ context.Context, b registry.Build) (*node.Node, error) {
		return node.New(b.Addr, &testutil.FakePass{}), nil
	})
	r.RegisterPass("a_pass", func(context.Context, registry.Build) (*node.Node, error) {
		return nil, errors.New("no device")
	})

	assert.Equal(t, []string{"a_pass", "b_pass"}, r.Types())
	assert.True(t, r.Has("a_pass"))
	assert.False(t, r.Has("c_pass"))

	n, err := r.Create(ctx, "b_pass", registry.Build{Addr: nodeid.MustParse("engine:b")})
	require.NoError(t, err)
	assert.Equal(t, "engine:b", n.ID())

	_, err = r.Create(ctx, "a_pass", registry.Build{Addr: nodeid.MustParse("engine:a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device")

	_, err = r.Create(ctx, "c_pass", registry.Build{Addr: nodeid.MustParse("engine:c")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pass type 'c_pass'")
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := registry.New()
	f := func(context.Context, registry.Build) (*node.Node, error) { return nil, nil }
	r.RegisterPass("x", f)
	assert.Panics(t, func() { r.RegisterPass("x", f) })
}

type blurParams struct {
	Radius  float64 `cty:"radius"`
	Buffer  string  `cty:"buffer"`
	Enabled bool    `cty:"enabled"`
}

func TestDecodeParams(t *testing.T) {
	testCases := []struct {
		name    string
		params  map[string]cty.Value
		want    blurParams
		wantErr string
	}{
		{
			name:   "defaults kept",
			params: nil,
			want:   blurParams{Radius: 1, Buffer: "fbo.blur", Enabled: true},
		},
		{
			name:   "overrides with conversion",
			params: map[string]cty.Value{"radius": cty.StringVal("2.5"), "enabled": cty.False},
			want:   blurParams{Radius: 2.5, Buffer: "fbo.blur", Enabled: false},
		},
		{
			name:    "unknown parameter",
			params:  map[string]cty.Value{"sigma": cty.NumberIntVal(3)},
			wantErr: "unsupported parameter 'sigma'",
		},
		{
			name:    "bad type",
			params:  map[string]cty.Value{"radius": cty.True},
			wantErr: "parameter 'radius'",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := blurParams{Radius: 1, Buffer: "fbo.blur", Enabled: true}
			err := registry.DecodeParams(tc.params, &got)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeParams_EmptyStruct(t *testing.T) {
	var none struct{}
	require.NoError(t, registry.DecodeParams(nil, &none))
	require.Error(t, registry.DecodeParams(map[string]cty.Value{"x": cty.True}, &none))
}

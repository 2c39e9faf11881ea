package k8sconfigmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	k8sfake "k8s.io/client-go/kubernetes/fake"

	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

func buildSampleMold(t *testing.T) *moldapi.Context {
	t.Helper()
	mold, err := moldapi.MoldBegin()
	require.NoError(t, err)
	_, err = moldapi.AddKeyvalInteger(mold, "replicas", 3, "replica count", moldapi.Version1_0)
	require.NoError(t, err)
	require.NoError(t, moldapi.MoldFinalize(mold))
	return mold
}

func TestPlugin_ConfigWriteRead_RoundTrips(t *testing.T) {
	mold := buildSampleMold(t)
	cfg, err := moldapi.ConfigBegin(mold)
	require.NoError(t, err)
	kv, err := moldapi.Begin(cfg, moldapi.KindKeyval)
	require.NoError(t, err)
	require.NoError(t, moldapi.SetName(kv, "replicas"))
	v, err := kv.Value()
	require.NoError(t, err)
	require.NoError(t, v.SetInteger(5))
	require.NoError(t, moldapi.Finalize(kv))
	require.NoError(t, moldapi.ConfigFinalize(cfg))

	clientset := k8sfake.NewSimpleClientset()
	p := NewFromClientset(clientset, DefaultConfig(), nil)
	ctx := context.Background()

	require.NoError(t, p.ConfigWrite(ctx, "default", "app-config", cfg))

	reread, err := p.ConfigRead(ctx, "default", "app-config", mold)
	require.NoError(t, err)

	found, err := moldapi.QueryResolveContext(reread, "replicas")
	require.NoError(t, err)
	fv, err := found.Value()
	require.NoError(t, err)
	i, err := fv.GetInteger()
	require.NoError(t, err)
	require.Equal(t, int64(5), i)

	// Write again; should update in place rather than fail on Create.
	require.NoError(t, p.ConfigWrite(ctx, "default", "app-config", cfg))
}

func TestPlugin_ConfigRead_NotFound(t *testing.T) {
	mold := buildSampleMold(t)
	clientset := k8sfake.NewSimpleClientset()
	p := NewFromClientset(clientset, DefaultConfig(), nil)

	_, err := p.ConfigRead(context.Background(), "default", "missing", mold)
	require.Error(t, err)
}

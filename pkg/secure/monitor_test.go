package secure

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMonitorDetectsRewrite(t *testing.T) {
	stores := generateStores(t)

	params := NewTransportParams("", nil, false)
	params.SetKeyStore(stores.ServerStore, stores.StorePassword)
	params.SetTrustStore(stores.CAStore, "")

	var changes atomic.Int32
	changed := make(chan string, 4)
	monitor := NewStoreMonitor(params, nil, func(path string) {
		changes.Add(1)
		select {
		case changed <- path:
		default:
		}
	})
	monitor.SetCheckInterval(time.Hour)

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	// Rotate the server key store in place.
	_, key, certPEM, err := GenerateCertificate(CertificateOptions{CommonName: "localhost"})
	require.NoError(t, err)
	require.NoError(t, WriteKeyStore(stores.ServerStore, certPEM, key, stores.StorePassword))

	select {
	case path := <-changed:
		assert.Equal(t, stores.ServerStore, path)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification after rewriting the key store")
	}
}

func TestStoreMonitorRequiresStores(t *testing.T) {
	monitor := NewStoreMonitor(NewTransportParams("", nil, false), nil, nil)
	assert.Error(t, monitor.Start(context.Background()))
}

func TestStoreMonitorStartStopIdempotent(t *testing.T) {
	stores := generateStores(t)

	params := NewTransportParams("", nil, false)
	params.SetTrustStore(stores.CAStore, "")

	monitor := NewStoreMonitor(params, nil, nil)
	require.NoError(t, monitor.Start(context.Background()))
	require.NoError(t, monitor.Start(context.Background()))

	monitor.Stop()
	monitor.Stop()
}

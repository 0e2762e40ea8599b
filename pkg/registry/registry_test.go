package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thebestandgreatest/craftybroker/pkg/events"
	"github.com/Thebestandgreatest/craftybroker/pkg/log"
	"github.com/Thebestandgreatest/craftybroker/pkg/storage"
	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard, JSONOutput: true})
	m.Run()
}

// fakeController imitates the relevant slice of the Crafty Controller API
type fakeController struct {
	mu      sync.Mutex
	running bool
}

func (f *fakeController) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/action/start_server"):
			f.running = true
			fmt.Fprint(w, `{"status":"ok"}`)
		case strings.HasSuffix(r.URL.Path, "/action/stop_server"):
			f.running = false
			fmt.Fprint(w, `{"status":"ok"}`)
		case strings.HasSuffix(r.URL.Path, "/stats"):
			fmt.Fprintf(w, `{"status":"ok","data":{"running":%t}}`, f.running)
		case r.Method == http.MethodDelete:
			fmt.Fprint(w, `{"status":"ok"}`)
		default:
			fmt.Fprint(w, `{"status":"error","error":"unknown route"}`)
		}
	}
}

func testSetup(t *testing.T) (*Registry, storage.Store, *events.Bus, *fakeController) {
	t.Helper()

	controller := &fakeController{}
	server := httptest.NewServer(controller.handler())
	t.Cleanup(server.Close)

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	bus := events.NewBus()
	bus.Start()
	t.Cleanup(bus.Stop)

	reg := New(store, bus)

	cfg := types.Config{
		Name: "survival",
		Type: types.BrokerKindCrafty,
		Crafty: &types.CraftyConfig{
			ServerID:      "abc123",
			Token:         "secret",
			CraftyAddress: server.URL,
			Address:       "10.0.0.5",
		},
	}
	require.NoError(t, reg.Apply(context.Background(), []types.Config{cfg}))

	return reg, store, bus, controller
}

func TestApplyRegistersServer(t *testing.T) {
	reg, store, _, _ := testSetup(t)

	assert.Equal(t, []string{"survival"}, reg.Names())

	record, err := store.GetServer("survival")
	require.NoError(t, err)
	assert.Equal(t, "abc123", record.ID)
	assert.Equal(t, types.StatusUnknown, record.LastStatus)
}

func TestApplyRejectsUnknownKind(t *testing.T) {
	reg, _, _, _ := testSetup(t)

	err := reg.Apply(context.Background(), []types.Config{{Name: "other", Type: "docker"}})
	assert.Error(t, err)
}

func TestStatusRecordsObservedState(t *testing.T) {
	reg, store, _, controller := testSetup(t)
	controller.running = true

	status, err := reg.Status(context.Background(), "survival")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, status)

	record, err := store.GetServer("survival")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, record.LastStatus)
	assert.False(t, record.LastSeen.IsZero())
}

func TestStartStopLifecycle(t *testing.T) {
	reg, store, bus, _ := testSetup(t)

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	require.NoError(t, reg.Start(context.Background(), "survival"))

	record, err := store.GetServer("survival")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, record.LastStatus)

	require.NoError(t, reg.Stop(context.Background(), "survival"))

	record, err = store.GetServer("survival")
	require.NoError(t, err)
	assert.Equal(t, types.StatusStopped, record.LastStatus)
}

func TestRemoveForgetsServer(t *testing.T) {
	reg, store, _, _ := testSetup(t)

	require.NoError(t, reg.Remove(context.Background(), "survival"))

	assert.Empty(t, reg.Names())
	_, err := store.GetServer("survival")
	assert.Error(t, err)
}

func TestUnknownServerName(t *testing.T) {
	reg, _, _, _ := testSetup(t)

	_, err := reg.Get("nether")
	assert.Error(t, err)

	assert.Error(t, reg.Start(context.Background(), "nether"))
	assert.Error(t, reg.Stop(context.Background(), "nether"))
	assert.Error(t, reg.Remove(context.Background(), "nether"))
}

func TestRestoreRebuildsBrokers(t *testing.T) {
	reg, store, bus, _ := testSetup(t)
	_ = reg

	fresh := New(store, bus)
	require.NoError(t, fresh.Restore())
	assert.Equal(t, []string{"survival"}, fresh.Names())
}

package smile_xml

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectUnsupportedProduct(t *testing.T) {
	tr := NewTestTransport([]byte(`<domain_objects><gateway id="x"><firmware_version>9.0.1</firmware_version><vendor_model>smile_unknown</vendor_model></gateway></domain_objects>`))
	c := NewClient(tr)
	_, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedDevice)
	assert.Nil(t, c.Snapshot())
}

func TestFailedRefreshKeepsLastSnapshot(t *testing.T) {
	c, tr, first := loadSnapshot(t, "adam.xml")

	tr.getErr = errors.New("connection refused")
	_, err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, first, c.Snapshot())

	// A later malformed body keeps the snapshot too.
	tr.getErr = nil
	tr.document = []byte("not xml at all")
	_, err = c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Same(t, first, c.Snapshot())
}

func TestRefreshPublishesNewSnapshot(t *testing.T) {
	c, _, first := loadSnapshot(t, "adam.xml")
	second, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Same(t, second, c.Snapshot())
	assert.False(t, second.RefreshedAt.Before(first.RefreshedAt))
}

func TestConcurrentReadersDuringRefresh(t *testing.T) {
	c, _, _ := loadSnapshot(t, "adam.xml")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap := c.Snapshot()
				if !assert.NotNil(t, snap) {
					return
				}
				_, ok := snap.Device("app_lisa")
				assert.True(t, ok)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_, err := c.Refresh(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestClientSetTemperature(t *testing.T) {
	c, tr, _ := loadSnapshot(t, "adam.xml")

	require.NoError(t, c.SetTemperature(context.Background(), "app_lisa", map[string]float64{SetpointKey: 19.0}))
	puts := tr.RecordedPuts()
	require.Len(t, puts, 1)
	assert.Equal(t, "/core/locations;id=loc_living/thermostat;id=tf_living", puts[0].Path)

	err := c.SetTemperature(context.Background(), "app_lisa", map[string]float64{SetpointKey: 99.0})
	assert.ErrorIs(t, err, ErrOutOfRangeValue)
	assert.Len(t, tr.RecordedPuts(), 1, "rejected writes never reach the transport")
}

func TestClientSetScheduleState(t *testing.T) {
	c, tr, _ := loadSnapshot(t, "adam.xml")
	require.NoError(t, c.SetScheduleState(context.Background(), "app_lisa", "Vakantie", true))
	puts := tr.RecordedPuts()
	require.Len(t, puts, 1)
	assert.Equal(t, "/core/rules;id=rule_vacation", puts[0].Path)
}

func TestClientRequiresSnapshot(t *testing.T) {
	c := NewClient(NewTestTransport(nil))
	err := c.SetTemperature(context.Background(), "x", map[string]float64{SetpointKey: 20})
	assert.Error(t, err)
}

func TestExecuteNilPayload(t *testing.T) {
	c, tr, _ := loadSnapshot(t, "adam.xml")
	require.NoError(t, c.Execute(context.Background(), nil))
	assert.Empty(t, tr.RecordedPuts())
}

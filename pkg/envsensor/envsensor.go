// Package envsensor tracks ambient temperature and humidity readings and the
// temperature scale they are displayed in.
package envsensor

import (
	"time"

	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/fako1024/filamentscale/pkg/sensor"
)

// TempScale denotes the temperature display scale
type TempScale uint8

const (
	Fahrenheit TempScale = iota
	Celsius

	// NumTempScales denotes the number of supported temperature scales
	NumTempScales
)

// String returns the display string of the temperature scale
func (t TempScale) String() string {
	if t == Celsius {
		return "°C"
	}
	return "°F"
}

// Precision returns the display precision of the temperature scale
func (t TempScale) Precision() int {
	if t == Celsius {
		return 1
	}
	return 0
}

// RefreshPeriod denotes the minimum interval between two sensor reads,
// further calls within the period serve the cached sample
const RefreshPeriod = 2 * time.Second

// Manager denotes the environment sensor state
type Manager struct {
	name   string
	store  *nvstore.Store
	source sensor.EnvSource

	scale       TempScale
	last        sensor.EnvSample
	lastRefresh time.Time
}

// New instantiates a new environment sensor manager (Fahrenheit selected by
// default)
func New(source sensor.EnvSource, store *nvstore.Store) *Manager {
	return &Manager{
		source: source,
		store:  store,
	}
}

// Init registers the persistence record name for this instance
func (m *Manager) Init(name string) bool {
	if !nvstore.ValidName(name) {
		return false
	}
	m.name = name

	return true
}

// SetScale selects the temperature display scale
func (m *Manager) SetScale(scale TempScale) bool {
	if scale >= NumTempScales {
		return false
	}
	m.scale = scale

	return true
}

// Scale returns the selected temperature display scale
func (m *Manager) Scale() TempScale {
	return m.scale
}

// Refresh polls the underlying sensor, keeping the previous sample if called
// again within RefreshPeriod or if the read fails
func (m *Manager) Refresh() sensor.EnvSample {
	if m.source == nil {
		return m.last
	}
	if !m.lastRefresh.IsZero() && time.Since(m.lastRefresh) < RefreshPeriod {
		return m.last
	}
	m.lastRefresh = time.Now()

	temp, hum, err := m.source.ReadEnv()
	if err != nil {
		m.last.Valid = false
		return m.last
	}
	m.last = sensor.EnvSample{
		Temperature: temp,
		Humidity:    hum,
		Valid:       true,
	}

	return m.last
}

// Last returns the most recent sample without polling the sensor
func (m *Manager) Last() sensor.EnvSample {
	return m.last
}

// Temperature returns the last temperature reading converted to the selected
// scale (the sensor reports Celsius)
func (m *Manager) Temperature() float64 {
	if m.scale == Celsius {
		return m.last.Temperature
	}

	return m.last.Temperature*9./5. + 32.
}

// Humidity returns the last relative humidity reading (percent)
func (m *Manager) Humidity() float64 {
	return m.last.Humidity
}

// Save persists the selected scale, skipping the write if the persisted copy
// already matches
func (m *Manager) Save() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	return m.store.Put(m.name, []byte{byte(m.scale)}) == nil
}

// Restore replaces the selected scale with the persisted record, failing
// without touching state if the record is absent or malformed
func (m *Manager) Restore() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	data, ok := m.store.Get(m.name)
	if !ok || len(data) != 1 || TempScale(data[0]) >= NumTempScales {
		return false
	}
	m.scale = TempScale(data[0])

	return true
}

// Reset deletes the persisted state record
func (m *Manager) Reset() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	return m.store.Delete(m.name) == nil
}

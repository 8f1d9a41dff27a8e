package loadcell

import (
	"encoding/binary"
	"math"

	"github.com/fako1024/filamentscale/pkg/scale"
)

// Fixed little-endian record: gain (u8), raw tare (i32), calibrated (u8),
// offset (f64), units (u8), average interval (f64), units scale factor
// (f64), conversion factor (f64)
const savedStateSize = 1 + 4 + 1 + 8 + 1 + 8 + 8 + 8

type savedState struct {
	gain             uint8
	rawTareWeight    int32
	isCalibrated     bool
	offset           float64
	units            scale.WeightUnit
	averageInterval  float64
	unitsScaleFactor float64
	conversionFactor float64
}

func (s *savedState) marshal() []byte {
	buf := make([]byte, savedStateSize)

	buf[0] = s.gain
	binary.LittleEndian.PutUint32(buf[1:5], uint32(s.rawTareWeight))
	if s.isCalibrated {
		buf[5] = 1
	}
	binary.LittleEndian.PutUint64(buf[6:14], math.Float64bits(s.offset))
	buf[14] = uint8(s.units)
	binary.LittleEndian.PutUint64(buf[15:23], math.Float64bits(s.averageInterval))
	binary.LittleEndian.PutUint64(buf[23:31], math.Float64bits(s.unitsScaleFactor))
	binary.LittleEndian.PutUint64(buf[31:39], math.Float64bits(s.conversionFactor))

	return buf
}

func (s *savedState) unmarshal(data []byte) bool {
	if len(data) != savedStateSize {
		return false
	}

	s.gain = data[0]
	s.rawTareWeight = int32(binary.LittleEndian.Uint32(data[1:5]))
	s.isCalibrated = data[5] == 1
	s.offset = math.Float64frombits(binary.LittleEndian.Uint64(data[6:14]))
	s.units = scale.WeightUnit(data[14])
	s.averageInterval = math.Float64frombits(binary.LittleEndian.Uint64(data[15:23]))
	s.unitsScaleFactor = math.Float64frombits(binary.LittleEndian.Uint64(data[23:31]))
	s.conversionFactor = math.Float64frombits(binary.LittleEndian.Uint64(data[31:39]))

	return s.units < scale.NumWeightUnits && (s.gain == 64 || s.gain == 128)
}

// Save persists the full numeric state as one atomic record. The write is
// skipped if the persisted copy already matches
func (l *LoadCell) Save() bool {
	if l.name == "" || l.store == nil {
		return false
	}

	l.mu.Lock()
	state := savedState{
		gain:             l.gain,
		rawTareWeight:    l.rawTareWeight,
		isCalibrated:     l.isCalibrated,
		offset:           l.offset,
		units:            l.units,
		averageInterval:  l.averageInterval,
		unitsScaleFactor: l.unitsScaleFactor,
		conversionFactor: l.conversionFactor,
	}
	l.mu.Unlock()

	if err := l.store.Put(l.name, state.marshal()); err != nil {
		l.logger.Errorf("failed to save load cell state: %s", err)
		return false
	}

	return true
}

// Restore replaces the full numeric state with the persisted record. It
// fails as a whole (leaving the in-memory state untouched) if the record is
// absent or malformed
func (l *LoadCell) Restore() bool {
	if l.name == "" || l.store == nil {
		return false
	}

	data, ok := l.store.Get(l.name)
	if !ok {
		return false
	}

	var state savedState
	if !state.unmarshal(data) {
		l.logger.Warnf("discarding malformed load cell state record (%d bytes)", len(data))
		return false
	}

	l.mu.Lock()
	l.gain = state.gain
	l.rawTareWeight = state.rawTareWeight
	l.isCalibrated = state.isCalibrated
	l.offset = state.offset
	l.units = state.units
	l.unitsScaleFactor = state.unitsScaleFactor
	l.conversionFactor = state.conversionFactor
	l.averageInterval = float64(l.avg.SetSize(int(state.averageInterval)))
	l.avg.Reset()
	l.mu.Unlock()

	// Let the sensor settle on the restored gain
	l.sensor.ReadRaw()

	return true
}

// Reset deletes the persisted state record
func (l *LoadCell) Reset() bool {
	if l.name == "" || l.store == nil {
		return false
	}

	return l.store.Delete(l.name) == nil
}

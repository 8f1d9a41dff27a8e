package sensor

import (
	"fmt"
	"sync"
	"time"

	"github.com/fako1024/filamentscale/pkg/scale"
	"go.bug.st/serial"
)

const (
	defaultBaudRate    = 9600
	defaultReadTimeout = 250 * time.Millisecond

	// Frame sync bytes emitted by the bridge firmware
	syncWeight = 0xAA
	syncEnv    = 0xE0

	// Maximum number of bytes skipped while hunting for a sync byte before
	// a read attempt is abandoned
	maxResyncBytes = 64
)

// Serial denotes the USB serial bridge carrying HX711 weight frames and DHT
// environmental frames. Weight frames are 4 bytes (sync + 24-bit big-endian
// two's complement raw reading), environmental frames are 4 bytes
// (sync + temperature*10 as big-endian int16 + humidity*2)
type Serial struct {
	port     serial.Port
	portName string
	baudRate int
	timeout  time.Duration

	mu      sync.Mutex
	pending *int32
	lastEnv EnvSample

	logger scale.Logger
}

// NewSerial opens the serial bridge on the given port, executing functional
// options, if any
func NewSerial(portName string, options ...func(*Serial)) (*Serial, error) {

	s := &Serial{
		portName: portName,
		baudRate: defaultBaudRate,
		timeout:  defaultReadTimeout,
		logger:   &scale.NullLogger{},
	}

	// Execute functional options (if any), see options.go for implementation
	for _, option := range options {
		option(s)
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(s.timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	s.port = port

	return s, nil
}

// ReadRaw returns a single raw weight reading from the bridge, or 0 if no
// valid weight frame could be obtained within the read timeout
func (s *Serial) ReadRaw() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		val := *s.pending
		s.pending = nil
		return val
	}

	val, ok := s.readWeightFrame()
	if !ok {
		return 0
	}

	return val
}

// WaitReady polls for an available weight frame, buffering it for the next
// ReadRaw call once one arrives
func (s *Serial) WaitReady(retries int, delay time.Duration) bool {

	for i := 0; i < retries; i++ {
		s.mu.Lock()
		if s.pending != nil {
			s.mu.Unlock()
			return true
		}
		if val, ok := s.readWeightFrame(); ok {
			s.pending = &val
			s.mu.Unlock()
			return true
		}
		s.mu.Unlock()

		time.Sleep(delay)
	}

	return false
}

// ReadEnv returns the most recent environmental sample seen on the bridge
func (s *Serial) ReadEnv() (temperature, humidity float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Env frames are interleaved with weight frames, so attempt to drain one
	// frame in case the weight path has been idle
	if !s.lastEnv.Valid {
		if val, ok := s.readWeightFrame(); ok && s.pending == nil {
			s.pending = &val
		}
	}

	if !s.lastEnv.Valid {
		return 0, 0, fmt.Errorf("no environmental sample received on %s", s.portName)
	}

	return s.lastEnv.Temperature, s.lastEnv.Humidity, nil
}

// Close terminates the connection to the bridge
func (s *Serial) Close() error {
	return s.port.Close()
}

////////////////////////////////////////////////////////////////////////////////

// readWeightFrame hunts for the next weight frame, parsing (and stashing) any
// environmental frames encountered along the way. Caller must hold s.mu
func (s *Serial) readWeightFrame() (int32, bool) {

	for skipped := 0; skipped < maxResyncBytes; skipped++ {
		sync, ok := s.readByte()
		if !ok {
			return 0, false
		}

		switch sync {
		case syncWeight:
			payload, ok := s.readPayload()
			if !ok {
				return 0, false
			}
			return decodeRaw(payload), true
		case syncEnv:
			payload, ok := s.readPayload()
			if !ok {
				return 0, false
			}
			s.lastEnv = decodeEnv(payload)
		default:
			s.logger.Debugf("skipping unexpected byte 0x%02x while resyncing", sync)
		}
	}

	s.logger.Warnf("failed to sync to bridge frame within %d bytes", maxResyncBytes)
	return 0, false
}

func (s *Serial) readByte() (byte, bool) {
	buf := make([]byte, 1)
	n, err := s.port.Read(buf)
	if err != nil || n == 0 {
		return 0, false
	}

	return buf[0], true
}

func (s *Serial) readPayload() ([3]byte, bool) {
	var payload [3]byte
	for i := 0; i < len(payload); i++ {
		b, ok := s.readByte()
		if !ok {
			return payload, false
		}
		payload[i] = b
	}

	return payload, true
}

// decodeRaw sign-extends the 24-bit two's complement HX711 reading
func decodeRaw(payload [3]byte) int32 {
	val := int32(payload[0])<<16 | int32(payload[1])<<8 | int32(payload[2])
	if val&0x800000 != 0 {
		val -= 1 << 24
	}

	return val
}

func decodeEnv(payload [3]byte) EnvSample {
	temp := int16(payload[0])<<8 | int16(payload[1])

	return EnvSample{
		Temperature: float64(temp) / 10.,
		Humidity:    float64(payload[2]) / 2.,
		Valid:       true,
	}
}

package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/hash-registry/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// convertFunc converts a raw override value into T. ok is false when the
// source type isn't supported.
type convertFunc[T any] func(raw interface{}) (value T, ok bool, err error)

type typedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      convertFunc[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](override config.Config, defaultValue T, convert convertFunc[T]) *typedConfig[T] {
	return &typedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.setLastValue(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, ok, err := c.convert(override)
	if !ok {
		return lastValue, ErrUnsuportedConversion
	} else if err != nil {
		return lastValue, err
	}

	c.setLastValue(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *typedConfig[T]) setLastValue(value T) {
	c.stateMu.Lock()
	c.lastValue = value
	c.stateMu.Unlock()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (bool, bool, error) {
		switch typed := raw.(type) {
		case []byte:
			parsed, err := strconv.ParseBool(string(typed))
			return parsed, true, err
		case bool:
			return typed, true, nil
		default:
			return false, false, nil
		}
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (uint64, bool, error) {
		switch typed := raw.(type) {
		case []byte:
			parsed, err := strconv.ParseUint(string(typed), 10, 64)
			return parsed, true, err
		case uint64:
			return typed, true, nil
		case uint:
			return uint64(typed), true, nil
		default:
			return 0, false, nil
		}
	})
}

// NewDurationConfig returns a new duration config utility wrapper
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (time.Duration, bool, error) {
		switch typed := raw.(type) {
		case []byte:
			parsed, err := time.ParseDuration(string(typed))
			return parsed, true, err
		case time.Duration:
			return typed, true, nil
		default:
			return 0, false, nil
		}
	})
}

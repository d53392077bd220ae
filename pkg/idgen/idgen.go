package idgen

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/sonyflake"
)

// IDGenerator produces unique string ids
type IDGenerator interface {
	NextID() (string, error)
}

// SonyflakeGenerator produces compact, roughly time-ordered numeric ids.
// Used for user ids, where ordering by creation is convenient.
type SonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflakeGenerator creates a generator for one machine id
func NewSonyflakeGenerator(machineID uint16) (*SonyflakeGenerator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) { return machineID, nil },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sonyflake: %w", err)
	}
	return &SonyflakeGenerator{sf: sf}, nil
}

func (g *SonyflakeGenerator) NextID() (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return strconv.FormatUint(id, 10), nil
}

// UUIDGenerator produces random v4 UUIDs. Used where ids must be
// unguessable, such as password reset tokens and subscription ids.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUIDGenerator
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NextID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	return u.String(), nil
}

var (
	defaultGenerator IDGenerator
	once             sync.Once
	initErr          error
)

// SetDefaultGenerator overrides the process-wide generator. Call before
// the first NextID, typically to assign a machine id per instance.
func SetDefaultGenerator(gen IDGenerator) {
	defaultGenerator = gen
}

// NextID produces an id from the process-wide generator, lazily backed
// by a SonyflakeGenerator with machine id 1
func NextID() (string, error) {
	once.Do(func() {
		if defaultGenerator == nil {
			defaultGenerator, initErr = NewSonyflakeGenerator(1)
		}
	})
	if initErr != nil {
		return "", initErr
	}
	return defaultGenerator.NextID()
}

package protocol

import (
	"testing"

	"github.com/snowfork/ethereum-light-client/beacon/config"
	"github.com/stretchr/testify/assert"
)

func mainnet() *Protocol {
	return New(config.SpecSettings{SlotsInEpoch: 32, EpochsPerSyncCommitteePeriod: 256})
}

func TestIsStartOfEpoch(t *testing.T) {
	values := []struct {
		name     string
		slot     uint64
		expected bool
	}{
		{
			name:     "start of epoch",
			slot:     0,
			expected: true,
		},
		{
			name:     "middle of epoch",
			slot:     16,
			expected: false,
		},
		{
			name:     "end of epoch",
			slot:     31,
			expected: false,
		},
		{
			name:     "start of new of epoch",
			slot:     32,
			expected: true,
		},
	}

	p := mainnet()

	for _, tt := range values {
		result := p.IsStartOfEpoch(tt.slot)
		assert.Equal(t, tt.expected, result, "expected %t but found %t for slot %d", tt.expected, result, tt.slot)
	}
}

func TestComputeSyncPeriodAtSlot(t *testing.T) {
	values := []struct {
		name     string
		slot     uint64
		expected uint64
	}{
		{
			name:     "genesis",
			slot:     0,
			expected: 0,
		},
		{
			name:     "last slot of first period",
			slot:     8191,
			expected: 0,
		},
		{
			name:     "first slot of second period",
			slot:     8192,
			expected: 1,
		},
		{
			name:     "mainnet slot",
			slot:     4100000,
			expected: 500,
		},
	}

	p := mainnet()

	for _, tt := range values {
		result := p.ComputeSyncPeriodAtSlot(tt.slot)
		assert.Equal(t, tt.expected, result, tt.name)
	}
}

func TestPeriodHelpers(t *testing.T) {
	p := mainnet()

	assert.Equal(t, uint64(8192), p.SlotsPerSyncCommitteePeriod())
	assert.Equal(t, uint64(16384), p.FirstSlotOfPeriod(2))
	assert.Equal(t, uint64(2), p.ComputeEpochAtSlot(64))
	assert.Equal(t, uint64(1), p.ComputeSyncPeriodAtEpoch(256))
	assert.True(t, p.IsNextPeriod(4, 5))
	assert.False(t, p.IsNextPeriod(4, 6))
}

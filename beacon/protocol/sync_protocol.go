package protocol

import (
	"github.com/snowfork/ethereum-light-client/beacon/config"
)

type Protocol struct {
	Settings config.SpecSettings
}

func New(setting config.SpecSettings) *Protocol {
	return &Protocol{Settings: setting}
}

func (p *Protocol) SlotsPerSyncCommitteePeriod() uint64 {
	return p.Settings.SlotsInEpoch * p.Settings.EpochsPerSyncCommitteePeriod
}

func (p *Protocol) ComputeSyncPeriodAtSlot(slot uint64) uint64 {
	return slot / p.SlotsPerSyncCommitteePeriod()
}

func (p *Protocol) ComputeEpochAtSlot(slot uint64) uint64 {
	return slot / p.Settings.SlotsInEpoch
}

func (p *Protocol) ComputeSyncPeriodAtEpoch(epoch uint64) uint64 {
	return epoch / p.Settings.EpochsPerSyncCommitteePeriod
}

func (p *Protocol) IsStartOfEpoch(slot uint64) bool {
	return slot%p.Settings.SlotsInEpoch == 0
}

// IsNextPeriod reports whether period is the one directly after base.
func (p *Protocol) IsNextPeriod(base, period uint64) bool {
	return period == base+1
}

// FirstSlotOfPeriod returns the slot on which the given period starts.
func (p *Protocol) FirstSlotOfPeriod(period uint64) uint64 {
	return period * p.SlotsPerSyncCommitteePeriod()
}

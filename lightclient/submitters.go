package lightclient

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/snowfork/ethereum-light-client/beacon/state"
)

func registerSubmitter(cs *ConsensusState, account state.Account) error {
	_, registered, err := cs.Submitter(account)
	if err != nil {
		return err
	}
	if registered {
		return newError(AlreadyRegistered, "The account is already registered")
	}
	return cs.SetSubmitter(account, 0)
}

// unregisterSubmitter drops an account once all its headers are finalized.
func unregisterSubmitter(cs *ConsensusState, account state.Account) error {
	count, registered, err := cs.Submitter(account)
	if err != nil {
		return err
	}
	if !registered {
		return newError(NotRegistered, "The account is not registered")
	}
	if count > 0 {
		return newError(PendingHeaders, "The account has %d unfinalized headers", count)
	}
	return cs.DeleteSubmitter(account)
}

// reserveSubmission returns the pending count account would have after one
// more submission, checking registration and quota.
func reserveSubmission(cs *ConsensusState, nm *NonMappedState, account state.Account) (uint32, error) {
	count, registered, err := cs.Submitter(account)
	if err != nil {
		return 0, err
	}
	if !registered {
		return 0, newError(NotRegistered, "The account can't submit blocks because it is not registered")
	}
	if uint64(count)+1 > uint64(nm.MaxSubmittedBlocksByAccount) {
		return 0, newError(QuotaExceeded, "The submitter exhausted the limit of blocks")
	}
	return count + 1, nil
}

// releaseSubmissions frees the quota of headers that were just finalized.
// Accounts are processed in a fixed order so the resulting writes are
// deterministic.
func releaseSubmissions(cs *ConsensusState, released map[state.Account]uint32) error {
	accounts := make([]string, 0, len(released))
	for account := range released {
		accounts = append(accounts, string(account))
	}
	sort.Strings(accounts)

	for _, name := range accounts {
		account := state.Account(name)
		finalized := released[account]

		count, registered, err := cs.Submitter(account)
		if err != nil {
			return err
		}
		if !registered {
			log.WithFields(log.Fields{
				"submitter": account,
				"headers":   finalized,
			}).Error("Finalized headers of a submitter that is no longer registered")
			continue
		}
		if finalized > count {
			return newInvariant(NotRegistered, "submitter %s has %d pending headers but %d were finalized", account, count, finalized)
		}

		if err := cs.SetSubmitter(account, count-finalized); err != nil {
			return err
		}
	}

	return nil
}

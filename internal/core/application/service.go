package application

import (
	"context"
	"fmt"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
)

// Service wires the daemon, the signer and the local stores into the state
// machines driven by a Program.
type Service struct {
	pollInterval int64
	network      *chaincfg.Params
	feerate      uint32

	daemon      ports.Daemon
	signer      ports.Signer
	scheduler   ports.SchedulerService
	repoManager ports.RepoManager
}

// NewService journals every call to daemon through repoManager. signer and
// scheduler are optional.
func NewService(
	pollInterval int64, network *chaincfg.Params, feerate uint32,
	daemon ports.Daemon, signer ports.Signer,
	schedulerSvc ports.SchedulerService, repoManager ports.RepoManager,
) (*Service, error) {
	if daemon == nil {
		return nil, fmt.Errorf("missing daemon")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if network == nil {
		return nil, fmt.Errorf("missing network")
	}
	return &Service{
		pollInterval, network, feerate,
		NewJournal(daemon, repoManager), signer, schedulerSvc, repoManager,
	}, nil
}

func (s *Service) VaultSet() *VaultSetController {
	return NewVaultSetController(s.daemon, s.signer)
}

func (s *Service) SpendProposal() *SpendProposalBuilder {
	return NewSpendProposalBuilder(s.daemon, s.signer, s.network, s.feerate)
}

func (s *Service) SpendImporter() *SpendImporter {
	return NewSpendImporter(s.daemon)
}

func (s *Service) SpendTransactions() *SpendTransactions {
	return NewSpendTransactions(s.daemon, s.signer)
}

// Run drives model until ctx is done. If polling is enabled, a RefreshMsg is
// delivered to the model at every tick.
func (s *Service) Run(ctx context.Context, program *Program) error {
	if s.scheduler != nil && s.pollInterval > 0 {
		if err := s.scheduler.ScheduleTask(
			s.pollInterval, false, func() { program.Send(RefreshMsg{}) },
		); err != nil {
			return err
		}
		s.scheduler.Start()
		defer s.scheduler.Stop()
		log.Debugf("polling daemon every %d seconds", s.pollInterval)
	}
	return program.Run(ctx)
}

// CachedVaults returns the last snapshot received from the daemon.
func (s *Service) CachedVaults(
	ctx context.Context, statuses ...domain.VaultStatus,
) ([]domain.Vault, error) {
	return s.repoManager.Vaults().GetVaults(ctx, statuses...)
}

// Activities returns the journaled submissions, optionally only the ones of
// a vault.
func (s *Service) Activities(
	ctx context.Context, outpoint *domain.Outpoint,
) ([]domain.Activity, error) {
	return s.repoManager.Activities().GetActivities(ctx, outpoint)
}

func (s *Service) Close() {
	s.daemon.Close()
	if s.signer != nil {
		s.signer.Close()
	}
	s.repoManager.Close()
}

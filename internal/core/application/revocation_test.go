package application_test

import (
	"fmt"
	"testing"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRevocationChain(t *testing.T) {
	txs := &domain.RevocationTransactions{
		Emergency:        newPsbt(t, 1),
		EmergencyUnvault: newPsbt(t, 2),
		Cancel:           newPsbt(t, 3),
	}
	newChain := func(daemon *mockDaemon) *application.RevocationChain {
		chain := application.NewRevocationChain(daemon, outpoint, txs)
		chain.ChangeMethod()
		return chain
	}
	signAll := func(t *testing.T, chain *application.RevocationChain) application.Cmd {
		cmd, err := chain.Submit(b64(t, signPsbt(t, txs.Emergency)))
		require.NoError(t, err)
		require.Nil(t, cmd)
		cmd, err = chain.Submit(b64(t, signPsbt(t, txs.EmergencyUnvault)))
		require.NoError(t, err)
		require.Nil(t, cmd)
		cmd, err = chain.Submit(b64(t, signPsbt(t, txs.Cancel)))
		require.NoError(t, err)
		require.NotNil(t, cmd)
		return cmd
	}

	t.Run("in_order", func(t *testing.T) {
		daemon := &mockDaemon{}
		daemon.On(
			"SetRevocationTransactions", mock.Anything, outpoint,
			signedVersionOf(txs.Emergency), signedVersionOf(txs.EmergencyUnvault),
			signedVersionOf(txs.Cancel),
		).Return(nil)

		chain := newChain(daemon)
		require.Equal(t, domain.Emergency, chain.Step())
		require.Nil(t, chain.Collector(domain.EmergencyUnvault))

		cmd, err := chain.Submit(b64(t, signPsbt(t, txs.Emergency)))
		require.NoError(t, err)
		require.Nil(t, cmd)
		require.True(t, chain.IsSigned(domain.Emergency))
		require.Equal(t, domain.EmergencyUnvault, chain.Step())
		require.Equal(t, domain.EmergencyUnvault, chain.Active().Kind())
		// The chosen method is kept across the chain.
		require.Equal(t, application.Indirect, chain.Active().Method())

		cmd, err = chain.Submit(b64(t, signPsbt(t, txs.EmergencyUnvault)))
		require.NoError(t, err)
		require.Nil(t, cmd)
		require.Equal(t, domain.Cancel, chain.Step())

		cmd, err = chain.Submit(b64(t, signPsbt(t, txs.Cancel)))
		require.NoError(t, err)
		require.NotNil(t, cmd)
		require.True(t, chain.IsSubmitting())
		require.False(t, chain.IsComplete())

		// Further input is ignored while submitting.
		again, err := chain.Submit(b64(t, signPsbt(t, txs.Cancel)))
		require.NoError(t, err)
		require.Nil(t, again)
		again, err = chain.Sign(domain.Cancel, signPsbt(t, txs.Cancel))
		require.NoError(t, err)
		require.Nil(t, again)
		require.Nil(t, chain.Retry())

		msg := execOne(t, cmd)
		require.Nil(t, chain.Update(msg))
		require.False(t, chain.IsSubmitting())
		require.True(t, chain.IsComplete())
		require.NoError(t, chain.Warning())
		for _, kind := range []domain.TransactionKind{
			domain.Emergency, domain.EmergencyUnvault, domain.Cancel,
		} {
			require.True(t, chain.IsSigned(kind))
			require.True(t, chain.Collector(kind).IsShared())
			require.NotNil(t, chain.Signed(kind))
		}
		daemon.AssertNumberOfCalls(t, "SetRevocationTransactions", 1)
	})

	t.Run("out_of_order", func(t *testing.T) {
		chain := newChain(&mockDaemon{})

		cmd, err := chain.Sign(domain.Cancel, signPsbt(t, txs.Cancel))
		require.ErrorIs(t, err, domain.ErrOutOfOrder)
		require.Nil(t, cmd)
		require.False(t, chain.IsSigned(domain.Cancel))

		cmd, err = chain.Sign(domain.EmergencyUnvault, signPsbt(t, txs.EmergencyUnvault))
		require.ErrorIs(t, err, domain.ErrOutOfOrder)
		require.Nil(t, cmd)

		_, err = chain.Sign(domain.Emergency, signPsbt(t, txs.Emergency))
		require.NoError(t, err)
		_, err = chain.Sign(domain.Cancel, signPsbt(t, txs.Cancel))
		require.ErrorIs(t, err, domain.ErrOutOfOrder)
		require.False(t, chain.IsSigned(domain.EmergencyUnvault))
		require.False(t, chain.IsSigned(domain.Cancel))

		// Pasting the cancel tx while signing the emergency unvault one is a
		// mismatch for the active collector.
		_, err = chain.Submit(b64(t, signPsbt(t, txs.Cancel)))
		require.ErrorIs(t, err, domain.ErrIdentityMismatch)
		require.Equal(t, domain.EmergencyUnvault, chain.Step())

		_, err = chain.Sign(domain.Unvault, signPsbt(t, txs.Cancel))
		require.Error(t, err)
	})

	t.Run("daemon_failure", func(t *testing.T) {
		daemon := &mockDaemon{}
		daemon.On(
			"SetRevocationTransactions", mock.Anything, outpoint,
			mock.Anything, mock.Anything, mock.Anything,
		).Return(&domain.DaemonError{
			Method: "revocationtxs", Message: "connection refused",
		}).Once()
		daemon.On(
			"SetRevocationTransactions", mock.Anything, outpoint,
			mock.Anything, mock.Anything, mock.Anything,
		).Return(nil).Once()

		chain := newChain(daemon)
		cmd := signAll(t, chain)

		chain.Update(execOne(t, cmd))
		require.False(t, chain.IsSubmitting())
		require.False(t, chain.IsComplete())
		require.True(t, domain.IsDaemonError(chain.Warning()))
		require.Equal(t, domain.Cancel, chain.Step())
		for _, kind := range []domain.TransactionKind{
			domain.Emergency, domain.EmergencyUnvault, domain.Cancel,
		} {
			require.True(t, chain.IsSigned(kind))
		}

		cmd = chain.Retry()
		require.NotNil(t, cmd)
		require.True(t, chain.IsSubmitting())
		require.NoError(t, chain.Warning())

		chain.Update(execOne(t, cmd))
		require.True(t, chain.IsComplete())
		daemon.AssertNumberOfCalls(t, "SetRevocationTransactions", 2)
	})

	t.Run("stale_response", func(t *testing.T) {
		daemon := &mockDaemon{}
		daemon.On(
			"SetRevocationTransactions", mock.Anything, outpoint,
			mock.Anything, mock.Anything, mock.Anything,
		).Return(nil)

		chain := newChain(daemon)
		cmd := signAll(t, chain)

		chain.Update(application.RevocationTransactionsSetMsg{
			Outpoint: outpoint2, Txid: domain.Txid(txs.Cancel),
		})
		require.True(t, chain.IsSubmitting())
		chain.Update(application.RevocationTransactionsSetMsg{
			Outpoint: outpoint, Txid: domain.Txid(txs.Emergency),
		})
		require.True(t, chain.IsSubmitting())
		// Same vault and chain, but not the submission in flight.
		chain.Update(application.RevocationTransactionsSetMsg{
			Outpoint: outpoint, Txid: domain.Txid(txs.Cancel),
			Err: fmt.Errorf("boom"),
		})
		require.True(t, chain.IsSubmitting())
		require.NoError(t, chain.Warning())

		chain.Update(execOne(t, cmd))
		require.True(t, chain.IsComplete())
	})

	t.Run("direct", func(t *testing.T) {
		daemon := &mockDaemon{}
		daemon.On(
			"SetRevocationTransactions", mock.Anything, outpoint,
			mock.Anything, mock.Anything, mock.Anything,
		).Return(nil)
		signer := &mockSigner{}
		signer.On("SignPsbt", mock.Anything, domain.Emergency, txs.Emergency).
			Return(signPsbt(t, txs.Emergency), nil)
		signer.On("SignPsbt", mock.Anything, domain.EmergencyUnvault, txs.EmergencyUnvault).
			Return(signPsbt(t, txs.EmergencyUnvault), nil)
		signer.On("SignPsbt", mock.Anything, domain.Cancel, txs.Cancel).
			Return(nil, fmt.Errorf("rejected by user")).Once()
		signer.On("SignPsbt", mock.Anything, domain.Cancel, txs.Cancel).
			Return(signPsbt(t, txs.Cancel), nil)

		chain := application.NewRevocationChain(daemon, outpoint, txs)

		cmd, err := chain.RequestSignature(signer)
		require.NoError(t, err)
		emergencyMsg := execOne(t, cmd)
		require.Nil(t, chain.Update(emergencyMsg))
		require.Equal(t, domain.EmergencyUnvault, chain.Step())

		// A duplicated response for a member already signed is ignored.
		require.Nil(t, chain.Update(emergencyMsg))
		require.Equal(t, domain.EmergencyUnvault, chain.Step())

		cmd, err = chain.RequestSignature(signer)
		require.NoError(t, err)
		require.Nil(t, chain.Update(execOne(t, cmd)))
		require.Equal(t, domain.Cancel, chain.Step())

		cmd, err = chain.RequestSignature(signer)
		require.NoError(t, err)
		require.Nil(t, chain.Update(execOne(t, cmd)))
		require.ErrorContains(t, chain.Active().Warning(), "rejected by user")
		require.False(t, chain.IsSigned(domain.Cancel))

		cmd, err = chain.RequestSignature(signer)
		require.NoError(t, err)
		submit := chain.Update(execOne(t, cmd))
		require.NotNil(t, submit)
		require.True(t, chain.IsSubmitting())

		chain.Update(execOne(t, submit))
		require.True(t, chain.IsComplete())
		daemon.AssertNumberOfCalls(t, "SetRevocationTransactions", 1)
	})
}

package jsonrpcdaemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/rpcclient"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

var (
	// MaxNumOfFailingRequests is the number of requests after which the
	// breaker may open.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the ratio of failed requests that opens the breaker.
	FailingRatio = 0.6
)

const defaultTimeout = 30 * time.Second

type Config struct {
	Host string
	User string
	Pass string
	// Timeout bounds every call, zero means the default 30s.
	Timeout time.Duration
	// RateLimit is the max number of calls per second, zero disables it.
	RateLimit int
}

type service struct {
	client  *rpcclient.Client
	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
	timeout time.Duration
}

func NewService(config Config) (ports.Daemon, error) {
	if len(config.Host) <= 0 {
		return nil, fmt.Errorf("missing daemon host")
	}
	host := strings.TrimPrefix(strings.TrimPrefix(config.Host, "http://"), "https://")

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         host,
		User:         config.User,
		Pass:         config.Pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon client: %s", err)
	}

	limiter := ratelimit.NewUnlimited()
	if config.RateLimit > 0 {
		limiter = ratelimit.New(config.RateLimit)
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &service{
		client:  client,
		cb:      newCircuitBreaker(),
		limiter: limiter,
		timeout: timeout,
	}, nil
}

func (s *service) ListVaults(
	ctx context.Context, statuses []domain.VaultStatus, outpoints []domain.Outpoint,
) ([]domain.Vault, error) {
	statusList := make([]string, 0, len(statuses))
	for _, status := range statuses {
		statusList = append(statusList, status.String())
	}
	outpointList := make([]string, 0, len(outpoints))
	for _, outpoint := range outpoints {
		outpointList = append(outpointList, outpoint.String())
	}

	var result listVaultsResult
	if err := s.call(
		ctx, "listvaults", &result, statusList, outpointList,
	); err != nil {
		return nil, err
	}

	vaults := make([]domain.Vault, 0, len(result.Vaults))
	for _, info := range result.Vaults {
		vault, err := info.parse()
		if err != nil {
			return nil, invalidResponse("listvaults", err)
		}
		vaults = append(vaults, vault)
	}
	return vaults, nil
}

func (s *service) GetBlockHeight(ctx context.Context) (uint32, error) {
	var result getInfoResult
	if err := s.call(ctx, "getinfo", &result); err != nil {
		return 0, err
	}
	return result.Blockheight, nil
}

func (s *service) GetOnchainTransactions(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.VaultTransactions, error) {
	var result listOnchainTransactionsResult
	if err := s.call(
		ctx, "listonchaintransactions", &result, []string{outpoint.String()},
	); err != nil {
		return nil, err
	}
	txs, err := result.parse(outpoint)
	if err != nil {
		return nil, invalidResponse("listonchaintransactions", err)
	}
	return txs, nil
}

func (s *service) GetUnvaultTransaction(
	ctx context.Context, outpoint domain.Outpoint,
) (*psbt.Packet, error) {
	var result getUnvaultTxResult
	if err := s.call(ctx, "getunvaulttx", &result, outpoint.String()); err != nil {
		return nil, err
	}
	ptx, err := domain.DecodePsbt(result.UnvaultTx)
	if err != nil {
		return nil, invalidResponse("getunvaulttx", err)
	}
	return ptx, nil
}

func (s *service) GetRevocationTransactions(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.RevocationTransactions, error) {
	var result getRevocationTxsResult
	if err := s.call(ctx, "getrevocationtxs", &result, outpoint.String()); err != nil {
		return nil, err
	}

	txs := &domain.RevocationTransactions{}
	for _, v := range []struct {
		b64 string
		ptx **psbt.Packet
	}{
		{result.EmergencyTx, &txs.Emergency},
		{result.EmergencyUnvaultTx, &txs.EmergencyUnvault},
		{result.CancelTx, &txs.Cancel},
	} {
		ptx, err := domain.DecodePsbt(v.b64)
		if err != nil {
			return nil, invalidResponse("getrevocationtxs", err)
		}
		*v.ptx = ptx
	}
	return txs, nil
}

func (s *service) SetUnvaultTransaction(
	ctx context.Context, outpoint domain.Outpoint, signed *psbt.Packet,
) error {
	b64, err := domain.EncodePsbt(signed)
	if err != nil {
		return err
	}
	return s.call(ctx, "unvaulttx", nil, outpoint.String(), b64)
}

func (s *service) SetRevocationTransactions(
	ctx context.Context, outpoint domain.Outpoint,
	emergency, emergencyUnvault, cancel *psbt.Packet,
) error {
	params := []interface{}{outpoint.String()}
	for _, ptx := range []*psbt.Packet{cancel, emergency, emergencyUnvault} {
		b64, err := domain.EncodePsbt(ptx)
		if err != nil {
			return err
		}
		params = append(params, b64)
	}
	return s.call(ctx, "revocationtxs", nil, params...)
}

func (s *service) GetSpendTransaction(
	ctx context.Context, outpoints []domain.Outpoint,
	outputs map[string]uint64, feerate uint32,
) (*domain.SpendProposalTx, error) {
	outpointList := make([]string, 0, len(outpoints))
	for _, outpoint := range outpoints {
		outpointList = append(outpointList, outpoint.String())
	}

	var result getSpendTxResult
	if err := s.call(
		ctx, "getspendtx", &result, outpointList, outputs, feerate,
	); err != nil {
		return nil, err
	}
	ptx, err := domain.DecodePsbt(result.SpendTx)
	if err != nil {
		return nil, invalidResponse("getspendtx", err)
	}
	if result.Feerate > 0 {
		feerate = result.Feerate
	}
	return &domain.SpendProposalTx{Psbt: ptx, Feerate: feerate}, nil
}

func (s *service) UpdateSpendTransaction(ctx context.Context, ptx *psbt.Packet) error {
	b64, err := domain.EncodePsbt(ptx)
	if err != nil {
		return err
	}
	return s.call(ctx, "updatespendtx", nil, b64)
}

func (s *service) ListSpendTransactions(ctx context.Context) ([]domain.SpendTx, error) {
	var result listSpendTxsResult
	if err := s.call(ctx, "listspendtxs", &result); err != nil {
		return nil, err
	}

	txs := make([]domain.SpendTx, 0, len(result.SpendTxs))
	for _, info := range result.SpendTxs {
		ptx, err := domain.DecodePsbt(info.Psbt)
		if err != nil {
			return nil, invalidResponse("listspendtxs", err)
		}
		outpoints := make([]domain.Outpoint, 0, len(info.DepositOutpoints))
		for _, str := range info.DepositOutpoints {
			outpoint, err := domain.ParseOutpoint(str)
			if err != nil {
				return nil, invalidResponse("listspendtxs", err)
			}
			outpoints = append(outpoints, outpoint)
		}
		txs = append(txs, domain.SpendTx{DepositOutpoints: outpoints, Psbt: ptx})
	}
	return txs, nil
}

func (s *service) Close() {
	s.client.Shutdown()
}

// call performs a rate limited request behind the circuit breaker and
// decodes the result into result, if not nil. Any failure is returned as a
// *domain.DaemonError.
func (s *service) call(
	ctx context.Context, method string, result interface{}, params ...interface{},
) error {
	rawParams := make([]json.RawMessage, 0, len(params))
	for _, param := range params {
		buf, err := json.Marshal(param)
		if err != nil {
			return &domain.DaemonError{Method: method, Message: err.Error()}
		}
		rawParams = append(rawParams, buf)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type response struct {
		raw json.RawMessage
		err error
	}
	done := make(chan response, 1)

	go func() {
		s.limiter.Take()
		res, err := s.cb.Execute(func() (interface{}, error) {
			raw, err := s.client.RawRequest(method, rawParams)
			if err != nil {
				// Errors returned by the daemon do not count as failures of
				// the connection.
				var rpcErr *btcjson.RPCError
				if errors.As(err, &rpcErr) {
					return rpcErr, nil
				}
				return nil, err
			}
			return raw, nil
		})
		if err != nil {
			done <- response{err: err}
			return
		}
		if rpcErr, ok := res.(*btcjson.RPCError); ok {
			done <- response{err: rpcErr}
			return
		}
		done <- response{raw: res.(json.RawMessage)}
	}()

	log.Debugf("daemon: calling %s", method)

	var resp response
	select {
	case <-ctx.Done():
		return &domain.DaemonError{Method: method, Message: ctx.Err().Error()}
	case resp = <-done:
	}

	if resp.err != nil {
		var rpcErr *btcjson.RPCError
		if errors.As(resp.err, &rpcErr) {
			return &domain.DaemonError{
				Method: method, Code: int(rpcErr.Code), Message: rpcErr.Message,
			}
		}
		return &domain.DaemonError{Method: method, Message: resp.err.Error()}
	}

	if result == nil || len(resp.raw) <= 0 || string(resp.raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.raw, result); err != nil {
		return invalidResponse(method, err)
	}
	return nil
}

func invalidResponse(method string, err error) error {
	return &domain.DaemonError{
		Method: method, Message: fmt.Sprintf("invalid response: %s", err),
	}
}

func newCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "daemon",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("%s circuit breaker: %s -> %s", name, from, to)
		},
	})
}

package wssigner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 2 * time.Minute

type signRequest struct {
	Kind string `json:"kind"`
	Psbt string `json:"psbt"`
}

type signResponse struct {
	Psbt  string `json:"psbt"`
	Error string `json:"error,omitempty"`
}

// service talks to a signing module listening on a websocket. Requests are
// serialized over a single connection that is re-established if dropped.
type service struct {
	url  string
	lock *sync.Mutex
	conn *websocket.Conn
}

func NewService(url string) (ports.Signer, error) {
	if len(url) <= 0 {
		return nil, fmt.Errorf("missing signing module url")
	}
	return &service{
		url:  url,
		lock: &sync.Mutex{},
	}, nil
}

func (s *service) SignPsbt(
	ctx context.Context, kind domain.TransactionKind, ptx *psbt.Packet,
) (*psbt.Packet, error) {
	b64, err := domain.EncodePsbt(ptx)
	if err != nil {
		return nil, err
	}
	req := signRequest{Kind: kind.String(), Psbt: b64}

	s.lock.Lock()
	defer s.lock.Unlock()

	resp, err := s.roundTrip(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		log.WithError(err).Warn("signing module connection dropped unexpectedly. Trying to reconnect...")
		s.close()
		if resp, err = s.roundTrip(ctx, req); err != nil {
			s.close()
			return nil, err
		}
	}

	if len(resp.Error) > 0 {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	signed, err := domain.DecodePsbt(resp.Psbt)
	if err != nil {
		return nil, fmt.Errorf("invalid psbt from signing module: %w", err)
	}
	return signed, nil
}

func (s *service) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.close()
}

func (s *service) roundTrip(ctx context.Context, req signRequest) (*signResponse, error) {
	if s.conn == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to signing module: %w", err)
		}
		log.Debugf("connected to signing module at %s", s.url)
		s.conn = conn
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultRequestTimeout)
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return nil, err
	}

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	var resp signResponse
	if err := s.conn.ReadJSON(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) close() {
	if s.conn == nil {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
}

// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package ethnet

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/forkid"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/mempoolmon/classify"
	"github.com/ethereum/mempoolmon/session"
)

// handshakeTimeout is the maximum allowed time for the `eth` handshake to
// complete before dropping the connection as malicious.
const handshakeTimeout = 5 * time.Second

// Handler receives the peer lifecycle events and inbound messages of the
// eth server. HandleMessage is invoked on the peer's own goroutine.
type Handler interface {
	PeerAdded(s *session.Session)
	PeerRemoved(id enode.ID)
	HandleMessage(msg *classify.Message)
}

// ethPeer is a connected peer which passed the eth handshake.
type ethPeer struct {
	*session.Session
	rw p2p.MsgReadWriter
}

// Server runs the eth protocol on top of a devp2p server.
type Server struct {
	cfg     *Config
	srv     *p2p.Server
	handler Handler
	log     log.Logger

	chain   *params.ChainConfig
	genesis *types.Block
	td      *big.Int
	forkID  *forkid.ID // static override, nil if derived from the chain config
	filter  forkid.Filter

	lock  sync.RWMutex
	peers map[enode.ID]*ethPeer
}

// NewServer creates the eth server. Dial candidates are drawn from the given
// iterator, which is closed when the server stops.
func NewServer(cfg *Config, handler Handler, candidates enode.Iterator) (*Server, error) {
	natm, err := cfg.nat()
	if err != nil {
		return nil, fmt.Errorf("invalid NAT setting %q: %w", cfg.NAT, err)
	}
	forkID, err := cfg.forkID()
	if err != nil {
		return nil, err
	}
	gspec := cfg.genesis()
	genesis := gspec.ToBlock()

	s := &Server{
		cfg:     cfg,
		handler: handler,
		log:     cfg.logger(),
		chain:   gspec.Config,
		genesis: genesis,
		td:      genesis.Difficulty(),
		forkID:  forkID,
		filter:  forkid.NewStaticFilter(gspec.Config, genesis),
		peers:   make(map[enode.ID]*ethPeer),
	}
	if ttd := gspec.Config.TerminalTotalDifficulty; ttd != nil {
		s.td = new(big.Int).Set(ttd)
	}
	s.srv = &p2p.Server{Config: p2p.Config{
		PrivateKey:  cfg.NodeKey(),
		Name:        cfg.Name,
		MaxPeers:    cfg.MaxPeers,
		ListenAddr:  cfg.ListenAddr,
		NAT:         natm,
		NoDiscovery: true,
		Protocols:   []p2p.Protocol{s.protocol(candidates)},
		Logger:      s.log,
	}}
	return s, nil
}

func (s *Server) protocol(candidates enode.Iterator) p2p.Protocol {
	return p2p.Protocol{
		Name:    ProtocolName,
		Version: ETH68,
		Length:  protocolLength,
		Run:     s.runPeer,
		NodeInfo: func() interface{} {
			status := s.status()
			return &NodeInfo{
				Network: status.NetworkID,
				Genesis: status.Genesis,
				Head:    status.Head,
				ForkID:  forkIDString(status.ForkID),
			}
		},
		PeerInfo: func(id enode.ID) interface{} {
			s.lock.RLock()
			defer s.lock.RUnlock()

			if p := s.peers[id]; p != nil {
				return map[string]interface{}{"version": p.Version, "since": p.Since}
			}
			return nil
		},
		DialCandidates: candidates,
	}
}

// Start binds the listener and starts dialing.
func (s *Server) Start() error {
	if err := s.srv.Start(); err != nil {
		return err
	}
	s.log.Info("Started eth server", "self", s.srv.Self().URLv4(), "network", s.cfg.NetworkID, "maxpeers", s.cfg.MaxPeers)
	return nil
}

// Close disconnects all peers and stops the server.
func (s *Server) Close() {
	s.srv.Stop()
}

// Self returns the local node record of the server.
func (s *Server) Self() *enode.Node {
	return s.srv.Self()
}

// PeerCount returns the number of peers which passed the eth handshake.
func (s *Server) PeerCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.peers)
}

// RequestTransactions asks a connected peer for the bodies of announced
// transactions. The reply arrives as a regular PooledTransactions message.
func (s *Server) RequestTransactions(id enode.ID, hashes []common.Hash) error {
	s.lock.RLock()
	peer := s.peers[id]
	s.lock.RUnlock()

	if peer == nil {
		return fmt.Errorf("%w: %v", errUnknownPeer, id.TerminalString())
	}
	requestMeter.Mark(1)
	return p2p.Send(peer.rw, GetPooledTransactionsMsg, &GetPooledTransactionsPacket{
		RequestId: rand.Uint64(),
		Hashes:    hashes,
	})
}

// status assembles the local handshake packet.
func (s *Server) status() *StatusPacket {
	id := forkid.NewID(s.chain, s.genesis, math.MaxUint64, uint64(time.Now().Unix()))
	if s.forkID != nil {
		id = *s.forkID
	}
	return &StatusPacket{
		ProtocolVersion: ETH68,
		NetworkID:       s.cfg.NetworkID,
		TD:              s.td,
		Head:            s.genesis.Hash(),
		Genesis:         s.genesis.Hash(),
		ForkID:          id,
	}
}

// runPeer is the eth protocol entry point invoked by p2p.Server for every
// connection negotiating the protocol.
func (s *Server) runPeer(p *p2p.Peer, rw p2p.MsgReadWriter) error {
	sess := session.New(p.ID(), p.Fullname(), p.RemoteAddr(), p.Node().TCP(), p.Node().UDP())
	sess.Version = ETH68
	logger := s.log.New("peer", p.ID().TerminalString())

	if _, err := s.handshake(rw, p.Inbound()); err != nil {
		logger.Debug("Ethereum handshake failed", "err", err)
		return err
	}
	peer := &ethPeer{Session: sess, rw: rw}

	s.lock.Lock()
	s.peers[peer.ID] = peer
	s.lock.Unlock()

	s.handler.PeerAdded(sess)
	defer func() {
		s.lock.Lock()
		if s.peers[peer.ID] == peer {
			delete(s.peers, peer.ID)
		}
		s.lock.Unlock()
		s.handler.PeerRemoved(peer.ID)
	}()

	for {
		if err := s.handleMessage(peer); err != nil {
			logger.Debug("Message handling failed in `eth`", "err", err)
			return err
		}
	}
}

// handshake exchanges status packets with the remote peer and validates the
// remote side. The remote status is returned on success.
func (s *Server) handshake(rw p2p.MsgReadWriter, inbound bool) (*StatusPacket, error) {
	var (
		local  = s.status()
		remote StatusPacket
		errc   = make(chan error, 2)
	)
	go func() {
		errc <- p2p.Send(rw, StatusMsg, local)
	}()
	go func() {
		errc <- s.readStatus(rw, local, &remote)
	}()
	timeout := time.NewTimer(handshakeTimeout)
	defer timeout.Stop()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errc:
			if err != nil {
				meters.get(inbound).markError(err)
				return nil, err
			}
		case <-timeout.C:
			meters.get(inbound).timeoutError.Mark(1)
			return nil, p2p.DiscReadTimeout
		}
	}
	return &remote, nil
}

// readStatus reads the remote handshake message.
func (s *Server) readStatus(rw p2p.MsgReadWriter, local, remote *StatusPacket) error {
	msg, err := rw.ReadMsg()
	if err != nil {
		return err
	}
	defer msg.Discard()

	if msg.Code != StatusMsg {
		return fmt.Errorf("%w: first msg has code %x (!= %x)", errNoStatusMsg, msg.Code, StatusMsg)
	}
	if msg.Size > maxMessageSize {
		return fmt.Errorf("%w: %v > %v", errMsgTooLarge, msg.Size, maxMessageSize)
	}
	if err := msg.Decode(remote); err != nil {
		return fmt.Errorf("%w: message %v: %v", errDecode, msg, err)
	}
	if remote.NetworkID != local.NetworkID {
		return fmt.Errorf("%w: %d (!= %d)", errNetworkIDMismatch, remote.NetworkID, local.NetworkID)
	}
	if remote.ProtocolVersion != local.ProtocolVersion {
		return fmt.Errorf("%w: %d (!= %d)", errProtocolVersionMismatch, remote.ProtocolVersion, local.ProtocolVersion)
	}
	if remote.Genesis != local.Genesis {
		return fmt.Errorf("%w: %x (!= %x)", errGenesisMismatch, remote.Genesis, local.Genesis)
	}
	if s.forkID != nil {
		return nil
	}
	if err := s.filter(remote.ForkID); err != nil {
		return fmt.Errorf("%w: %v", errForkIDRejected, err)
	}
	return nil
}

// handleMessage is invoked whenever an inbound message is received from a remote
// peer. The remote connection is torn down upon returning any error.
func (s *Server) handleMessage(peer *ethPeer) error {
	msg, err := peer.rw.ReadMsg()
	if err != nil {
		return err
	}
	if msg.Size > maxMessageSize {
		return fmt.Errorf("%w: %v > %v", errMsgTooLarge, msg.Size, maxMessageSize)
	}
	defer msg.Discard()

	if msg.Code == StatusMsg {
		return fmt.Errorf("%w: uncontrolled status message", errExtraStatusMsg)
	}
	// Data requests are answered with nothing so the peer keeps us around.
	if reply, ok := emptyResponses[msg.Code]; ok {
		var req requestHeader
		if err := msg.Decode(&req); err != nil {
			return fmt.Errorf("%w: message %v: %v", errDecode, msg, err)
		}
		emptyReplyMeter.Mark(1)
		return p2p.Send(peer.rw, reply, &emptyResponsePacket{RequestId: req.RequestId})
	}
	payload := make([]byte, msg.Size)
	if _, err := io.ReadFull(msg.Payload, payload); err != nil {
		return fmt.Errorf("%w: message %v: %v", errDecode, msg, err)
	}
	ingressTrafficMeter.Mark(int64(msg.Size))

	s.handler.HandleMessage(&classify.Message{
		Protocol: ProtocolName,
		Code:     msg.Code,
		Payload:  payload,
		Peer:     peer.Session,
	})
	return nil
}

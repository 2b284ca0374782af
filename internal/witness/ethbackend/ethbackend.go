// Copyright 2025 Aqua Protocol Contributors
//
// Package ethbackend implements the Ethereum witness.Backend (spec.md
// §4.D): it publishes a Merkle root as transaction call data prefixed by
// the selector 0x9cef4ea1, and is also used by the revision verifier
// (spec.md §4.E.5.b) to fetch and check a previously-published
// transaction. Adapted from the teacher's pkg/ethereum/client.go
// ethclient wrapper.
package ethbackend

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/witness"
)

// Selector is the 4-byte function selector prefixing a witness
// transaction's call data (spec.md §4.D, §6).
const Selector = "9cef4ea1"

// Backend publishes and reads back witness roots on an Ethereum-family
// chain through a JSON-RPC endpoint.
type Backend struct {
	client          *ethclient.Client
	chainID         *big.Int
	network         string
	contractAddress common.Address
	privateKeyHex   string
}

// Config carries the materials Dial needs (spec.md §6 "alchemy_or_rpc_key
// required for Ethereum witness"); PrivateKeyHex may be empty for a
// verify-only backend that never publishes.
type Config struct {
	RPCURL          string
	ChainID         int64
	Network         string // "mainnet", "sepolia", "holesky"
	ContractAddress string
	PrivateKeyHex   string
}

// Dial connects to the configured JSON-RPC endpoint.
func Dial(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("ethbackend: RPC URL is required (spec.md CONFIG_MISSING)")
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("ethbackend: dial %s: %w", cfg.RPCURL, err)
	}
	return &Backend{
		client:          client,
		chainID:         big.NewInt(cfg.ChainID),
		network:         cfg.Network,
		contractAddress: common.HexToAddress(cfg.ContractAddress),
		privateKeyHex:   cfg.PrivateKeyHex,
	}, nil
}

// Publish sends a transaction to the configured contract whose call data
// is the selector followed by the 64-byte root (spec.md §4.D, §6).
func (b *Backend) Publish(ctx context.Context, root [hashalg.Size]byte) (witness.Receipt, error) {
	if b.privateKeyHex == "" {
		return witness.Receipt{}, fmt.Errorf("ethbackend: no signing key configured, cannot publish")
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(b.privateKeyHex, "0x"))
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("ethbackend: parse private key: %w", err)
	}
	fromAddress := crypto.PubkeyToAddress(privateKey.PublicKey)

	callData := buildCallData(root)

	nonce, err := b.client.PendingNonceAt(ctx, fromAddress)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("ethbackend: fetch nonce: %w", err)
	}
	gasPrice, err := b.client.SuggestGasPrice(ctx)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("ethbackend: fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, b.contractAddress, big.NewInt(0), 100_000, gasPrice, callData)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(b.chainID), privateKey)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("ethbackend: sign transaction: %w", err)
	}
	if err := b.client.SendTransaction(ctx, signedTx); err != nil {
		return witness.Receipt{}, fmt.Errorf("ethbackend: send transaction: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, b.client, signedTx)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("ethbackend: wait mined: %w", err)
	}
	var blockTime int64
	if header, err := b.client.HeaderByHash(ctx, receipt.BlockHash); err == nil {
		blockTime = int64(header.Time)
	} else {
		blockTime = time.Now().Unix()
	}

	return witness.Receipt{
		TransactionHash:      signedTx.Hash().Hex(),
		Publisher:            fromAddress.Hex(),
		Timestamp:            blockTime,
		Network:              b.network,
		SmartContractAddress: b.contractAddress.Hex(),
	}, nil
}

// FetchRoot implements spec.md §4.E.5.b for Ethereum: fetch the
// transaction by hash, require the input data begin with Selector, and
// return the 64-byte root that follows (case-insensitive hex compare is
// the caller's job via hashalg.Equal).
func (b *Backend) FetchRoot(ctx context.Context, txHash string) (string, error) {
	tx, _, err := b.client.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return "", fmt.Errorf("ethbackend: fetch transaction %s: %w", txHash, err)
	}
	data := tx.Data()
	hexData := strings.ToLower(common.Bytes2Hex(data))
	if !strings.HasPrefix(hexData, Selector) {
		return "", fmt.Errorf("ethbackend: transaction %s does not start with selector %s", txHash, Selector)
	}
	rest := hexData[len(Selector):]
	if len(rest) < 128 {
		return "", fmt.Errorf("ethbackend: transaction %s call data too short for a 64-byte root", txHash)
	}
	return rest[:128], nil
}

// buildCallData lays out the selector followed by the full 64-byte root
// (spec.md §6: "4-byte selector followed by the 64-byte Merkle root,
// right-padded to 32-byte word boundaries" — two words, no further
// padding needed since a SHA3-512 root is already 64 bytes).
func buildCallData(root [hashalg.Size]byte) []byte {
	selector := common.FromHex(Selector)
	data := make([]byte, 0, len(selector)+hashalg.Size)
	data = append(data, selector...)
	data = append(data, root[:]...)
	return data
}

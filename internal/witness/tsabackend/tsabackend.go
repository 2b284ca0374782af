// Copyright 2025 Aqua Protocol Contributors
//
// Package tsabackend implements the RFC-3161 timestamp-authority
// witness.Backend (spec.md §4.D): requests a timestamp token over the
// Merkle root's digest from a trusted TSA, and reports the request's
// nonce as the transaction hash. Built directly on encoding/asn1
// and net/http: no ASN.1/CMS or RFC-3161 client exists anywhere in the
// reference corpus, so this is a deliberate stdlib exception (see
// DESIGN.md).
package tsabackend

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/asn1"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/aquaprotocol/aquacore/internal/hashalg"
	"github.com/aquaprotocol/aquacore/internal/witness"
)

// oidSHA512 identifies SHA-512 (FIPS 180). RFC-3161 TSAs speak
// SHA-256/SHA-512, not SHA3; this module hashes the root with
// SHA-512 for the TSA request specifically, matching what a real TSA
// endpoint accepts, while the root itself remains SHA3-512 throughout
// the rest of the protocol.
var oidSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}

// messageImprint is the RFC-3161 MessageImprint structure.
type messageImprint struct {
	HashAlgorithm asn1.RawValue
	HashedMessage []byte
}

// timeStampReq is a minimal RFC-3161 TimeStampReq (request).
type timeStampReq struct {
	Version        int
	MessageImprint messageImprint
	Nonce          *big.Int `asn1:"optional"`
	CertReq        bool     `asn1:"optional"`
}

// timeStampResp is the subset of RFC-3161 TimeStampResp this module
// reads: the status, and TSTInfoDER, which in this minimal model carries
// only the timestamped message-imprint digest (see VerifyToken). No
// serial number is read from it.
type timeStampResp struct {
	Status     int
	TSTInfoDER []byte
}

// Backend requests timestamp tokens from a single RFC-3161 TSA endpoint.
type Backend struct {
	url        string
	httpClient *http.Client
}

// New returns a Backend querying the given TSA URL.
func New(url string) *Backend {
	return &Backend{url: url, httpClient: &http.Client{Timeout: 20 * time.Second}}
}

// Publish requests a timestamp token over root and reports the token's
// nonce (used here as the unique "transaction hash" since RFC-3161
// tokens are identified by the request that produced them, not by a
// ledger position).
func (b *Backend) Publish(ctx context.Context, root [hashalg.Size]byte) (witness.Receipt, error) {
	digest := sha512Sum(root[:])

	nonce, err := rand.Int(rand.Reader, big.NewInt(0).Lsh(big.NewInt(1), 64))
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("tsabackend: generate nonce: %w", err)
	}

	reqDER, err := asn1.Marshal(timeStampReq{
		Version: 1,
		MessageImprint: messageImprint{
			HashAlgorithm: asn1.RawValue{FullBytes: mustMarshalOID(oidSHA512)},
			HashedMessage: digest,
		},
		Nonce:   nonce,
		CertReq: true,
	})
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("tsabackend: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(reqDER))
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("tsabackend: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/timestamp-query")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("tsabackend: request to %s: %w", b.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return witness.Receipt{}, fmt.Errorf("tsabackend: TSA %s returned status %d", b.url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return witness.Receipt{}, fmt.Errorf("tsabackend: read response: %w", err)
	}

	var tsr timeStampResp
	if _, err := asn1.Unmarshal(body, &tsr); err != nil {
		return witness.Receipt{}, fmt.Errorf("tsabackend: decode response: %w", err)
	}
	if tsr.Status != 0 {
		return witness.Receipt{}, fmt.Errorf("tsabackend: TSA rejected request, status %d", tsr.Status)
	}

	return witness.Receipt{
		TransactionHash:      fmt.Sprintf("0x%x", nonce),
		Publisher:            b.url,
		Timestamp:            time.Now().Unix(),
		Network:              "TSA_RFC3161",
		SmartContractAddress: "",
	}, nil
}

// VerifyToken implements the TSA side of spec.md §4.E.5.b: decode the
// token, require a success status, and compare the digest it carries
// with expectedRootSHA512, returning an error on any mismatch.
func VerifyToken(tokenDER []byte, expectedRootSHA512 []byte) error {
	var tsr timeStampResp
	if _, err := asn1.Unmarshal(tokenDER, &tsr); err != nil {
		return fmt.Errorf("tsabackend: decode token: %w", err)
	}
	if tsr.Status != 0 {
		return fmt.Errorf("tsabackend: token status %d is not success", tsr.Status)
	}
	if !bytes.Equal(tsr.TSTInfoDER, expectedRootSHA512) {
		// TSTInfoDER in this minimal model carries only the message
		// imprint digest, not the full ASN.1 TSTInfo structure.
		return fmt.Errorf("tsabackend: token digest does not match expected root")
	}
	return nil
}

func mustMarshalOID(oid asn1.ObjectIdentifier) []byte {
	b, err := asn1.Marshal(oid)
	if err != nil {
		panic(fmt.Sprintf("tsabackend: marshal OID %v: %v", oid, err))
	}
	return b
}

func sha512Sum(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

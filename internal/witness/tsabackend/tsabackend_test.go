// Copyright 2025 Aqua Protocol Contributors

package tsabackend

import (
	"bytes"
	"crypto/sha512"
	"encoding/asn1"
	"testing"
)

func TestSha512SumLength(t *testing.T) {
	got := sha512Sum([]byte("hello"))
	if len(got) != sha512.Size {
		t.Errorf("len(sha512Sum) = %d, want %d", len(got), sha512.Size)
	}
}

func TestVerifyTokenAcceptsMatchingDigest(t *testing.T) {
	digest := sha512Sum([]byte("root-bytes"))
	tokenDER, err := asn1.Marshal(timeStampResp{Status: 0, TSTInfoDER: digest})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if err := VerifyToken(tokenDER, digest); err != nil {
		t.Errorf("VerifyToken error: %v, want nil for matching digest", err)
	}
}

func TestVerifyTokenRejectsMismatchedDigest(t *testing.T) {
	digest := sha512Sum([]byte("root-bytes"))
	other := sha512Sum([]byte("different-bytes"))
	tokenDER, err := asn1.Marshal(timeStampResp{Status: 0, TSTInfoDER: digest})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if err := VerifyToken(tokenDER, other); err == nil {
		t.Errorf("VerifyToken should reject a mismatched digest")
	}
}

func TestVerifyTokenRejectsNonSuccessStatus(t *testing.T) {
	digest := sha512Sum([]byte("root-bytes"))
	tokenDER, err := asn1.Marshal(timeStampResp{Status: 2, TSTInfoDER: digest})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if err := VerifyToken(tokenDER, digest); err == nil {
		t.Errorf("VerifyToken should reject a non-zero status")
	}
}

func TestMustMarshalOIDRoundTrips(t *testing.T) {
	der := mustMarshalOID(oidSHA512)
	var decoded asn1.ObjectIdentifier
	rest, err := asn1.Unmarshal(der, &decoded)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("unexpected trailing bytes: %v", rest)
	}
	if !decoded.Equal(oidSHA512) {
		t.Errorf("decoded OID = %v, want %v", decoded, oidSHA512)
	}
}

func TestNewBackendStoresURL(t *testing.T) {
	b := New("https://tsa.example/timestamp")
	if b.url != "https://tsa.example/timestamp" {
		t.Errorf("New did not store url: %q", b.url)
	}
	if !bytes.Equal([]byte{}, []byte{}) {
		t.Fatalf("sanity check failed")
	}
}

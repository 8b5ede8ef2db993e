package openpayu

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// SignatureHeader is the HTTP header carrying the document signature
const SignatureHeader = "OpenPayu-Signature"

// Algorithm is the hash function used for document signatures
type Algorithm string

const (
	AlgorithmMD5    Algorithm = "MD5"
	AlgorithmSHA1   Algorithm = "SHA-1"
	AlgorithmSHA256 Algorithm = "SHA-256"
)

func (a Algorithm) hasher() (func() hash.Hash, error) {
	switch strings.ToUpper(string(a)) {
	case "MD5", "":
		return md5.New, nil
	case "SHA-1", "SHA1":
		return sha1.New, nil
	case "SHA-256", "SHA256":
		return sha256.New, nil
	default:
		return nil, fmt.Errorf("unsupported signature algorithm: %s", a)
	}
}

// CalculateSignature hashes the document followed by the signature key
// Signature = hex(HASH(document + signatureKey))
func CalculateSignature(document []byte, signatureKey string, algorithm Algorithm) (string, error) {
	newHash, err := algorithm.hasher()
	if err != nil {
		return "", err
	}

	h := newHash()
	h.Write(document)
	h.Write([]byte(signatureKey))

	return hex.EncodeToString(h.Sum(nil)), nil
}

// BuildSignatureHeader returns the OpenPayu-Signature header value for a document
// Format: sender=<posId>;signature=<hash>;algorithm=<alg>;content=DOCUMENT
func BuildSignatureHeader(document []byte, merchantPosID, signatureKey string, algorithm Algorithm) (string, error) {
	if algorithm == "" {
		algorithm = AlgorithmMD5
	}

	signature, err := CalculateSignature(document, signatureKey, algorithm)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("sender=%s;signature=%s;algorithm=%s;content=DOCUMENT",
		merchantPosID, signature, algorithm), nil
}

// SignatureParts is a parsed OpenPayu-Signature header
type SignatureParts struct {
	Sender    string
	Signature string
	Algorithm Algorithm
	Content   string
}

// ParseSignatureHeader splits a "key=value;key=value" signature header
func ParseSignatureHeader(header string) (*SignatureParts, error) {
	parts := &SignatureParts{}
	for _, pair := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "sender":
			parts.Sender = value
		case "signature":
			parts.Signature = value
		case "algorithm":
			parts.Algorithm = Algorithm(value)
		case "content":
			parts.Content = value
		}
	}

	if parts.Signature == "" {
		return nil, fmt.Errorf("signature header has no signature")
	}
	return parts, nil
}

// VerifySignature checks an inbound signature header against the document.
// ConsumeMessage never calls this; the notification handler does when configured to.
func VerifySignature(header string, document []byte, signatureKey string) error {
	parts, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected, err := CalculateSignature(document, signatureKey, parts.Algorithm)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(parts.Signature))) != 1 {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

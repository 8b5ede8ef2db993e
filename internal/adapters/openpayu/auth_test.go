package openpayu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSignature(t *testing.T) {
	doc := []byte("<doc/>")

	tests := []struct {
		name      string
		algorithm Algorithm
		expected  string
	}{
		{"md5", AlgorithmMD5, "ca2cb61e1c002aca8b3ccca1096489af"},
		{"default is md5", "", "ca2cb61e1c002aca8b3ccca1096489af"},
		{"sha1", AlgorithmSHA1, "588ac11a5ee436b780963d1ecee196a1742c1249"},
		{"sha256", AlgorithmSHA256, "a93f00754bae31c3c54de9289ca492156d89aee6d5fe76e76572c2614e8a02be"},
		{"lowercase alias", "sha256", "a93f00754bae31c3c54de9289ca492156d89aee6d5fe76e76572c2614e8a02be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature, err := CalculateSignature(doc, "key", tt.algorithm)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, signature)
		})
	}
}

func TestCalculateSignature_UnsupportedAlgorithm(t *testing.T) {
	_, err := CalculateSignature([]byte("<doc/>"), "key", "CRC32")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported signature algorithm")
}

func TestBuildSignatureHeader(t *testing.T) {
	header, err := BuildSignatureHeader([]byte("<doc/>"), "145227", "key", AlgorithmMD5)
	require.NoError(t, err)
	assert.Equal(t,
		"sender=145227;signature=ca2cb61e1c002aca8b3ccca1096489af;algorithm=MD5;content=DOCUMENT",
		header)
}

func TestParseSignatureHeader(t *testing.T) {
	parts, err := ParseSignatureHeader("sender=145227; signature=abc;algorithm=SHA-256;content=DOCUMENT")
	require.NoError(t, err)
	assert.Equal(t, "145227", parts.Sender)
	assert.Equal(t, "abc", parts.Signature)
	assert.Equal(t, AlgorithmSHA256, parts.Algorithm)
	assert.Equal(t, "DOCUMENT", parts.Content)

	_, err = ParseSignatureHeader("sender=145227;algorithm=MD5")
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	doc := []byte("<doc/>")

	for _, alg := range []Algorithm{AlgorithmMD5, AlgorithmSHA1, AlgorithmSHA256} {
		t.Run(string(alg), func(t *testing.T) {
			header, err := BuildSignatureHeader(doc, "145227", "key", alg)
			require.NoError(t, err)

			assert.NoError(t, VerifySignature(header, doc, "key"))
			assert.Error(t, VerifySignature(header, doc, "other-key"))
			assert.Error(t, VerifySignature(header, []byte("<tampered/>"), "key"))
		})
	}
}

func TestVerifySignature_UppercaseHex(t *testing.T) {
	header := "sender=1;signature=CA2CB61E1C002ACA8B3CCCA1096489AF;algorithm=MD5"
	assert.NoError(t, VerifySignature(header, []byte("<doc/>"), "key"))
}

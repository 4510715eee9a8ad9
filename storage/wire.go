package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Shared object data travels as a CBOR map of string keys to primitive
// values. Canonical mode keeps the encoding deterministic, so identical
// data always produces identical blobs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("storage: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeData serializes a shared object data map to CBOR bytes.
func EncodeData(data map[string]interface{}) ([]byte, error) {
	return cborEncMode.Marshal(data)
}

// DecodeData deserializes a shared object data map from CBOR bytes.
func DecodeData(raw []byte) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := cbor.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("storage: decode shared object data: %w", err)
	}
	return data, nil
}

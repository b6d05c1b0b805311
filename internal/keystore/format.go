package keystore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var addressRe = regexp.MustCompile(`(?i)^hx[0-9a-f]{40}$`)

// File is the decoded form of an ICON keystore. The encrypted key itself
// is never interpreted here.
type File struct {
	Version  int    `json:"version"`
	ID       string `json:"id"`
	Address  string `json:"address"`
	Crypto   Crypto `json:"crypto"`
	CoinType string `json:"coinType,omitempty"`
}

// Crypto is the encrypted key section.
type Crypto struct {
	Cipher       string          `json:"cipher"`
	CipherText   string          `json:"ciphertext"`
	CipherParams CipherParams    `json:"cipherparams"`
	KDF          string          `json:"kdf"`
	KDFParams    json.RawMessage `json:"kdfparams"`
	MAC          string          `json:"mac"`
}

// CipherParams holds the cipher IV.
type CipherParams struct {
	IV string `json:"iv"`
}

// ParseFile reads and validates the keystore at path.
func ParseFile(path string) (*File, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading %s: %v", ErrFilesystem, path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, data, nil
}

// Parse validates a keystore blob. The address is returned lowercased.
func Parse(data []byte) (*File, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidFormat, err)
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: missing %s", ErrInvalidFormat, field)
	}
	switch {
	case f.Address == "":
		return nil, missing("address")
	case f.Crypto.CipherText == "":
		return nil, missing("crypto.ciphertext")
	case f.Crypto.Cipher == "":
		return nil, missing("crypto.cipher")
	case f.Crypto.CipherParams.IV == "":
		return nil, missing("crypto.cipherparams.iv")
	case f.Crypto.KDF == "":
		return nil, missing("crypto.kdf")
	case len(f.Crypto.KDFParams) == 0:
		return nil, missing("crypto.kdfparams")
	case f.Crypto.MAC == "":
		return nil, missing("crypto.mac")
	}

	if !bytes.HasPrefix(bytes.TrimSpace(f.Crypto.KDFParams), []byte("{")) {
		return nil, fmt.Errorf("%w: crypto.kdfparams is not an object", ErrInvalidFormat)
	}
	if !addressRe.MatchString(f.Address) {
		return nil, fmt.Errorf("%w: address %q is not an ICON wallet address", ErrInvalidFormat, f.Address)
	}
	if f.CoinType != "" && !strings.EqualFold(f.CoinType, "icx") {
		return nil, fmt.Errorf("%w: coinType %q is not icx", ErrInvalidFormat, f.CoinType)
	}
	f.Address = strings.ToLower(f.Address)
	return &f, nil
}

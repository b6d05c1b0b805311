// Package wallet decrypts ICON keystores into signing handles.
package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/Mohsinsiddi/icon-cli/internal/log"
)

// Errors.
var (
	ErrAuthentication  = errors.New("wrong keystore passphrase")
	ErrAddressMismatch = errors.New("keystore address does not match its key")
	ErrInvalidKeystore = errors.New("keystore cannot be decrypted")
)

// Scrypt parameters for new keystores.
const (
	StandardScryptN = keystore.StandardScryptN
	StandardScryptP = keystore.StandardScryptP
	LightScryptN    = keystore.LightScryptN
	LightScryptP    = keystore.LightScryptP
)

// Wallet is a decrypted, signing-capable key.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address string
}

// New generates a fresh key.
func New() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return FromPrivateKey(key), nil
}

// FromPrivateKey wraps an existing key.
func FromPrivateKey(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{key: key, address: AddressFromPublicKey(&key.PublicKey)}
}

// FromHex parses a hex private key, with or without 0x.
func FromHex(hexKey string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return FromPrivateKey(key), nil
}

// Load reads and decrypts the keystore at path.
func Load(path, passphrase string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keystore %s: %w", path, err)
	}
	w, err := Decrypt(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Decrypt unlocks a keystore blob and checks that the recovered key
// belongs to the address the keystore declares.
func Decrypt(data []byte, passphrase string) (*Wallet, error) {
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeystore, err)
	}

	key, err := keystore.DecryptKey(data, passphrase)
	if errors.Is(err, keystore.ErrDecrypt) {
		return nil, ErrAuthentication
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeystore, err)
	}

	w := FromPrivateKey(key.PrivateKey)
	if !strings.EqualFold(w.address, header.Address) {
		return nil, fmt.Errorf("%w: declared %s, derived %s", ErrAddressMismatch, header.Address, w.address)
	}
	log.Wallet.Debug().Str("address", w.address).Msg("keystore decrypted")
	return w, nil
}

// Address returns the hx-prefixed wallet address.
func (w *Wallet) Address() string { return w.address }

// PublicKey returns the uncompressed public key.
func (w *Wallet) PublicKey() []byte { return crypto.FromECDSAPub(&w.key.PublicKey) }

// PrivateKeyHex returns the private key as lowercase hex.
func (w *Wallet) PrivateKeyHex() string { return hex.EncodeToString(crypto.FromECDSA(w.key)) }

// Sign produces a 65-byte recoverable signature (R || S || V) over a
// 32-byte hash.
func (w *Wallet) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("signing: hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	return sig, nil
}

// Encrypt serializes the wallet as an ICON keystore.
func (w *Wallet) Encrypt(passphrase string, scryptN, scryptP int) ([]byte, error) {
	return EncryptKeystore(w.key, passphrase, scryptN, scryptP)
}

// AddressFromPublicKey derives hx + the last 20 bytes of SHA3-256 over the
// uncompressed public key without its 0x04 prefix.
func AddressFromPublicKey(pub *ecdsa.PublicKey) string {
	raw := crypto.FromECDSAPub(pub)
	sum := sha3.Sum256(raw[1:])
	return "hx" + hex.EncodeToString(sum[12:])
}

// RecoverAddress returns the address that produced sig over hash.
func RecoverAddress(hash, sig []byte) (string, error) {
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", fmt.Errorf("recovering public key: %w", err)
	}
	return AddressFromPublicKey(pub), nil
}

// EncryptKeystore produces an ICON keystore: a version 3 Web3 secret
// storage blob whose address is the hx form and whose coinType is icx.
func EncryptKeystore(key *ecdsa.PrivateKey, passphrase string, scryptN, scryptP int) ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generating keystore id: %w", err)
	}
	k := &keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}
	blob, err := keystore.EncryptKey(k, passphrase, scryptN, scryptP)
	if err != nil {
		return nil, fmt.Errorf("encrypting key: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, err
	}
	doc["address"] = AddressFromPublicKey(&key.PublicKey)
	doc["coinType"] = "icx"
	return json.Marshal(doc)
}

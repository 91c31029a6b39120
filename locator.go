package aztec

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// AddressBook maps logical contract names to deployed addresses.
type AddressBook interface {
	GetAddress(name string) (Address, error)
}

// FileAddressBook reads a json object of name to hex address, as written by
// the deploy step. The file is read on every lookup and never written.
type FileAddressBook struct {
	path string
}

func NewFileAddressBook(path string) *FileAddressBook {
	return &FileAddressBook{path: path}
}

func (f *FileAddressBook) Path() string {
	return f.path
}

func (f *FileAddressBook) GetAddress(name string) (addr Address, err error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		err = errors.Wrapf(ErrNotFound, "address file '%s'", f.path)
		return
	} else if err != nil {
		err = errors.Wrapf(err, "unable to read address file '%s'", f.path)
		return
	}

	addresses := map[string]string{}
	if err = json.Unmarshal(data, &addresses); err != nil {
		err = errors.Wrapf(err, "unable to unmarshal address file '%s'", f.path)
		return
	}

	hexAddr, ok := addresses[name]
	if !ok || hexAddr == "" {
		err = errors.Wrapf(ErrNotFound, "no '%s' entry in address file '%s'", name, f.path)
		return
	}

	return ParseAddress(hexAddr)
}

// WriteAddressFile stores addresses in the format FileAddressBook reads.
func WriteAddressFile(path string, addresses map[string]Address) (err error) {
	out := make(map[string]string, len(addresses))
	for name, addr := range addresses {
		out[name] = addr.String()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal addresses")
	}

	if err = os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write address file '%s'", path)
	}

	log.Info().Msgf("wrote %d contract address(es) to %s", len(addresses), path)

	return
}

type InMemoryAddressBook struct {
	mu        sync.RWMutex
	addresses map[string]Address
}

func NewInMemoryAddressBook() *InMemoryAddressBook {
	return &InMemoryAddressBook{addresses: map[string]Address{}}
}

func (b *InMemoryAddressBook) GetAddress(name string) (Address, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	addr, ok := b.addresses[name]
	if !ok {
		return ZeroAddress, errors.Wrapf(ErrNotFound, "no '%s' entry in address book", name)
	}
	return addr, nil
}

func (b *InMemoryAddressBook) SetAddress(name string, addr Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.addresses[name] = addr
}

// Locator resolves named contracts into callable handles. It never talks
// to the PXE.
type Locator struct {
	Book      AddressBook
	Artifacts map[string]*ContractArtifact
}

// NewTokenLocator resolves the bundled token artifact against book.
func NewTokenLocator(book AddressBook) (locator *Locator, err error) {
	artifact, err := TokenContractArtifact()
	if err != nil {
		return
	}

	return &Locator{
		Book: book,
		Artifacts: map[string]*ContractArtifact{
			TokenContractName: artifact,
		},
	}, nil
}

func (l *Locator) At(name string, wallet *Wallet) (contract *Contract, err error) {
	artifact, ok := l.Artifacts[name]
	if !ok {
		err = errors.Wrapf(ErrArtifactMismatch, "no artifact bundled for '%s'", name)
		return
	}

	addr, err := l.Book.GetAddress(name)
	if err != nil {
		return
	}

	return ContractAt(addr, artifact, wallet), nil
}

func (l *Locator) Token(wallet *Wallet) (*Contract, error) {
	return l.At(TokenContractName, wallet)
}

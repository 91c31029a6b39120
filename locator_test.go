package aztec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFileAddressBook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "addresses.json")
	book := NewFileAddressBook(path)
	assert.Equal(t, path, book.Path())

	_, err := book.GetAddress(TokenContractName)
	assert.True(t, errors.Is(err, ErrNotFound), "missing file should be not found")

	token := Address(NewFr(0xc0de))
	err = WriteAddressFile(path, map[string]Address{TokenContractName: token})
	assert.Nil(t, err)

	addr, err := book.GetAddress(TokenContractName)
	assert.Nil(t, err)
	assert.Equal(t, token, addr)

	_, err = book.GetAddress("nft")
	assert.True(t, errors.Is(err, ErrNotFound), "missing entry should be not found")

	err = os.WriteFile(path, []byte(`{"token":"0xnope"}`), 0o644)
	assert.Nil(t, err)
	_, err = book.GetAddress(TokenContractName)
	assert.True(t, errors.Is(err, ErrInvalidAddress))

	err = os.WriteFile(path, []byte(`[`), 0o644)
	assert.Nil(t, err)
	_, err = book.GetAddress(TokenContractName)
	assert.Error(t, err)
}

func TestLocator_Token(t *testing.T) {
	pxe := &scriptedPXE{}
	wallet := NewWallet(pxe, Address(NewFr(1)))

	book := NewInMemoryAddressBook()
	locator, err := NewTokenLocator(book)
	assert.Nil(t, err)

	_, err = locator.Token(wallet)
	assert.True(t, errors.Is(err, ErrNotFound))

	book.SetAddress(TokenContractName, Address(NewFr(0xc0de)))

	token, err := locator.Token(wallet)
	assert.Nil(t, err)
	assert.Equal(t, Address(NewFr(0xc0de)), token.Address)
	assert.Equal(t, "Token", token.Artifact.Name)
	assert.Equal(t, wallet, token.Wallet())

	_, err = locator.At("nft", wallet)
	assert.True(t, errors.Is(err, ErrArtifactMismatch))

	assert.Equal(t, 0, pxe.calls, "locating a contract must not touch the pxe")
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	. "github.com/alexdcox/aztec-go"
)

var log = Log()

var (
	address   string
	addresses string
)

func main() {
	flag.StringVar(&address, "address", "", "The hex address to decode")
	flag.StringVar(&addresses, "addresses", "", "Decode every entry of an addresses file instead")
	flag.Parse()

	if address == "" && addresses == "" {
		fmt.Println("usage: addr-decode --address HEX | --addresses FILE")
		os.Exit(1)
	}

	if address != "" {
		decode("address", strings.Trim(address, " \""))
		return
	}

	data, err := os.ReadFile(addresses)
	if err != nil {
		log.Fatal().Msgf("unable to read address file '%s': %v", addresses, err)
	}

	entries := map[string]string{}
	if err = json.Unmarshal(data, &entries); err != nil {
		log.Fatal().Msgf("unable to unmarshal address file '%s': %v", addresses, err)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	book := NewFileAddressBook(addresses)
	for _, name := range names {
		addr, err2 := book.GetAddress(name)
		if err2 != nil {
			fmt.Printf("%-18s failed / invalid (%v)\n\n", name+":", err2)
			continue
		}
		decode(name, addr.String())
	}
}

func decode(name, hexAddress string) {
	fmt.Printf("\ndecoding %s:  %s\n\n", name, hexAddress)

	addr, err := ParseAddress(hexAddress)
	if err != nil {
		fmt.Printf("failed / invalid (%v)\n\n", err)
		return
	}

	fmt.Printf("addr (hex):        %s\n", addr)
	fmt.Printf("addr (decimal):    %s\n", addr.Fr().BigInt())
	fmt.Printf("zero:              %t\n\n", addr.IsZero())
}

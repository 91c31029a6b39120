package aztec

import (
	"fmt"
)

// LogID locates a log within the chain.
type LogID struct {
	BlockNumber uint64 `json:"blockNumber"`
	TxIndex     int    `json:"txIndex"`
	LogIndex    int    `json:"logIndex"`
}

func (id LogID) String() string {
	return fmt.Sprintf("%d-%d-%d", id.BlockNumber, id.TxIndex, id.LogIndex)
}

type UnencryptedL2Log struct {
	ContractAddress Address          `json:"contractAddress"`
	Selector        FunctionSelector `json:"selector"`
	Data            HexBytes         `json:"data"`
}

type ExtendedUnencryptedL2Log struct {
	ID  LogID            `json:"id"`
	Log UnencryptedL2Log `json:"log"`
}

func (l *ExtendedUnencryptedL2Log) ToHumanReadable() string {
	return fmt.Sprintf(
		"%s UnencryptedL2Log(contractAddress: %s, selector: %s, data: %s)",
		l.ID,
		l.Log.ContractAddress,
		l.Log.Selector,
		PrintableString(l.Log.Data))
}

// LogFilter selects logs in [FromBlock, ToBlock). A zero ToBlock means no
// upper bound, a zero Limit means the node default.
type LogFilter struct {
	FromBlock       uint64   `json:"fromBlock,omitempty"`
	ToBlock         uint64   `json:"toBlock,omitempty"`
	ContractAddress *Address `json:"contractAddress,omitempty"`
	Limit           int      `json:"limit,omitempty"`
}

func (f LogFilter) Matches(l *ExtendedUnencryptedL2Log) bool {
	if l.ID.BlockNumber < f.FromBlock {
		return false
	}
	if f.ToBlock != 0 && l.ID.BlockNumber >= f.ToBlock {
		return false
	}
	if f.ContractAddress != nil && *f.ContractAddress != l.Log.ContractAddress {
		return false
	}
	return true
}

type GetUnencryptedLogsResponse struct {
	Logs       []ExtendedUnencryptedL2Log `json:"logs"`
	MaxLogsHit bool                       `json:"maxLogsHit"`
}

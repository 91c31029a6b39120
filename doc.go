/*
Package aztec drives a private execution environment (PXE) over JSON-RPC,
with the intention of exercising a token contract's private and public
mint/transfer flows from Go.

Proving, note encryption and contract execution all happen on the remote
PXE and node. This package only models the values that cross the wire
(field elements, addresses, notes, receipts, logs), resolves deployed
contracts from a local address file and encodes calls against a bundled
contract artifact.
*/

package aztec

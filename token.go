package aztec

import (
	_ "embed"
)

const (
	TokenContractName = "token"

	TokenPendingShieldsSlot = "pending_shields"
	TokenTransparentNote    = "TransparentNote"
)

//go:embed artifacts/token-Token.json
var tokenArtifactJson []byte

// TokenContractArtifact parses the bundled token artifact.
func TokenContractArtifact() (*ContractArtifact, error) {
	return LoadContractArtifact(tokenArtifactJson)
}

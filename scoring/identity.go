package scoring

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseIdentity validates a 0x-prefixed 20 byte hex address and rejects the
// zero address.
func ParseIdentity(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, ErrInvalidIdentity
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidIdentity
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, ErrInvalidIdentity
	}
	return addr, nil
}
